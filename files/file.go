/*
 * file.go, part of gochemfiles.
 *
 * Copyright 2024 The gochemfiles developers
 *
 * This program is free software; you can redistribute it and/or modify
 * it under the terms of the GNU Lesser General Public License as
 * published by the Free Software Foundation; either version 2.1 of the
 * License, or (at your option) any later version.
 *
 * This program is distributed in the hope that it will be useful,
 * but WITHOUT ANY WARRANTY; without even the implied warranty of
 * MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
 * GNU General Public License for more details.
 *
 * You should have received a copy of the GNU Lesser General
 * Public License along with this program.  If not, see
 * <http://www.gnu.org/licenses/>.
 *
 */

//Package files provides positioned byte-stream access to trajectory files,
//transparently handling gzip, xz and bzip2 compression, plus an XDR view
//for the big-endian binary formats.
package files

import (
	"bufio"
	"fmt"
	"io"
	"os"

	"github.com/dsnet/compress/bzip2"
	"github.com/klauspost/compress/gzip"
	"github.com/ulikunitz/xz"

	chemfiles "github.com/chemfiles/gochemfiles"
)

//File is a byte-stream with a logical position. For compressed files the
//position is a position in the decompressed stream, and backward seeks are
//emulated by rewinding the underlying file and re-opening the decompressor.
type File struct {
	path string
	mode chemfiles.Mode
	comp chemfiles.Compression

	f *os.File

	//read state
	r   *bufio.Reader
	dec io.Closer //decompression layer needing Close, when there is one
	pos int64     //logical read position

	//write state
	w    *bufio.Writer
	enc  io.WriteCloser //compression layer, nil for plain files
	wpos int64          //logical write position

	writing bool //append-mode files switch to writing on the first write
	closed  bool
}

// Open opens path in the given mode and compression. Append combined with
// any compression fails with an unsupported-mode error, since compressed
// streams can not be repositioned for writing.
func Open(path string, mode chemfiles.Mode, comp chemfiles.Compression) (*File, error) {
	if mode == chemfiles.Append && comp != chemfiles.NoCompression {
		return nil, chemfiles.NewError(chemfiles.ErrUnsupportedMode,
			"can not append to a %v compressed file", comp).WithPath(path)
	}
	file := &File{path: path, mode: mode, comp: comp}
	var err error
	switch mode {
	case chemfiles.Read:
		file.f, err = os.Open(path)
		if err != nil {
			return nil, chemfiles.IOError(path, err)
		}
		if err = file.resetReader(); err != nil {
			file.f.Close()
			return nil, err
		}
	case chemfiles.Write:
		file.f, err = os.Create(path)
		if err != nil {
			return nil, chemfiles.IOError(path, err)
		}
		file.setupWriter()
	case chemfiles.Append:
		file.f, err = os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0666)
		if err != nil {
			return nil, chemfiles.IOError(path, err)
		}
		file.r = bufio.NewReader(file.f)
	}
	return file, nil
}

//resetReader rewinds the underlying file and rebuilds the decompression
//chain, leaving the logical position at 0.
func (f *File) resetReader() error {
	if _, err := f.f.Seek(0, io.SeekStart); err != nil {
		return chemfiles.IOError(f.path, err)
	}
	if f.dec != nil {
		f.dec.Close()
		f.dec = nil
	}
	raw := bufio.NewReader(f.f)
	switch f.comp {
	case chemfiles.NoCompression:
		f.r = raw
	case chemfiles.Gzip:
		zr, err := gzip.NewReader(raw)
		if err != nil {
			return chemfiles.NewError(chemfiles.ErrFormat, "invalid gzip stream: %v", err).WithPath(f.path)
		}
		f.dec = zr
		f.r = bufio.NewReader(zr)
	case chemfiles.Xz:
		xr, err := xz.NewReader(raw)
		if err != nil {
			return chemfiles.NewError(chemfiles.ErrFormat, "invalid xz stream: %v", err).WithPath(f.path)
		}
		f.r = bufio.NewReader(xr)
	case chemfiles.Bzip2:
		br, err := bzip2.NewReader(raw, nil)
		if err != nil {
			return chemfiles.NewError(chemfiles.ErrFormat, "invalid bzip2 stream: %v", err).WithPath(f.path)
		}
		f.dec = br
		f.r = bufio.NewReader(br)
	}
	f.pos = 0
	return nil
}

func (f *File) setupWriter() {
	bw := bufio.NewWriter(f.f)
	f.w = bw
	switch f.comp {
	case chemfiles.Gzip:
		f.enc = gzip.NewWriter(bw)
	case chemfiles.Xz:
		xw, err := xz.NewWriter(bw)
		if err == nil {
			f.enc = xw
		}
	case chemfiles.Bzip2:
		zw, err := bzip2.NewWriter(bw, nil)
		if err == nil {
			f.enc = zw
		}
	}
	f.writing = true
}

// Path returns the path the file was opened with.
func (f *File) Path() string { return f.path }

// Mode returns the open mode of the file.
func (f *File) Mode() chemfiles.Mode { return f.mode }

//target returns the sink for write operations, switching an append-mode
//file to writing at the end of the existing data on first use.
func (f *File) target() (io.Writer, error) {
	if f.mode == chemfiles.Read {
		return nil, chemfiles.NewError(chemfiles.ErrMode, "the file was opened read-only").WithPath(f.path)
	}
	if !f.writing {
		//append mode: reads are over, move to the end for good.
		if _, err := f.f.Seek(0, io.SeekEnd); err != nil {
			return nil, chemfiles.IOError(f.path, err)
		}
		f.r = nil
		f.setupWriter()
	}
	if f.enc != nil {
		return f.enc, nil
	}
	return f.w, nil
}

// WriteBytes writes b at the current write position.
func (f *File) WriteBytes(b []byte) error {
	w, err := f.target()
	if err != nil {
		return err
	}
	n, err := w.Write(b)
	f.wpos += int64(n)
	if err != nil {
		return chemfiles.IOError(f.path, err)
	}
	return nil
}

// Printf writes a formatted string at the current write position.
func (f *File) Printf(format string, args ...interface{}) error {
	w, err := f.target()
	if err != nil {
		return err
	}
	n, err := io.WriteString(w, fmt.Sprintf(format, args...))
	f.wpos += int64(n)
	if err != nil {
		return chemfiles.IOError(f.path, err)
	}
	return nil
}

// ReadBytes reads exactly n bytes from the current read position. Hitting
// the end of the file before n bytes is an io error.
func (f *File) ReadBytes(n int) ([]byte, error) {
	if err := f.readable(); err != nil {
		return nil, err
	}
	buf := make([]byte, n)
	got, err := io.ReadFull(f.r, buf)
	f.pos += int64(got)
	if err != nil {
		return nil, eofToIO(f.path, err)
	}
	return buf, nil
}

// ReadLine reads one line, without the trailing newline. A final line
// missing its newline is still returned; a read at the very end of the file
// is an io error.
func (f *File) ReadLine() (string, error) {
	if err := f.readable(); err != nil {
		return "", err
	}
	line, err := f.r.ReadString('\n')
	f.pos += int64(len(line))
	if err != nil && (err != io.EOF || line == "") {
		return "", eofToIO(f.path, err)
	}
	for len(line) > 0 && (line[len(line)-1] == '\n' || line[len(line)-1] == '\r') {
		line = line[:len(line)-1]
	}
	return line, nil
}

// EOF reports whether the read position is at the end of the stream.
func (f *File) EOF() bool {
	if f.r == nil {
		return true
	}
	_, err := f.r.Peek(1)
	return err != nil
}

// Tell returns the current logical position: the read position in read and
// append mode while scanning, the number of bytes written otherwise.
func (f *File) Tell() int64 {
	if f.writing {
		return f.wpos
	}
	return f.pos
}

// FileSize returns the on-disk size of a plain file. For compressed files
// the decompressed length is not known without scanning, so it fails with
// an unsupported-mode error.
func (f *File) FileSize() (int64, error) {
	if f.comp != chemfiles.NoCompression {
		return 0, chemfiles.NewError(chemfiles.ErrUnsupportedMode,
			"no size for a %v compressed file", f.comp).WithPath(f.path)
	}
	if err := f.Flush(); err != nil {
		return 0, err
	}
	info, err := f.f.Stat()
	if err != nil {
		return 0, chemfiles.IOError(f.path, err)
	}
	return info.Size(), nil
}

// Seek repositions the read side to the logical position pos. On compressed
// files a backward seek rewinds and re-decompresses from the start. Seeking
// past the end fails with a range error.
func (f *File) Seek(pos int64) error {
	if err := f.readable(); err != nil {
		return err
	}
	if pos < 0 {
		return chemfiles.NewError(chemfiles.ErrRange, "can not seek to negative position %d", pos).WithPath(f.path)
	}
	if f.comp == chemfiles.NoCompression {
		// sized with Stat so a rejected seek leaves the descriptor alone
		info, err := f.f.Stat()
		if err != nil {
			return chemfiles.IOError(f.path, err)
		}
		if size := info.Size(); pos > size {
			return chemfiles.NewError(chemfiles.ErrRange,
				"can not seek to %d in a file of %d bytes", pos, size).WithPath(f.path)
		}
		if _, err := f.f.Seek(pos, io.SeekStart); err != nil {
			return chemfiles.IOError(f.path, err)
		}
		f.r.Reset(f.f)
		f.pos = pos
		return nil
	}
	if pos < f.pos {
		if err := f.resetReader(); err != nil {
			return err
		}
	}
	if pos > f.pos {
		n, err := io.CopyN(io.Discard, f.r, pos-f.pos)
		f.pos += n
		if err != nil {
			if err == io.EOF {
				return chemfiles.NewError(chemfiles.ErrRange,
					"can not seek to %d, past the end of the file", pos).WithPath(f.path)
			}
			return chemfiles.IOError(f.path, err)
		}
	}
	return nil
}

// Rewind brings the read position back to the start of the stream.
func (f *File) Rewind() error {
	if f.comp == chemfiles.NoCompression {
		return f.Seek(0)
	}
	if err := f.readable(); err != nil {
		return err
	}
	return f.resetReader()
}

func (f *File) readable() error {
	if f.writing || f.r == nil {
		return chemfiles.NewError(chemfiles.ErrMode, "the file is not open for reading").WithPath(f.path)
	}
	return nil
}

// Flush pushes buffered writes down to the operating system. Compressed
// data is only complete after Close.
func (f *File) Flush() error {
	if f.w == nil {
		return nil
	}
	type flusher interface{ Flush() error }
	if fl, ok := f.enc.(flusher); ok {
		if err := fl.Flush(); err != nil {
			return chemfiles.IOError(f.path, err)
		}
	}
	if err := f.w.Flush(); err != nil {
		return chemfiles.IOError(f.path, err)
	}
	return nil
}

// Close flushes and closes the file. It is idempotent.
func (f *File) Close() error {
	if f.closed {
		return nil
	}
	f.closed = true
	var first error
	keep := func(err error) {
		if err != nil && first == nil {
			first = chemfiles.IOError(f.path, err)
		}
	}
	if f.enc != nil {
		keep(f.enc.Close())
	}
	if f.w != nil {
		keep(f.w.Flush())
	}
	if f.dec != nil {
		keep(f.dec.Close())
	}
	keep(f.f.Close())
	return first
}

//eofToIO maps the EOF errors of the io package to the library's io kind,
//naming the file.
func eofToIO(path string, err error) error {
	if err == io.EOF || err == io.ErrUnexpectedEOF {
		return chemfiles.NewError(chemfiles.ErrIO, "unexpected end of file").WithPath(path)
	}
	return chemfiles.IOError(path, err)
}
