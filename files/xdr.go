/*
 * xdr.go, part of gochemfiles.
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

package files

import (
	"encoding/binary"
	"io"
	"math"
	"os"

	chemfiles "github.com/chemfiles/gochemfiles"
)

//XDRFile is a positioned view over a plain binary file with big-endian,
//4-byte aligned typed reads and writes, as used by the GROMACS formats.
//Whether a float is 4 or 8 bytes on disk is chosen per call, since the TRR
//format mixes both precisions between records of the same file.
type XDRFile struct {
	path   string
	mode   chemfiles.Mode
	f      *os.File
	closed bool
}

// OpenXDR opens path for XDR access. Compression is not supported: these
// formats address records by byte offset.
func OpenXDR(path string, mode chemfiles.Mode) (*XDRFile, error) {
	var f *os.File
	var err error
	switch mode {
	case chemfiles.Read:
		f, err = os.Open(path)
	case chemfiles.Write:
		f, err = os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0666)
	case chemfiles.Append:
		f, err = os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0666)
	}
	if err != nil {
		return nil, chemfiles.IOError(path, err)
	}
	return &XDRFile{path: path, mode: mode, f: f}, nil
}

// Path returns the path the file was opened with.
func (x *XDRFile) Path() string { return x.path }

// Mode returns the open mode of the file.
func (x *XDRFile) Mode() chemfiles.Mode { return x.mode }

// Tell returns the current byte offset.
func (x *XDRFile) Tell() (int64, error) {
	pos, err := x.f.Seek(0, io.SeekCurrent)
	if err != nil {
		return 0, chemfiles.IOError(x.path, err)
	}
	return pos, nil
}

// Seek moves the offset to pos bytes from the start of the file.
func (x *XDRFile) Seek(pos int64) error {
	if _, err := x.f.Seek(pos, io.SeekStart); err != nil {
		return chemfiles.IOError(x.path, err)
	}
	return nil
}

// SeekEnd moves the offset to the end of the file and returns it.
func (x *XDRFile) SeekEnd() (int64, error) {
	pos, err := x.f.Seek(0, io.SeekEnd)
	if err != nil {
		return 0, chemfiles.IOError(x.path, err)
	}
	return pos, nil
}

// Skip advances the offset by n bytes without reading them.
func (x *XDRFile) Skip(n int64) error {
	if _, err := x.f.Seek(n, io.SeekCurrent); err != nil {
		return chemfiles.IOError(x.path, err)
	}
	return nil
}

// FileSize returns the total size of the file in bytes.
func (x *XDRFile) FileSize() (int64, error) {
	st, err := x.f.Stat()
	if err != nil {
		return 0, chemfiles.IOError(x.path, err)
	}
	return st.Size(), nil
}

// Truncate cuts the file down to size bytes. The offset is left at the new
// end. It is the rollback primitive for failed frame writes.
func (x *XDRFile) Truncate(size int64) error {
	if err := x.f.Truncate(size); err != nil {
		return chemfiles.IOError(x.path, err)
	}
	return x.Seek(size)
}

// ReadBytes reads exactly n bytes from the current offset.
func (x *XDRFile) ReadBytes(n int) ([]byte, error) {
	buf := make([]byte, n)
	if _, err := io.ReadFull(x.f, buf); err != nil {
		return nil, eofToIO(x.path, err)
	}
	return buf, nil
}

// WriteBytes writes b at the current offset.
func (x *XDRFile) WriteBytes(b []byte) error {
	if _, err := x.f.Write(b); err != nil {
		return chemfiles.IOError(x.path, err)
	}
	return nil
}

// ReadI32 reads one big-endian 32-bit signed integer.
func (x *XDRFile) ReadI32() (int32, error) {
	b, err := x.ReadBytes(4)
	if err != nil {
		return 0, err
	}
	return int32(binary.BigEndian.Uint32(b)), nil
}

// ReadU32 reads one big-endian 32-bit unsigned integer.
func (x *XDRFile) ReadU32() (uint32, error) {
	b, err := x.ReadBytes(4)
	if err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint32(b), nil
}

// ReadI64 reads one big-endian 64-bit signed integer.
func (x *XDRFile) ReadI64() (int64, error) {
	b, err := x.ReadBytes(8)
	if err != nil {
		return 0, err
	}
	return int64(binary.BigEndian.Uint64(b)), nil
}

// ReadF32 reads one big-endian 32-bit float.
func (x *XDRFile) ReadF32() (float32, error) {
	b, err := x.ReadBytes(4)
	if err != nil {
		return 0, err
	}
	return math.Float32frombits(binary.BigEndian.Uint32(b)), nil
}

// ReadF64 reads one big-endian 64-bit float.
func (x *XDRFile) ReadF64() (float64, error) {
	b, err := x.ReadBytes(8)
	if err != nil {
		return 0, err
	}
	return math.Float64frombits(binary.BigEndian.Uint64(b)), nil
}

// ReadFloat reads one float of the requested on-disk precision, widened to
// float64.
func (x *XDRFile) ReadFloat(double bool) (float64, error) {
	if double {
		return x.ReadF64()
	}
	v, err := x.ReadF32()
	return float64(v), err
}

// ReadFloats fills dst with floats of the requested on-disk precision.
func (x *XDRFile) ReadFloats(dst []float64, double bool) error {
	width := 4
	if double {
		width = 8
	}
	buf, err := x.ReadBytes(len(dst) * width)
	if err != nil {
		return err
	}
	if double {
		for i := range dst {
			dst[i] = math.Float64frombits(binary.BigEndian.Uint64(buf[8*i:]))
		}
	} else {
		for i := range dst {
			dst[i] = float64(math.Float32frombits(binary.BigEndian.Uint32(buf[4*i:])))
		}
	}
	return nil
}

//pad returns the number of bytes needed to reach 4-byte alignment after n.
func pad(n int) int {
	if r := n % 4; r != 0 {
		return 4 - r
	}
	return 0
}

// ReadOpaque reads n bytes of opaque data plus its alignment padding.
func (x *XDRFile) ReadOpaque(n int) ([]byte, error) {
	buf, err := x.ReadBytes(n)
	if err != nil {
		return nil, err
	}
	if p := pad(n); p != 0 {
		if err := x.Skip(int64(p)); err != nil {
			return nil, err
		}
	}
	return buf, nil
}

// SkipOpaque skips n bytes of opaque data plus its alignment padding.
func (x *XDRFile) SkipOpaque(n int) error {
	return x.Skip(int64(n + pad(n)))
}

// ReadString reads an XDR string: a u32 byte count followed by the bytes
// and their alignment padding. A count larger than the remaining file is
// rejected before allocating anything.
func (x *XDRFile) ReadString() (string, error) {
	n, err := x.ReadU32()
	if err != nil {
		return "", err
	}
	size, err := x.FileSize()
	if err != nil {
		return "", err
	}
	pos, err := x.Tell()
	if err != nil {
		return "", err
	}
	if int64(n) > size-pos {
		return "", chemfiles.NewError(chemfiles.ErrFormat,
			"string of %d bytes declared with only %d bytes left in the file",
			n, size-pos).WithPath(x.path)
	}
	b, err := x.ReadOpaque(int(n))
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// WriteI32 writes one big-endian 32-bit signed integer.
func (x *XDRFile) WriteI32(v int32) error {
	var b [4]byte
	binary.BigEndian.PutUint32(b[:], uint32(v))
	return x.WriteBytes(b[:])
}

// WriteU32 writes one big-endian 32-bit unsigned integer.
func (x *XDRFile) WriteU32(v uint32) error {
	var b [4]byte
	binary.BigEndian.PutUint32(b[:], v)
	return x.WriteBytes(b[:])
}

// WriteF32 writes one big-endian 32-bit float.
func (x *XDRFile) WriteF32(v float32) error {
	var b [4]byte
	binary.BigEndian.PutUint32(b[:], math.Float32bits(v))
	return x.WriteBytes(b[:])
}

// WriteF64 writes one big-endian 64-bit float.
func (x *XDRFile) WriteF64(v float64) error {
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], math.Float64bits(v))
	return x.WriteBytes(b[:])
}

// WriteFloat writes one float at the requested on-disk precision.
func (x *XDRFile) WriteFloat(v float64, double bool) error {
	if double {
		return x.WriteF64(v)
	}
	return x.WriteF32(float32(v))
}

// WriteFloats writes all of src at the requested on-disk precision.
func (x *XDRFile) WriteFloats(src []float64, double bool) error {
	width := 4
	if double {
		width = 8
	}
	buf := make([]byte, len(src)*width)
	if double {
		for i, v := range src {
			binary.BigEndian.PutUint64(buf[8*i:], math.Float64bits(v))
		}
	} else {
		for i, v := range src {
			binary.BigEndian.PutUint32(buf[4*i:], math.Float32bits(float32(v)))
		}
	}
	return x.WriteBytes(buf)
}

// WriteOpaque writes b followed by its alignment padding.
func (x *XDRFile) WriteOpaque(b []byte) error {
	if err := x.WriteBytes(b); err != nil {
		return err
	}
	if p := pad(len(b)); p != 0 {
		return x.WriteBytes(make([]byte, p))
	}
	return nil
}

// WriteString writes an XDR string: u32 byte count, bytes, padding.
func (x *XDRFile) WriteString(s string) error {
	if err := x.WriteU32(uint32(len(s))); err != nil {
		return err
	}
	return x.WriteOpaque([]byte(s))
}

// Flush pushes the written data to stable storage.
func (x *XDRFile) Flush() error {
	if x.mode == chemfiles.Read {
		return nil
	}
	if err := x.f.Sync(); err != nil {
		return chemfiles.IOError(x.path, err)
	}
	return nil
}

// Close closes the file. It is idempotent.
func (x *XDRFile) Close() error {
	if x.closed {
		return nil
	}
	x.closed = true
	if err := x.f.Close(); err != nil {
		return chemfiles.IOError(x.path, err)
	}
	return nil
}
