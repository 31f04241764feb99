/*
 * header.go, part of gochemfiles.
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
 * You should have received a copy of the GNU Lesser General Public
 * License along with this program.  If not, see
 * <http://www.gnu.org/licenses/>.
 *
 */

package nc

import (
	"encoding/binary"
	"io"
	"os"

	chemfiles "github.com/chemfiles/gochemfiles"
)

// NetCDF classic type and tag constants, from the CDF file format
// specification.
const (
	ncByte   = 1
	ncChar   = 2
	ncShort  = 3
	ncInt    = 4
	ncFloat  = 5
	ncDouble = 6

	tagDimension = 0x0A
	tagVariable  = 0x0B
	tagAttribute = 0x0C
)

// numrecsOffset is where the record count lives in a CDF file, right
// after the four magic bytes.
const numrecsOffset = 4

func ncTypeSize(t int32) int64 {
	switch t {
	case ncByte, ncChar:
		return 1
	case ncShort:
		return 2
	case ncInt, ncFloat:
		return 4
	case ncDouble:
		return 8
	}
	return 0
}

type cdfDim struct {
	name string
	size int32 //0 marks the record dimension
}

type cdfVar struct {
	name   string
	dimids []int
	ncType int32
	vsize  int64
	begin  int64
	record bool //first dimension is the record dimension
}

// cdfLayout is what appending records needs to know about an existing
// CDF file: where each record variable's data lives and how big one
// record is.
type cdfLayout struct {
	version byte //1 for classic, 2 for 64-bit offsets
	numrecs int64
	dims    []cdfDim
	gatts   map[string]string //text attributes only
	vars    []cdfVar
	recSize int64
}

func (l *cdfLayout) variable(name string) *cdfVar {
	for i := range l.vars {
		if l.vars[i].name == name {
			return &l.vars[i]
		}
	}
	return nil
}

func (l *cdfLayout) dimSize(name string) (int, bool) {
	for _, d := range l.dims {
		if d.name == name {
			return int(d.size), true
		}
	}
	return 0, false
}

// recordOffset returns the file offset of variable v's data in record r.
func (l *cdfLayout) recordOffset(v *cdfVar, r int64) int64 {
	return v.begin + r*l.recSize
}

// cdfScanner reads the header of a CDF file sequentially.
type cdfScanner struct {
	r    io.Reader
	path string
	err  error
}

func (s *cdfScanner) fail(err error) {
	if s.err == nil {
		s.err = err
	}
}

func (s *cdfScanner) format(msg string, args ...interface{}) {
	s.fail(chemfiles.NewError(chemfiles.ErrFormat, msg, args...).WithPath(s.path))
}

func (s *cdfScanner) bytes(n int) []byte {
	if s.err != nil {
		return nil
	}
	buf := make([]byte, n)
	if _, err := io.ReadFull(s.r, buf); err != nil {
		s.format("truncated NetCDF header")
		return nil
	}
	return buf
}

func (s *cdfScanner) i32() int32 {
	b := s.bytes(4)
	if b == nil {
		return 0
	}
	return int32(binary.BigEndian.Uint32(b))
}

func (s *cdfScanner) i64() int64 {
	b := s.bytes(8)
	if b == nil {
		return 0
	}
	return int64(binary.BigEndian.Uint64(b))
}

// name reads a length-prefixed string padded to 4 bytes.
func (s *cdfScanner) name() string {
	n := s.i32()
	if s.err != nil || n < 0 {
		return ""
	}
	b := s.bytes(int(n))
	s.bytes(padding(int64(n)))
	if b == nil {
		return ""
	}
	return string(b)
}

func padding(n int64) int {
	if r := n % 4; r != 0 {
		return int(4 - r)
	}
	return 0
}

// list reads a tag + count pair. An absent list is encoded as two zero
// words.
func (s *cdfScanner) list(tag int32) int {
	got := s.i32()
	n := s.i32()
	if s.err != nil {
		return 0
	}
	if got == 0 && n == 0 {
		return 0
	}
	if got != tag {
		s.format("bad NetCDF header tag: expected %#x, got %#x", tag, got)
		return 0
	}
	return int(n)
}

// attributes reads an attribute list, keeping only the text ones.
func (s *cdfScanner) attributes() map[string]string {
	atts := make(map[string]string)
	n := s.list(tagAttribute)
	for i := 0; i < n && s.err == nil; i++ {
		name := s.name()
		typ := s.i32()
		count := s.i32()
		if s.err != nil {
			break
		}
		size := ncTypeSize(typ) * int64(count)
		if size == 0 && count != 0 {
			s.format("unknown NetCDF attribute type %d", typ)
			break
		}
		raw := s.bytes(int(size))
		s.bytes(padding(size))
		if typ == ncChar && raw != nil {
			atts[name] = string(raw)
		}
	}
	return atts
}

// readLayout parses the header of an open CDF file. The file position is
// left unspecified.
func readLayout(f *os.File, path string) (*cdfLayout, error) {
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return nil, chemfiles.IOError(path, err)
	}
	s := &cdfScanner{r: f, path: path}
	magic := s.bytes(4)
	if s.err != nil {
		return nil, s.err
	}
	if magic[0] != 'C' || magic[1] != 'D' || magic[2] != 'F' {
		return nil, chemfiles.NewError(chemfiles.ErrFormat,
			"not a NetCDF classic file").WithPath(path)
	}
	l := &cdfLayout{version: magic[3]}
	if l.version != 1 && l.version != 2 {
		return nil, chemfiles.NewError(chemfiles.ErrFormat,
			"unsupported NetCDF classic version %d", magic[3]).WithPath(path)
	}
	numrecs := s.i32()
	if numrecs < 0 {
		// -1 means a streaming file with an unknown record count.
		return nil, chemfiles.NewError(chemfiles.ErrFormat,
			"NetCDF streaming files are not supported").WithPath(path)
	}
	l.numrecs = int64(numrecs)
	ndims := s.list(tagDimension)
	for i := 0; i < ndims && s.err == nil; i++ {
		name := s.name()
		size := s.i32()
		l.dims = append(l.dims, cdfDim{name: name, size: size})
	}
	l.gatts = s.attributes()
	nvars := s.list(tagVariable)
	for i := 0; i < nvars && s.err == nil; i++ {
		v := cdfVar{name: s.name()}
		nd := s.i32()
		for j := int32(0); j < nd && s.err == nil; j++ {
			v.dimids = append(v.dimids, int(s.i32()))
		}
		s.attributes() //variable attributes are not needed for appending
		v.ncType = s.i32()
		v.vsize = int64(s.i32())
		if l.version == 2 {
			v.begin = s.i64()
		} else {
			v.begin = int64(s.i32())
		}
		if len(v.dimids) > 0 && v.dimids[0] < len(l.dims) && l.dims[v.dimids[0]].size == 0 {
			v.record = true
			l.recSize += v.vsize
		}
		l.vars = append(l.vars, v)
	}
	if s.err != nil {
		return nil, s.err
	}
	return l, nil
}
