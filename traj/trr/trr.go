/*
 * trr.go, part of gochemfiles.
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

// Package trr reads and writes GROMACS TRR trajectories.
//
// TRR is a sequence of XDR (big-endian) records, each a header followed
// by the arrays it announces: box, positions, velocities and forces. The
// on-disk units are nm, nm/ps and ps; they are converted to Å, Å/ps and
// ps in memory. Files can mix single and double precision frames; the
// precision of each frame is detected from its header. New frames are
// written in double precision unless WithSinglePrecision is given.
package trr

import (
	"fmt"

	chemfiles "github.com/chemfiles/gochemfiles"
	"github.com/chemfiles/gochemfiles/files"
	"gonum.org/v1/gonum/mat"
)

const (
	trrMagic   = 1993
	trrVersion = "GMX_trn_file"
	// Å per nm
	nm2ang = 10.0
)

func init() {
	chemfiles.Register(chemfiles.Metadata{
		Name:        "TRR",
		Extension:   ".trr",
		Description: "GROMACS TRR binary format",
		Open: func(path string, mode chemfiles.Mode, comp chemfiles.Compression) (chemfiles.Format, error) {
			if comp != chemfiles.NoCompression {
				return nil, chemfiles.NewError(chemfiles.ErrUnsupportedMode,
					"TRR files can not be %v compressed", comp).WithPath(path)
			}
			return Open(path, mode)
		},
	})
}

// Option configures a TRR file at open time.
type Option func(*File)

// WithSinglePrecision makes new frames use 4-byte reals on disk instead
// of 8-byte ones. Reading is unaffected.
func WithSinglePrecision() Option {
	return func(f *File) { f.single = true }
}

// File is an open TRR trajectory. It implements chemfiles.Format.
type File struct {
	x      *files.XDRFile
	path   string
	mode   chemfiles.Mode
	index  []int64 //byte offset of each frame header
	natoms int     //fixed by the first frame, zero until then
	cursor int
	single bool
}

// Open opens a TRR file. In Read and Append mode the whole file is
// scanned once to index the frame offsets, as records have no fixed size.
func Open(path string, mode chemfiles.Mode, opts ...Option) (*File, error) {
	x, err := files.OpenXDR(path, mode)
	if err != nil {
		return nil, err
	}
	f := &File{x: x, path: path, mode: mode}
	for _, o := range opts {
		o(f)
	}
	if mode != chemfiles.Write {
		if err := f.buildIndex(); err != nil {
			x.Close()
			return nil, err
		}
	}
	if mode == chemfiles.Append {
		if _, err := x.SeekEnd(); err != nil {
			x.Close()
			return nil, err
		}
	}
	return f, nil
}

// header mirrors one TRR record header. The *Size fields are byte counts
// of the sections following the header; a zero count means the section is
// absent.
type header struct {
	double   bool
	irSize   int
	eSize    int
	boxSize  int
	virSize  int
	presSize int
	topSize  int
	symSize  int
	xSize    int
	vSize    int
	fSize    int
	natoms   int
	step     int
	nre      int
	time     float64
	lambda   float64
}

func (h *header) bodySize() int64 {
	return int64(h.irSize + h.eSize + h.boxSize + h.virSize + h.presSize +
		h.topSize + h.symSize + h.xSize + h.vSize + h.fSize)
}

// realSize infers the byte width of reals in this record from the first
// non-empty array, following how GROMACS itself does it.
func (h *header) realSize() (int, error) {
	switch {
	case h.boxSize != 0:
		return h.boxSize / 9, nil
	case h.xSize != 0:
		return h.xSize / (3 * h.natoms), nil
	case h.vSize != 0:
		return h.vSize / (3 * h.natoms), nil
	case h.fSize != 0:
		return h.fSize / (3 * h.natoms), nil
	default:
		return 0, chemfiles.NewError(chemfiles.ErrFormat,
			"unable to guess the TRR precision: no box, positions, velocities or forces")
	}
}

func (f *File) readHeader() (*header, error) {
	x := f.x
	magic, err := x.ReadI32()
	if err != nil {
		return nil, err
	}
	if magic != trrMagic {
		return nil, chemfiles.NewError(chemfiles.ErrFormat,
			"wrong TRR magic number: expected %d, got %d", trrMagic, magic).WithPath(f.path)
	}
	// GROMACS strings carry their length twice: once with the final NUL
	// counted, once without.
	if _, err := x.ReadU32(); err != nil {
		return nil, err
	}
	version, err := x.ReadString()
	if err != nil {
		return nil, err
	}
	if version != trrVersion {
		return nil, chemfiles.NewError(chemfiles.ErrFormat,
			"unsupported TRR version string %q", version).WithPath(f.path)
	}
	h := &header{}
	ints := []*int{
		&h.irSize, &h.eSize, &h.boxSize, &h.virSize, &h.presSize,
		&h.topSize, &h.symSize, &h.xSize, &h.vSize, &h.fSize,
		&h.natoms, &h.step, &h.nre,
	}
	for _, p := range ints {
		v, err := x.ReadI32()
		if err != nil {
			return nil, err
		}
		*p = int(v)
	}
	if h.natoms <= 0 {
		return nil, chemfiles.NewError(chemfiles.ErrFormat,
			"invalid number of atoms in TRR header: %d", h.natoms).WithPath(f.path)
	}
	rs, err := h.realSize()
	if err != nil {
		return nil, err
	}
	if rs != 4 && rs != 8 {
		return nil, chemfiles.NewError(chemfiles.ErrFormat,
			"invalid TRR real size: %d bytes", rs).WithPath(f.path)
	}
	h.double = rs == 8
	if h.time, err = x.ReadFloat(h.double); err != nil {
		return nil, err
	}
	if h.lambda, err = x.ReadFloat(h.double); err != nil {
		return nil, err
	}
	return h, nil
}

// buildIndex walks the record headers once and remembers where each frame
// starts. A file whose last record is cut short is rejected, since any
// read of that frame would fail later anyway.
func (f *File) buildIndex() error {
	size, err := f.x.FileSize()
	if err != nil {
		return err
	}
	var pos int64
	for pos < size {
		if err := f.x.Seek(pos); err != nil {
			return err
		}
		h, err := f.readHeader()
		if err != nil {
			return chemfiles.DecorateError(truncated(f.path, err, pos, size), "trr.buildIndex")
		}
		body, err := f.x.Tell()
		if err != nil {
			return err
		}
		end := body + h.bodySize()
		if end > size {
			return chemfiles.NewError(chemfiles.ErrFormat,
				"truncated TRR record at bytes %d-%d in a %d byte file",
				pos, end, size).WithPath(f.path)
		}
		if f.natoms == 0 {
			f.natoms = h.natoms
		}
		f.index = append(f.index, pos)
		pos = end
	}
	return f.x.Seek(0)
}

// truncated maps an i/o failure while scanning headers to a format error
// naming the bad byte range, keeping real format errors as they are.
func truncated(path string, err error, pos, size int64) error {
	if chemfiles.KindOf(err) == chemfiles.ErrFormat {
		return err
	}
	return chemfiles.NewError(chemfiles.ErrFormat,
		"truncated TRR record at bytes %d-%d in a %d byte file", pos, size, size).WithPath(path)
}

// Size returns the number of frames.
func (f *File) Size() (int, error) {
	return len(f.index), nil
}

// Description implements chemfiles.Format.
func (f *File) Description() string {
	return "GROMACS TRR binary format"
}

// Capabilities implements chemfiles.Format.
func (f *File) Capabilities() chemfiles.Capabilities {
	return chemfiles.RandomAccess | chemfiles.CanAppend |
		chemfiles.WritesVelocities | chemfiles.WritesForces | chemfiles.WritesCell
}

// Read reads the frame at the cursor and advances it.
func (f *File) Read(frame *chemfiles.Frame) error {
	return f.ReadStep(f.cursor, frame)
}

// ReadStep reads frame n and leaves the cursor after it.
func (f *File) ReadStep(n int, frame *chemfiles.Frame) error {
	if n < 0 || n >= len(f.index) {
		return chemfiles.NewError(chemfiles.ErrRange,
			"no frame %d in a TRR file with %d frames", n, len(f.index)).WithPath(f.path)
	}
	if err := f.x.Seek(f.index[n]); err != nil {
		return err
	}
	if err := f.readFrame(frame); err != nil {
		return err
	}
	f.cursor = n + 1
	return nil
}

func (f *File) readFrame(frame *chemfiles.Frame) error {
	h, err := f.readHeader()
	if err != nil {
		return err
	}
	frame.Clear()
	if err := frame.Resize(h.natoms); err != nil {
		return err
	}
	frame.SetStep(h.step)
	frame.SetTime(h.time)
	frame.Set("trr_lambda", chemfiles.Double(h.lambda))
	if err := f.x.Skip(int64(h.irSize + h.eSize)); err != nil {
		return chemfiles.IOError(f.path, err)
	}
	if h.boxSize != 0 {
		cell, err := f.readBox(h.double)
		if err != nil {
			return err
		}
		frame.SetCell(cell)
	} else {
		frame.SetCell(chemfiles.InfiniteCell())
	}
	if err := f.x.Skip(int64(h.virSize + h.presSize + h.topSize + h.symSize)); err != nil {
		return chemfiles.IOError(f.path, err)
	}
	if h.xSize != 0 {
		if err := f.readArray(frame.Positions(), h.double); err != nil {
			return err
		}
	}
	if h.vSize != 0 {
		frame.AddVelocities()
		v, _ := frame.Velocities()
		if err := f.readArray(v, h.double); err != nil {
			return err
		}
	}
	if h.fSize != 0 {
		frame.AddForces()
		fo, _ := frame.Forces()
		if err := f.readArray(fo, h.double); err != nil {
			return err
		}
	}
	return nil
}

// readBox reads the 3x3 GROMACS box. On disk the rows are the cell
// vectors, while the in-memory matrix holds them as columns.
func (f *File) readBox(double bool) (*chemfiles.UnitCell, error) {
	box := make([]float64, 9)
	if err := f.x.ReadFloats(box, double); err != nil {
		return nil, err
	}
	m := mat.NewDense(3, 3, nil)
	for vec := 0; vec < 3; vec++ {
		for i := 0; i < 3; i++ {
			m.Set(i, vec, box[3*vec+i]*nm2ang)
		}
	}
	cell, err := chemfiles.CellFromMatrix(m)
	if err != nil {
		return nil, chemfiles.DecorateError(err, "trr.readBox")
	}
	return cell, nil
}

func (f *File) readArray(dst *mat.Dense, double bool) error {
	n, _ := dst.Dims()
	buf := make([]float64, 3*n)
	if err := f.x.ReadFloats(buf, double); err != nil {
		return err
	}
	for i := 0; i < n; i++ {
		dst.Set(i, 0, buf[3*i]*nm2ang)
		dst.Set(i, 1, buf[3*i+1]*nm2ang)
		dst.Set(i, 2, buf[3*i+2]*nm2ang)
	}
	return nil
}

// Write appends one frame. The first frame fixes the number of atoms for
// the whole file. On any failure the file is truncated back to its
// previous size, so a half-written record never corrupts the file.
func (f *File) Write(frame *chemfiles.Frame) error {
	if f.natoms != 0 && frame.Len() != f.natoms {
		return chemfiles.NewError(chemfiles.ErrShape,
			"TRR files can not change the number of atoms: expected %d, got %d",
			f.natoms, frame.Len()).WithPath(f.path)
	}
	start, err := f.x.SeekEnd()
	if err != nil {
		return err
	}
	if err := f.writeFrame(frame); err != nil {
		if terr := f.x.Truncate(start); terr != nil {
			return chemfiles.IOError(f.path, fmt.Errorf("%v (rollback failed too: %v)", err, terr))
		}
		return err
	}
	f.natoms = frame.Len()
	f.index = append(f.index, start)
	return nil
}

func (f *File) writeFrame(frame *chemfiles.Frame) error {
	if frame.Len() == 0 {
		return chemfiles.NewError(chemfiles.ErrInvariant,
			"can not write a frame without atoms").WithPath(f.path)
	}
	double := !f.single
	rs := 8
	if f.single {
		rs = 4
	}
	natoms := frame.Len()
	_, hasV := frame.Velocities()
	_, hasF := frame.Forces()
	hasBox := frame.Cell().Shape() != chemfiles.Infinite
	x := f.x
	if err := x.WriteI32(trrMagic); err != nil {
		return err
	}
	if err := x.WriteU32(uint32(len(trrVersion) + 1)); err != nil {
		return err
	}
	if err := x.WriteString(trrVersion); err != nil {
		return err
	}
	// ir_size, e_size, box_size, vir_size, pres_size, top_size,
	// sym_size, x_size, v_size, f_size, natoms, step, nre
	var sizes [13]int
	if hasBox {
		sizes[2] = 9 * rs
	}
	sizes[7] = 3 * natoms * rs
	if hasV {
		sizes[8] = 3 * natoms * rs
	}
	if hasF {
		sizes[9] = 3 * natoms * rs
	}
	sizes[10] = natoms
	sizes[11] = frame.Step()
	for _, v := range sizes {
		if err := x.WriteI32(int32(v)); err != nil {
			return err
		}
	}
	time, _ := frame.Time()
	lambda := 0.0
	if p, ok := frame.Get("trr_lambda"); ok {
		if l, ok := p.AsDouble(); ok {
			lambda = l
		}
	}
	if err := x.WriteFloat(time, double); err != nil {
		return err
	}
	if err := x.WriteFloat(lambda, double); err != nil {
		return err
	}
	if hasBox {
		if err := f.writeBox(frame.Cell(), double); err != nil {
			return err
		}
	}
	if err := f.writeArray(frame.Positions(), double); err != nil {
		return err
	}
	if hasV {
		v, _ := frame.Velocities()
		if err := f.writeArray(v, double); err != nil {
			return err
		}
	}
	if hasF {
		fo, _ := frame.Forces()
		if err := f.writeArray(fo, double); err != nil {
			return err
		}
	}
	return nil
}

func (f *File) writeBox(cell *chemfiles.UnitCell, double bool) error {
	m := cell.Matrix()
	box := make([]float64, 9)
	for vec := 0; vec < 3; vec++ {
		for i := 0; i < 3; i++ {
			box[3*vec+i] = m.At(i, vec) / nm2ang
		}
	}
	return f.x.WriteFloats(box, double)
}

func (f *File) writeArray(src *mat.Dense, double bool) error {
	if src == nil {
		return nil
	}
	n, _ := src.Dims()
	buf := make([]float64, 3*n)
	for i := 0; i < n; i++ {
		buf[3*i] = src.At(i, 0) / nm2ang
		buf[3*i+1] = src.At(i, 1) / nm2ang
		buf[3*i+2] = src.At(i, 2) / nm2ang
	}
	return f.x.WriteFloats(buf, double)
}

// Close flushes and closes the file.
func (f *File) Close() error {
	return f.x.Close()
}

