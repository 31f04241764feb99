/*
 * xyz.go, part of gochemfiles.
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

// Package xyz reads and writes the XYZ text format.
//
// Each frame is an atom count on its own line, a free-form comment line,
// and one "symbol x y z" line per atom, with coordinates in Å. The
// comment is kept as the "name" property of the frame. XYZ files are
// often shipped compressed; a .gz, .xz or .bz2 suffix is handled
// transparently.
package xyz

import (
	"strings"

	chemfiles "github.com/chemfiles/gochemfiles"
	"github.com/chemfiles/gochemfiles/files"
)

func init() {
	chemfiles.Register(chemfiles.Metadata{
		Name:        "XYZ",
		Extension:   ".xyz",
		Description: "XYZ text format",
		Open: func(path string, mode chemfiles.Mode, comp chemfiles.Compression) (chemfiles.Format, error) {
			return Open(path, mode, comp)
		},
	})
}

// File is an open XYZ trajectory. It implements chemfiles.Format.
type File struct {
	f    *files.File
	path string
	mode chemfiles.Mode
	// offsets[i] is the position of frame i's atom-count line. Frames are
	// indexed lazily, only as far as a read or Size needs.
	offsets []int64
	next    int64 //position right after the last indexed frame
	scanned bool  //the whole file has been indexed
	cursor  int
	written int
}

// Open opens an XYZ file, decompressing with comp.
func Open(path string, mode chemfiles.Mode, comp chemfiles.Compression) (*File, error) {
	f, err := files.Open(path, mode, comp)
	if err != nil {
		return nil, err
	}
	x := &File{f: f, path: path, mode: mode}
	if mode == chemfiles.Write {
		x.scanned = true
	}
	return x, nil
}

// Description implements chemfiles.Format.
func (x *File) Description() string {
	return "XYZ text format"
}

// Capabilities implements chemfiles.Format.
func (x *File) Capabilities() chemfiles.Capabilities {
	return chemfiles.RandomAccess | chemfiles.CanAppend | chemfiles.WritesTopology
}

// Size returns the number of frames, indexing the rest of the file if it
// was not fully indexed yet.
func (x *File) Size() (int, error) {
	if err := x.index(-1); err != nil {
		return 0, err
	}
	return len(x.offsets) + x.written, nil
}

// index extends the frame index to cover frame n, or the whole file when
// n is negative.
func (x *File) index(n int) error {
	if x.scanned || (n >= 0 && n < len(x.offsets)) {
		return nil
	}
	if err := x.f.Seek(x.next); err != nil {
		return err
	}
	for !x.scanned && (n < 0 || n >= len(x.offsets)) {
		start := x.f.Tell()
		if x.f.EOF() {
			x.scanned = true
			break
		}
		natoms, err := x.readCount()
		if err != nil {
			return err
		}
		for i := 0; i < natoms+1; i++ {
			if _, err := x.f.ReadLine(); err != nil {
				return chemfiles.NewError(chemfiles.ErrFormat,
					"XYZ frame %d is cut short", len(x.offsets)).WithPath(x.path)
			}
		}
		x.offsets = append(x.offsets, start)
		x.next = x.f.Tell()
	}
	return nil
}

// readCount parses the atom-count line of a frame.
func (x *File) readCount() (int, error) {
	line, err := x.f.ReadLine()
	if err != nil {
		return 0, err
	}
	n, err := chemfiles.ParseInt(line)
	if err != nil {
		return 0, chemfiles.NewError(chemfiles.ErrFormat,
			"expected an atom count, got %q", line).WithPath(x.path)
	}
	if n < 0 {
		return 0, chemfiles.NewError(chemfiles.ErrFormat,
			"negative atom count %d", n).WithPath(x.path)
	}
	return int(n), nil
}

// Read reads the frame at the cursor and advances it.
func (x *File) Read(frame *chemfiles.Frame) error {
	return x.ReadStep(x.cursor, frame)
}

// ReadStep reads frame n and leaves the cursor after it.
func (x *File) ReadStep(n int, frame *chemfiles.Frame) error {
	if err := x.index(n); err != nil {
		return err
	}
	if n < 0 || n >= len(x.offsets) {
		return chemfiles.NewError(chemfiles.ErrRange,
			"no frame %d in an XYZ file with %d frames", n, len(x.offsets)).WithPath(x.path)
	}
	if err := x.f.Seek(x.offsets[n]); err != nil {
		return err
	}
	if err := x.readFrame(frame); err != nil {
		return err
	}
	frame.SetStep(n)
	x.cursor = n + 1
	return nil
}

func (x *File) readFrame(frame *chemfiles.Frame) error {
	natoms, err := x.readCount()
	if err != nil {
		return err
	}
	comment, err := x.f.ReadLine()
	if err != nil {
		return err
	}
	frame.Clear()
	if err := frame.Resize(natoms); err != nil {
		return err
	}
	frame.Set("name", chemfiles.String(comment))
	pos := frame.Positions()
	top := frame.Topology()
	for i := 0; i < natoms; i++ {
		line, err := x.f.ReadLine()
		if err != nil {
			return err
		}
		var symbol string
		var px, py, pz float64
		if _, err := chemfiles.Scan(line, &symbol, &px, &py, &pz); err != nil {
			return chemfiles.NewError(chemfiles.ErrFormat,
				"bad XYZ atom line %q: %v", line, err).WithPath(x.path)
		}
		*top.Atom(i) = *chemfiles.NewAtom(symbol)
		pos.Set(i, 0, px)
		pos.Set(i, 1, py)
		pos.Set(i, 2, pz)
	}
	return nil
}

// Write appends one frame. The frame's "name" property, if it is a
// string, becomes the comment line.
func (x *File) Write(frame *chemfiles.Frame) error {
	// Once writing starts the read side is gone, so an append-mode file
	// must have its existing frames indexed now for Size to stay right.
	if !x.scanned {
		if err := x.index(-1); err != nil {
			return err
		}
	}
	natoms := frame.Len()
	comment := ""
	if p, ok := frame.Get("name"); ok {
		if s, ok := p.AsString(); ok {
			comment = s
		}
	}
	if strings.ContainsRune(comment, '\n') {
		return chemfiles.NewError(chemfiles.ErrInvariant,
			"the XYZ comment line can not contain newlines")
	}
	if err := x.f.Printf("%d\n%s\n", natoms, comment); err != nil {
		return err
	}
	pos := frame.Positions()
	top := frame.Topology()
	for i := 0; i < natoms; i++ {
		symbol := top.Atom(i).Symbol
		if symbol == "" {
			symbol = "X"
		}
		err := x.f.Printf("%-2s %12.6f %12.6f %12.6f\n",
			symbol, pos.At(i, 0), pos.At(i, 1), pos.At(i, 2))
		if err != nil {
			return err
		}
	}
	x.written++
	return nil
}

// Close flushes and closes the file.
func (x *File) Close() error {
	return x.f.Close()
}
