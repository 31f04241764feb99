/*
 * inchi.go, part of gochemfiles.
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

// Package inchi reads and writes InChI files, one identifier per line.
//
// Turning an InChI string into atoms and bonds (and back) needs the
// official IUPAC library, which this package does not link against.
// Instead a Converter is installed at runtime with SetConverterFactory,
// typically backed by a cgo binding; the format only registers itself
// once a factory is available.
package inchi

import (
	"strings"
	"sync"

	chemfiles "github.com/chemfiles/gochemfiles"
	"github.com/chemfiles/gochemfiles/files"
)

// Converter translates between InChI strings and molecules. Warnings
// returned next to a successful conversion are forwarded to the warning
// callback; implementations should not print them on their own.
type Converter interface {
	// MoleculeFromInChI builds a frame from one InChI identifier.
	MoleculeFromInChI(inchi string) (*chemfiles.Frame, []string, error)
	// InChIFromMolecule renders a frame as an InChI identifier.
	InChIFromMolecule(frame *chemfiles.Frame) (string, []string, error)
	// Close releases the converter.
	Close() error
}

// Factory creates one Converter per open file.
type Factory func() (Converter, error)

var converter = struct {
	sync.Mutex
	factory    Factory
	registered bool
}{}

// SetConverterFactory installs the factory used by every InChI file
// opened afterwards, registering the format on first use. A nil factory
// makes later opens fail, but can not unregister the format.
func SetConverterFactory(f Factory) {
	converter.Lock()
	defer converter.Unlock()
	converter.factory = f
	if f != nil && !converter.registered {
		converter.registered = true
		chemfiles.Register(chemfiles.Metadata{
			Name:        "InChI",
			Extension:   ".inchi",
			Description: "InChI chemical identifier format",
			Open: func(path string, mode chemfiles.Mode, comp chemfiles.Compression) (chemfiles.Format, error) {
				return Open(path, mode, comp)
			},
		})
	}
}

func newConverter() (Converter, error) {
	converter.Lock()
	f := converter.factory
	converter.Unlock()
	if f == nil {
		return nil, chemfiles.NewError(chemfiles.ErrInvariant,
			"no InChI converter factory is installed")
	}
	return f()
}

// File is an open InChI file. It implements chemfiles.Format.
type File struct {
	f       *files.File
	conv    Converter
	path    string
	mode    chemfiles.Mode
	offsets []int64
	next    int64
	scanned bool
	cursor  int
	written int
}

// Open opens an InChI file, decompressing with comp. It fails when no
// converter factory is installed.
func Open(path string, mode chemfiles.Mode, comp chemfiles.Compression) (*File, error) {
	conv, err := newConverter()
	if err != nil {
		return nil, err
	}
	f, err := files.Open(path, mode, comp)
	if err != nil {
		conv.Close()
		return nil, err
	}
	in := &File{f: f, conv: conv, path: path, mode: mode}
	if mode == chemfiles.Write {
		in.scanned = true
	}
	return in, nil
}

// Description implements chemfiles.Format.
func (in *File) Description() string {
	return "InChI chemical identifier format"
}

// Capabilities implements chemfiles.Format.
func (in *File) Capabilities() chemfiles.Capabilities {
	return chemfiles.RandomAccess | chemfiles.CanAppend | chemfiles.WritesTopology
}

// Size returns the number of identifiers in the file.
func (in *File) Size() (int, error) {
	if err := in.index(-1); err != nil {
		return 0, err
	}
	return len(in.offsets) + in.written, nil
}

// index records the offset of every non-blank line up to entry n, or all
// of them when n is negative.
func (in *File) index(n int) error {
	if in.scanned || (n >= 0 && n < len(in.offsets)) {
		return nil
	}
	if err := in.f.Seek(in.next); err != nil {
		return err
	}
	for !in.scanned && (n < 0 || n >= len(in.offsets)) {
		start := in.f.Tell()
		if in.f.EOF() {
			in.scanned = true
			break
		}
		line, err := in.f.ReadLine()
		if err != nil {
			return err
		}
		if strings.TrimSpace(line) != "" {
			in.offsets = append(in.offsets, start)
		}
		in.next = in.f.Tell()
	}
	return nil
}

// Read reads the molecule at the cursor and advances it.
func (in *File) Read(frame *chemfiles.Frame) error {
	return in.ReadStep(in.cursor, frame)
}

// ReadStep reads molecule n and leaves the cursor after it.
func (in *File) ReadStep(n int, frame *chemfiles.Frame) error {
	if err := in.index(n); err != nil {
		return err
	}
	if n < 0 || n >= len(in.offsets) {
		return chemfiles.NewError(chemfiles.ErrRange,
			"no molecule %d in an InChI file with %d molecules", n, len(in.offsets)).WithPath(in.path)
	}
	if err := in.f.Seek(in.offsets[n]); err != nil {
		return err
	}
	line, err := in.f.ReadLine()
	if err != nil {
		return err
	}
	id := strings.TrimSpace(line)
	mol, warns, err := in.conv.MoleculeFromInChI(id)
	for _, w := range warns {
		chemfiles.Warn("InChI", "%s", w)
	}
	if err != nil {
		return chemfiles.NewError(chemfiles.ErrFormat,
			"invalid InChI %q: %v", id, err).WithPath(in.path)
	}
	copyFrame(frame, mol)
	frame.Set("inchi", chemfiles.String(id))
	frame.SetStep(n)
	in.cursor = n + 1
	return nil
}

// copyFrame moves the converter's result into the caller's frame.
func copyFrame(dst, src *chemfiles.Frame) {
	*dst = *src.Copy()
}

// Write renders one frame as an InChI identifier on its own line.
func (in *File) Write(frame *chemfiles.Frame) error {
	if !in.scanned {
		if err := in.index(-1); err != nil {
			return err
		}
	}
	id, warns, err := in.conv.InChIFromMolecule(frame)
	for _, w := range warns {
		chemfiles.Warn("InChI", "%s", w)
	}
	if err != nil {
		return chemfiles.NewError(chemfiles.ErrFormat,
			"can not convert the frame to InChI: %v", err).WithPath(in.path)
	}
	if err := in.f.Printf("%s\n", id); err != nil {
		return err
	}
	in.written++
	return nil
}

// Close releases the converter and closes the file.
func (in *File) Close() error {
	cerr := in.conv.Close()
	ferr := in.f.Close()
	if ferr != nil {
		return ferr
	}
	if cerr != nil {
		return chemfiles.NewError(chemfiles.ErrFormat, "closing the InChI converter: %v", cerr)
	}
	return nil
}
