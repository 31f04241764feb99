/*
 * nc.go, part of gochemfiles.
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

// Package nc reads and writes Amber convention NetCDF trajectories.
//
// Only the NetCDF classic (CDF-1 and CDF-2) container is written; both
// classic and HDF5-backed files are read. Units follow the AMBER
// convention and are already Å, Å/ps and ps, so no conversion happens.
package nc

import (
	"errors"
	"os"
	"strings"

	"github.com/batchatco/go-native-netcdf/netcdf"
	"github.com/batchatco/go-native-netcdf/netcdf/api"
	chemfiles "github.com/chemfiles/gochemfiles"
)

func init() {
	chemfiles.Register(chemfiles.Metadata{
		Name:        "Amber NetCDF",
		Extension:   ".nc",
		Description: "Amber convention NetCDF format",
		Open: func(path string, mode chemfiles.Mode, comp chemfiles.Compression) (chemfiles.Format, error) {
			if comp != chemfiles.NoCompression {
				return nil, chemfiles.NewError(chemfiles.ErrUnsupportedMode,
					"NetCDF files can not be %v compressed", comp).WithPath(path)
			}
			return Open(path, mode)
		},
	})
}

// File is an open Amber NetCDF trajectory. It implements
// chemfiles.Format.
type File struct {
	path string
	mode chemfiles.Mode

	// write side, nil in read mode. The layout stays nil until the first
	// frame defines the atom count.
	f      *os.File
	layout *cdfLayout

	// read side, opened lazily and dropped after every write so appended
	// records become visible.
	group  api.Group
	coords api.VarGetter

	natoms  int //-1 until known
	cursor  int
	written int //frames written to a fresh file, when layout is nil
}

// Open opens an Amber NetCDF file.
func Open(path string, mode chemfiles.Mode) (*File, error) {
	nc := &File{path: path, mode: mode, natoms: -1}
	switch mode {
	case chemfiles.Read:
		if err := nc.openReader(); err != nil {
			return nil, err
		}
	case chemfiles.Write:
		f, err := os.Create(path)
		if err != nil {
			return nil, chemfiles.IOError(path, err)
		}
		nc.f = f
	case chemfiles.Append:
		f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0666)
		if err != nil {
			return nil, chemfiles.IOError(path, err)
		}
		nc.f = f
		info, err := f.Stat()
		if err != nil {
			f.Close()
			return nil, chemfiles.IOError(path, err)
		}
		if info.Size() > 0 {
			layout, err := readLayout(f, path)
			if err != nil {
				f.Close()
				return nil, err
			}
			if err := validateLayout(layout, path); err != nil {
				f.Close()
				return nil, err
			}
			nc.layout = layout
			nc.natoms, _ = layout.dimSize("atom")
		}
	}
	return nc, nil
}

// hasAmberConvention reports whether the Conventions attribute names
// AMBER, alone or inside a comma-separated list.
func hasAmberConvention(conventions string) bool {
	for _, c := range strings.Split(conventions, ",") {
		if strings.TrimSpace(c) == "AMBER" {
			return true
		}
	}
	return false
}

// validateLayout checks the AMBER convention markers of a file about to
// be appended to.
func validateLayout(l *cdfLayout, path string) error {
	if !hasAmberConvention(l.gatts["Conventions"]) {
		return chemfiles.NewError(chemfiles.ErrFormat,
			"missing or wrong Conventions attribute: expected \"AMBER\", got %q",
			l.gatts["Conventions"]).WithPath(path)
	}
	if v := l.gatts["ConventionVersion"]; v != "1.0" {
		chemfiles.Warn("Amber NetCDF", "unexpected convention version %q in %q", v, path)
	}
	if _, ok := l.dimSize("atom"); !ok {
		return chemfiles.NewError(chemfiles.ErrFormat,
			"missing atom dimension").WithPath(path)
	}
	if l.variable("coordinates") == nil {
		return chemfiles.NewError(chemfiles.ErrFormat,
			"missing coordinates variable").WithPath(path)
	}
	return nil
}

// openReader opens the read side and validates the AMBER markers.
func (nc *File) openReader() error {
	group, err := netcdf.Open(nc.path)
	if err != nil {
		if errors.Is(err, netcdf.ErrUnknown) {
			return chemfiles.NewError(chemfiles.ErrFormat,
				"not a NetCDF file").WithPath(nc.path)
		}
		if os.IsNotExist(err) || os.IsPermission(err) {
			return chemfiles.IOError(nc.path, err)
		}
		return chemfiles.NewError(chemfiles.ErrFormat,
			"invalid NetCDF file: %v", err).WithPath(nc.path)
	}
	conv, has := group.Attributes().Get("Conventions")
	if s, ok := conv.(string); !has || !ok || !hasAmberConvention(s) {
		group.Close()
		return chemfiles.NewError(chemfiles.ErrFormat,
			"missing or wrong Conventions attribute: expected \"AMBER\"").WithPath(nc.path)
	}
	if v, has := group.Attributes().Get("ConventionVersion"); has {
		if s, ok := v.(string); ok && s != "1.0" {
			chemfiles.Warn("Amber NetCDF", "unexpected convention version %q in %q", s, nc.path)
		}
	}
	coords, err := group.GetVarGetter("coordinates")
	if err != nil {
		group.Close()
		return chemfiles.NewError(chemfiles.ErrFormat,
			"missing coordinates variable: %v", err).WithPath(nc.path)
	}
	if u, has := coords.Attributes().Get("units"); has {
		if s, ok := u.(string); ok && s != "angstrom" {
			chemfiles.Warn("Amber NetCDF", "unexpected coordinates units %q in %q", s, nc.path)
		}
	}
	nc.group = group
	nc.coords = coords
	return nil
}

// dropReader closes the read side so the next read sees appended data.
func (nc *File) dropReader() {
	if nc.group != nil {
		nc.group.Close()
		nc.group = nil
		nc.coords = nil
	}
}

// Description implements chemfiles.Format.
func (nc *File) Description() string {
	return "Amber convention NetCDF format"
}

// Capabilities implements chemfiles.Format.
func (nc *File) Capabilities() chemfiles.Capabilities {
	return chemfiles.RandomAccess | chemfiles.CanAppend |
		chemfiles.WritesVelocities | chemfiles.WritesCell
}

// Size returns the number of frames.
func (nc *File) Size() (int, error) {
	if nc.layout != nil {
		return int(nc.layout.numrecs), nil
	}
	if nc.mode != chemfiles.Read {
		// a fresh file with no header yet
		return nc.written, nil
	}
	if nc.group == nil {
		if err := nc.openReader(); err != nil {
			return 0, err
		}
	}
	return int(nc.coords.Len()), nil
}

// Read reads the frame at the cursor and advances it.
func (nc *File) Read(frame *chemfiles.Frame) error {
	return nc.ReadStep(nc.cursor, frame)
}

// ReadStep reads frame n and leaves the cursor after it.
func (nc *File) ReadStep(n int, frame *chemfiles.Frame) error {
	if nc.mode == chemfiles.Write {
		return chemfiles.NewError(chemfiles.ErrMode,
			"the file is open for writing only").WithPath(nc.path)
	}
	if nc.mode == chemfiles.Append && nc.layout == nil {
		return chemfiles.NewError(chemfiles.ErrRange,
			"no frame %d in an empty NetCDF file", n).WithPath(nc.path)
	}
	if nc.group == nil {
		if err := nc.openReader(); err != nil {
			return err
		}
	}
	size := int(nc.coords.Len())
	if n < 0 || n >= size {
		return chemfiles.NewError(chemfiles.ErrRange,
			"no frame %d in a NetCDF file with %d frames", n, size).WithPath(nc.path)
	}
	if err := nc.readFrame(n, frame); err != nil {
		return err
	}
	nc.cursor = n + 1
	return nil
}

func (nc *File) readFrame(n int, frame *chemfiles.Frame) error {
	xyz, err := nc.realSlice(nc.coords, n)
	if err != nil {
		return err
	}
	if len(xyz)%3 != 0 {
		return chemfiles.NewError(chemfiles.ErrFormat,
			"coordinates of frame %d are not a multiple of 3", n).WithPath(nc.path)
	}
	natoms := len(xyz) / 3
	frame.Clear()
	if err := frame.Resize(natoms); err != nil {
		return err
	}
	frame.SetStep(n)
	scale := scaleFactor(nc.coords)
	pos := frame.Positions()
	for i := 0; i < natoms; i++ {
		pos.Set(i, 0, xyz[3*i]*scale)
		pos.Set(i, 1, xyz[3*i+1]*scale)
		pos.Set(i, 2, xyz[3*i+2]*scale)
	}
	if g, err := nc.getter("velocities"); err == nil && g != nil {
		vel, err := nc.realSlice(g, n)
		if err != nil {
			return err
		}
		if len(vel) == 3*natoms {
			vscale := scaleFactor(g)
			frame.AddVelocities()
			v, _ := frame.Velocities()
			for i := 0; i < natoms; i++ {
				v.Set(i, 0, vel[3*i]*vscale)
				v.Set(i, 1, vel[3*i+1]*vscale)
				v.Set(i, 2, vel[3*i+2]*vscale)
			}
		}
	}
	if g, err := nc.getter("time"); err == nil && g != nil {
		if ts, err := nc.realSlice(g, n); err == nil && len(ts) == 1 {
			frame.SetTime(ts[0])
		}
	}
	cell, err := nc.readCell(n)
	if err != nil {
		return err
	}
	frame.SetCell(cell)
	return nil
}

// getter returns the named variable, or nil when the file does not have
// it.
func (nc *File) getter(name string) (api.VarGetter, error) {
	found := false
	for _, v := range nc.group.ListVariables() {
		if v == name {
			found = true
			break
		}
	}
	if !found {
		return nil, nil
	}
	g, err := nc.group.GetVarGetter(name)
	if err != nil {
		return nil, chemfiles.NewError(chemfiles.ErrFormat,
			"broken %s variable: %v", name, err).WithPath(nc.path)
	}
	return g, nil
}

// readCell builds the unit cell of frame n, infinite when the file has
// no cell information.
func (nc *File) readCell(n int) (*chemfiles.UnitCell, error) {
	lg, err := nc.getter("cell_lengths")
	if err != nil || lg == nil {
		return chemfiles.InfiniteCell(), err
	}
	ag, err := nc.getter("cell_angles")
	if err != nil || ag == nil {
		return chemfiles.InfiniteCell(), err
	}
	ls, err := nc.realSlice(lg, n)
	if err != nil {
		return nil, err
	}
	as, err := nc.realSlice(ag, n)
	if err != nil {
		return nil, err
	}
	if len(ls) != 3 || len(as) != 3 {
		return nil, chemfiles.NewError(chemfiles.ErrFormat,
			"malformed cell in frame %d", n).WithPath(nc.path)
	}
	cell, err := chemfiles.CellFromLengthsAngles(
		[3]float64{ls[0], ls[1], ls[2]},
		[3]float64{as[0], as[1], as[2]})
	if err != nil {
		return nil, chemfiles.NewError(chemfiles.ErrFormat,
			"invalid cell in frame %d: %v", n, err).WithPath(nc.path)
	}
	return cell, nil
}

// realSlice reads record n of a record variable as a flat float64 slice,
// whatever the rank and on-disk precision.
func (nc *File) realSlice(g api.VarGetter, n int) ([]float64, error) {
	val, err := g.GetSlice(int64(n), int64(n)+1)
	if err != nil {
		return nil, chemfiles.NewError(chemfiles.ErrFormat,
			"can not read record %d: %v", n, err).WithPath(nc.path)
	}
	var out []float64
	if !flattenValues(val, &out) {
		return nil, chemfiles.NewError(chemfiles.ErrFormat,
			"unexpected data type %T in record %d", val, n).WithPath(nc.path)
	}
	return out, nil
}

func flattenValues(val interface{}, out *[]float64) bool {
	switch t := val.(type) {
	case float32:
		*out = append(*out, float64(t))
	case float64:
		*out = append(*out, t)
	case []float32:
		for _, x := range t {
			*out = append(*out, float64(x))
		}
	case []float64:
		*out = append(*out, t...)
	case [][]float32:
		for _, r := range t {
			if !flattenValues(r, out) {
				return false
			}
		}
	case [][]float64:
		for _, r := range t {
			if !flattenValues(r, out) {
				return false
			}
		}
	case [][][]float32:
		for _, r := range t {
			if !flattenValues(r, out) {
				return false
			}
		}
	case [][][]float64:
		for _, r := range t {
			if !flattenValues(r, out) {
				return false
			}
		}
	default:
		return false
	}
	return true
}

// scaleFactor returns the AMBER scale_factor attribute of a variable, 1
// when absent.
func scaleFactor(g api.VarGetter) float64 {
	v, has := g.Attributes().Get("scale_factor")
	if !has {
		return 1
	}
	switch s := v.(type) {
	case float32:
		return float64(s)
	case float64:
		return s
	case []float32:
		if len(s) == 1 {
			return float64(s[0])
		}
	case []float64:
		if len(s) == 1 {
			return s[0]
		}
	}
	return 1
}

// Write appends one frame. The first frame written to a fresh file fixes
// the atom count and whether velocities are recorded.
func (nc *File) Write(frame *chemfiles.Frame) error {
	if nc.mode == chemfiles.Read {
		return chemfiles.NewError(chemfiles.ErrMode,
			"the file is open for reading only").WithPath(nc.path)
	}
	if frame.Len() == 0 {
		return chemfiles.NewError(chemfiles.ErrInvariant,
			"can not write a frame without atoms").WithPath(nc.path)
	}
	if nc.layout == nil {
		_, hasVel := frame.Velocities()
		title := ""
		if p, ok := frame.Get("name"); ok {
			if s, ok := p.AsString(); ok {
				title = s
			}
		}
		layout := amberLayout(frame.Len(), hasVel, title)
		if err := writeHeader(nc.f, nc.path, layout); err != nil {
			return err
		}
		nc.layout = layout
		nc.natoms = frame.Len()
	}
	if frame.Len() != nc.natoms {
		return chemfiles.NewError(chemfiles.ErrShape,
			"can not write a frame with %d atoms to a file holding %d",
			frame.Len(), nc.natoms).WithPath(nc.path)
	}
	if err := writeRecord(nc.f, nc.path, nc.layout, frame); err != nil {
		return err
	}
	nc.written++
	nc.dropReader()
	return nil
}

// Close flushes and closes the file.
func (nc *File) Close() error {
	nc.dropReader()
	if nc.f != nil {
		f := nc.f
		nc.f = nil
		if err := f.Sync(); err != nil {
			f.Close()
			return chemfiles.IOError(nc.path, err)
		}
		if err := f.Close(); err != nil {
			return chemfiles.IOError(nc.path, err)
		}
	}
	return nil
}
