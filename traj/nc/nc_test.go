/*
 * nc_test.go, part of gochemfiles.
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
	"os"
	"path/filepath"
	"testing"

	chemfiles "github.com/chemfiles/gochemfiles"
	"gonum.org/v1/gonum/floats/scalar"
)

func solvatedFrame(Te *testing.T, natoms int, t float64) *chemfiles.Frame {
	frame := chemfiles.NewFrame()
	for i := 0; i < natoms; i++ {
		x := float64(i)
		err := frame.AddAtom(chemfiles.NewAtom("O"),
			[3]float64{x, 2 * x, 3 * x},
			[3]float64{0.25, -0.25, 0.5})
		if err != nil {
			Te.Fatal(err)
		}
	}
	cell, err := chemfiles.OrthorhombicCell(21.5, 22.5, 23.5)
	if err != nil {
		Te.Fatal(err)
	}
	frame.SetCell(cell)
	frame.SetTime(t)
	return frame
}

func TestNetCDFRoundTrip(Te *testing.T) {
	path := filepath.Join(Te.TempDir(), "traj.nc")
	w, err := Open(path, chemfiles.Write)
	if err != nil {
		Te.Fatal(err)
	}
	for i := 0; i < 3; i++ {
		if err := w.Write(solvatedFrame(Te, 4, float64(i)*0.5)); err != nil {
			Te.Fatal(err)
		}
	}
	if err := w.Close(); err != nil {
		Te.Fatal(err)
	}

	r, err := Open(path, chemfiles.Read)
	if err != nil {
		Te.Fatal(err)
	}
	defer r.Close()
	if n, _ := r.Size(); n != 3 {
		Te.Fatalf("got %d frames", n)
	}
	frame := chemfiles.NewFrame()
	if err := r.ReadStep(2, frame); err != nil {
		Te.Fatal(err)
	}
	if frame.Len() != 4 {
		Te.Fatalf("got %d atoms", frame.Len())
	}
	if t, ok := frame.Time(); !ok || !scalar.EqualWithinAbs(t, 1.0, 1e-6) {
		Te.Errorf("time %g", t)
	}
	pos := frame.Positions()
	//stored as float32, so only single precision survives
	if !scalar.EqualWithinAbs(pos.At(3, 1), 6, 1e-5) {
		Te.Errorf("position (3,1) = %g", pos.At(3, 1))
	}
	vel, ok := frame.Velocities()
	if !ok {
		Te.Fatal("velocities lost")
	}
	if !scalar.EqualWithinAbs(vel.At(2, 2), 0.5, 1e-6) {
		Te.Errorf("velocity (2,2) = %g", vel.At(2, 2))
	}
	cell := frame.Cell()
	if cell.Shape() != chemfiles.Orthorhombic {
		Te.Errorf("cell came back %v", cell.Shape())
	}
	//cell lengths are stored as doubles and survive exactly
	if l := cell.Lengths(); !scalar.EqualWithinAbs(l[0], 21.5, 1e-12) {
		Te.Errorf("cell length %g", l[0])
	}
	if err := r.ReadStep(3, frame); chemfiles.KindOf(err) != chemfiles.ErrRange {
		Te.Errorf("reading past the end should be a range error, got %v", err)
	}
}

func TestNetCDFMissingConventions(Te *testing.T) {
	path := filepath.Join(Te.TempDir(), "other.nc")
	f, err := os.Create(path)
	if err != nil {
		Te.Fatal(err)
	}
	layout := amberLayout(3, false, "")
	delete(layout.gatts, "Conventions")
	if err := writeHeader(f, path, layout); err != nil {
		Te.Fatal(err)
	}
	f.Close()
	if _, err := Open(path, chemfiles.Read); chemfiles.KindOf(err) != chemfiles.ErrFormat {
		Te.Errorf("a file without Conventions should be a format error, got %v", err)
	}
}

func TestNetCDFAppendShape(Te *testing.T) {
	path := filepath.Join(Te.TempDir(), "traj.nc")
	w, err := Open(path, chemfiles.Write)
	if err != nil {
		Te.Fatal(err)
	}
	if err := w.Write(solvatedFrame(Te, 17, 0)); err != nil {
		Te.Fatal(err)
	}
	w.Close()

	a, err := Open(path, chemfiles.Append)
	if err != nil {
		Te.Fatal(err)
	}
	defer a.Close()
	err = a.Write(solvatedFrame(Te, 42, 0.5))
	if chemfiles.KindOf(err) != chemfiles.ErrShape {
		Te.Errorf("appending 42 atoms to a 17 atom file should be a shape error, got %v", err)
	}
	//the failed write must not have grown the file
	if n, _ := a.Size(); n != 1 {
		Te.Errorf("got %d frames after the failed append", n)
	}
}

func TestNetCDFAppend(Te *testing.T) {
	path := filepath.Join(Te.TempDir(), "traj.nc")
	w, err := Open(path, chemfiles.Write)
	if err != nil {
		Te.Fatal(err)
	}
	w.Write(solvatedFrame(Te, 4, 0))
	w.Close()

	a, err := Open(path, chemfiles.Append)
	if err != nil {
		Te.Fatal(err)
	}
	if err := a.Write(solvatedFrame(Te, 4, 0.5)); err != nil {
		Te.Fatal(err)
	}
	//appended frames are visible without closing first
	frame := chemfiles.NewFrame()
	if err := a.ReadStep(1, frame); err != nil {
		Te.Fatal(err)
	}
	if t, ok := frame.Time(); !ok || !scalar.EqualWithinAbs(t, 0.5, 1e-6) {
		Te.Errorf("appended time %g", t)
	}
	if err := a.Close(); err != nil {
		Te.Fatal(err)
	}
	r, err := Open(path, chemfiles.Read)
	if err != nil {
		Te.Fatal(err)
	}
	defer r.Close()
	if n, _ := r.Size(); n != 2 {
		Te.Errorf("got %d frames after append", n)
	}
}
