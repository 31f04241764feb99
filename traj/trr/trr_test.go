/*
 * trr_test.go, part of gochemfiles.
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

package trr

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	chemfiles "github.com/chemfiles/gochemfiles"
	"github.com/chemfiles/gochemfiles/files"
	"gonum.org/v1/gonum/floats/scalar"
)

func argonFrame(Te *testing.T, step int) *chemfiles.Frame {
	frame := chemfiles.NewFrame()
	for i := 0; i < 5; i++ {
		x := float64(i)
		err := frame.AddAtom(chemfiles.NewAtom("Ar"),
			[3]float64{x, x + 0.25, x + 0.5},
			[3]float64{0.5 * x, -0.5 * x, 1.5})
		if err != nil {
			Te.Fatal(err)
		}
	}
	frame.AddForces()
	forces, _ := frame.Forces()
	for i := 0; i < 5; i++ {
		forces.Set(i, 0, float64(i)*0.125)
	}
	cell, err := chemfiles.CellFromLengthsAngles(
		[3]float64{15, 16, 17}, [3]float64{90, 100, 95})
	if err != nil {
		Te.Fatal(err)
	}
	frame.SetCell(cell)
	frame.SetStep(step)
	frame.SetTime(0.002 * float64(step))
	frame.Set("trr_lambda", chemfiles.Double(0.75))
	return frame
}

func TestTRRRoundTrip(Te *testing.T) {
	path := filepath.Join(Te.TempDir(), "argon.trr")
	w, err := Open(path, chemfiles.Write)
	if err != nil {
		Te.Fatal(err)
	}
	for step := 0; step < 3; step++ {
		if err := w.Write(argonFrame(Te, step*100)); err != nil {
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
	if err := r.ReadStep(1, frame); err != nil {
		Te.Fatal(err)
	}
	if frame.Step() != 100 {
		Te.Errorf("step %d", frame.Step())
	}
	if t, ok := frame.Time(); !ok || !scalar.EqualWithinAbs(t, 0.2, 1e-9) {
		Te.Errorf("time %g", t)
	}
	if p, ok := frame.Get("trr_lambda"); !ok {
		Te.Error("lambda lost")
	} else if l, _ := p.AsDouble(); !scalar.EqualWithinAbs(l, 0.75, 1e-9) {
		Te.Errorf("lambda %g", l)
	}
	want := argonFrame(Te, 100)
	pos, wpos := frame.Positions(), want.Positions()
	vel, hasVel := frame.Velocities()
	forces, hasFor := frame.Forces()
	if !hasVel || !hasFor {
		Te.Fatal("velocities and forces should round trip")
	}
	wvel, _ := want.Velocities()
	wfor, _ := want.Forces()
	for i := 0; i < 5; i++ {
		for j := 0; j < 3; j++ {
			if !scalar.EqualWithinAbsOrRel(pos.At(i, j), wpos.At(i, j), 1e-9, 1e-9) {
				Te.Errorf("position (%d,%d): %g", i, j, pos.At(i, j))
			}
			if !scalar.EqualWithinAbsOrRel(vel.At(i, j), wvel.At(i, j), 1e-9, 1e-9) {
				Te.Errorf("velocity (%d,%d): %g", i, j, vel.At(i, j))
			}
			if !scalar.EqualWithinAbsOrRel(forces.At(i, j), wfor.At(i, j), 1e-9, 1e-9) {
				Te.Errorf("force (%d,%d): %g", i, j, forces.At(i, j))
			}
		}
	}
	l, a := frame.Cell().Lengths(), frame.Cell().Angles()
	for i, wl := range [3]float64{15, 16, 17} {
		if !scalar.EqualWithinAbs(l[i], wl, 1e-9) {
			Te.Errorf("cell length %d: %g", i, l[i])
		}
	}
	for i, wa := range [3]float64{90, 100, 95} {
		if !scalar.EqualWithinAbs(a[i], wa, 1e-9) {
			Te.Errorf("cell angle %d: %g", i, a[i])
		}
	}
	//after a positioned read, sequential reads continue from there
	if err := r.Read(frame); err != nil {
		Te.Fatal(err)
	}
	if frame.Step() != 200 {
		Te.Errorf("sequential read after ReadStep(1) got step %d", frame.Step())
	}
}

func TestTRRSinglePrecision(Te *testing.T) {
	path := filepath.Join(Te.TempDir(), "argon.trr")
	w, err := Open(path, chemfiles.Write, WithSinglePrecision())
	if err != nil {
		Te.Fatal(err)
	}
	if err := w.Write(argonFrame(Te, 0)); err != nil {
		Te.Fatal(err)
	}
	w.Close()

	r, err := Open(path, chemfiles.Read)
	if err != nil {
		Te.Fatal(err)
	}
	defer r.Close()
	frame := chemfiles.NewFrame()
	if err := r.Read(frame); err != nil {
		Te.Fatal(err)
	}
	want := argonFrame(Te, 0)
	vel, ok := frame.Velocities()
	if !ok {
		Te.Fatal("velocities lost")
	}
	wvel, _ := want.Velocities()
	for i := 0; i < 5; i++ {
		for j := 0; j < 3; j++ {
			if !scalar.EqualWithinAbs(vel.At(i, j), wvel.At(i, j), 1e-5) {
				Te.Errorf("velocity (%d,%d): %g vs %g", i, j, vel.At(i, j), wvel.At(i, j))
			}
		}
	}
}

func TestTRRFixedAtomCount(Te *testing.T) {
	path := filepath.Join(Te.TempDir(), "argon.trr")
	w, err := Open(path, chemfiles.Write)
	if err != nil {
		Te.Fatal(err)
	}
	if err := w.Write(argonFrame(Te, 0)); err != nil {
		Te.Fatal(err)
	}
	small := chemfiles.NewFrame()
	for i := 0; i < 3; i++ {
		if err := small.AddAtom(chemfiles.NewAtom("Ar"), [3]float64{float64(i), 0, 0}); err != nil {
			Te.Fatal(err)
		}
	}
	if err := w.Write(small); chemfiles.KindOf(err) != chemfiles.ErrShape {
		Te.Errorf("writing 3 atoms after 5 should be a shape error, got %v", err)
	}
	w.Close()

	//the existing file pins the count for appends too
	a, err := Open(path, chemfiles.Append)
	if err != nil {
		Te.Fatal(err)
	}
	defer a.Close()
	if err := a.Write(small); chemfiles.KindOf(err) != chemfiles.ErrShape {
		Te.Errorf("appending 3 atoms to a 5 atom file should be a shape error, got %v", err)
	}
	if n, _ := a.Size(); n != 1 {
		Te.Errorf("rejected writes should not add frames, got %d", n)
	}
}

// writeLegacyRecord emits one double precision record for two atoms with a
// non-zero sym_size, as the pre-TRR trj files allowed.
func writeLegacyRecord(Te *testing.T, x *files.XDRFile, step int) {
	Te.Helper()
	check := func(err error) {
		if err != nil {
			Te.Fatal(err)
		}
	}
	check(x.WriteI32(trrMagic))
	check(x.WriteU32(uint32(len(trrVersion) + 1)))
	check(x.WriteString(trrVersion))
	// ir, e, box, vir, pres, top, sym, x, v, f, natoms, step, nre
	sizes := []int32{0, 0, 9 * 8, 0, 0, 0, 8, 2 * 3 * 8, 0, 0, 2, int32(step), 0}
	for _, s := range sizes {
		check(x.WriteI32(s))
	}
	check(x.WriteFloat(0.002*float64(step), true))
	check(x.WriteFloat(0, true))
	box := []float64{1.5, 0, 0, 0, 1.5, 0, 0, 0, 1.5}
	check(x.WriteFloats(box, true))
	check(x.WriteBytes(make([]byte, 8)))
	coords := []float64{0.1, 0.2, 0.3, 0.5, 1.0, 1.5}
	check(x.WriteFloats(coords, true))
}

func TestTRRLegacySections(Te *testing.T) {
	path := filepath.Join(Te.TempDir(), "legacy.trr")
	x, err := files.OpenXDR(path, chemfiles.Write)
	if err != nil {
		Te.Fatal(err)
	}
	for step := 0; step < 2; step++ {
		writeLegacyRecord(Te, x, step)
	}
	if err := x.Close(); err != nil {
		Te.Fatal(err)
	}

	r, err := Open(path, chemfiles.Read)
	if err != nil {
		Te.Fatal(err)
	}
	defer r.Close()
	if n, _ := r.Size(); n != 2 {
		Te.Fatalf("got %d frames", n)
	}
	frame := chemfiles.NewFrame()
	if err := r.ReadStep(1, frame); err != nil {
		Te.Fatal(err)
	}
	if frame.Step() != 1 {
		Te.Errorf("step %d", frame.Step())
	}
	pos := frame.Positions()
	if !scalar.EqualWithinAbs(pos.At(1, 2), 1.5*nm2ang, 1e-9) {
		Te.Errorf("position (1,2): %g", pos.At(1, 2))
	}
	l := frame.Cell().Lengths()
	if !scalar.EqualWithinAbs(l[0], 1.5*nm2ang, 1e-9) {
		Te.Errorf("cell length: %g", l[0])
	}
}

func TestTRRTruncated(Te *testing.T) {
	path := filepath.Join(Te.TempDir(), "argon.trr")
	w, err := Open(path, chemfiles.Write)
	if err != nil {
		Te.Fatal(err)
	}
	w.Write(argonFrame(Te, 0))
	w.Write(argonFrame(Te, 100))
	w.Close()
	info, err := os.Stat(path)
	if err != nil {
		Te.Fatal(err)
	}
	if err := os.Truncate(path, info.Size()-8); err != nil {
		Te.Fatal(err)
	}
	if _, err := Open(path, chemfiles.Read); chemfiles.KindOf(err) != chemfiles.ErrFormat {
		Te.Errorf("a cut-off file should be a format error, got %v", err)
	}
}

func TestTRRAppend(Te *testing.T) {
	path := filepath.Join(Te.TempDir(), "argon.trr")
	w, err := Open(path, chemfiles.Write)
	if err != nil {
		Te.Fatal(err)
	}
	w.Write(argonFrame(Te, 0))
	w.Write(argonFrame(Te, 100))
	w.Close()
	before, err := os.ReadFile(path)
	if err != nil {
		Te.Fatal(err)
	}

	a, err := Open(path, chemfiles.Append)
	if err != nil {
		Te.Fatal(err)
	}
	if n, _ := a.Size(); n != 2 {
		Te.Fatalf("append open sees %d frames", n)
	}
	if err := a.Write(argonFrame(Te, 200)); err != nil {
		Te.Fatal(err)
	}
	if err := a.Close(); err != nil {
		Te.Fatal(err)
	}
	after, err := os.ReadFile(path)
	if err != nil {
		Te.Fatal(err)
	}
	if len(after) <= len(before) || !bytes.Equal(after[:len(before)], before) {
		Te.Error("appending must leave the existing records untouched")
	}

	r, err := Open(path, chemfiles.Read)
	if err != nil {
		Te.Fatal(err)
	}
	defer r.Close()
	if n, _ := r.Size(); n != 3 {
		Te.Fatalf("got %d frames after append", n)
	}
	frame := chemfiles.NewFrame()
	if err := r.ReadStep(2, frame); err != nil {
		Te.Fatal(err)
	}
	if frame.Step() != 200 {
		Te.Errorf("appended frame has step %d", frame.Step())
	}
}
