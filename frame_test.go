/*
 * frame_test.go, part of gochemfiles.
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

package chemfiles

import (
	"testing"

	"gonum.org/v1/gonum/floats/scalar"
)

func TestFrameAddAtom(Te *testing.T) {
	frame := NewFrame()
	if err := frame.AddAtom(NewAtom("O"), [3]float64{1, 2, 3}); err != nil {
		Te.Fatal(err)
	}
	if err := frame.AddAtom(NewAtom("H"), [3]float64{4, 5, 6}, [3]float64{0.1, 0.2, 0.3}); err != nil {
		Te.Fatal(err)
	}
	if frame.Len() != 2 {
		Te.Fatalf("got %d atoms", frame.Len())
	}
	pos := frame.Positions()
	if pos.At(1, 2) != 6 {
		Te.Errorf("position (1,2) = %g", pos.At(1, 2))
	}
	//a velocity on any atom means velocities exist for all of them
	v, ok := frame.Velocities()
	if !ok {
		Te.Fatal("velocities should exist")
	}
	if v.At(0, 0) != 0 || v.At(1, 1) != 0.2 {
		Te.Error("bad velocities")
	}
	if frame.Topology().Atom(1).Symbol != "H" {
		Te.Error("topology out of sync with positions")
	}
}

func TestFrameTime(Te *testing.T) {
	frame := NewFrame()
	if _, ok := frame.Time(); ok {
		Te.Error("a fresh frame should have no time")
	}
	frame.SetTime(12.5)
	if t, ok := frame.Time(); !ok || t != 12.5 {
		Te.Error("time did not stick")
	}
}

func TestFrameDistance(Te *testing.T) {
	frame := NewFrame()
	frame.AddAtom(NewAtom("Ar"), [3]float64{1, 0, 0})
	frame.AddAtom(NewAtom("Ar"), [3]float64{9, 0, 0})
	d, err := frame.Distance(0, 1)
	if err != nil {
		Te.Fatal(err)
	}
	if !scalar.EqualWithinAbs(d, 8, 1e-12) {
		Te.Errorf("unwrapped distance %g", d)
	}
	cell, err := OrthorhombicCell(10, 10, 10)
	if err != nil {
		Te.Fatal(err)
	}
	frame.SetCell(cell)
	d, err = frame.Distance(0, 1)
	if err != nil {
		Te.Fatal(err)
	}
	//with a 10 Å box the images are only 2 Å apart
	if !scalar.EqualWithinAbs(d, 2, 1e-12) {
		Te.Errorf("wrapped distance %g", d)
	}
	if _, err := frame.Distance(0, 5); KindOf(err) != ErrRange {
		Te.Errorf("out of bounds distance should fail, got %v", err)
	}
}

func TestFrameResizeAndClear(Te *testing.T) {
	frame := NewFrame()
	frame.AddVelocities()
	if err := frame.Resize(4); err != nil {
		Te.Fatal(err)
	}
	if frame.Len() != 4 {
		Te.Errorf("got %d atoms", frame.Len())
	}
	if v, ok := frame.Velocities(); !ok {
		Te.Error("velocities should survive a resize")
	} else if r, c := v.Dims(); r != 4 || c != 3 {
		Te.Errorf("velocities are %dx%d", r, c)
	}
	frame.SetStep(7)
	frame.Clear()
	if frame.Len() != 0 || frame.Step() != 0 {
		Te.Error("clear left data behind")
	}
}

func TestFrameCopy(Te *testing.T) {
	frame := NewFrame()
	frame.AddAtom(NewAtom("C"), [3]float64{1, 1, 1})
	frame.Set("name", String("test"))
	cp := frame.Copy()
	cp.Positions().Set(0, 0, 99)
	cp.Set("name", String("other"))
	if frame.Positions().At(0, 0) != 1 {
		Te.Error("the copy shares positions with the original")
	}
	if p, _ := frame.Get("name"); mustString(p) != "test" {
		Te.Error("the copy shares properties with the original")
	}
}

func mustString(p Property) string {
	s, _ := p.AsString()
	return s
}
