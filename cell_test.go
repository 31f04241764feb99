/*
 * cell_test.go, part of gochemfiles.
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
	"gonum.org/v1/gonum/mat"
)

func TestCellShapes(Te *testing.T) {
	inf := InfiniteCell()
	if inf.Shape() != Infinite || inf.Volume() != 0 {
		Te.Error("bad infinite cell")
	}
	ortho, err := OrthorhombicCell(10, 20, 30)
	if err != nil {
		Te.Fatal(err)
	}
	if ortho.Shape() != Orthorhombic {
		Te.Error("bad orthorhombic shape")
	}
	if l := ortho.Lengths(); l != [3]float64{10, 20, 30} {
		Te.Errorf("lengths %v", l)
	}
	if a := ortho.Angles(); a != [3]float64{90, 90, 90} {
		Te.Errorf("angles %v", a)
	}
	if v := ortho.Volume(); !scalar.EqualWithinAbs(v, 6000, 1e-9) {
		Te.Errorf("volume %g", v)
	}
}

func TestCellFromLengthsAngles(Te *testing.T) {
	//zero lengths mean no periodicity at all
	cell, err := CellFromLengthsAngles([3]float64{0, 0, 0}, [3]float64{90, 90, 90})
	if err != nil {
		Te.Fatal(err)
	}
	if cell.Shape() != Infinite {
		Te.Error("zero lengths should give an infinite cell")
	}
	tri, err := CellFromLengthsAngles([3]float64{10, 10, 10}, [3]float64{80, 100, 120})
	if err != nil {
		Te.Fatal(err)
	}
	if tri.Shape() != Triclinic {
		Te.Error("bad triclinic shape")
	}
	l := tri.Lengths()
	a := tri.Angles()
	for i, want := range [3]float64{10, 10, 10} {
		if !scalar.EqualWithinAbs(l[i], want, 1e-9) {
			Te.Errorf("length %d: %g", i, l[i])
		}
	}
	for i, want := range [3]float64{80, 100, 120} {
		if !scalar.EqualWithinAbs(a[i], want, 1e-9) {
			Te.Errorf("angle %d: %g", i, a[i])
		}
	}
	if _, err := CellFromLengthsAngles([3]float64{10, 10, 10}, [3]float64{0, 90, 90}); KindOf(err) != ErrInvariant {
		Te.Errorf("degenerate angles should fail, got %v", err)
	}
	if _, err := CellFromLengthsAngles([3]float64{10, 10, 10}, [3]float64{90, 180, 90}); KindOf(err) != ErrInvariant {
		Te.Errorf("flat angles should fail, got %v", err)
	}
}

func TestCellMatrixRoundTrip(Te *testing.T) {
	tri, err := CellFromLengthsAngles([3]float64{12, 13, 14}, [3]float64{75, 85, 95})
	if err != nil {
		Te.Fatal(err)
	}
	back, err := CellFromMatrix(tri.Matrix())
	if err != nil {
		Te.Fatal(err)
	}
	bl, ba := back.Lengths(), back.Angles()
	for i := 0; i < 3; i++ {
		if !scalar.EqualWithinAbs(bl[i], tri.Lengths()[i], 1e-9) {
			Te.Errorf("length %d changed: %g", i, bl[i])
		}
		if !scalar.EqualWithinAbs(ba[i], tri.Angles()[i], 1e-9) {
			Te.Errorf("angle %d changed: %g", i, ba[i])
		}
	}
	diag, err := CellFromMatrix(mat.NewDense(3, 3, []float64{
		5, 0, 0,
		0, 6, 0,
		0, 0, 7,
	}))
	if err != nil {
		Te.Fatal(err)
	}
	if diag.Shape() != Orthorhombic {
		Te.Error("a diagonal matrix should give an orthorhombic cell")
	}
}
