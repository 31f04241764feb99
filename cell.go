/*
 * cell.go, part of gochemfiles.
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

package chemfiles

import (
	"math"

	"gonum.org/v1/gonum/mat"
)

// CellShape describes the periodicity of a unit cell.
type CellShape int

const (
	// Infinite cells have no periodic boundaries.
	Infinite CellShape = iota
	// Orthorhombic cells have three perpendicular vectors.
	Orthorhombic
	// Triclinic cells have three vectors with arbitrary angles.
	Triclinic
)

func (s CellShape) String() string {
	switch s {
	case Infinite:
		return "infinite"
	case Orthorhombic:
		return "orthorhombic"
	case Triclinic:
		return "triclinic"
	}
	return "unknown"
}

//degrees/radians helpers. The public API always talks degrees.
func deg2rad(x float64) float64 { return x * math.Pi / 180.0 }
func rad2deg(x float64) float64 { return x * 180.0 / math.Pi }

// UnitCell is the periodic box of a frame. The canonical representation is a
// 3x3 matrix with the cell vectors as columns, in the upper triangular form:
// the first vector lies along x, the second in the xy plane. Lengths and
// angles are derived from it.
type UnitCell struct {
	shape CellShape
	m     *mat.Dense //3x3, nil for infinite cells
}

// InfiniteCell returns a cell without periodic boundaries.
func InfiniteCell() *UnitCell {
	return &UnitCell{shape: Infinite}
}

// OrthorhombicCell builds a cell from three positive lengths, in Angstroms.
// All lengths zero gives an infinite cell.
func OrthorhombicCell(a, b, c float64) (*UnitCell, error) {
	return CellFromLengthsAngles([3]float64{a, b, c}, [3]float64{90, 90, 90})
}

// CellFromLengthsAngles builds a cell from lengths (Angstroms) and angles
// (degrees). Angles of exactly 90 give an orthorhombic cell, lengths of all
// zero an infinite one. Negative lengths or angles outside (0, 180) fail
// with an invariant-violation error.
func CellFromLengthsAngles(lengths, angles [3]float64) (*UnitCell, error) {
	for _, l := range lengths {
		if l < 0 {
			return nil, NewError(ErrInvariant, "cell lengths must be positive, got %v", lengths)
		}
	}
	if lengths[0] == 0 && lengths[1] == 0 && lengths[2] == 0 {
		return InfiniteCell(), nil
	}
	for _, a := range angles {
		if a <= 0 || a >= 180 {
			return nil, NewError(ErrInvariant, "cell angles must be in (0, 180), got %v", angles)
		}
	}
	alpha, beta, gamma := angles[0], angles[1], angles[2]
	if alpha == 90 && beta == 90 && gamma == 90 {
		m := mat.NewDense(3, 3, nil)
		m.Set(0, 0, lengths[0])
		m.Set(1, 1, lengths[1])
		m.Set(2, 2, lengths[2])
		return &UnitCell{shape: Orthorhombic, m: m}, nil
	}
	ca, cb := math.Cos(deg2rad(alpha)), math.Cos(deg2rad(beta))
	cg, sg := math.Cos(deg2rad(gamma)), math.Sin(deg2rad(gamma))
	m := mat.NewDense(3, 3, nil)
	//vectors as columns: a along x, b in the xy plane.
	m.Set(0, 0, lengths[0])
	m.Set(0, 1, lengths[1]*cg)
	m.Set(1, 1, lengths[1]*sg)
	cx := lengths[2] * cb
	cy := lengths[2] * (ca - cb*cg) / sg
	cz2 := lengths[2]*lengths[2] - cx*cx - cy*cy
	if cz2 < 0 {
		return nil, NewError(ErrInvariant, "cell angles %v are geometrically impossible", angles)
	}
	m.Set(0, 2, cx)
	m.Set(1, 2, cy)
	m.Set(2, 2, math.Sqrt(cz2))
	return &UnitCell{shape: Triclinic, m: m}, nil
}

// CellFromMatrix builds a cell from a 3x3 matrix with the cell vectors as
// columns. A zero matrix gives an infinite cell. The shape is detected from
// the off-diagonal elements.
func CellFromMatrix(m *mat.Dense) (*UnitCell, error) {
	r, c := m.Dims()
	if r != 3 || c != 3 {
		return nil, NewError(ErrInvariant, "cell matrix must be 3x3, got %dx%d", r, c)
	}
	zero := true
	diagonal := true
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			v := m.At(i, j)
			if v != 0 {
				zero = false
				if i != j {
					diagonal = false
				}
			}
		}
	}
	if zero {
		return InfiniteCell(), nil
	}
	n := mat.NewDense(3, 3, nil)
	n.Copy(m)
	if diagonal {
		return &UnitCell{shape: Orthorhombic, m: n}, nil
	}
	return &UnitCell{shape: Triclinic, m: n}, nil
}

// Shape returns the periodicity of the cell.
func (c *UnitCell) Shape() CellShape {
	return c.shape
}

// Matrix returns a copy of the 3x3 cell matrix, with the vectors as columns.
// Infinite cells return the zero matrix.
func (c *UnitCell) Matrix() *mat.Dense {
	m := mat.NewDense(3, 3, nil)
	if c.m != nil {
		m.Copy(c.m)
	}
	return m
}

// Lengths returns the lengths of the three cell vectors, in Angstroms.
func (c *UnitCell) Lengths() [3]float64 {
	if c.m == nil {
		return [3]float64{}
	}
	var out [3]float64
	for j := 0; j < 3; j++ {
		out[j] = math.Hypot(c.m.At(0, j), math.Hypot(c.m.At(1, j), c.m.At(2, j)))
	}
	return out
}

// Angles returns the three cell angles alpha, beta, gamma in degrees.
// Infinite and orthorhombic cells report 90 degrees everywhere.
func (c *UnitCell) Angles() [3]float64 {
	if c.shape != Triclinic {
		return [3]float64{90, 90, 90}
	}
	l := c.Lengths()
	col := func(j int) mat.Vector { return c.m.ColView(j) }
	angle := func(u, v mat.Vector, lu, lv float64) float64 {
		return rad2deg(math.Acos(mat.Dot(u, v) / (lu * lv)))
	}
	return [3]float64{
		angle(col(1), col(2), l[1], l[2]), //alpha, between b and c
		angle(col(0), col(2), l[0], l[2]), //beta, between a and c
		angle(col(0), col(1), l[0], l[1]), //gamma, between a and b
	}
}

// Volume returns the cell volume in cubic Angstroms, 0 for infinite cells.
func (c *UnitCell) Volume() float64 {
	if c.m == nil {
		return 0
	}
	return math.Abs(mat.Det(c.m))
}

// Copy returns a deep copy of the cell.
func (c *UnitCell) Copy() *UnitCell {
	if c.m == nil {
		return &UnitCell{shape: c.shape}
	}
	n := mat.NewDense(3, 3, nil)
	n.Copy(c.m)
	return &UnitCell{shape: c.shape, m: n}
}

//wrap applies the minimum image convention to the cartesian displacement d.
func (c *UnitCell) wrap(d []float64) {
	switch c.shape {
	case Infinite:
		return
	case Orthorhombic:
		for i := 0; i < 3; i++ {
			l := c.m.At(i, i)
			d[i] -= l * math.Round(d[i]/l)
		}
	case Triclinic:
		//go through fractional coordinates: f = M^-1 d
		var inv mat.Dense
		if err := inv.Inverse(c.m); err != nil {
			return //degenerate cell, nothing sensible to do
		}
		f := mat.NewVecDense(3, nil)
		f.MulVec(&inv, mat.NewVecDense(3, d))
		for i := 0; i < 3; i++ {
			f.SetVec(i, f.AtVec(i)-math.Round(f.AtVec(i)))
		}
		out := mat.NewVecDense(3, nil)
		out.MulVec(c.m, f)
		for i := 0; i < 3; i++ {
			d[i] = out.AtVec(i)
		}
	}
}
