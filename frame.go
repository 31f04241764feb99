/*
 * frame.go, part of gochemfiles.
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

//Frame is one simulation snapshot: a topology, positions for every atom and,
//optionally, velocities, forces, a unit cell, a step, a time and a property
//bag. Positions, velocities and forces are (natoms x 3) matrices; the
//optional ones are either absent or exactly as long as the positions.
type Frame struct {
	top     *Topology
	step    int
	time    float64
	hasTime bool
	cell    *UnitCell
	coords  *mat.Dense //always natoms x 3, nil only for 0 atoms
	vel     *mat.Dense //nil for 0 atoms even when hasVel is set
	forces  *mat.Dense
	hasVel  bool
	hasFor  bool
	props   properties
}

// NewFrame returns an empty frame with an infinite cell.
func NewFrame() *Frame {
	return &Frame{top: NewTopology(), cell: InfiniteCell()}
}

// Len returns the number of atoms in the frame.
func (f *Frame) Len() int {
	return f.top.Len()
}

// Topology gives access to the atoms and bonds of the frame.
func (f *Frame) Topology() *Topology {
	return f.top
}

// Step returns the simulation step of the frame.
func (f *Frame) Step() int { return f.step }

// SetStep sets the simulation step of the frame.
func (f *Frame) SetStep(step int) { f.step = step }

// Time returns the simulation time of the frame in picoseconds, and whether
// the frame carries one.
func (f *Frame) Time() (float64, bool) { return f.time, f.hasTime }

// SetTime sets the simulation time of the frame, in picoseconds.
func (f *Frame) SetTime(t float64) {
	f.time = t
	f.hasTime = true
}

// Cell returns the unit cell of the frame.
func (f *Frame) Cell() *UnitCell { return f.cell }

// SetCell sets the unit cell of the frame. A nil cell means infinite.
func (f *Frame) SetCell(c *UnitCell) {
	if c == nil {
		c = InfiniteCell()
	}
	f.cell = c
}

// Set attaches a property to the frame under the given key.
func (f *Frame) Set(key string, p Property) {
	f.props = f.props.set(key, p)
}

// Get returns the frame property stored under key, and whether it exists.
func (f *Frame) Get(key string) (Property, bool) {
	return f.props.get(key)
}

// Positions returns the (natoms x 3) position matrix of the frame. The
// matrix is the actual storage: writes through it modify the frame. It is
// nil while the frame has no atoms.
func (f *Frame) Positions() *mat.Dense {
	return f.coords
}

// Velocities returns the velocity matrix and whether the frame carries
// velocities.
func (f *Frame) Velocities() (*mat.Dense, bool) {
	return f.vel, f.hasVel
}

// Forces returns the force matrix and whether the frame carries forces.
func (f *Frame) Forces() (*mat.Dense, bool) {
	return f.forces, f.hasFor
}

// AddVelocities adds a zeroed velocity column set to the frame, if not
// already present.
func (f *Frame) AddVelocities() {
	if !f.hasVel {
		f.hasVel = true
		f.vel = zeros(f.Len())
	}
}

// AddForces adds a zeroed force column set to the frame, if not already
// present.
func (f *Frame) AddForces() {
	if !f.hasFor {
		f.hasFor = true
		f.forces = zeros(f.Len())
	}
}

//zeros returns an (n x 3) zero matrix, nil for n == 0.
func zeros(n int) *mat.Dense {
	if n == 0 {
		return nil
	}
	return mat.NewDense(n, 3, nil)
}

//grown returns m extended or truncated to n rows, keeping the old data.
func grown(m *mat.Dense, n int) *mat.Dense {
	if n == 0 {
		return nil
	}
	out := mat.NewDense(n, 3, nil)
	if m != nil {
		r, _ := m.Dims()
		if r > n {
			r = n
		}
		for i := 0; i < r; i++ {
			out.SetRow(i, m.RawRowView(i))
		}
	}
	return out
}

// AddAtom appends an atom with its position and, optionally, a velocity.
// Every optional column present in the frame grows by one row. Giving a
// velocity to a frame without velocities adds the column, zeroed for all
// previous atoms.
func (f *Frame) AddAtom(a *Atom, pos [3]float64, vel ...[3]float64) error {
	if err := f.top.AddAtom(a); err != nil {
		return err
	}
	n := f.top.Len()
	f.coords = grown(f.coords, n)
	f.coords.SetRow(n-1, pos[:])
	if len(vel) > 0 {
		f.hasVel = true
	}
	if f.hasVel {
		f.vel = grown(f.vel, n)
		if len(vel) > 0 {
			f.vel.SetRow(n-1, vel[0][:])
		}
	}
	if f.hasFor {
		f.forces = grown(f.forces, n)
	}
	return nil
}

// Resize sets the atom count of the frame to n. New atoms are
// default-constructed with zero positions; all present optional columns are
// resized alongside the positions.
func (f *Frame) Resize(n int) error {
	if err := f.top.Resize(n); err != nil {
		return err
	}
	f.coords = grown(f.coords, n)
	if f.hasVel {
		f.vel = grown(f.vel, n)
	}
	if f.hasFor {
		f.forces = grown(f.forces, n)
	}
	return nil
}

// AddBond records a bond between atoms i and j in the topology.
func (f *Frame) AddBond(i, j int, order BondOrder) error {
	return f.top.AddBond(i, j, order)
}

// RemoveBond removes the bond between atoms i and j, if any.
func (f *Frame) RemoveBond(i, j int) {
	f.top.RemoveBond(i, j)
}

// Distance returns the minimum-image distance between atoms i and j under
// the current cell, in Angstroms.
func (f *Frame) Distance(i, j int) (float64, error) {
	n := f.Len()
	if i < 0 || j < 0 || i >= n || j >= n {
		return 0, NewError(ErrRange, "atom indexes (%d, %d) out of bounds for %d atoms", i, j, n)
	}
	pi := f.coords.RawRowView(i)
	pj := f.coords.RawRowView(j)
	d := []float64{pj[0] - pi[0], pj[1] - pi[1], pj[2] - pi[2]}
	f.cell.wrap(d)
	return math.Sqrt(d[0]*d[0] + d[1]*d[1] + d[2]*d[2]), nil
}

// Copy returns a deep copy of the frame.
func (f *Frame) Copy() *Frame {
	n := &Frame{
		top:     f.top.Copy(),
		step:    f.step,
		time:    f.time,
		hasTime: f.hasTime,
		cell:    f.cell.Copy(),
		hasVel:  f.hasVel,
		hasFor:  f.hasFor,
		props:   f.props.copy(),
	}
	cp := func(m *mat.Dense) *mat.Dense {
		if m == nil {
			return nil
		}
		out := mat.NewDense(f.Len(), 3, nil)
		out.Copy(m)
		return out
	}
	n.coords = cp(f.coords)
	n.vel = cp(f.vel)
	n.forces = cp(f.forces)
	return n
}

//clear resets the frame before a format fills it.
func (f *Frame) clear() {
	f.top = NewTopology()
	f.step = 0
	f.time = 0
	f.hasTime = false
	f.cell = InfiniteCell()
	f.coords = nil
	f.vel = nil
	f.forces = nil
	f.hasVel = false
	f.hasFor = false
	f.props = nil
}

// Clear empties the frame: no atoms, no optional columns, infinite cell.
func (f *Frame) Clear() {
	f.clear()
}
