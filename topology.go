/*
 * topology.go, part of gochemfiles.
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

import "sort"

// BondOrder qualifies a bond between two atoms. Besides the usual chemical
// orders it carries the stereo tags used by line notations such as InChI and
// by 2D file formats.
type BondOrder int

const (
	BondUnknown BondOrder = iota
	BondSingle
	BondDouble
	BondTriple
	BondAromatic
	BondAmide
	BondDativeLeft
	BondDativeRight
	BondUp
	BondDown
	BondWedgeUp
	BondWedgeDown
	BondWedgeEither
	BondEvenRectangle
	BondOddRectangle
)

// Bond is an unordered pair of atom indices. The stored pair is normalized
// so that I < J.
type Bond struct {
	I, J  int
	Order BondOrder
}

//bondKey is the normalized pair, used to forbid duplicates.
type bondKey struct{ i, j int }

func normalize(i, j int) bondKey {
	if i < j {
		return bondKey{i, j}
	}
	return bondKey{j, i}
}

//Topology contains the information about a system which is not expected to
//change along a trajectory: the atoms and the bonds between them. Angles and
//dihedrals are derived from the bonds on demand, they are never stored.
type Topology struct {
	atoms []*Atom
	bonds map[bondKey]BondOrder
}

// NewTopology returns an empty topology.
func NewTopology() *Topology {
	return &Topology{bonds: make(map[bondKey]BondOrder)}
}

// Len returns the number of atoms in the topology.
func (t *Topology) Len() int {
	return len(t.atoms)
}

// Atom returns the atom at index i. It panics if i is out of range.
func (t *Topology) Atom(i int) *Atom {
	if i < 0 || i >= len(t.atoms) {
		panic("chemfiles: requested Atom out of bounds")
	}
	return t.atoms[i]
}

// AddAtom appends an atom to the topology. It fails with an
// invariant-violation error if the atom is nil or breaks the atom
// invariants.
func (t *Topology) AddAtom(a *Atom) error {
	if a == nil {
		return NewError(ErrInvariant, "can not add a nil atom")
	}
	if err := a.check(); err != nil {
		return err
	}
	t.atoms = append(t.atoms, a)
	return nil
}

// Resize sets the atom count to n, filling with default-constructed atoms or
// truncating. Truncation drops every bond touching a removed atom.
func (t *Topology) Resize(n int) error {
	if n < 0 {
		return NewError(ErrInvariant, "can not resize a topology to %d atoms", n)
	}
	for len(t.atoms) < n {
		t.atoms = append(t.atoms, &Atom{})
	}
	if n < len(t.atoms) {
		t.atoms = t.atoms[:n]
		for k := range t.bonds {
			if k.i >= n || k.j >= n {
				delete(t.bonds, k)
			}
		}
	}
	return nil
}

// AddBond records a bond between atoms i and j with the given order,
// replacing the order of an existing bond. It fails with an
// invariant-violation error if i == j or either index is out of range.
func (t *Topology) AddBond(i, j int, order BondOrder) error {
	if i == j {
		return NewError(ErrInvariant, "can not bond atom %d with itself", i)
	}
	if i < 0 || j < 0 || i >= len(t.atoms) || j >= len(t.atoms) {
		return NewError(ErrInvariant, "bond indexes (%d, %d) out of bounds for %d atoms", i, j, len(t.atoms))
	}
	if t.bonds == nil {
		t.bonds = make(map[bondKey]BondOrder)
	}
	t.bonds[normalize(i, j)] = order
	return nil
}

// RemoveBond removes the bond between atoms i and j. Removing a bond which
// does not exist is not an error.
func (t *Topology) RemoveBond(i, j int) {
	delete(t.bonds, normalize(i, j))
}

// BondOrderOf returns the order of the bond between i and j and whether the
// bond exists.
func (t *Topology) BondOrderOf(i, j int) (BondOrder, bool) {
	o, ok := t.bonds[normalize(i, j)]
	return o, ok
}

// Bonds returns the bonds of the topology, sorted by (I, J).
func (t *Topology) Bonds() []Bond {
	out := make([]Bond, 0, len(t.bonds))
	for k, o := range t.bonds {
		out = append(out, Bond{I: k.i, J: k.j, Order: o})
	}
	sort.Slice(out, func(a, b int) bool {
		if out[a].I != out[b].I {
			return out[a].I < out[b].I
		}
		return out[a].J < out[b].J
	})
	return out
}

// Angles enumerates the (i, j, k) triplets of bonded atoms, with j the
// central atom and i < k. They are recomputed from the bonds on every call.
func (t *Topology) Angles() [][3]int {
	adj := t.adjacency()
	var out [][3]int
	for j, around := range adj {
		for x := 0; x < len(around); x++ {
			for y := x + 1; y < len(around); y++ {
				i, k := around[x], around[y]
				if i > k {
					i, k = k, i
				}
				out = append(out, [3]int{i, j, k})
			}
		}
	}
	return out
}

// Dihedrals enumerates the (i, j, k, m) quadruplets of bonded atoms around
// the central j-k bond.
func (t *Topology) Dihedrals() [][4]int {
	adj := t.adjacency()
	var out [][4]int
	for key := range t.bonds {
		j, k := key.i, key.j
		for _, i := range adj[j] {
			if i == k {
				continue
			}
			for _, m := range adj[k] {
				if m == j || m == i {
					continue
				}
				out = append(out, [4]int{i, j, k, m})
			}
		}
	}
	return out
}

func (t *Topology) adjacency() [][]int {
	adj := make([][]int, len(t.atoms))
	keys := make([]bondKey, 0, len(t.bonds))
	for k := range t.bonds {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(a, b int) bool {
		if keys[a].i != keys[b].i {
			return keys[a].i < keys[b].i
		}
		return keys[a].j < keys[b].j
	})
	for _, k := range keys {
		adj[k.i] = append(adj[k.i], k.j)
		adj[k.j] = append(adj[k.j], k.i)
	}
	return adj
}

// Copy returns a deep copy of the topology.
func (t *Topology) Copy() *Topology {
	n := NewTopology()
	n.atoms = make([]*Atom, len(t.atoms))
	for i, a := range t.atoms {
		n.atoms[i] = a.Copy()
	}
	for k, o := range t.bonds {
		n.bonds[k] = o
	}
	return n
}
