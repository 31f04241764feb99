/*
 * atom.go, part of gochemfiles.
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

//Atom contains everything about an atom except for its coordinates,
//velocities and forces, which live in the enclosing Frame.
type Atom struct {
	//Name of the atom in its residue or molecule, e.g. "CA" or "OW".
	Name string
	//Element symbol, e.g. "C" or "Zn". May be empty for dummy particles.
	Symbol string
	//Mass in atomic mass units. Zero-value atoms get the natural mass of
	//their element when built through NewAtom.
	Mass float64
	//Partial charge, in fractions of the electron charge.
	Charge float64

	number int //explicit atomic number, 0 if unset
	props  properties
}

// NewAtom builds an atom with the given element symbol, its natural mass and
// the matching atomic number, when the element is known.
func NewAtom(symbol string) *Atom {
	return &Atom{
		Name:   symbol,
		Symbol: symbol,
		Mass:   symbolMass[symbol],
		number: symbolNumber[symbol],
	}
}

// AtomicNumber returns the atomic number of the atom and whether one is
// known, either set explicitly or derived from the element symbol.
func (a *Atom) AtomicNumber() (int, bool) {
	if a.number != 0 {
		return a.number, true
	}
	z, ok := symbolNumber[a.Symbol]
	return z, ok
}

// SetAtomicNumber sets an explicit atomic number. It fails with an
// invariant-violation error for z < 1.
func (a *Atom) SetAtomicNumber(z int) error {
	if z < 1 {
		return NewError(ErrInvariant, "atomic number must be positive, got %d", z)
	}
	a.number = z
	return nil
}

// Set attaches a property to the atom under the given key, replacing any
// previous value.
func (a *Atom) Set(key string, p Property) {
	a.props = a.props.set(key, p)
}

// Get returns the property stored under key, and whether it exists.
func (a *Atom) Get(key string) (Property, bool) {
	return a.props.get(key)
}

// Copy returns a deep copy of the atom.
func (a *Atom) Copy() *Atom {
	n := *a
	n.props = a.props.copy()
	return &n
}

//check verifies the atom invariants. It runs at the mutation boundaries of
//the enclosing frame or topology.
func (a *Atom) check() error {
	if a.Mass < 0 {
		return NewError(ErrInvariant, "atom %q has negative mass %g", a.Name, a.Mass)
	}
	return nil
}
