/*
 * property.go, part of gochemfiles.
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

// PropertyKind tags the value held by a Property.
type PropertyKind int

const (
	PropBool PropertyKind = iota
	PropDouble
	PropString
	PropVector3D
)

func (k PropertyKind) String() string {
	switch k {
	case PropBool:
		return "bool"
	case PropDouble:
		return "double"
	case PropString:
		return "string"
	case PropVector3D:
		return "vector3d"
	}
	return "unknown"
}

// Property is a tagged value attached to a Frame or an Atom under a string
// key. Integer values round-trip through PropDouble.
type Property struct {
	kind PropertyKind
	b    bool
	d    float64
	s    string
	v    [3]float64
}

// Bool builds a boolean property.
func Bool(v bool) Property { return Property{kind: PropBool, b: v} }

// Double builds a floating-point property.
func Double(v float64) Property { return Property{kind: PropDouble, d: v} }

// String builds a string property.
func String(v string) Property { return Property{kind: PropString, s: v} }

// Vector3D builds a 3-vector property.
func Vector3D(x, y, z float64) Property {
	return Property{kind: PropVector3D, v: [3]float64{x, y, z}}
}

// Kind returns the tag of the value held by the property.
func (p Property) Kind() PropertyKind { return p.kind }

// AsBool returns the boolean value, and whether the property holds one.
func (p Property) AsBool() (bool, bool) { return p.b, p.kind == PropBool }

// AsDouble returns the floating-point value, and whether the property holds
// one.
func (p Property) AsDouble() (float64, bool) { return p.d, p.kind == PropDouble }

// AsString returns the string value, and whether the property holds one.
func (p Property) AsString() (string, bool) { return p.s, p.kind == PropString }

// AsVector3D returns the 3-vector value, and whether the property holds one.
func (p Property) AsVector3D() ([3]float64, bool) { return p.v, p.kind == PropVector3D }

// properties is the bag shared by frames and atoms.
type properties map[string]Property

func (ps properties) set(key string, p Property) properties {
	if ps == nil {
		ps = make(properties, 4)
	}
	ps[key] = p
	return ps
}

func (ps properties) get(key string) (Property, bool) {
	p, ok := ps[key]
	return p, ok
}

func (ps properties) copy() properties {
	if ps == nil {
		return nil
	}
	n := make(properties, len(ps))
	for k, v := range ps {
		n[k] = v
	}
	return n
}
