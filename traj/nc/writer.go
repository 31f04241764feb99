/*
 * writer.go, part of gochemfiles.
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
	"encoding/binary"
	"math"
	"os"

	chemfiles "github.com/chemfiles/gochemfiles"
)

// varDef declares one variable of a fresh file.
type varDef struct {
	name   string
	dimids []int
	ncType int32
	units  string
}

// amberLayout builds the layout of a new AMBER convention file holding
// natoms atoms, with a velocities variable when hasVel is set. Only the
// begin offsets are left at zero; they depend on the header size and are
// filled by writeHeader.
func amberLayout(natoms int, hasVel bool, title string) *cdfLayout {
	l := &cdfLayout{
		version: 2,
		dims: []cdfDim{
			{"frame", 0},
			{"spatial", 3},
			{"atom", int32(natoms)},
			{"cell_spatial", 3},
			{"cell_angular", 3},
			{"label", 5},
		},
		gatts: map[string]string{
			"Conventions":       "AMBER",
			"ConventionVersion": "1.0",
			"program":           "gochemfiles",
			"programVersion":    "0.1.0",
		},
	}
	if title != "" {
		l.gatts["title"] = title
	}
	defs := []varDef{
		{"spatial", []int{1}, ncChar, ""},
		{"cell_spatial", []int{3}, ncChar, ""},
		{"cell_angular", []int{4, 5}, ncChar, ""},
		{"time", []int{0}, ncFloat, "picosecond"},
		{"coordinates", []int{0, 2, 1}, ncFloat, "angstrom"},
		{"cell_lengths", []int{0, 3}, ncDouble, "angstrom"},
		{"cell_angles", []int{0, 4}, ncDouble, "degree"},
	}
	if hasVel {
		defs = append(defs, varDef{"velocities", []int{0, 2, 1}, ncFloat, "angstrom/picosecond"})
	}
	for _, d := range defs {
		v := cdfVar{name: d.name, dimids: d.dimids, ncType: d.ncType}
		size := ncTypeSize(d.ncType)
		for _, id := range d.dimids {
			if l.dims[id].size != 0 {
				size *= int64(l.dims[id].size)
			} else {
				v.record = true
			}
		}
		v.vsize = size + int64(padding(size))
		if v.record {
			l.recSize += v.vsize
		}
		l.vars = append(l.vars, v)
	}
	return l
}

// headerBuilder serializes a CDF-2 header.
type headerBuilder struct {
	buf   []byte
	units map[string]string
}

func (b *headerBuilder) raw(p []byte) { b.buf = append(b.buf, p...) }

func (b *headerBuilder) i32(v int32) {
	var w [4]byte
	binary.BigEndian.PutUint32(w[:], uint32(v))
	b.raw(w[:])
}

func (b *headerBuilder) i64(v int64) {
	var w [8]byte
	binary.BigEndian.PutUint64(w[:], uint64(v))
	b.raw(w[:])
}

func (b *headerBuilder) padded(p []byte) {
	b.raw(p)
	for i := 0; i < padding(int64(len(p))); i++ {
		b.buf = append(b.buf, 0)
	}
}

func (b *headerBuilder) name(s string) {
	b.i32(int32(len(s)))
	b.padded([]byte(s))
}

func (b *headerBuilder) textAttribute(name, value string) {
	b.name(name)
	b.i32(ncChar)
	b.i32(int32(len(value)))
	b.padded([]byte(value))
}

// sortedKeys keeps the attribute order stable across rebuilds.
func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	for i := 1; i < len(keys); i++ {
		for j := i; j > 0 && keys[j] < keys[j-1]; j-- {
			keys[j], keys[j-1] = keys[j-1], keys[j]
		}
	}
	return keys
}

func (b *headerBuilder) header(l *cdfLayout) []byte {
	b.buf = b.buf[:0]
	b.raw([]byte{'C', 'D', 'F', 2})
	b.i32(int32(l.numrecs))
	b.i32(tagDimension)
	b.i32(int32(len(l.dims)))
	for _, d := range l.dims {
		b.name(d.name)
		b.i32(d.size)
	}
	b.i32(tagAttribute)
	b.i32(int32(len(l.gatts)))
	for _, k := range sortedKeys(l.gatts) {
		b.textAttribute(k, l.gatts[k])
	}
	b.i32(tagVariable)
	b.i32(int32(len(l.vars)))
	for _, v := range l.vars {
		b.name(v.name)
		b.i32(int32(len(v.dimids)))
		for _, id := range v.dimids {
			b.i32(int32(id))
		}
		if u := b.units[v.name]; u != "" {
			b.i32(tagAttribute)
			b.i32(1)
			b.textAttribute("units", u)
		} else {
			b.i32(0)
			b.i32(0)
		}
		b.i32(v.ncType)
		b.i32(int32(v.vsize))
		b.i64(v.begin)
	}
	return b.buf
}

var amberUnits = map[string]string{
	"time":         "picosecond",
	"coordinates":  "angstrom",
	"cell_lengths": "angstrom",
	"cell_angles":  "degree",
	"velocities":   "angstrom/picosecond",
}

// writeHeader computes the begin offset of every variable, writes the
// header and the fixed label variables, and leaves the file ready for
// records.
func writeHeader(f *os.File, path string, l *cdfLayout) error {
	b := &headerBuilder{units: amberUnits}
	// A first pass with zero offsets measures the header, which has a
	// fixed size: offsets are 8 bytes no matter their value.
	size := int64(len(b.header(l)))
	offset := size
	for i := range l.vars {
		if l.vars[i].record {
			continue
		}
		l.vars[i].begin = offset
		offset += l.vars[i].vsize
	}
	for i := range l.vars {
		if !l.vars[i].record {
			continue
		}
		l.vars[i].begin = offset
		offset += l.vars[i].vsize
	}
	if _, err := f.WriteAt(b.header(l), 0); err != nil {
		return chemfiles.IOError(path, err)
	}
	labels := map[string]string{
		"spatial":      "xyz",
		"cell_spatial": "abc",
		"cell_angular": "alpha" + "beta " + "gamma",
	}
	for name, text := range labels {
		v := l.variable(name)
		if v == nil {
			continue
		}
		data := make([]byte, v.vsize)
		copy(data, text)
		if _, err := f.WriteAt(data, v.begin); err != nil {
			return chemfiles.IOError(path, err)
		}
	}
	return nil
}

// writeReals encodes vals with the on-disk type of v into one record's
// worth of bytes.
func writeReals(v *cdfVar, vals []float64) []byte {
	out := make([]byte, v.vsize)
	switch v.ncType {
	case ncDouble:
		for i, x := range vals {
			binary.BigEndian.PutUint64(out[8*i:], math.Float64bits(x))
		}
	default:
		for i, x := range vals {
			binary.BigEndian.PutUint32(out[4*i:], math.Float32bits(float32(x)))
		}
	}
	return out
}

// writeRecord appends one frame's worth of record data and bumps the
// record count. The caller has already checked the atom count.
func writeRecord(f *os.File, path string, l *cdfLayout, frame *chemfiles.Frame) error {
	r := l.numrecs
	for i := range l.vars {
		v := &l.vars[i]
		if !v.record {
			continue
		}
		var data []byte
		switch v.name {
		case "time":
			t, _ := frame.Time()
			data = writeReals(v, []float64{t})
		case "coordinates":
			data = writeReals(v, flatten(frame.Positions(), frame.Len()))
		case "velocities":
			if vel, ok := frame.Velocities(); ok {
				data = writeReals(v, flatten(vel, frame.Len()))
			} else {
				data = make([]byte, v.vsize)
			}
		case "cell_lengths":
			le := frame.Cell().Lengths()
			data = writeReals(v, le[:])
		case "cell_angles":
			an := frame.Cell().Angles()
			data = writeReals(v, an[:])
		default:
			// A record variable from another program; keep the file
			// consistent by writing zeros.
			data = make([]byte, v.vsize)
		}
		if _, err := f.WriteAt(data, l.recordOffset(v, r)); err != nil {
			return chemfiles.IOError(path, err)
		}
	}
	l.numrecs++
	var w [4]byte
	binary.BigEndian.PutUint32(w[:], uint32(l.numrecs))
	if _, err := f.WriteAt(w[:], numrecsOffset); err != nil {
		return chemfiles.IOError(path, err)
	}
	return nil
}

func flatten(m interface{ At(i, j int) float64 }, n int) []float64 {
	out := make([]float64, 3*n)
	for i := 0; i < n; i++ {
		out[3*i] = m.At(i, 0)
		out[3*i+1] = m.At(i, 1)
		out[3*i+2] = m.At(i, 2)
	}
	return out
}
