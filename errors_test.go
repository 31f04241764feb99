/*
 * errors_test.go, part of gochemfiles.
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
	"errors"
	"strings"
	"testing"
)

func TestErrorDecoration(Te *testing.T) {
	err := NewError(ErrFormat, "bad magic %d", 12).WithPath("a.trr")
	if KindOf(err) != ErrFormat {
		Te.Errorf("kind %v", KindOf(err))
	}
	if err.FileName() != "a.trr" {
		Te.Errorf("file %q", err.FileName())
	}
	trace := err.Decorate("readHeader")
	if len(trace) != 1 || trace[0] != "readHeader" {
		Te.Errorf("trace %v", trace)
	}
	msg := err.Error()
	for _, want := range []string{"format error", "a.trr", "bad magic 12", "readHeader"} {
		if !strings.Contains(msg, want) {
			Te.Errorf("message %q misses %q", msg, want)
		}
	}
}

func TestIOError(Te *testing.T) {
	if IOError("x", nil) != nil {
		Te.Error("a nil error should stay nil")
	}
	err := IOError("x", errors.New("disk on fire"))
	if KindOf(err) != ErrIO {
		Te.Errorf("kind %v", KindOf(err))
	}
	//library errors pass through with their kind intact
	wrapped := IOError("x", NewError(ErrRange, "too far"))
	if KindOf(wrapped) != ErrRange {
		Te.Errorf("kind %v", KindOf(wrapped))
	}
	if KindOf(errors.New("foreign")) != 0 {
		Te.Error("foreign errors have no kind")
	}
}

func TestProperties(Te *testing.T) {
	p := Vector3D(1, 2, 3)
	if v, ok := p.AsVector3D(); !ok || v != [3]float64{1, 2, 3} {
		Te.Errorf("vector %v", v)
	}
	if _, ok := p.AsDouble(); ok {
		Te.Error("a vector is not a double")
	}
	a := NewAtom("Zn")
	a.Set("charge_group", Double(2))
	if got, ok := a.Get("charge_group"); !ok {
		Te.Error("property lost")
	} else if d, _ := got.AsDouble(); d != 2 {
		Te.Errorf("got %g", d)
	}
}

func TestAtomicData(Te *testing.T) {
	a := NewAtom("Fe")
	if z, ok := a.AtomicNumber(); !ok || z != 26 {
		Te.Errorf("iron has number %d", z)
	}
	if a.Mass < 55 || a.Mass > 57 {
		Te.Errorf("iron has mass %g", a.Mass)
	}
	unknown := NewAtom("Xx")
	if _, ok := unknown.AtomicNumber(); ok {
		Te.Error("made up symbols have no atomic number")
	}
	if err := unknown.SetAtomicNumber(0); KindOf(err) != ErrInvariant {
		Te.Errorf("got %v", err)
	}
}
