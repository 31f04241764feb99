/*
 * errors.go, part of gochemfiles.
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
	"fmt"
	"strings"
)

// Kind classifies an error into one of a small closed set, so callers can
// branch on the class of a failure without matching message text.
type Kind int

const (
	// ErrIO covers operating-system level failures: missing files,
	// permissions, short reads, full disks.
	ErrIO Kind = iota + 1
	// ErrFormat means the file contents do not follow the format.
	ErrFormat
	// ErrMode means the operation does not match the open mode, like
	// writing to a read-only trajectory.
	ErrMode
	// ErrUnsupportedMode means the mode itself can not be served, like
	// appending to a compressed file.
	ErrUnsupportedMode
	// ErrUnknownFormat means no registered format matches a name or
	// extension.
	ErrUnknownFormat
	// ErrShape means array dimensions disagree, like appending a frame
	// with a different atom count.
	ErrShape
	// ErrParse means a value could not be parsed from text.
	ErrParse
	// ErrRange means a value or index is out of its valid range.
	ErrRange
	// ErrInvariant means an API precondition was violated by the caller.
	ErrInvariant
)

func (k Kind) String() string {
	switch k {
	case ErrIO:
		return "i/o error"
	case ErrFormat:
		return "format error"
	case ErrMode:
		return "mode error"
	case ErrUnsupportedMode:
		return "unsupported mode"
	case ErrUnknownFormat:
		return "unknown format"
	case ErrShape:
		return "shape mismatch"
	case ErrParse:
		return "parse error"
	case ErrRange:
		return "out of range"
	case ErrInvariant:
		return "invariant violation"
	default:
		return "unknown error"
	}
}

// Error is the concrete error type of the library. It carries a Kind, the
// message, optionally the file involved, and the trace of callers that
// decorated it on the way up.
type Error struct {
	kind Kind
	path string
	msg  string
	deco []string
}

// NewError builds an Error of the given kind with a formatted message.
func NewError(kind Kind, format string, args ...interface{}) *Error {
	return &Error{kind: kind, msg: fmt.Sprintf(format, args...)}
}

// IOError wraps an operating-system error for path. A nil err yields nil.
func IOError(path string, err error) error {
	if err == nil {
		return nil
	}
	var lib *Error
	if errors.As(err, &lib) {
		if lib.path == "" {
			return lib.WithPath(path)
		}
		return lib
	}
	return &Error{kind: ErrIO, path: path, msg: err.Error()}
}

// WithPath returns the error with the file name set, for retrieval with
// FileName.
func (e *Error) WithPath(path string) *Error {
	e.path = path
	return e
}

func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString(e.kind.String())
	if e.path != "" {
		fmt.Fprintf(&b, " in %q", e.path)
	}
	b.WriteString(": ")
	b.WriteString(e.msg)
	for _, d := range e.deco {
		b.WriteString(" (")
		b.WriteString(d)
		b.WriteString(")")
	}
	return b.String()
}

// Kind returns the class of the error.
func (e *Error) Kind() Kind {
	return e.kind
}

// FileName returns the path of the file involved, or the empty string.
func (e *Error) FileName() string {
	return e.path
}

// Decorate adds info to the error and returns the trace accumulated so
// far. If info is empty it only returns the trace.
func (e *Error) Decorate(info string) []string {
	if info != "" {
		e.deco = append(e.deco, info)
	}
	return e.deco
}

// KindOf returns the Kind of err, or 0 when err is nil or foreign.
func KindOf(err error) Kind {
	var lib *Error
	if errors.As(err, &lib) {
		return lib.kind
	}
	return 0
}

// DecorateError adds the caller name to err when it is a library error,
// and returns err either way.
func DecorateError(err error, caller string) error {
	var lib *Error
	if errors.As(err, &lib) {
		lib.Decorate(caller)
	}
	return err
}
