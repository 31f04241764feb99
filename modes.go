/*
 * modes.go, part of gochemfiles.
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

import "strings"

// Mode is the open mode of a trajectory or a file.
type Mode int

const (
	// Read opens an existing file for reading only.
	Read Mode = iota
	// Write creates or truncates a file for writing.
	Write
	// Append opens or creates a file and adds new frames after the
	// existing ones. Existing records are preserved bit-for-bit.
	Append
)

func (m Mode) String() string {
	switch m {
	case Read:
		return "read"
	case Write:
		return "write"
	case Append:
		return "append"
	}
	return "unknown"
}

// Compression tags the byte-level encoding of a file.
type Compression int

const (
	NoCompression Compression = iota
	Gzip
	Xz
	Bzip2
)

func (c Compression) String() string {
	switch c {
	case NoCompression:
		return "none"
	case Gzip:
		return "gzip"
	case Xz:
		return "xz"
	case Bzip2:
		return "bzip2"
	}
	return "unknown"
}

// GuessCompression maps the trailing extension of path to a compression
// tag: ".gz", ".xz" and ".bz2" are recognized, anything else means no
// compression.
func GuessCompression(path string) Compression {
	switch strings.ToLower(extension(path)) {
	case ".gz":
		return Gzip
	case ".xz":
		return Xz
	case ".bz2":
		return Bzip2
	}
	return NoCompression
}

//extension returns the trailing extension of path, dot included, or "".
func extension(path string) string {
	for i := len(path) - 1; i >= 0; i-- {
		switch path[i] {
		case '.':
			return path[i:]
		case '/', '\\':
			return ""
		}
	}
	return ""
}

//stripCompression removes a recognized compression extension from path, so
//the format extension underneath can be looked up.
func stripCompression(path string) string {
	if GuessCompression(path) != NoCompression {
		return path[:len(path)-len(extension(path))]
	}
	return path
}
