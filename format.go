/*
 * format.go, part of gochemfiles.
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

// Capabilities is the bitmask a format uses to advertise what it can do.
type Capabilities uint8

const (
	// RandomAccess formats can serve any frame in O(1) seeks. Formats
	// without it still implement ReadStep, by scanning from the start.
	RandomAccess Capabilities = 1 << iota
	// CanAppend formats support adding frames to an existing file while
	// preserving its records bit-for-bit.
	CanAppend
	// WritesVelocities formats record the velocities a frame carries.
	WritesVelocities
	// WritesForces formats record the forces a frame carries.
	WritesForces
	// WritesCell formats record the unit cell.
	WritesCell
	// WritesTopology formats record atoms and bonds, not only positions.
	WritesTopology
)

// Has reports whether all capabilities in mask are advertised.
func (c Capabilities) Has(mask Capabilities) bool {
	return c&mask == mask
}

// Format is the contract every concrete file format implements. A format
// instance is bound to one file and owns it: closing the format closes the
// file. Formats keep an internal cursor: Read produces the frame at the
// cursor and advances it, ReadStep moves the cursor to n and reads. On any
// failure the cursor is left where it was.
type Format interface {
	//Read reads the frame at the internal cursor and advances it.
	Read(frame *Frame) error
	//ReadStep reads frame n, leaving the cursor after it.
	ReadStep(n int, frame *Frame) error
	//Write appends one frame to the file.
	Write(frame *Frame) error
	//Size returns the total number of frames currently in the file.
	Size() (int, error)
	//Description returns a short human-readable description.
	Description() string
	//Capabilities returns what the format advertises it supports.
	Capabilities() Capabilities
	//Close flushes and closes the underlying file. Idempotent.
	Close() error
}
