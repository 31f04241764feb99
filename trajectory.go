/*
 * trajectory.go, part of gochemfiles.
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

// Trajectory is the user-facing handle on a trajectory file. It resolves a
// format, tracks the current step, and delegates the actual I/O to the
// format implementation. A Trajectory is not safe for concurrent use.
type Trajectory struct {
	path   string
	mode   Mode
	format Format
	meta   Metadata
	step   int
	closed bool
}

// Open opens the trajectory at path for the given mode. The format is
// guessed from the file extension and the compression from a trailing
// .gz, .xz or .bz2 suffix.
func Open(path string, mode Mode) (*Trajectory, error) {
	return OpenWithOptions(path, mode, "", GuessCompression(path))
}

// OpenWithFormat is Open with the format selected by name instead of by
// extension.
func OpenWithFormat(path string, mode Mode, format string) (*Trajectory, error) {
	return OpenWithOptions(path, mode, format, GuessCompression(path))
}

// OpenWithOptions opens a trajectory with full control: format selects a
// registered format by name, or by extension when empty, and comp forces
// the compression method.
func OpenWithOptions(path string, mode Mode, format string, comp Compression) (*Trajectory, error) {
	var md Metadata
	var err error
	if format != "" {
		md, err = formatByName(format)
	} else {
		md, err = formatForPath(path)
	}
	if err != nil {
		return nil, err
	}
	f, err := md.Open(path, mode, comp)
	if err != nil {
		return nil, err
	}
	if mode == Append && !f.Capabilities().Has(CanAppend) {
		f.Close()
		return nil, NewError(ErrUnsupportedMode, "%s does not support appending to %q", md.Name, path)
	}
	return &Trajectory{path: path, mode: mode, format: f, meta: md}, nil
}

// Path returns the path the trajectory was opened with.
func (t *Trajectory) Path() string {
	return t.path
}

// Mode returns the mode the trajectory was opened with.
func (t *Trajectory) Mode() Mode {
	return t.mode
}

// Step returns the step the next call to Read will produce.
func (t *Trajectory) Step() int {
	return t.step
}

// Size returns the number of frames in the trajectory. For trajectories
// open for writing it reflects the frames written so far.
func (t *Trajectory) Size() (int, error) {
	if err := t.check(); err != nil {
		return 0, err
	}
	return t.format.Size()
}

// Format returns the metadata of the resolved format.
func (t *Trajectory) Format() Metadata {
	return t.meta
}

// Read reads the next frame into frame, advancing the current step. Once
// every frame has been consumed it returns an out-of-range error; use
// Size or Done to detect the end instead of relying on the failure.
func (t *Trajectory) Read(frame *Frame) error {
	if err := t.readable(); err != nil {
		return err
	}
	size, err := t.format.Size()
	if err != nil {
		return err
	}
	if t.step >= size {
		return NewError(ErrRange, "no more frames in %q: all %d already read", t.path, size)
	}
	if err := t.format.Read(frame); err != nil {
		return err
	}
	t.step++
	return nil
}

// ReadStep reads frame n into frame. On success the current step is n+1,
// so a following Read continues from there; on failure it is unchanged.
func (t *Trajectory) ReadStep(n int, frame *Frame) error {
	if err := t.readable(); err != nil {
		return err
	}
	size, err := t.format.Size()
	if err != nil {
		return err
	}
	if n < 0 || n >= size {
		return NewError(ErrRange, "step %d out of range for %q with %d frames", n, t.path, size)
	}
	if err := t.format.ReadStep(n, frame); err != nil {
		return err
	}
	t.step = n + 1
	return nil
}

// Done reports whether every frame has been read. It returns true on any
// error querying the size, as no further read can succeed either.
func (t *Trajectory) Done() bool {
	if t.closed || t.mode == Write {
		return true
	}
	size, err := t.format.Size()
	if err != nil {
		return true
	}
	return t.step >= size
}

// Write appends frame to the trajectory.
func (t *Trajectory) Write(frame *Frame) error {
	if err := t.check(); err != nil {
		return err
	}
	if t.mode == Read {
		return NewError(ErrMode, "%q is open for reading only", t.path)
	}
	if frame == nil {
		return NewError(ErrInvariant, "cannot write a nil frame")
	}
	return t.format.Write(frame)
}

// Close flushes pending writes and closes the underlying file. Closing an
// already-closed trajectory does nothing. A flush failure surfaces here,
// so the error must be checked after writing.
func (t *Trajectory) Close() error {
	if t.closed {
		return nil
	}
	t.closed = true
	return t.format.Close()
}

func (t *Trajectory) check() error {
	if t.closed {
		return NewError(ErrIO, "%q is closed", t.path)
	}
	return nil
}

func (t *Trajectory) readable() error {
	if err := t.check(); err != nil {
		return err
	}
	if t.mode == Write {
		return NewError(ErrMode, "%q is open for writing only", t.path)
	}
	return nil
}
