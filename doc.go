/*
 * doc.go, part of gochemfiles.
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

// Package chemfiles reads and writes chemistry trajectory files.
//
// The data model is the Frame: positions, and optionally velocities,
// forces, a unit cell and a Topology, for one simulation step. A
// Trajectory is an ordered sequence of frames in a file, opened with
// Open and consumed with Read or ReadStep:
//
//	traj, err := chemfiles.Open("nacl.trr", chemfiles.Read)
//	if err != nil {
//		log.Fatal(err)
//	}
//	defer traj.Close()
//	frame := chemfiles.NewFrame()
//	for !traj.Done() {
//		if err := traj.Read(frame); err != nil {
//			log.Fatal(err)
//		}
//		// use frame
//	}
//
// File formats register themselves with Register from their package's
// init function, so a program imports the formats it needs, or the
// formats package to get all of them:
//
//	import _ "github.com/chemfiles/gochemfiles/formats"
//
// All lengths are in Ångströms, times in picoseconds and velocities in
// Å/ps, whatever the on-disk units of a given format.
package chemfiles
