/*
 * formats.go, part of gochemfiles.
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

// Package formats registers every built-in file format, in the same way
// database/sql drivers do:
//
//	import _ "github.com/chemfiles/gochemfiles/formats"
//
// Programs that only need one format can import its package directly
// instead.
package formats

import (
	_ "github.com/chemfiles/gochemfiles/traj/nc"
	_ "github.com/chemfiles/gochemfiles/traj/trr"
	_ "github.com/chemfiles/gochemfiles/traj/xyz"
)
