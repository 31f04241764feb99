/*
 * warnings.go, part of gochemfiles.
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
	"fmt"
	"log"
	"sync"
)

// WarningCallback receives non-fatal diagnostics: recoverable oddities in
// files being read, lossy conversions on write, and the like. The format
// argument names the format or component emitting the warning.
type WarningCallback func(format, message string)

var warnings = struct {
	sync.RWMutex
	cb WarningCallback
}{
	cb: func(format, message string) { log.Printf("[%s] %s", format, message) },
}

// SetWarningCallback routes warnings to cb instead of the standard
// logger. A nil callback silences them.
func SetWarningCallback(cb WarningCallback) {
	warnings.Lock()
	warnings.cb = cb
	warnings.Unlock()
}

// Warn emits a warning through the installed callback.
func Warn(format, message string, args ...interface{}) {
	warnings.RLock()
	cb := warnings.cb
	warnings.RUnlock()
	if cb == nil {
		return
	}
	if len(args) > 0 {
		message = fmt.Sprintf(message, args...)
	}
	cb(format, message)
}
