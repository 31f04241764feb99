/*
 * registry.go, part of gochemfiles.
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

import (
	"sort"
	"strings"
	"sync"
)

// OpenFunc opens a file and returns a Format bound to it.
type OpenFunc func(path string, mode Mode, comp Compression) (Format, error)

// Metadata describes a registered format. Name is the case-insensitive
// identifier users select a format by ("TRR", "Amber NetCDF"). Extension
// is the file extension including the leading dot, or empty when the
// format has no conventional extension.
type Metadata struct {
	Name        string
	Extension   string
	Description string
	Open        OpenFunc
}

var registry = struct {
	sync.RWMutex
	byName map[string]Metadata
	byExt  map[string]Metadata
}{
	byName: make(map[string]Metadata),
	byExt:  make(map[string]Metadata),
}

// Register adds a format to the process-wide registry. It is meant to be
// called from the init function of format packages, and panics on a
// duplicate name or extension, as both are programming errors.
func Register(md Metadata) {
	if md.Name == "" || md.Open == nil {
		panic("chemfiles: Register needs a name and an open function")
	}
	name := strings.ToLower(md.Name)
	registry.Lock()
	defer registry.Unlock()
	if _, ok := registry.byName[name]; ok {
		panic("chemfiles: format " + md.Name + " registered twice")
	}
	registry.byName[name] = md
	if md.Extension != "" {
		ext := strings.ToLower(md.Extension)
		if prev, ok := registry.byExt[ext]; ok {
			panic("chemfiles: extension " + md.Extension + " claimed by both " + prev.Name + " and " + md.Name)
		}
		registry.byExt[ext] = md
	}
}

// Formats returns the metadata of all registered formats, sorted by name.
func Formats() []Metadata {
	registry.RLock()
	all := make([]Metadata, 0, len(registry.byName))
	for _, md := range registry.byName {
		all = append(all, md)
	}
	registry.RUnlock()
	sort.Slice(all, func(i, j int) bool { return all[i].Name < all[j].Name })
	return all
}

// formatByName returns the metadata registered under name.
func formatByName(name string) (Metadata, error) {
	registry.RLock()
	md, ok := registry.byName[strings.ToLower(name)]
	registry.RUnlock()
	if !ok {
		return Metadata{}, NewError(ErrUnknownFormat, "no format named %q", name)
	}
	return md, nil
}

// formatForPath guesses the format from the path's extension, after
// stripping a compression suffix ("frames.trr.gz" resolves as ".trr").
func formatForPath(path string) (Metadata, error) {
	ext := extension(stripCompression(path))
	if ext == "" {
		return Metadata{}, NewError(ErrUnknownFormat, "no extension to guess a format from in %q", path)
	}
	registry.RLock()
	md, ok := registry.byExt[strings.ToLower(ext)]
	registry.RUnlock()
	if !ok {
		return Metadata{}, NewError(ErrUnknownFormat, "no format handles the %q extension", ext)
	}
	return md, nil
}
