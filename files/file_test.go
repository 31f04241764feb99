/*
 * file_test.go, part of gochemfiles.
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

package files

import (
	"path/filepath"
	"testing"

	chemfiles "github.com/chemfiles/gochemfiles"
)

func writeLines(Te *testing.T, path string, comp chemfiles.Compression) {
	f, err := Open(path, chemfiles.Write, comp)
	if err != nil {
		Te.Fatal(err)
	}
	for i := 0; i < 5; i++ {
		if err := f.Printf("line %d\n", i); err != nil {
			Te.Fatal(err)
		}
	}
	if err := f.Close(); err != nil {
		Te.Fatal(err)
	}
}

func TestFileRoundTrip(Te *testing.T) {
	for _, comp := range []chemfiles.Compression{
		chemfiles.NoCompression, chemfiles.Gzip, chemfiles.Xz, chemfiles.Bzip2,
	} {
		path := filepath.Join(Te.TempDir(), "lines.txt")
		writeLines(Te, path, comp)
		f, err := Open(path, chemfiles.Read, comp)
		if err != nil {
			Te.Fatalf("%v: %v", comp, err)
		}
		for i := 0; i < 5; i++ {
			line, err := f.ReadLine()
			if err != nil {
				Te.Fatalf("%v: %v", comp, err)
			}
			if want := "line " + string(rune('0'+i)); line != want {
				Te.Errorf("%v: got %q, want %q", comp, line, want)
			}
		}
		if !f.EOF() {
			Te.Errorf("%v: not at EOF after the last line", comp)
		}
		f.Close()
	}
}

func TestFileSeek(Te *testing.T) {
	for _, comp := range []chemfiles.Compression{chemfiles.NoCompression, chemfiles.Gzip} {
		path := filepath.Join(Te.TempDir(), "lines.txt")
		writeLines(Te, path, comp)
		f, err := Open(path, chemfiles.Read, comp)
		if err != nil {
			Te.Fatal(err)
		}
		if _, err := f.ReadLine(); err != nil {
			Te.Fatal(err)
		}
		second := f.Tell()
		if _, err = f.ReadLine(); err != nil {
			Te.Fatal(err)
		}
		//backward seeks work on compressed files too, by re-decompressing
		if err := f.Seek(second); err != nil {
			Te.Fatal(err)
		}
		line, err := f.ReadLine()
		if err != nil {
			Te.Fatal(err)
		}
		if line != "line 1" {
			Te.Errorf("%v: after seek got %q", comp, line)
		}
		if err := f.Seek(1 << 20); chemfiles.KindOf(err) != chemfiles.ErrRange {
			Te.Errorf("%v: seeking past the end should be a range error, got %v", comp, err)
		}
		f.Close()
	}
}

func TestFileSeekRejectedKeepsPosition(Te *testing.T) {
	path := filepath.Join(Te.TempDir(), "lines.txt")
	writeLines(Te, path, chemfiles.NoCompression)
	f, err := Open(path, chemfiles.Read, chemfiles.NoCompression)
	if err != nil {
		Te.Fatal(err)
	}
	defer f.Close()
	if _, err := f.ReadLine(); err != nil {
		Te.Fatal(err)
	}
	if err := f.Seek(1 << 20); chemfiles.KindOf(err) != chemfiles.ErrRange {
		Te.Fatalf("expected a range error, got %v", err)
	}
	//a rejected seek must not move the stream
	for i := 1; i < 5; i++ {
		line, err := f.ReadLine()
		if err != nil {
			Te.Fatal(err)
		}
		if want := "line " + string(rune('0'+i)); line != want {
			Te.Errorf("after a rejected seek got %q, want %q", line, want)
		}
	}
}

func TestFileAppend(Te *testing.T) {
	path := filepath.Join(Te.TempDir(), "lines.txt")
	writeLines(Te, path, chemfiles.NoCompression)
	f, err := Open(path, chemfiles.Append, chemfiles.NoCompression)
	if err != nil {
		Te.Fatal(err)
	}
	//reads must work before the first write, to let formats scan the file
	line, err := f.ReadLine()
	if err != nil {
		Te.Fatal(err)
	}
	if line != "line 0" {
		Te.Errorf("got %q", line)
	}
	if err := f.Printf("line 5\n"); err != nil {
		Te.Fatal(err)
	}
	if err := f.Close(); err != nil {
		Te.Fatal(err)
	}
	r, err := Open(path, chemfiles.Read, chemfiles.NoCompression)
	if err != nil {
		Te.Fatal(err)
	}
	defer r.Close()
	for i := 0; i < 6; i++ {
		if line, err = r.ReadLine(); err != nil {
			Te.Fatal(err)
		}
	}
	if line != "line 5" {
		Te.Errorf("last line is %q", line)
	}
}

func TestFileAppendCompressed(Te *testing.T) {
	path := filepath.Join(Te.TempDir(), "lines.txt.gz")
	_, err := Open(path, chemfiles.Append, chemfiles.Gzip)
	if chemfiles.KindOf(err) != chemfiles.ErrUnsupportedMode {
		Te.Errorf("appending to a gzip file should be unsupported, got %v", err)
	}
}

func TestFileMissing(Te *testing.T) {
	_, err := Open(filepath.Join(Te.TempDir(), "nope.txt"), chemfiles.Read, chemfiles.NoCompression)
	if chemfiles.KindOf(err) != chemfiles.ErrIO {
		Te.Errorf("a missing file should be an i/o error, got %v", err)
	}
}
