// Package compiledb implements the compilation-database row type, its
// JSON wire shape, filtering, and merge semantics (spec.md §4.3, §6).
package compiledb

import (
	"errors"
	"path/filepath"
)

// Entry is one compilation-database row.
type Entry struct {
	File      string
	Directory string
	Output    string // empty means "no output field"
	Arguments []string
}

// Entries is an ordered list of Entry values.
type Entries []Entry

var (
	ErrEmptyFile      = errors.New("compiledb: entry file is empty")
	ErrEmptyDirectory = errors.New("compiledb: entry directory is empty")
	ErrEmptyArguments = errors.New("compiledb: entry arguments are empty")
)

// Validate checks the Entry invariants from spec.md §3.
func (e Entry) Validate() error {
	if e.File == "" {
		return ErrEmptyFile
	}
	if e.Directory == "" {
		return ErrEmptyDirectory
	}
	if len(e.Arguments) == 0 {
		return ErrEmptyArguments
	}
	return nil
}

// MakeAbsolute resolves e.File and e.Output against e.Directory when
// they are relative, per spec.md §4.3's final splitting step and the
// §8 property 7 law: the result is absolute and equals
// directory/original iff the original was relative.
func (e Entry) MakeAbsolute() Entry {
	out := e
	out.File = toAbs(e.Directory, e.File)
	if e.Output != "" {
		out.Output = toAbs(e.Directory, e.Output)
	}
	return out
}

func toAbs(directory, p string) string {
	if filepath.IsAbs(p) {
		return filepath.Clean(p)
	}
	return filepath.Clean(filepath.Join(directory, p))
}

// Key identifies an entry for merge/dedup purposes: same file,
// directory, output, and argument vector (spec.md §4.3 "Merging with
// prior DB").
type Key struct {
	File      string
	Directory string
	Output    string
	Arguments string
}

// KeyOf computes e's dedup key.
func KeyOf(e Entry) Key {
	args := ""
	for _, a := range e.Arguments {
		args += a + "\x00"
	}
	return Key{File: e.File, Directory: e.Directory, Output: e.Output, Arguments: args}
}
