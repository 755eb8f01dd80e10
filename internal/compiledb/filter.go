package compiledb

import (
	"os"
	"strings"
)

// Mode selects how entries are accepted into the final database
// (spec.md §4.3 "Filtering").
type Mode int

const (
	// Permissive accepts every entry (the default).
	Permissive Mode = iota
	// Strict accepts only entries whose file exists on disk and
	// passes the include/exclude root checks.
	Strict
)

// Filter holds the strict-mode configuration; the zero value is a
// permissive filter that accepts everything.
type Filter struct {
	Mode    Mode
	Include []string
	Exclude []string

	// exists is overridable for tests; defaults to checking the real
	// filesystem.
	exists func(path string) bool
}

func (f Filter) existsFn() func(string) bool {
	if f.exists != nil {
		return f.exists
	}
	return func(path string) bool {
		_, err := os.Stat(path)
		return err == nil
	}
}

// Accept reports whether e passes this filter.
func (f Filter) Accept(e Entry) bool {
	if f.Mode == Permissive {
		return true
	}

	exists := f.existsFn()
	if !exists(e.File) {
		return false
	}

	if len(f.Include) > 0 && !anyPrefix(e.File, f.Include) {
		return false
	}
	if len(f.Exclude) > 0 && anyPrefix(e.File, f.Exclude) {
		return false
	}
	return true
}

func anyPrefix(path string, roots []string) bool {
	for _, root := range roots {
		if strings.HasPrefix(path, root) {
			return true
		}
	}
	return false
}

// Apply filters a whole list of entries into a new slice, preserving
// order; the input slice is left unchanged.
func (f Filter) Apply(entries Entries) Entries {
	var out Entries
	for _, e := range entries {
		if f.Accept(e) {
			out = append(out, e)
		}
	}
	return out
}
