package compiledb

import (
	"encoding/json"
	"fmt"
)

// Format selects the compilation-database rendering options spec.md §6
// exposes: whether arguments are written as an array or a shell-quoted
// string, and whether the output field is suppressed.
type Format struct {
	CommandAsArray  bool // default true
	DropOutputField bool
}

// DefaultFormat matches spec.md §6's stated defaults.
func DefaultFormat() Format {
	return Format{CommandAsArray: true}
}

type wireEntry struct {
	File      string   `json:"file"`
	Directory string   `json:"directory"`
	Output    string   `json:"output,omitempty"`
	Arguments []string `json:"arguments,omitempty"`
	Command   string   `json:"command,omitempty"`
}

// ToJSON renders entries per format.
func ToJSON(entries Entries, format Format) ([]byte, error) {
	wire := make([]wireEntry, 0, len(entries))
	for _, e := range entries {
		w := wireEntry{File: e.File, Directory: e.Directory}
		if !format.DropOutputField {
			w.Output = e.Output
		}
		if format.CommandAsArray {
			w.Arguments = e.Arguments
		} else {
			w.Command = joinShell(e.Arguments)
		}
		wire = append(wire, w)
	}
	return json.MarshalIndent(wire, "", "  ")
}

// FromJSON loads a compilation database, accepting either the
// "arguments" array shape or the "command" string shape per entry
// (spec.md §6 "Loader accepts either shape").
func FromJSON(data []byte) (Entries, error) {
	var wire []wireEntry
	if err := json.Unmarshal(data, &wire); err != nil {
		return nil, fmt.Errorf("compiledb: decode: %w", err)
	}
	out := make(Entries, 0, len(wire))
	for i, w := range wire {
		e := Entry{File: w.File, Directory: w.Directory, Output: w.Output}
		switch {
		case len(w.Arguments) > 0:
			e.Arguments = w.Arguments
		case w.Command != "":
			e.Arguments = splitShell(w.Command)
		}
		if err := e.Validate(); err != nil {
			return nil, fmt.Errorf("compiledb: entry %d: %w", i, err)
		}
		out = append(out, e)
	}
	return out, nil
}
