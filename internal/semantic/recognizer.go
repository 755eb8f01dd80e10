package semantic

import (
	"fmt"

	"github.com/5c4lar/Bear/internal/compiledb"
	"github.com/5c4lar/Bear/internal/report"
)

// Recognizer is the small interface abstraction spec.md §9 calls for:
// one method, dispatching on a Command, producing zero or more
// compilation-database entries or an error if this recogniser cannot
// make sense of the invocation.
type Recognizer interface {
	Recognize(cmd report.Command) (compiledb.Entries, error)
}

// ErrNotRecognized is returned by a Recognizer when the command's
// program does not match what it knows how to parse; the Chain treats
// this as "try the next recogniser", not a hard failure.
var ErrNotRecognized = fmt.Errorf("semantic: program not recognized")

// Chain holds an ordered list of recognisers; the first one to return
// a non-ErrNotRecognized result wins (spec.md §4.3 "Recogniser chain").
// Order matters: a path may match more than one recogniser's pattern.
type Chain []Recognizer

// Recognize runs each recogniser in order. If every recogniser reports
// ErrNotRecognized, the execution is skipped (nil, nil). A recogniser
// that recognises the program but fails to parse its arguments returns
// its error as-is, ending the chain (the execution contributed zero
// entries, per spec.md §7's per-execution error handling).
func (c Chain) Recognize(cmd report.Command) (compiledb.Entries, error) {
	for _, r := range c {
		entries, err := r.Recognize(cmd)
		if err == nil {
			return entries, nil
		}
		if err == ErrNotRecognized {
			continue
		}
		return nil, err
	}
	return nil, nil
}
