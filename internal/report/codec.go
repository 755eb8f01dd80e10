package report

import (
	"encoding/json"
	"fmt"
)

// Serialize renders a Report to its on-disk JSON form (spec.md §6).
func Serialize(r Report) ([]byte, error) {
	return r.Clone().MarshalIndent()
}

// Deserialize parses a Report from its JSON form. It fails cleanly
// (returning an error, never a partially populated Report) on
// malformed input, per spec.md §8 property 1.
func Deserialize(data []byte) (Report, error) {
	var r Report
	if err := json.Unmarshal(data, &r); err != nil {
		return Report{}, fmt.Errorf("report: decode: %w", err)
	}
	for i, ex := range r.Executions {
		if err := ex.Run.Validate(); err != nil {
			return Report{}, fmt.Errorf("report: execution %d: %w", i, err)
		}
	}
	return r, nil
}
