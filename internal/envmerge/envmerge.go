// Package envmerge computes the environment a supervisor hands to the
// program it exec's, and the overlay the collector hands back to a
// supervisor so interception continues into grandchildren (spec.md §4.1).
package envmerge

import "strings"

// accumulatingVars lists environment variables that hold colon-separated
// path lists and must be merged by front-insertion rather than plain
// override — currently only LD_PRELOAD (spec.md §4.1).
var accumulatingVars = map[string]bool{
	"LD_PRELOAD": true,
}

// Union applies base, then overrides on top of it (override wins on
// key collision), except for the variables in accumulatingVars: for
// those, the override's value is split on ':' and each entry is
// prepended to base's list unless already present.
func Union(base, overrides map[string]string) map[string]string {
	out := make(map[string]string, len(base)+len(overrides))
	for k, v := range base {
		out[k] = v
	}
	for k, v := range overrides {
		if accumulatingVars[k] {
			out[k] = mergeAccumulating(out[k], v)
			continue
		}
		out[k] = v
	}
	return out
}

// mergeAccumulating prepends each ':'-separated entry of addition to
// current, skipping entries already present, preserving order.
func mergeAccumulating(current, addition string) string {
	existing := splitNonEmpty(current)
	present := make(map[string]bool, len(existing))
	for _, e := range existing {
		present[e] = true
	}

	var toPrepend []string
	for _, e := range splitNonEmpty(addition) {
		if present[e] {
			continue
		}
		present[e] = true
		toPrepend = append(toPrepend, e)
	}

	merged := append(toPrepend, existing...)
	return strings.Join(merged, ":")
}

func splitNonEmpty(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ":")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

// ToList renders an environment map into the "K=V" slice form that
// os/exec and the raw exec syscalls expect.
func ToList(m map[string]string) []string {
	out := make([]string, 0, len(m))
	for k, v := range m {
		if k == "" {
			continue
		}
		out = append(out, k+"="+v)
	}
	return out
}

// FromList parses a "K=V" slice (such as os.Environ() or an execve envp)
// into a map, skipping malformed entries with an empty key.
func FromList(list []string) map[string]string {
	out := make(map[string]string, len(list))
	for _, kv := range list {
		if i := strings.IndexByte(kv, '='); i >= 0 {
			k := kv[:i]
			if k == "" {
				continue
			}
			out[k] = kv[i+1:]
		}
	}
	return out
}
