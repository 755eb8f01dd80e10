package compiledb

// Merge unions a and b, preserving a's order first then b's new
// entries, dropping duplicates by Key (spec.md §4.3 "Merging with
// prior DB"). Merge(A, A) == A and Merge(Merge(A, B), B) == Merge(A, B)
// (spec.md §8 property 6: idempotent merge).
func Merge(a, b Entries) Entries {
	seen := make(map[Key]bool, len(a)+len(b))
	out := make(Entries, 0, len(a)+len(b))
	for _, e := range a {
		k := KeyOf(e)
		if seen[k] {
			continue
		}
		seen[k] = true
		out = append(out, e)
	}
	for _, e := range b {
		k := KeyOf(e)
		if seen[k] {
			continue
		}
		seen[k] = true
		out = append(out, e)
	}
	return out
}
