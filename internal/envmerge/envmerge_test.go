package envmerge

import "testing"

func TestUnionOverridesWin(t *testing.T) {
	base := map[string]string{"A": "1", "B": "2"}
	over := map[string]string{"B": "3", "C": "4"}
	out := Union(base, over)
	if out["A"] != "1" || out["B"] != "3" || out["C"] != "4" {
		t.Fatalf("unexpected merge: %#v", out)
	}
}

func TestUnionLdPreloadFrontInsertUnlessPresent(t *testing.T) {
	base := map[string]string{"LD_PRELOAD": "/usr/lib/existing.so"}
	over := map[string]string{"LD_PRELOAD": "/opt/bear/libexec.so"}
	out := Union(base, over)
	if out["LD_PRELOAD"] != "/opt/bear/libexec.so:/usr/lib/existing.so" {
		t.Fatalf("unexpected LD_PRELOAD merge: %q", out["LD_PRELOAD"])
	}
}

func TestUnionLdPreloadAlreadyPresentIsNotDuplicated(t *testing.T) {
	base := map[string]string{"LD_PRELOAD": "/opt/bear/libexec.so:/usr/lib/existing.so"}
	over := map[string]string{"LD_PRELOAD": "/opt/bear/libexec.so"}
	out := Union(base, over)
	if out["LD_PRELOAD"] != "/opt/bear/libexec.so:/usr/lib/existing.so" {
		t.Fatalf("unexpected dedup result: %q", out["LD_PRELOAD"])
	}
}

func TestListRoundTrip(t *testing.T) {
	list := []string{"A=1", "B=2", "malformed", "=empty-key"}
	m := FromList(list)
	if len(m) != 2 || m["A"] != "1" || m["B"] != "2" {
		t.Fatalf("unexpected parse: %#v", m)
	}
	out := ToList(m)
	if len(out) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(out))
	}
}
