package compiledb

import "testing"

func TestEntryMakeAbsoluteRelative(t *testing.T) {
	e := Entry{File: "foo.c", Directory: "/work", Output: "foo.o"}
	got := e.MakeAbsolute()
	if got.File != "/work/foo.c" {
		t.Errorf("file: %q", got.File)
	}
	if got.Output != "/work/foo.o" {
		t.Errorf("output: %q", got.Output)
	}
}

func TestEntryMakeAbsoluteAlreadyAbsolute(t *testing.T) {
	e := Entry{File: "/src/foo.c", Directory: "/work"}
	got := e.MakeAbsolute()
	if got.File != "/src/foo.c" {
		t.Errorf("expected unchanged absolute path, got %q", got.File)
	}
}

func TestMergeIdempotent(t *testing.T) {
	a := Entries{{File: "/w/a.c", Directory: "/w", Arguments: []string{"gcc", "-c", "a.c"}}}
	b := Entries{{File: "/w/b.c", Directory: "/w", Arguments: []string{"gcc", "-c", "b.c"}}}

	m1 := Merge(a, a)
	if len(m1) != 1 {
		t.Fatalf("Merge(A,A) should dedup to 1, got %d", len(m1))
	}

	m2 := Merge(Merge(a, b), b)
	m3 := Merge(a, b)
	if len(m2) != len(m3) {
		t.Fatalf("merge not idempotent: %d != %d", len(m2), len(m3))
	}
}

func TestJSONRoundTripArguments(t *testing.T) {
	entries := Entries{
		{File: "/w/foo.c", Directory: "/w", Output: "/w/foo.o", Arguments: []string{"gcc", "-c", "-o", "foo.o", "foo.c"}},
	}
	data, err := ToJSON(entries, DefaultFormat())
	if err != nil {
		t.Fatalf("ToJSON: %v", err)
	}
	got, err := FromJSON(data)
	if err != nil {
		t.Fatalf("FromJSON: %v", err)
	}
	if len(got) != 1 || got[0].File != "/w/foo.c" {
		t.Fatalf("unexpected round trip: %#v", got)
	}
}

func TestJSONCommandShapeAndDropOutput(t *testing.T) {
	entries := Entries{
		{File: "/w/foo.c", Directory: "/w", Output: "/w/foo.o", Arguments: []string{"gcc", "-c", "foo.c"}},
	}
	format := Format{CommandAsArray: false, DropOutputField: true}
	data, err := ToJSON(entries, format)
	if err != nil {
		t.Fatalf("ToJSON: %v", err)
	}
	got, err := FromJSON(data)
	if err != nil {
		t.Fatalf("FromJSON: %v", err)
	}
	if got[0].Output != "" {
		t.Errorf("expected output field dropped, got %q", got[0].Output)
	}
	if len(got[0].Arguments) != 3 || got[0].Arguments[0] != "gcc" {
		t.Errorf("unexpected arguments from command string: %#v", got[0].Arguments)
	}
}

func TestStrictFilter(t *testing.T) {
	f := Filter{
		Mode:    Strict,
		Include: []string{"/work"},
		exists:  func(path string) bool { return path == "/work/foo.c" },
	}
	accepted := Entry{File: "/work/foo.c", Directory: "/work", Arguments: []string{"gcc"}}
	excluded := Entry{File: "/other/bar.c", Directory: "/other", Arguments: []string{"gcc"}}
	if !f.Accept(accepted) {
		t.Errorf("expected accepted entry to pass strict filter")
	}
	if f.Accept(excluded) {
		t.Errorf("expected excluded entry to fail strict filter")
	}
}

func TestPermissiveFilterAcceptsEverything(t *testing.T) {
	f := Filter{}
	if !f.Accept(Entry{File: "/does/not/exist.c", Directory: "/x", Arguments: []string{"gcc"}}) {
		t.Errorf("permissive filter should accept everything")
	}
}
