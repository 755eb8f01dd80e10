package semantic

import (
	"reflect"
	"testing"

	"github.com/5c4lar/Bear/internal/report"
)

func cmd(program string, argv []string, workingDir string, env map[string]string) report.Command {
	c, err := report.NewCommand(program, argv, workingDir, env)
	if err != nil {
		panic(err)
	}
	return c
}

// S1: compiling a single source file produces one entry with the file
// and output resolved against the working directory.
func TestRecognizeSingleSourceCompile(t *testing.T) {
	g := GnuCompilerCollection{}
	entries, err := g.Recognize(cmd("/usr/bin/gcc", []string{"gcc", "-Wall", "-o", "foo.o", "-c", "foo.c"}, "/work", nil))
	if err != nil {
		t.Fatalf("Recognize: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d: %#v", len(entries), entries)
	}
	e := entries[0]
	if e.File != "/work/foo.c" {
		t.Errorf("file = %q", e.File)
	}
	if e.Output != "/work/foo.o" {
		t.Errorf("output = %q", e.Output)
	}
	if e.Directory != "/work" {
		t.Errorf("directory = %q", e.Directory)
	}
}

// S2: a dependency-only invocation (-MM) is not a compilation pass and
// yields zero entries.
func TestRecognizeDependencyOnlyYieldsNoEntries(t *testing.T) {
	g := GnuCompilerCollection{}
	entries, err := g.Recognize(cmd("/usr/bin/gcc", []string{"gcc", "-MM", "foo.c"}, "/work", nil))
	if err != nil {
		t.Fatalf("Recognize: %v", err)
	}
	if len(entries) != 0 {
		t.Fatalf("expected 0 entries, got %d: %#v", len(entries), entries)
	}
}

// S3: two sources linked together split into two entries, neither
// carrying the -lfoo linker flag.
func TestRecognizeTwoSourcesAndLinkSplit(t *testing.T) {
	g := GnuCompilerCollection{}
	entries, err := g.Recognize(cmd("/usr/bin/g++", []string{"g++", "a.cc", "b.cc", "-lfoo", "-o", "app"}, "/work", nil))
	if err != nil {
		t.Fatalf("Recognize: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d: %#v", len(entries), entries)
	}
	for _, e := range entries {
		for _, a := range e.Arguments {
			if a == "-lfoo" {
				t.Errorf("linker flag leaked into compile entry: %#v", e.Arguments)
			}
		}
	}
	if entries[0].File != "/work/a.cc" || entries[1].File != "/work/b.cc" {
		t.Errorf("unexpected file order: %q, %q", entries[0].File, entries[1].File)
	}
	if entries[0].Output != "/work/app" || entries[1].Output != "/work/app" {
		t.Errorf("expected shared output on both entries, got %q, %q", entries[0].Output, entries[1].Output)
	}
}

// S4: CPATH entries become synthetic -I flags that show up in the
// recognised entry's arguments.
func TestRecognizeEnvironmentIncludesBecomeFlags(t *testing.T) {
	g := GnuCompilerCollection{}
	env := map[string]string{"CPATH": "/opt/include:/opt/include2"}
	entries, err := g.Recognize(cmd("/usr/bin/gcc", []string{"gcc", "-c", "foo.c"}, "/work", env))
	if err != nil {
		t.Fatalf("Recognize: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(entries))
	}
	args := entries[0].Arguments
	found := map[string]bool{}
	for i, a := range args {
		if a == "-I" && i+1 < len(args) {
			found[args[i+1]] = true
		}
	}
	if !found["/opt/include"] || !found["/opt/include2"] {
		t.Errorf("expected CPATH entries as -I flags, got %#v", args)
	}
}

func TestRecognizeNotRecognizedProgram(t *testing.T) {
	g := GnuCompilerCollection{}
	_, err := g.Recognize(cmd("/usr/bin/ld", []string{"ld", "-o", "a.out", "a.o"}, "/work", nil))
	if err != ErrNotRecognized {
		t.Fatalf("expected ErrNotRecognized, got %v", err)
	}
}

func TestRecognizeVersionedCompilerName(t *testing.T) {
	g := GnuCompilerCollection{}
	_, err := g.Recognize(cmd("/usr/bin/x86_64-linux-gnu-gcc-12", []string{"x86_64-linux-gnu-gcc-12", "-c", "foo.c"}, "/work", nil))
	if err != nil {
		t.Fatalf("expected recognised versioned/prefixed gcc, got %v", err)
	}
}

// Parser totality (property 2): every parsed argument is accounted for
// by exactly one flag, so Tokens() reconstructs the tail verbatim.
func TestParseArgvTotality(t *testing.T) {
	argv := []string{"-Wall", "-O2", "-std=c11", "-DFOO=1", "-I", "/inc", "-c", "-o", "foo.o", "foo.c", "-lm"}
	flags := parseArgv(argv)
	if got := flags.Tokens(); !reflect.DeepEqual(got, argv) {
		t.Fatalf("Tokens() = %#v, want %#v", got, argv)
	}
}

// Compilation-pass detection (property 3): --version does not run a
// compilation, while a plain -c compile of a source file does.
func TestRunsCompilationPassVersionQuery(t *testing.T) {
	flags := parseArgv([]string{"--version"})
	if runsCompilationPass(flags) {
		t.Errorf("--version should not be a compilation pass")
	}
	flags = parseArgv([]string{"-c", "foo.c"})
	if !runsCompilationPass(flags) {
		t.Errorf("-c foo.c should be a compilation pass")
	}
}

func TestRunsCompilationPassEmptyArgv(t *testing.T) {
	if runsCompilationPass(parseArgv(nil)) {
		t.Errorf("empty argument list should not be a compilation pass")
	}
}
