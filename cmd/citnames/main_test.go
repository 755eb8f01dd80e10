package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/5c4lar/Bear/internal/buildlog"
	"github.com/5c4lar/Bear/internal/compiledb"
	"github.com/5c4lar/Bear/internal/report"
	"github.com/5c4lar/Bear/internal/semantic"
)

func newTestLogger(t *testing.T) *buildlog.Logger {
	t.Helper()
	logger, err := buildlog.NewLogger(buildlog.LogConfig{Level: "info", Output: "console"})
	if err != nil {
		t.Fatalf("NewLogger: %v", err)
	}
	return logger
}

func defaultChain() semantic.Chain {
	return semantic.Chain{semantic.GnuCompilerCollection{}}
}

func TestFilterMode(t *testing.T) {
	if filterMode(true) != compiledb.Strict {
		t.Errorf("expected Strict for strict=true")
	}
	if filterMode(false) != compiledb.Permissive {
		t.Errorf("expected Permissive for strict=false")
	}
}

func TestLoadExistingMissingFile(t *testing.T) {
	dir := t.TempDir()
	entries, err := loadExisting(filepath.Join(dir, "missing.json"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if entries != nil {
		t.Errorf("expected nil entries for missing file, got %#v", entries)
	}
}

func TestLoadExistingRoundtrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "compile_commands.json")

	want := compiledb.Entries{{File: "foo.c", Directory: "/work", Output: "foo.o", Arguments: []string{"gcc", "-c", "foo.c", "-o", "foo.o"}}}
	data, err := compiledb.ToJSON(want, compiledb.DefaultFormat())
	if err != nil {
		t.Fatalf("ToJSON: %v", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatalf("write: %v", err)
	}

	got, err := loadExisting(path)
	if err != nil {
		t.Fatalf("loadExisting: %v", err)
	}
	if len(got) != 1 || got[0].File != "foo.c" {
		t.Errorf("unexpected entries: %#v", got)
	}
}

func TestLoadExistingInvalidJSON(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "compile_commands.json")
	if err := os.WriteFile(path, []byte("not json"), 0644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := loadExisting(path); err == nil {
		t.Errorf("expected error for invalid JSON")
	}
}

func TestWriteAtomicCreatesFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "out.json")

	if err := writeAtomic(path, []byte(`{"a":1}`)); err != nil {
		t.Fatalf("writeAtomic: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read back: %v", err)
	}
	if string(data) != `{"a":1}` {
		t.Errorf("unexpected contents: %q", data)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("readdir: %v", err)
	}
	for _, e := range entries {
		if e.Name() != "out.json" {
			t.Errorf("unexpected leftover file: %s", e.Name())
		}
	}
}

func TestWriteAtomicOverwrites(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "out.json")

	if err := writeAtomic(path, []byte("first")); err != nil {
		t.Fatalf("writeAtomic: %v", err)
	}
	if err := writeAtomic(path, []byte("second")); err != nil {
		t.Fatalf("writeAtomic: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if string(data) != "second" {
		t.Errorf("expected overwritten contents, got %q", data)
	}
}

func TestLoadConfigDefault(t *testing.T) {
	cfg, err := loadConfig("")
	if err != nil {
		t.Fatalf("loadConfig: %v", err)
	}
	if cfg == nil {
		t.Fatal("expected non-nil config")
	}
}

func TestLoadConfigMissingPath(t *testing.T) {
	if _, err := loadConfig("/no/such/config.yaml"); err == nil {
		t.Errorf("expected error for missing config file")
	}
}

func TestLoadReportMissingFile(t *testing.T) {
	if _, err := loadReport("/no/such/report.json"); err == nil {
		t.Errorf("expected error for missing report file")
	}
}

func TestLoadReportDecodeError(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "report.json")
	if err := os.WriteFile(path, []byte("{not json"), 0644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := loadReport(path); err == nil {
		t.Errorf("expected decode error")
	}
}

func closedRun() report.Run {
	started := report.Event{Type: report.EventStarted}
	stopped := report.Event{Type: report.EventStopped}
	return report.Run{Events: []report.Event{started, stopped}}
}

func TestRecognizeAllSkipsUnclosedRuns(t *testing.T) {
	cmd, err := report.NewCommand("/usr/bin/gcc", []string{"gcc", "-c", "foo.c"}, "/work", nil)
	if err != nil {
		t.Fatalf("NewCommand: %v", err)
	}
	rep := report.Report{
		Executions: []report.Execution{
			{Command: cmd, Run: report.Run{Events: []report.Event{{Type: report.EventStarted}}}},
		},
	}

	logger := newTestLogger(t)
	chain := defaultChain()

	entries := recognizeAll(logger, chain, rep)
	if len(entries) != 0 {
		t.Errorf("expected no entries for unclosed run, got %d", len(entries))
	}
}

func TestRecognizeAllSkipsNonCompilers(t *testing.T) {
	cmd, err := report.NewCommand("/bin/ls", []string{"ls", "-la"}, "/work", nil)
	if err != nil {
		t.Fatalf("NewCommand: %v", err)
	}
	rep := report.Report{
		Executions: []report.Execution{{Command: cmd, Run: closedRun()}},
	}

	entries := recognizeAll(newTestLogger(t), defaultChain(), rep)
	if len(entries) != 0 {
		t.Errorf("expected no entries for non-compiler program, got %d", len(entries))
	}
}

func TestRecognizeAllAcceptsCompilerInvocations(t *testing.T) {
	cmd, err := report.NewCommand("/usr/bin/gcc", []string{"gcc", "-c", "foo.c"}, "/work", nil)
	if err != nil {
		t.Fatalf("NewCommand: %v", err)
	}
	rep := report.Report{
		Executions: []report.Execution{{Command: cmd, Run: closedRun()}},
	}

	entries := recognizeAll(newTestLogger(t), defaultChain(), rep)
	if len(entries) != 1 {
		t.Fatalf("expected one entry, got %d", len(entries))
	}
	if entries[0].File != "/work/foo.c" {
		t.Errorf("unexpected file: %q", entries[0].File)
	}
}
