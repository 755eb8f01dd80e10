package main

import (
	"os"
	"path/filepath"
	"testing"
)

func TestResolveSidecarsDefaultsNextToExecutable(t *testing.T) {
	library, supervisor, err := resolveSidecars("", "")
	if err != nil {
		t.Fatalf("resolveSidecars: %v", err)
	}

	exe, err := os.Executable()
	if err != nil {
		t.Fatalf("os.Executable: %v", err)
	}
	dir := filepath.Dir(exe)

	if library != filepath.Join(dir, "libpreload.so") {
		t.Errorf("unexpected library path: %q", library)
	}
	if supervisor != filepath.Join(dir, "supervisor") {
		t.Errorf("unexpected supervisor path: %q", supervisor)
	}
}

func TestResolveSidecarsHonorsOverrides(t *testing.T) {
	library, supervisor, err := resolveSidecars("/opt/custom/libpreload.so", "/opt/custom/supervisor")
	if err != nil {
		t.Fatalf("resolveSidecars: %v", err)
	}
	if library != "/opt/custom/libpreload.so" {
		t.Errorf("expected library override honored, got %q", library)
	}
	if supervisor != "/opt/custom/supervisor" {
		t.Errorf("expected supervisor override honored, got %q", supervisor)
	}
}

func TestResolveSidecarsPartialOverride(t *testing.T) {
	library, supervisor, err := resolveSidecars("/opt/custom/libpreload.so", "")
	if err != nil {
		t.Fatalf("resolveSidecars: %v", err)
	}
	if library != "/opt/custom/libpreload.so" {
		t.Errorf("expected library override honored, got %q", library)
	}

	exe, err := os.Executable()
	if err != nil {
		t.Fatalf("os.Executable: %v", err)
	}
	want := filepath.Join(filepath.Dir(exe), "supervisor")
	if supervisor != want {
		t.Errorf("expected default supervisor path %q, got %q", want, supervisor)
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
