package config

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"

	"nathanbeddoewebdev/gcpm/internal/config"
)

// setupTestConfig points the config package at a temp file and returns its path.
func setupTestConfig(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.json")
	config.SetPath(path)
	t.Cleanup(config.ResetPath)
	return path
}

// execConfig creates the config command, wires up output buffers, runs with the
// given args, and returns what was written to stdout and stderr.
func execConfig(t *testing.T, args ...string) (stdout, stderr string, err error) {
	t.Helper()
	var outBuf, errBuf bytes.Buffer
	cmd := NewCommand()
	cmd.SetOut(&outBuf)
	cmd.SetErr(&errBuf)
	cmd.SetArgs(args)
	err = cmd.Execute()
	return outBuf.String(), errBuf.String(), err
}

func TestSet_ProjectID(t *testing.T) {
	setupTestConfig(t)

	stdout, _, err := execConfig(t, "set", "project-id", "my-app-123")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(stdout, `"my-app-123"`) {
		t.Errorf("expected confirmation with value, got: %s", stdout)
	}

	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}
	if cfg.ProjectID != "my-app-123" {
		t.Errorf("expected persisted project-id, got %q", cfg.ProjectID)
	}
}

func TestSet_KeyIsCaseInsensitive(t *testing.T) {
	setupTestConfig(t)

	if _, _, err := execConfig(t, "set", "LOCATION", "eur3"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	cfg, _ := config.Load()
	if cfg.Location != "eur3" {
		t.Errorf("expected location eur3, got %q", cfg.Location)
	}
}

func TestSet_ModeIsValidatedAndCanonicalized(t *testing.T) {
	setupTestConfig(t)

	_, _, err := execConfig(t, "set", "mode", "turbo")
	if err == nil || !strings.Contains(err.Error(), "invalid value for mode") {
		t.Fatalf("expected validation error, got %v", err)
	}
	cfg, _ := config.Load()
	if cfg.Mode != "" {
		t.Errorf("expected mode untouched, got %q", cfg.Mode)
	}

	stdout, _, err := execConfig(t, "set", "mode", "SIM")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(stdout, `"simulated"`) {
		t.Errorf("expected canonical value in confirmation, got %s", stdout)
	}
}

func TestSet_PathValuePreservesCase(t *testing.T) {
	setupTestConfig(t)

	if _, _, err := execConfig(t, "set", "catalog-file", "/Users/Me/Catalog.yaml"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	cfg, _ := config.Load()
	if cfg.CatalogFile != "/Users/Me/Catalog.yaml" {
		t.Errorf("expected path preserved, got %q", cfg.CatalogFile)
	}
}

func TestSet_EmptyValueUnsets(t *testing.T) {
	path := setupTestConfig(t)
	if err := (&config.Config{Location: "nam5"}).SaveTo(path); err != nil {
		t.Fatal(err)
	}

	stdout, _, err := execConfig(t, "set", "location", "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(stdout, "location unset") {
		t.Errorf("unexpected output %q", stdout)
	}
	cfg, _ := config.Load()
	if cfg.Location != "" {
		t.Errorf("expected location cleared, got %q", cfg.Location)
	}
}

func TestSet_UnknownKey(t *testing.T) {
	setupTestConfig(t)

	_, _, err := execConfig(t, "set", "default-region", "fsn1")
	if err == nil || !strings.Contains(err.Error(), "unknown configuration key") {
		t.Errorf("expected unknown key error, got %v", err)
	}
}
