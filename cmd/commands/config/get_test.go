package config

import (
	"encoding/json"
	"strings"
	"testing"

	"nathanbeddoewebdev/gcpm/internal/config"
)

func TestGet_NotSet(t *testing.T) {
	setupTestConfig(t)

	stdout, _, err := execConfig(t, "get", "--key", "project-id")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(stdout, "not set") {
		t.Errorf("expected 'not set', got: %s", stdout)
	}
}

func TestGet_Set(t *testing.T) {
	path := setupTestConfig(t)

	cfg := &config.Config{ProjectID: "my-app-123"}
	if err := cfg.SaveTo(path); err != nil {
		t.Fatalf("failed to save config: %v", err)
	}

	stdout, _, err := execConfig(t, "get", "--key", "Project-ID")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if strings.TrimSpace(stdout) != "my-app-123" {
		t.Errorf("expected 'my-app-123', got: %s", stdout)
	}
}

func TestGet_ListsAllKeysWhenNotTerminal(t *testing.T) {
	path := setupTestConfig(t)
	if err := (&config.Config{Mode: "live"}).SaveTo(path); err != nil {
		t.Fatal(err)
	}

	stdout, _, err := execConfig(t, "get")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, name := range config.KeyNames() {
		if !strings.Contains(stdout, name+":") {
			t.Errorf("expected %s in listing, got:\n%s", name, stdout)
		}
	}
	if !strings.Contains(stdout, "live") || !strings.Contains(stdout, "(not set)") {
		t.Errorf("expected mode value and unset markers, got:\n%s", stdout)
	}
}

func TestGet_UnknownKey(t *testing.T) {
	setupTestConfig(t)

	_, _, err := execConfig(t, "get", "--key", "nope")
	if err == nil {
		t.Error("expected error for unknown key")
	}
}

func TestGet_JSON(t *testing.T) {
	path := setupTestConfig(t)
	if err := (&config.Config{ProjectID: "my-app-123", Location: "eur3"}).SaveTo(path); err != nil {
		t.Fatal(err)
	}

	stdout, _, err := execConfig(t, "get", "-o", "json")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var got map[string]string
	if err := json.Unmarshal([]byte(stdout), &got); err != nil {
		t.Fatalf("invalid JSON: %v\n%s", err, stdout)
	}
	if got["project-id"] != "my-app-123" || got["location"] != "eur3" {
		t.Errorf("unexpected values %v", got)
	}
	if _, ok := got["serve-addr"]; !ok {
		t.Errorf("expected every key present, got %v", got)
	}
}

func TestGet_RejectsBadOutput(t *testing.T) {
	setupTestConfig(t)

	if _, _, err := execConfig(t, "get", "-o", "yaml"); err == nil {
		t.Error("expected error for unsupported output")
	}
}
