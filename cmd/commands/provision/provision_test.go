package provision

import (
	"bytes"
	"encoding/json"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"nathanbeddoewebdev/gcpm/internal/config"
	"nathanbeddoewebdev/gcpm/internal/domain"
	"nathanbeddoewebdev/gcpm/internal/executor"
	"nathanbeddoewebdev/gcpm/internal/services/auth"
	"nathanbeddoewebdev/gcpm/internal/services/console"
)

// setupTest points config at a temp file, removes simulated delays and swaps
// the keyring for an in-memory store.
func setupTest(t *testing.T) *auth.MemoryStore {
	t.Helper()
	config.SetPath(filepath.Join(t.TempDir(), "config.json"))
	t.Cleanup(config.ResetPath)

	store := auth.NewMemoryStore()
	prevOpts, prevStore := serviceOptions, credentialStore
	serviceOptions = []console.Option{console.WithDelays(executor.Delays{})}
	credentialStore = func() auth.Store { return store }
	t.Cleanup(func() {
		serviceOptions, credentialStore = prevOpts, prevStore
	})
	return store
}

func execProvision(t *testing.T, args ...string) (stdout, stderr string, err error) {
	t.Helper()
	var outBuf, errBuf bytes.Buffer
	cmd := NewCommand()
	cmd.SetOut(&outBuf)
	cmd.SetErr(&errBuf)
	cmd.SetArgs(args)
	err = cmd.Execute()
	return outBuf.String(), errBuf.String(), err
}

func TestProvision_SimulatedText(t *testing.T) {
	setupTest(t)

	stdout, _, err := execProvision(t, "--project-id", "my-app-123", "--name", "My App")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	for _, want := range []string{
		"Starting provisioning sequence...",
		"MODE: Simulation",
		"Provisioning complete.",
		"STAGE",
		"Provision Database",
	} {
		if !strings.Contains(stdout, want) {
			t.Errorf("expected output to contain %q, got:\n%s", want, stdout)
		}
	}
	if strings.Contains(stdout, "failed") {
		t.Errorf("expected no failed stage, got:\n%s", stdout)
	}
}

func TestProvision_JSON(t *testing.T) {
	setupTest(t)

	stdout, _, err := execProvision(t, "--project-id", "my-app-123", "--name", "My App", "--location", "eur3", "-o", "json")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var out runOutput
	if err := json.Unmarshal([]byte(stdout), &out); err != nil {
		t.Fatalf("invalid JSON: %v\n%s", err, stdout)
	}
	if out.Run == nil || !out.Run.Succeeded() {
		t.Fatalf("expected a successful run, got %+v", out)
	}
	if out.Run.Location != "eur3" {
		t.Errorf("expected location eur3, got %q", out.Run.Location)
	}
	if out.Error != "" {
		t.Errorf("expected no error, got %q", out.Error)
	}
}

func TestProvision_UsesConfigDefaults(t *testing.T) {
	setupTest(t)
	cfg := &config.Config{ProjectID: "cfg-project-1", Location: "nam5"}
	if err := cfg.Save(); err != nil {
		t.Fatal(err)
	}

	stdout, _, err := execProvision(t, "--name", "From Config", "-o", "json")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var out runOutput
	if err := json.Unmarshal([]byte(stdout), &out); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if out.Run.TargetID != "cfg-project-1" || out.Run.Location != "nam5" {
		t.Errorf("expected config defaults, got project=%q location=%q", out.Run.TargetID, out.Run.Location)
	}
}

func TestProvision_MissingNameFailsValidation(t *testing.T) {
	setupTest(t)

	stdout, _, err := execProvision(t, "--project-id", "my-app-123")
	if !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if !strings.Contains(stdout, "Error: Missing project ID or display name") {
		t.Errorf("expected validation log line, got:\n%s", stdout)
	}
}

func TestProvision_LiveWithoutCredentials(t *testing.T) {
	setupTest(t)

	_, _, err := execProvision(t, "--project-id", "my-app-123", "--name", "My App", "--live")
	if !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if !strings.Contains(err.Error(), "access token") {
		t.Errorf("expected hint about access token, got %v", err)
	}
}

func TestProvision_LiveMissingNameReportsValidationFirst(t *testing.T) {
	setupTest(t)

	stdout, _, err := execProvision(t, "--project-id", "my-app-123", "--live")
	if !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if !strings.Contains(stdout, "Error: Missing project ID or display name") {
		t.Errorf("expected validation log line, got:\n%s", stdout)
	}
	if strings.Contains(err.Error(), "access token") {
		t.Errorf("expected the input error ahead of the credential error, got %v", err)
	}
}

func TestProvision_UnsupportedOutput(t *testing.T) {
	setupTest(t)

	_, _, err := execProvision(t, "--project-id", "my-app-123", "--name", "My App", "-o", "yaml")
	if err == nil || !strings.Contains(err.Error(), "unsupported output format") {
		t.Errorf("expected output format error, got %v", err)
	}
}

func TestNewRunOutput(t *testing.T) {
	err := &domain.StageError{Stage: domain.StageAddFirebase, Message: "Add Firebase failed: Forbidden", Err: domain.ErrAuthorization}
	out := newRunOutput(nil, err)
	if out.ErrorKind != "AuthorizationError" {
		t.Errorf("expected AuthorizationError, got %q", out.ErrorKind)
	}
}
