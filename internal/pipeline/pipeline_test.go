package pipeline

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"testing"
	"time"

	"nathanbeddoewebdev/gcpm/internal/domain"
	"nathanbeddoewebdev/gcpm/internal/executor"

	"github.com/google/go-cmp/cmp"
)

// --- Test helpers ---

// fakeExecutor records calls and fails the configured stage.
type fakeExecutor struct {
	mode   domain.Mode
	failAt domain.StageKey
	err    error
	calls  []domain.StageKey
}

func (f *fakeExecutor) Mode() domain.Mode {
	if f.mode == "" {
		return domain.ModeSimulated
	}
	return f.mode
}

func (f *fakeExecutor) result(stage domain.StageKey) (domain.Payload, error) {
	f.calls = append(f.calls, stage)
	if stage == f.failAt {
		return nil, f.err
	}
	return domain.Payload{}, nil
}

func (f *fakeExecutor) CreateProject(ctx context.Context, projectID, displayName string) (domain.Payload, error) {
	return f.result(domain.StageCreateProject)
}

func (f *fakeExecutor) AddFirebase(ctx context.Context, projectID string) (domain.Payload, error) {
	return f.result(domain.StageAddFirebase)
}

func (f *fakeExecutor) ConfigureAuth(ctx context.Context, projectID string) (domain.Payload, error) {
	return f.result(domain.StageConfigureAuth)
}

func (f *fakeExecutor) CreateDatabase(ctx context.Context, projectID, location string) (domain.Payload, error) {
	return f.result(domain.StageProvisionDatabase)
}

// recorder captures the observer stream.
type recorder struct {
	logs        []string
	transitions []string
}

func (r *recorder) OnLog(e domain.LogEntry) { r.logs = append(r.logs, e.Message) }
func (r *recorder) OnStage(s domain.Stage) {
	r.transitions = append(r.transitions, fmt.Sprintf("%s:%s", s.Key, s.Status))
}

func statuses(run *domain.Run) []domain.StageStatus {
	out := make([]domain.StageStatus, len(run.Stages))
	for i, s := range run.Stages {
		out[i] = s.Status
	}
	return out
}

func countContaining(lines []string, substr string) int {
	n := 0
	for _, l := range lines {
		if strings.Contains(l, substr) {
			n++
		}
	}
	return n
}

// --- Tests ---

func TestExecute_SimulatedHappyPath(t *testing.T) {
	p := New(executor.NewSimulated(executor.Delays{}))
	rec := &recorder{}

	run, err := p.Execute(context.Background(), Request{TargetID: "proj-1", DisplayName: "Proj One"}, rec)
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}

	want := []domain.StageStatus{
		domain.StageStatusSuccess, domain.StageStatusSuccess,
		domain.StageStatusSuccess, domain.StageStatusSuccess,
	}
	if diff := cmp.Diff(want, statuses(run)); diff != "" {
		t.Errorf("unexpected statuses (-want +got):\n%s", diff)
	}
	if !run.Succeeded() {
		t.Error("expected run to succeed")
	}
	if run.Mode != domain.ModeSimulated {
		t.Errorf("expected simulated mode, got %q", run.Mode)
	}
	if run.Location != DefaultLocation {
		t.Errorf("expected default location %q, got %q", DefaultLocation, run.Location)
	}

	lines := rec.logs
	startLines := []string{
		"Initializing project: proj-1...",
		"Adding Firebase capabilities...",
		"Configuring Identity Toolkit (email/anonymous)...",
		"Provisioning Firestore (native mode) in us-central1...",
	}
	for _, l := range startLines {
		if n := countContaining(lines, l); n != 1 {
			t.Errorf("expected exactly one %q line, got %d", l, n)
		}
	}
	if n := countContaining(lines, "SUCCESS:"); n != 4 {
		t.Errorf("expected 4 success lines, got %d", n)
	}
	if lines[len(lines)-1] != "Provisioning complete. Project ready for app integration." {
		t.Errorf("expected completion line last, got %q", lines[len(lines)-1])
	}
	if len(run.Log) != len(rec.logs) {
		t.Errorf("run log has %d entries, observer saw %d", len(run.Log), len(rec.logs))
	}
}

func TestExecute_TransitionsInOrder(t *testing.T) {
	p := New(&fakeExecutor{})
	rec := &recorder{}

	if _, err := p.Execute(context.Background(), Request{TargetID: "p", DisplayName: "n"}, rec); err != nil {
		t.Fatalf("Execute failed: %v", err)
	}

	want := []string{
		"create_project:pending", "add_firebase:pending", "configure_auth:pending", "provision_database:pending",
		"create_project:running", "create_project:success",
		"add_firebase:running", "add_firebase:success",
		"configure_auth:running", "configure_auth:success",
		"provision_database:running", "provision_database:success",
	}
	if diff := cmp.Diff(want, rec.transitions); diff != "" {
		t.Errorf("unexpected transitions (-want +got):\n%s", diff)
	}
}

func TestExecute_ValidationError(t *testing.T) {
	tests := []struct {
		name string
		req  Request
	}{
		{"empty project id", Request{DisplayName: "Proj One"}},
		{"empty display name", Request{TargetID: "proj-1"}},
		{"whitespace only", Request{TargetID: "  ", DisplayName: "\t"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			exec := &fakeExecutor{}
			rec := &recorder{}

			run, err := New(exec).Execute(context.Background(), tt.req, rec)
			if !errors.Is(err, domain.ErrValidation) {
				t.Fatalf("expected ErrValidation, got %v", err)
			}
			if len(exec.calls) != 0 {
				t.Errorf("expected zero remote calls, got %v", exec.calls)
			}
			for _, s := range run.Stages {
				if s.Status != domain.StageStatusPending {
					t.Errorf("stage %s: expected pending, got %s", s.Key, s.Status)
				}
			}
			if diff := cmp.Diff([]string{"Error: Missing project ID or display name"}, rec.logs); diff != "" {
				t.Errorf("unexpected log (-want +got):\n%s", diff)
			}
		})
	}
}

func TestExecute_HaltsOnFirstFailure(t *testing.T) {
	for i, failAt := range domain.StageOrder {
		t.Run(string(failAt), func(t *testing.T) {
			exec := &fakeExecutor{failAt: failAt, err: errors.New("boom")}
			rec := &recorder{}

			run, err := New(exec).Execute(context.Background(), Request{TargetID: "p", DisplayName: "n"}, rec)
			if err == nil {
				t.Fatal("expected error")
			}

			if diff := cmp.Diff(domain.StageOrder[:i+1], exec.calls); diff != "" {
				t.Errorf("unexpected calls (-want +got):\n%s", diff)
			}
			for j, s := range run.Stages {
				switch {
				case j < i && s.Status != domain.StageStatusSuccess:
					t.Errorf("stage %s: expected success, got %s", s.Key, s.Status)
				case j == i && s.Status != domain.StageStatusFailed:
					t.Errorf("stage %s: expected failed, got %s", s.Key, s.Status)
				case j > i && s.Status != domain.StageStatusPending:
					t.Errorf("stage %s: expected pending, got %s", s.Key, s.Status)
				}
			}
			for _, later := range domain.StageOrder[i+1:] {
				if n := countContaining(rec.transitions, string(later)+":running"); n != 0 {
					t.Errorf("stage %s should never run", later)
				}
			}
			if n := countContaining(rec.logs, "Provisioning complete"); n != 0 {
				t.Error("expected no completion line after failure")
			}
		})
	}
}

func TestExecute_LiveAuthorizationFailureAtStageTwo(t *testing.T) {
	exec := &fakeExecutor{
		mode:   domain.ModeLive,
		failAt: domain.StageAddFirebase,
		err: &domain.StageError{
			StatusCode: http.StatusForbidden,
			StatusText: "Forbidden",
			Message:    "Add Firebase failed: Forbidden - The caller does not have permission",
			Err:        fmt.Errorf("%w: HTTP 403", domain.ErrAuthorization),
		},
	}
	rec := &recorder{}

	run, err := New(exec).Execute(context.Background(), Request{TargetID: "proj-1", DisplayName: "Proj One"}, rec)
	if !errors.Is(err, domain.ErrAuthorization) {
		t.Fatalf("expected ErrAuthorization, got %v", err)
	}

	want := []domain.StageStatus{
		domain.StageStatusSuccess, domain.StageStatusFailed,
		domain.StageStatusPending, domain.StageStatusPending,
	}
	if diff := cmp.Diff(want, statuses(run)); diff != "" {
		t.Errorf("unexpected statuses (-want +got):\n%s", diff)
	}

	failed := run.FailedStage()
	if failed == nil || failed.Key != domain.StageAddFirebase {
		t.Fatalf("expected add_firebase to be the failed stage, got %+v", failed)
	}
	if failed.ErrorKind != "AuthorizationError" {
		t.Errorf("expected AuthorizationError kind, got %q", failed.ErrorKind)
	}

	var stageErr *domain.StageError
	if !errors.As(err, &stageErr) || stageErr.Stage != domain.StageAddFirebase {
		t.Errorf("expected error attributed to add_firebase, got %v", err)
	}
	if n := countContaining(rec.logs, "ERROR: Add Firebase failed: Forbidden"); n != 1 {
		t.Errorf("expected one error line referencing stage 2, got logs %v", rec.logs)
	}
	if n := countContaining(rec.logs, "MODE: Live"); n != 1 {
		t.Errorf("expected live mode banner, got logs %v", rec.logs)
	}
}

func TestExecute_PlainErrorIsWrapped(t *testing.T) {
	exec := &fakeExecutor{failAt: domain.StageConfigureAuth, err: errors.New("socket closed")}

	run, err := New(exec).Execute(context.Background(), Request{TargetID: "p", DisplayName: "n"}, nil)

	var stageErr *domain.StageError
	if !errors.As(err, &stageErr) {
		t.Fatalf("expected *domain.StageError, got %T", err)
	}
	if stageErr.Message != "Configure Auth failed: socket closed" {
		t.Errorf("unexpected message %q", stageErr.Message)
	}
	if got := run.Stage(domain.StageConfigureAuth).Message; got != stageErr.Message {
		t.Errorf("expected stage message %q, got %q", stageErr.Message, got)
	}
}

func TestExecute_CancelledBeforeStage(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	exec := &fakeExecutor{}
	obs := ObserverFuncs{Stage: func(s domain.Stage) {
		if s.Key == domain.StageAddFirebase && s.Status == domain.StageStatusSuccess {
			cancel()
		}
	}}

	run, err := New(exec).Execute(ctx, Request{TargetID: "p", DisplayName: "n"}, obs)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if !errors.Is(err, domain.ErrTransport) {
		t.Errorf("expected cancellation to be a transport error, got %v", err)
	}

	want := []domain.StageStatus{
		domain.StageStatusSuccess, domain.StageStatusSuccess,
		domain.StageStatusPending, domain.StageStatusPending,
	}
	if diff := cmp.Diff(want, statuses(run)); diff != "" {
		t.Errorf("unexpected statuses (-want +got):\n%s", diff)
	}
	if len(exec.calls) != 2 {
		t.Errorf("expected 2 calls, got %v", exec.calls)
	}
}

func TestExecute_CustomLocationAndClock(t *testing.T) {
	fixed := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	p := New(&fakeExecutor{}, WithClock(func() time.Time { return fixed }))
	rec := &recorder{}

	run, err := p.Execute(context.Background(), Request{TargetID: "p", DisplayName: "n", Location: "europe-west3"}, rec)
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if countContaining(rec.logs, "in europe-west3...") != 1 {
		t.Errorf("expected location in database log line, got %v", rec.logs)
	}
	if !run.StartedAt.Equal(fixed) || !run.FinishedAt.Equal(fixed) {
		t.Errorf("expected fixed timestamps, got %v / %v", run.StartedAt, run.FinishedAt)
	}
	for _, e := range run.Log {
		if !e.Time.Equal(fixed) {
			t.Errorf("expected fixed log timestamp, got %v", e.Time)
		}
	}
}

func TestExecute_FreshRunEachTime(t *testing.T) {
	exec := &fakeExecutor{failAt: domain.StageCreateProject, err: errors.New("boom")}
	p := New(exec)

	first, _ := p.Execute(context.Background(), Request{TargetID: "p", DisplayName: "n"}, nil)

	exec.failAt = ""
	second, err := p.Execute(context.Background(), Request{TargetID: "p", DisplayName: "n"}, nil)
	if err != nil {
		t.Fatalf("second run failed: %v", err)
	}
	if first.Stage(domain.StageCreateProject).Status != domain.StageStatusFailed {
		t.Error("first run state should be independent of the second")
	}
	if !second.Succeeded() {
		t.Error("expected second run to succeed from the top")
	}
}

func TestMissingInput(t *testing.T) {
	tests := []struct {
		name string
		req  Request
		want bool
	}{
		{"complete", Request{TargetID: "p-1", DisplayName: "P"}, false},
		{"no id", Request{DisplayName: "P"}, true},
		{"blank name", Request{TargetID: "p-1", DisplayName: "  "}, true},
		{"location alone", Request{Location: "eur3"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := MissingInput(tt.req); got != tt.want {
				t.Errorf("MissingInput() = %v, want %v", got, tt.want)
			}
		})
	}
}
