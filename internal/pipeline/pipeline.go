// Package pipeline drives the provisioning stages of a Google Cloud project.
//
// A run walks domain.StageOrder strictly in order. Each stage moves
// pending -> running -> success|failed exactly once; the first failure halts
// the run and every later stage stays pending. There are no automatic
// retries and no per-stage resume: re-running starts again from the top.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"nathanbeddoewebdev/gcpm/internal/domain"

	"github.com/go-logr/logr"
)

// DefaultLocation is the Firestore location used when none is requested.
const DefaultLocation = "us-central1"

// Location is a Firestore database location offered to operators.
type Location struct {
	ID    string
	Label string
}

// Locations lists common Firestore locations, DefaultLocation first. Any
// other location ID is still accepted.
var Locations = []Location{
	{ID: "us-central1", Label: "Iowa"},
	{ID: "us-east1", Label: "South Carolina"},
	{ID: "us-west1", Label: "Oregon"},
	{ID: "nam5", Label: "United States (multi-region)"},
	{ID: "eur3", Label: "Europe (multi-region)"},
	{ID: "europe-west1", Label: "Belgium"},
	{ID: "europe-west3", Label: "Frankfurt"},
	{ID: "asia-northeast1", Label: "Tokyo"},
	{ID: "australia-southeast1", Label: "Sydney"},
}

// LocationIDs returns the IDs of Locations in order.
func LocationIDs() []string {
	ids := make([]string, len(Locations))
	for i, l := range Locations {
		ids[i] = l.ID
	}
	return ids
}

// Request holds the operator input for one run.
type Request struct {
	TargetID    string
	DisplayName string
	Location    string
}

// Observer receives the ordered stream of state changes produced by a run.
// Callbacks are invoked synchronously from the goroutine running Execute.
type Observer interface {
	OnLog(entry domain.LogEntry)
	OnStage(stage domain.Stage)
}

// Pipeline runs the provisioning stages against an executor.
type Pipeline struct {
	exec   domain.Executor
	logger logr.Logger
	now    func() time.Time
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithLogger sets the diagnostic logger.
func WithLogger(logger logr.Logger) Option {
	return func(p *Pipeline) { p.logger = logger }
}

// WithClock overrides the time source used for log timestamps.
func WithClock(now func() time.Time) Option {
	return func(p *Pipeline) { p.now = now }
}

// New creates a Pipeline bound to exec.
func New(exec domain.Executor, opts ...Option) *Pipeline {
	p := &Pipeline{
		exec:   exec,
		logger: logr.Discard(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// step describes one stage: its log lines and the executor call behind it.
type step struct {
	key      domain.StageKey
	starting func(req Request) string
	success  string
	call     func(ctx context.Context, exec domain.Executor, req Request) (domain.Payload, error)
}

var steps = []step{
	{
		key:      domain.StageCreateProject,
		starting: func(req Request) string { return fmt.Sprintf("Initializing project: %s...", req.TargetID) },
		success:  "SUCCESS: Project created via Cloud Resource Manager.",
		call: func(ctx context.Context, exec domain.Executor, req Request) (domain.Payload, error) {
			return exec.CreateProject(ctx, req.TargetID, req.DisplayName)
		},
	},
	{
		key:      domain.StageAddFirebase,
		starting: func(Request) string { return "Adding Firebase capabilities..." },
		success:  "SUCCESS: Firebase Management API linked.",
		call: func(ctx context.Context, exec domain.Executor, req Request) (domain.Payload, error) {
			return exec.AddFirebase(ctx, req.TargetID)
		},
	},
	{
		key:      domain.StageConfigureAuth,
		starting: func(Request) string { return "Configuring Identity Toolkit (email/anonymous)..." },
		success:  "SUCCESS: Auth providers enabled.",
		call: func(ctx context.Context, exec domain.Executor, req Request) (domain.Payload, error) {
			return exec.ConfigureAuth(ctx, req.TargetID)
		},
	},
	{
		key: domain.StageProvisionDatabase,
		starting: func(req Request) string {
			return fmt.Sprintf("Provisioning Firestore (native mode) in %s...", req.Location)
		},
		success: "SUCCESS: Cloud Firestore provisioned.",
		call: func(ctx context.Context, exec domain.Executor, req Request) (domain.Payload, error) {
			return exec.CreateDatabase(ctx, req.TargetID, req.Location)
		},
	},
}

// MissingInput reports whether req lacks the project ID or display name.
// Execute rejects such a request before calling the executor.
func MissingInput(req Request) bool {
	return strings.TrimSpace(req.TargetID) == "" || strings.TrimSpace(req.DisplayName) == ""
}

// Execute performs one run. The returned Run is always non-nil and holds the
// final stage states and log. The error is nil only when every stage
// succeeded; otherwise it wraps one of the domain sentinel errors.
func (p *Pipeline) Execute(ctx context.Context, req Request, obs Observer) (*domain.Run, error) {
	if obs == nil {
		obs = nopObserver{}
	}
	req.TargetID = strings.TrimSpace(req.TargetID)
	req.DisplayName = strings.TrimSpace(req.DisplayName)
	req.Location = strings.TrimSpace(req.Location)
	if req.Location == "" {
		req.Location = DefaultLocation
	}

	r := &runner{
		run: &domain.Run{
			TargetID:    req.TargetID,
			DisplayName: req.DisplayName,
			Location:    req.Location,
			Mode:        p.exec.Mode(),
			Stages:      domain.PendingStages(),
			StartedAt:   p.now(),
		},
		obs: obs,
		now: p.now,
	}
	log := p.logger.WithValues("project", req.TargetID, "mode", r.run.Mode)

	for _, s := range r.run.Stages {
		obs.OnStage(s)
	}

	if MissingInput(req) {
		r.log(domain.LogError, "Error: Missing project ID or display name")
		r.run.FinishedAt = p.now()
		log.Info("provisioning rejected", "reason", "missing input")
		return r.run, &domain.StageError{
			Message: "missing project ID or display name",
			Err:     domain.ErrValidation,
		}
	}

	r.log(domain.LogInfo, "Starting provisioning sequence...")
	if r.run.Mode == domain.ModeLive {
		r.log(domain.LogInfo, "MODE: Live API execution (requires a valid access token)")
	} else {
		r.log(domain.LogInfo, "MODE: Simulation (no real API charges)")
	}

	for _, s := range steps {
		if err := ctx.Err(); err != nil {
			stageErr := &domain.StageError{
				Stage:   s.key,
				Message: fmt.Sprintf("provisioning cancelled before %s: %v", s.key.Title(), err),
				Err:     fmt.Errorf("%w: %w", domain.ErrTransport, err),
			}
			r.log(domain.LogError, "ERROR: "+stageErr.Message)
			r.run.FinishedAt = p.now()
			log.Info("provisioning cancelled", "stage", s.key)
			return r.run, stageErr
		}

		r.log(domain.LogInfo, s.starting(req))
		r.transition(s.key, domain.StageStatusRunning, "", "")
		log.V(1).Info("stage started", "stage", s.key)

		start := time.Now()
		_, err := s.call(ctx, p.exec, req)
		if err != nil {
			stageErr := asStageError(s.key, err)
			r.transition(s.key, domain.StageStatusFailed, stageErr.Message, domain.Kind(stageErr))
			r.log(domain.LogError, "ERROR: "+stageErr.Message)
			r.run.FinishedAt = p.now()
			log.Info("stage failed", "stage", s.key, "kind", domain.Kind(stageErr),
				"status", stageErr.StatusCode, "duration", time.Since(start))
			return r.run, stageErr
		}

		r.transition(s.key, domain.StageStatusSuccess, "", "")
		r.log(domain.LogSuccess, s.success)
		log.V(1).Info("stage succeeded", "stage", s.key, "duration", time.Since(start))
	}

	r.log(domain.LogSuccess, "Provisioning complete. Project ready for app integration.")
	r.run.FinishedAt = p.now()
	log.Info("provisioning complete", "duration", r.run.FinishedAt.Sub(r.run.StartedAt))
	return r.run, nil
}

// asStageError normalizes any executor error into a *domain.StageError
// attributed to stage.
func asStageError(stage domain.StageKey, err error) *domain.StageError {
	var stageErr *domain.StageError
	if errors.As(err, &stageErr) {
		if stageErr.Stage == "" {
			stageErr.Stage = stage
		}
		if stageErr.Message == "" {
			stageErr.Message = fmt.Sprintf("%s failed: %v", stage.Title(), stageErr.Err)
		}
		return stageErr
	}
	return &domain.StageError{
		Stage:   stage,
		Message: fmt.Sprintf("%s failed: %v", stage.Title(), err),
		Err:     err,
	}
}

// runner mutates the run state and forwards every change to the observer.
type runner struct {
	run *domain.Run
	obs Observer
	now func() time.Time
}

func (r *runner) log(level domain.LogLevel, msg string) {
	entry := domain.LogEntry{Time: r.now(), Level: level, Message: msg}
	r.run.Log = append(r.run.Log, entry)
	r.obs.OnLog(entry)
}

func (r *runner) transition(key domain.StageKey, status domain.StageStatus, message, kind string) {
	stage := r.run.Stage(key)
	stage.Status = status
	stage.Message = message
	stage.ErrorKind = kind
	r.obs.OnStage(*stage)
}

type nopObserver struct{}

func (nopObserver) OnLog(domain.LogEntry) {}
func (nopObserver) OnStage(domain.Stage)  {}

// ObserverFuncs adapts plain functions to Observer. Nil fields are skipped.
type ObserverFuncs struct {
	Log   func(domain.LogEntry)
	Stage func(domain.Stage)
}

func (f ObserverFuncs) OnLog(entry domain.LogEntry) {
	if f.Log != nil {
		f.Log(entry)
	}
}

func (f ObserverFuncs) OnStage(stage domain.Stage) {
	if f.Stage != nil {
		f.Stage(stage)
	}
}

// Observers fans every callback out to each observer in order.
type Observers []Observer

func (o Observers) OnLog(entry domain.LogEntry) {
	for _, obs := range o {
		obs.OnLog(entry)
	}
}

func (o Observers) OnStage(stage domain.Stage) {
	for _, obs := range o {
		obs.OnStage(stage)
	}
}
