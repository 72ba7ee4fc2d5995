// Package console coordinates provisioning and probe runs for the CLI and
// the HTTP server.
//
// At most one provisioning run and at most one probe run may be in flight
// per Service; a second start is rejected with ErrRunInProgress rather than
// queued.
package console

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"nathanbeddoewebdev/gcpm/internal/catalog"
	"nathanbeddoewebdev/gcpm/internal/domain"
	"nathanbeddoewebdev/gcpm/internal/executor"
	"nathanbeddoewebdev/gcpm/internal/pipeline"
	"nathanbeddoewebdev/gcpm/internal/probe"

	"github.com/go-logr/logr"
	"golang.org/x/oauth2"
)

// ErrRunInProgress is returned when a run is started while another run of
// the same kind has not finished.
var ErrRunInProgress = errors.New("a run is already in progress")

// ProvisionRequest is the input for one provisioning run.
type ProvisionRequest struct {
	pipeline.Request

	Mode domain.Mode

	// Tokens supplies the bearer token in live mode.
	Tokens oauth2.TokenSource
}

// ProbeRequest is the input for one probe run.
type ProbeRequest struct {
	APIKey    string
	ProjectID string
}

// Service runs pipelines and probes against a catalog.
type Service struct {
	catalog      *catalog.Catalog
	logger       logr.Logger
	delays       *executor.Delays
	observer     pipeline.Observer
	runHooks     []RunHook
	probeHook    probe.ResultFunc
	concurrency  int
	probeTimeout time.Duration
	httpClient   *http.Client

	provisioning sync.Mutex
	probing      sync.Mutex

	mu      sync.RWMutex
	current *domain.Run
}

// Option configures a Service.
type Option func(*Service)

// WithLogger sets the diagnostic logger passed to pipelines and probes.
func WithLogger(logger logr.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

// WithDelays overrides the simulated stage delays.
func WithDelays(d executor.Delays) Option {
	return func(s *Service) { s.delays = &d }
}

// WithObserver adds an observer notified of every run, in addition to the
// per-call observer passed to Provision.
func WithObserver(obs pipeline.Observer) Option {
	return func(s *Service) { s.observer = obs }
}

// RunHook is notified once a provisioning run has finished, whatever its
// outcome. It is not called when the run never started.
type RunHook func(run *domain.Run, err error)

// WithRunHook adds a hook called after every provisioning run.
func WithRunHook(fn RunHook) Option {
	return func(s *Service) { s.runHooks = append(s.runHooks, fn) }
}

// WithProbeHook adds a callback notified of every probe result, in addition
// to the per-call callback passed to Probe.
func WithProbeHook(fn probe.ResultFunc) Option {
	return func(s *Service) { s.probeHook = fn }
}

// WithProbeConcurrency sets how many checks a probe runs at once.
func WithProbeConcurrency(n int) Option {
	return func(s *Service) { s.concurrency = n }
}

// WithProbeTimeout sets the per-check timeout.
func WithProbeTimeout(d time.Duration) Option {
	return func(s *Service) { s.probeTimeout = d }
}

// WithProbeClient sets the HTTP client used by probes.
func WithProbeClient(c *http.Client) Option {
	return func(s *Service) { s.httpClient = c }
}

// NewService creates a Service bound to cat. A nil catalog means the
// embedded default.
func NewService(cat *catalog.Catalog, opts ...Option) *Service {
	if cat == nil {
		cat = catalog.Default()
	}
	s := &Service{
		catalog:      cat,
		logger:       logr.Discard(),
		concurrency:  1,
		probeTimeout: probe.DefaultTimeout,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Catalog returns the catalog the service runs against.
func (s *Service) Catalog() *catalog.Catalog { return s.catalog }

// Provision executes one provisioning run. obs may be nil. The returned run
// is nil only when the run never started: another run is in flight, or the
// executor could not be built (for example live mode without a token) for a
// request that is otherwise complete.
func (s *Service) Provision(ctx context.Context, req ProvisionRequest, obs pipeline.Observer) (*domain.Run, error) {
	if !s.provisioning.TryLock() {
		return nil, ErrRunInProgress
	}
	defer s.provisioning.Unlock()

	opts := executor.Options{
		Endpoints: s.catalog.Endpoints(),
		Tokens:    req.Tokens,
		Delays:    s.delays,
	}
	exec, err := executor.New(req.Mode, opts)
	if err != nil {
		if !pipeline.MissingInput(req.Request) {
			return nil, err
		}
		// Missing input is reported ahead of credential errors; the
		// pipeline rejects the run before any stage calls the executor.
		exec = executor.Unavailable(req.Mode, err)
	}

	t := &tracker{svc: s}
	t.begin(req, exec.Mode())

	observers := pipeline.Observers{t}
	if s.observer != nil {
		observers = append(observers, s.observer)
	}
	if obs != nil {
		observers = append(observers, obs)
	}

	p := pipeline.New(exec, pipeline.WithLogger(s.logger.WithName("pipeline")))
	run, runErr := p.Execute(ctx, req.Request, observers)

	s.mu.Lock()
	s.current = run.Clone()
	s.mu.Unlock()

	for _, hook := range s.runHooks {
		hook(run, runErr)
	}
	return run, runErr
}

// Current returns a snapshot of the in-flight or most recent run.
func (s *Service) Current() (*domain.Run, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.current == nil {
		return nil, false
	}
	return s.current.Clone(), true
}

// Busy reports whether a provisioning run is in flight.
func (s *Service) Busy() bool {
	if s.provisioning.TryLock() {
		s.provisioning.Unlock()
		return false
	}
	return true
}

// Probe runs every catalog check. onResult may be nil; when set it receives
// each result as it completes.
func (s *Service) Probe(ctx context.Context, req ProbeRequest, onResult probe.ResultFunc) ([]domain.CheckResult, error) {
	if !s.probing.TryLock() {
		return nil, ErrRunInProgress
	}
	defer s.probing.Unlock()

	hooks := make([]probe.ResultFunc, 0, 2)
	if s.probeHook != nil {
		hooks = append(hooks, s.probeHook)
	}
	if onResult != nil {
		hooks = append(hooks, onResult)
	}

	opts := []probe.Option{
		probe.WithConcurrency(s.concurrency),
		probe.WithTimeout(s.probeTimeout),
		probe.WithLogger(s.logger.WithName("probe")),
	}
	if s.httpClient != nil {
		opts = append(opts, probe.WithHTTPClient(s.httpClient))
	}
	if len(hooks) > 0 {
		opts = append(opts, probe.WithResultFunc(func(i int, r domain.CheckResult) {
			for _, h := range hooks {
				h(i, r)
			}
		}))
	}

	return probe.New(s.catalog.Checks(), opts...).Run(ctx, req.APIKey, req.ProjectID), nil
}

// tracker mirrors a run's progress into Service.current so Current can be
// read while the run is in flight.
type tracker struct {
	svc *Service
}

func (t *tracker) begin(req ProvisionRequest, mode domain.Mode) {
	location := req.Location
	if location == "" {
		location = pipeline.DefaultLocation
	}
	t.svc.mu.Lock()
	defer t.svc.mu.Unlock()
	t.svc.current = &domain.Run{
		TargetID:    req.TargetID,
		DisplayName: req.DisplayName,
		Location:    location,
		Mode:        mode,
		Stages:      domain.PendingStages(),
		StartedAt:   time.Now(),
	}
}

func (t *tracker) OnLog(entry domain.LogEntry) {
	t.svc.mu.Lock()
	defer t.svc.mu.Unlock()
	t.svc.current.Log = append(t.svc.current.Log, entry)
}

func (t *tracker) OnStage(stage domain.Stage) {
	t.svc.mu.Lock()
	defer t.svc.mu.Unlock()
	if s := t.svc.current.Stage(stage.Key); s != nil {
		*s = stage
	}
}
