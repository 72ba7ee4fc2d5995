// Package api serves the JSON and Server-Sent Events interface used by the
// browser dashboard.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"nathanbeddoewebdev/gcpm/internal/catalog"
	"nathanbeddoewebdev/gcpm/internal/domain"
	"nathanbeddoewebdev/gcpm/internal/events"
	"nathanbeddoewebdev/gcpm/internal/pipeline"
	"nathanbeddoewebdev/gcpm/internal/probe"
	"nathanbeddoewebdev/gcpm/internal/services/console"

	"github.com/go-logr/logr"
	"golang.org/x/oauth2"
)

const maxRequestBody = 1 << 20

// CredentialFunc resolves the live-mode token source. explicit is the access
// token sent in the request body, possibly empty.
type CredentialFunc func(ctx context.Context, explicit string) (oauth2.TokenSource, error)

// Server holds the dependencies of the HTTP handlers.
type Server struct {
	svc         *console.Service
	broker      *events.Broker
	metrics     http.Handler
	credentials CredentialFunc
	logger      logr.Logger
}

// Option configures a Server.
type Option func(*Server)

// WithMetricsHandler mounts h at /metrics.
func WithMetricsHandler(h http.Handler) Option {
	return func(s *Server) { s.metrics = h }
}

// WithCredentials sets how live-mode runs obtain a token. Without it, live
// runs require accessToken in the request body.
func WithCredentials(fn CredentialFunc) Option {
	return func(s *Server) { s.credentials = fn }
}

// WithLogger sets the request logger.
func WithLogger(logger logr.Logger) Option {
	return func(s *Server) { s.logger = logger }
}

// New creates a Server.
func New(svc *console.Service, broker *events.Broker, opts ...Option) *Server {
	s := &Server{
		svc:    svc,
		broker: broker,
		logger: logr.Discard(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.credentials == nil {
		s.credentials = func(_ context.Context, explicit string) (oauth2.TokenSource, error) {
			if explicit == "" {
				return nil, nil
			}
			return oauth2.StaticTokenSource(&oauth2.Token{AccessToken: explicit, TokenType: "Bearer"}), nil
		}
	}
	return s
}

// Handler returns the routed handler wrapped in CORS.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/health", s.health)
	mux.HandleFunc("GET /api/catalog", s.catalog)
	mux.HandleFunc("POST /api/provision", s.provision)
	mux.HandleFunc("GET /api/provision/current", s.currentRun)
	mux.HandleFunc("POST /api/probe", s.probe)
	mux.HandleFunc("GET /api/events", s.events)
	if s.metrics != nil {
		mux.Handle("GET /metrics", s.metrics)
	}
	return cors(mux)
}

func cors(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// CatalogResponse is the body of GET /api/catalog.
type CatalogResponse struct {
	Endpoints catalog.Endpoints  `json:"endpoints"`
	Checks    []domain.CheckSpec `json:"checks"`
}

func (s *Server) catalog(w http.ResponseWriter, r *http.Request) {
	cat := s.svc.Catalog()
	writeJSON(w, http.StatusOK, CatalogResponse{Endpoints: cat.Endpoints(), Checks: cat.Checks()})
}

// ProvisionRequest is the body of POST /api/provision.
type ProvisionRequest struct {
	ProjectID   string `json:"projectId"`
	DisplayName string `json:"displayName"`
	Location    string `json:"location,omitempty"`
	Mode        string `json:"mode,omitempty"`
	AccessToken string `json:"accessToken,omitempty"`
}

// RunResponse is the body returned for a provisioning run.
type RunResponse struct {
	Run       *domain.Run `json:"run,omitempty"`
	Error     string      `json:"error,omitempty"`
	ErrorKind string      `json:"errorKind,omitempty"`
}

func (s *Server) provision(w http.ResponseWriter, r *http.Request) {
	var body ProvisionRequest
	if !decode(w, r, &body) {
		return
	}

	mode, err := domain.ParseMode(body.Mode)
	if err != nil {
		writeRun(w, nil, err)
		return
	}

	req := console.ProvisionRequest{
		Request: pipeline.Request{
			TargetID:    body.ProjectID,
			DisplayName: body.DisplayName,
			Location:    body.Location,
		},
		Mode: mode,
	}
	if mode == domain.ModeLive && !pipeline.MissingInput(req.Request) {
		tokens, err := s.credentials(r.Context(), body.AccessToken)
		if err != nil {
			writeRun(w, nil, err)
			return
		}
		req.Tokens = tokens
	}

	run, err := s.svc.Provision(r.Context(), req, nil)
	if run != nil {
		s.broker.OnRunFinished(run, err)
	}
	if err != nil && !errors.Is(err, console.ErrRunInProgress) {
		s.logger.Info("provisioning run failed", "project", req.TargetID, "kind", domain.Kind(err), "error", err.Error())
	}
	writeRun(w, run, err)
}

func writeRun(w http.ResponseWriter, run *domain.Run, err error) {
	resp := RunResponse{Run: run}
	if err != nil {
		resp.Error = err.Error()
		resp.ErrorKind = domain.Kind(err)
	}
	writeJSON(w, runStatus(run, err), resp)
}

// runStatus maps a run outcome to an HTTP status. A run that started and
// failed at a stage is still a complete report, so it is a 200.
func runStatus(run *domain.Run, err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, console.ErrRunInProgress):
		return http.StatusConflict
	case errors.Is(err, domain.ErrValidation):
		return http.StatusUnprocessableEntity
	case run != nil:
		return http.StatusOK
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) currentRun(w http.ResponseWriter, r *http.Request) {
	run, ok := s.svc.Current()
	if !ok {
		writeJSON(w, http.StatusNotFound, RunResponse{Error: "no run has been started"})
		return
	}
	writeJSON(w, http.StatusOK, RunResponse{Run: run})
}

// ProbeRequest is the body of POST /api/probe.
type ProbeRequest struct {
	APIKey    string `json:"apiKey"`
	ProjectID string `json:"projectId"`
}

// ProbeResponse is the body returned for a probe run.
type ProbeResponse struct {
	Results []domain.CheckResult `json:"results"`
	Summary probe.Summary        `json:"summary"`
}

func (s *Server) probe(w http.ResponseWriter, r *http.Request) {
	var body ProbeRequest
	if !decode(w, r, &body) {
		return
	}

	results, err := s.svc.Probe(r.Context(), console.ProbeRequest{APIKey: body.APIKey, ProjectID: body.ProjectID}, nil)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, console.ErrRunInProgress) {
			status = http.StatusConflict
		}
		writeJSON(w, status, RunResponse{Error: err.Error(), ErrorKind: domain.Kind(err)})
		return
	}

	writeJSON(w, http.StatusOK, ProbeResponse{Results: results, Summary: probe.Summarize(results)})
}

func (s *Server) events(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	client, unsubscribe := s.broker.Subscribe()
	defer unsubscribe()

	hello, _ := events.Format(events.EventConnected, map[string]string{"message": "connected to gcpm events"})
	_, _ = w.Write([]byte(hello))
	flusher.Flush()

	for {
		select {
		case message, ok := <-client:
			if !ok {
				return
			}
			if _, err := w.Write([]byte(message)); err != nil {
				return
			}
			flusher.Flush()
		case <-r.Context().Done():
			return
		}
	}
}

func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBody))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		writeJSON(w, http.StatusBadRequest, RunResponse{Error: "invalid request body: " + err.Error()})
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
