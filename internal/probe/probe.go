// Package probe checks that a fixed list of Google Cloud API endpoints is
// reachable with a given API key.
//
// Reachability is not authorization: any response below 500 other than 404
// counts as reachable, so a 401 or 403 is a successful check. Every check
// yields a result, and results are returned in declaration order regardless
// of how long each check took.
package probe

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"nathanbeddoewebdev/gcpm/internal/catalog"
	"nathanbeddoewebdev/gcpm/internal/domain"

	"github.com/go-logr/logr"
	"golang.org/x/sync/errgroup"
)

const (
	// PreviewLimit is the number of characters kept from the formatted body.
	PreviewLimit = 150

	// PreviewMarker is appended to every JSON preview.
	PreviewMarker = "..."

	// NonJSONPreview replaces the preview when the body is not JSON.
	NonJSONPreview = "Non-JSON response or empty"

	// NetworkErrorText is the status text of a check that got no response.
	NetworkErrorText = "Network Error"

	// MissingProjectText is the status text of a project-scoped check run
	// without a project ID. No request is sent for it.
	MissingProjectText = "Project ID Required"

	// DefaultTimeout bounds a single check.
	DefaultTimeout = 15 * time.Second

	maxBodyBytes = 1 << 20
)

// ResultFunc is called once per finished check with the check's position in
// the declaration order. Calls are serialized but arrive in completion order.
type ResultFunc func(index int, result domain.CheckResult)

// Prober runs connectivity checks.
type Prober struct {
	checks      []domain.CheckSpec
	client      *http.Client
	concurrency int
	timeout     time.Duration
	logger      logr.Logger
	onResult    ResultFunc
}

// Option configures a Prober.
type Option func(*Prober)

// WithHTTPClient sets the HTTP client used for checks.
func WithHTTPClient(client *http.Client) Option {
	return func(p *Prober) { p.client = client }
}

// WithConcurrency sets how many checks may be in flight at once. Values
// below 1 mean sequential execution.
func WithConcurrency(n int) Option {
	return func(p *Prober) { p.concurrency = n }
}

// WithTimeout bounds each check. Zero disables the per-check bound.
func WithTimeout(d time.Duration) Option {
	return func(p *Prober) { p.timeout = d }
}

// WithLogger sets the diagnostic logger.
func WithLogger(logger logr.Logger) Option {
	return func(p *Prober) { p.logger = logger }
}

// WithResultFunc registers a callback for streaming results as they finish.
func WithResultFunc(fn ResultFunc) Option {
	return func(p *Prober) { p.onResult = fn }
}

// New creates a Prober for checks.
func New(checks []domain.CheckSpec, opts ...Option) *Prober {
	p := &Prober{
		checks:      append([]domain.CheckSpec(nil), checks...),
		client:      http.DefaultClient,
		concurrency: 1,
		timeout:     DefaultTimeout,
		logger:      logr.Discard(),
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.concurrency < 1 {
		p.concurrency = 1
	}
	return p
}

// Checks returns the checks this prober runs, in order.
func (p *Prober) Checks() []domain.CheckSpec {
	return append([]domain.CheckSpec(nil), p.checks...)
}

// Run executes every check and returns one result per check in declaration
// order. It never fails: per-check errors are recorded in the results.
func (p *Prober) Run(ctx context.Context, apiKey, projectID string) []domain.CheckResult {
	results := make([]domain.CheckResult, len(p.checks))
	var mu sync.Mutex

	record := func(i int, result domain.CheckResult) {
		results[i] = result
		if p.onResult != nil {
			mu.Lock()
			p.onResult(i, result)
			mu.Unlock()
		}
	}

	if p.concurrency == 1 {
		for i, check := range p.checks {
			record(i, p.check(ctx, check, apiKey, projectID))
		}
		return results
	}

	var g errgroup.Group
	g.SetLimit(p.concurrency)
	for i, check := range p.checks {
		g.Go(func() error {
			record(i, p.check(ctx, check, apiKey, projectID))
			return nil
		})
	}
	_ = g.Wait()

	return results
}

func (p *Prober) check(ctx context.Context, spec domain.CheckSpec, apiKey, projectID string) domain.CheckResult {
	target := catalog.ResolveURL(spec.URLTemplate, apiKey, projectID)
	result := domain.CheckResult{Name: spec.Name, URL: target}

	if spec.NeedsProject() && strings.TrimSpace(projectID) == "" {
		result.StatusText = MissingProjectText
		result.ResponsePreview = "check skipped: this endpoint is project-scoped and no project ID was given"
		p.logger.V(1).Info("check skipped", "check", spec.Name, "reason", "missing project ID")
		return result
	}

	if p.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.timeout)
		defer cancel()
	}

	status, latency, body, err := p.fetch(ctx, target)
	result.LatencyMs = roundMillis(latency)

	if err != nil {
		result.StatusText = NetworkErrorText
		result.ResponsePreview = describe(err)
		p.logger.V(1).Info("check unreachable", "check", spec.Name, "latencyMs", result.LatencyMs, "error", result.ResponsePreview)
		return result
	}

	result.StatusCode = status
	result.StatusText = http.StatusText(status)
	result.ResponsePreview = Preview(body)
	result.IsSuccess = IsReachable(status)
	p.logger.V(1).Info("check finished", "check", spec.Name, "status", status,
		"reachable", result.IsSuccess, "latencyMs", result.LatencyMs)
	return result
}

// fetch sends the check request. latency covers the round trip up to the
// response headers; reading the body is not timed.
func (p *Prober) fetch(ctx context.Context, target string) (status int, latency time.Duration, body []byte, err error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return 0, 0, nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := p.client.Do(req)
	latency = time.Since(start)
	if err != nil {
		return 0, latency, nil, err
	}
	defer resp.Body.Close()

	body, err = io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		// The status line arrived, so the endpoint is reachable even if the
		// body was cut short.
		return resp.StatusCode, latency, nil, nil
	}
	return resp.StatusCode, latency, body, nil
}

// IsReachable reports whether an HTTP status counts as a reachable endpoint.
func IsReachable(status int) bool {
	return status > 0 && status < 500 && status != http.StatusNotFound
}

// Preview formats body as two-space indented JSON cut to PreviewLimit
// characters followed by PreviewMarker. Bodies that are not JSON yield
// NonJSONPreview.
func Preview(body []byte) string {
	if len(bytes.TrimSpace(body)) == 0 {
		return NonJSONPreview
	}

	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return NonJSONPreview
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return NonJSONPreview
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return NonJSONPreview
	}
	pretty := bytes.TrimRight(buf.Bytes(), "\n")

	return truncate(string(pretty), PreviewLimit) + PreviewMarker
}

func truncate(s string, limit int) string {
	if utf8.RuneCountInString(s) <= limit {
		return s
	}
	n := 0
	for i := range s {
		if n == limit {
			return s[:i]
		}
		n++
	}
	return s
}

// describe renders a transport error without echoing the request URL,
// which carries the API key.
func describe(err error) string {
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		err = urlErr.Err
	}
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return "request timed out"
	case errors.Is(err, context.Canceled):
		return "request cancelled"
	}
	return fmt.Sprint(err)
}

func roundMillis(d time.Duration) int64 {
	return d.Round(time.Millisecond).Milliseconds()
}

// Summary aggregates a probe run for display.
type Summary struct {
	Total            int   `json:"total"`
	Reachable        int   `json:"reachable"`
	Unreachable      int   `json:"unreachable"`
	AverageLatencyMs int64 `json:"averageLatencyMs"`
}

// Summarize counts reachable and unreachable results and averages latency.
func Summarize(results []domain.CheckResult) Summary {
	s := Summary{Total: len(results)}
	if len(results) == 0 {
		return s
	}
	var total int64
	for _, r := range results {
		if r.IsSuccess {
			s.Reachable++
		} else {
			s.Unreachable++
		}
		total += r.LatencyMs
	}
	s.AverageLatencyMs = total / int64(len(results))
	return s
}
