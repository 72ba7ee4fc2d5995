package executor

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
	"time"

	"nathanbeddoewebdev/gcpm/internal/catalog"
	"nathanbeddoewebdev/gcpm/internal/domain"

	"golang.org/x/oauth2"
)

const (
	liveTimeout = 60 * time.Second

	// maxResponseBytes bounds how much of a response body is read.
	maxResponseBytes = 1 << 20
)

// Compile-time check that Live satisfies domain.Executor.
var _ domain.Executor = (*Live)(nil)

// Live calls the real Google Cloud APIs. Every request carries the
// credential as an OAuth 2.0 bearer token. Exactly one request is made per
// call; failures are never retried here.
type Live struct {
	endpoints catalog.Endpoints
	tokens    oauth2.TokenSource
	client    *http.Client
}

// NewLive creates a Live executor using tokens for authentication.
func NewLive(endpoints catalog.Endpoints, tokens oauth2.TokenSource) *Live {
	tokens = oauth2.ReuseTokenSource(nil, tokens)
	return &Live{
		endpoints: endpoints,
		tokens:    tokens,
		client: &http.Client{
			Timeout:   liveTimeout,
			Transport: &oauth2.Transport{Source: tokens, Base: http.DefaultTransport},
		},
	}
}

func (l *Live) Mode() domain.Mode { return domain.ModeLive }

// --- API request/response types ---

type createProjectBody struct {
	ProjectID string `json:"projectId"`
	Name      string `json:"name"`
}

type signInToggle struct {
	Enabled bool `json:"enabled"`
}

type authConfigBody struct {
	SignIn struct {
		Email     signInToggle `json:"email"`
		Anonymous signInToggle `json:"anonymous"`
	} `json:"signIn"`
}

type createDatabaseBody struct {
	LocationID string `json:"locationId"`
	Type       string `json:"type"`
}

// googleErrorEnvelope is the standard error body of Google APIs.
type googleErrorEnvelope struct {
	Error struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Status  string `json:"status"`
	} `json:"error"`
}

// --- Provider implementation ---

func (l *Live) CreateProject(ctx context.Context, projectID, displayName string) (domain.Payload, error) {
	body := createProjectBody{ProjectID: projectID, Name: displayName}
	return l.do(ctx, domain.StageCreateProject, "Create Project", http.MethodPost,
		l.endpoints.ResourceManager, body)
}

func (l *Live) AddFirebase(ctx context.Context, projectID string) (domain.Payload, error) {
	target := fmt.Sprintf("%s/%s:addFirebase", l.endpoints.Firebase, url.PathEscape(projectID))
	return l.do(ctx, domain.StageAddFirebase, "Add Firebase", http.MethodPost, target, struct{}{})
}

func (l *Live) ConfigureAuth(ctx context.Context, projectID string) (domain.Payload, error) {
	var body authConfigBody
	body.SignIn.Email.Enabled = true
	body.SignIn.Anonymous.Enabled = true

	target := fmt.Sprintf("%s/%s/config", l.endpoints.Identity, url.PathEscape(projectID))
	return l.do(ctx, domain.StageConfigureAuth, "Configure Auth", http.MethodPatch, target, body)
}

func (l *Live) CreateDatabase(ctx context.Context, projectID, location string) (domain.Payload, error) {
	body := createDatabaseBody{LocationID: location, Type: "FIRESTORE_NATIVE"}
	target := fmt.Sprintf("%s/%s/databases?databaseId=%s",
		l.endpoints.Firestore, url.PathEscape(projectID), url.QueryEscape("(default)"))
	return l.do(ctx, domain.StageProvisionDatabase, "Create Database", http.MethodPost, target, body)
}

// --- HTTP helpers ---

// do sends one JSON request and maps the outcome onto the error taxonomy.
func (l *Live) do(ctx context.Context, stage domain.StageKey, action, method, target string, body any) (domain.Payload, error) {
	if _, err := l.tokens.Token(); err != nil {
		return nil, &domain.StageError{
			Stage:   stage,
			Message: fmt.Sprintf("%s failed: credential unavailable: %v", action, err),
			Err:     fmt.Errorf("%w: %w", domain.ErrAuthorization, err),
		}
	}

	data, err := json.Marshal(body)
	if err != nil {
		return nil, &domain.StageError{
			Stage:   stage,
			Message: fmt.Sprintf("%s failed: could not encode request: %v", action, err),
			Err:     fmt.Errorf("%w: %w", domain.ErrValidation, err),
		}
	}

	req, err := http.NewRequestWithContext(ctx, method, target, bytes.NewReader(data))
	if err != nil {
		return nil, &domain.StageError{
			Stage:   stage,
			Message: fmt.Sprintf("%s failed: could not build request: %v", action, err),
			Err:     fmt.Errorf("%w: %w", domain.ErrValidation, err),
		}
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := l.client.Do(req)
	if err != nil {
		kind := domain.ErrTransport
		var retrieveErr *oauth2.RetrieveError
		if errors.As(err, &retrieveErr) {
			kind = domain.ErrAuthorization
		}
		return nil, &domain.StageError{
			Stage:   stage,
			Message: fmt.Sprintf("%s failed: %v", action, err),
			Err:     fmt.Errorf("%w: %w", kind, err),
		}
	}
	defer resp.Body.Close()

	raw, readErr := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	statusText := http.StatusText(resp.StatusCode)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, statusError(stage, action, resp.StatusCode, statusText, raw)
	}

	if readErr != nil {
		return nil, &domain.StageError{
			Stage:      stage,
			StatusCode: resp.StatusCode,
			StatusText: statusText,
			Message:    fmt.Sprintf("%s failed: could not read response: %v", action, readErr),
			Err:        fmt.Errorf("%w: %w", domain.ErrTransport, readErr),
		}
	}

	var payload domain.Payload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, &domain.StageError{
			Stage:      stage,
			StatusCode: resp.StatusCode,
			StatusText: statusText,
			Message:    fmt.Sprintf("%s failed: malformed response body: %v", action, err),
			Err:        fmt.Errorf("%w: malformed response: %w", domain.ErrRemoteService, err),
		}
	}
	return payload, nil
}

// statusError maps a non-2xx response to AuthorizationError (401/403) or
// RemoteServiceError, keeping the remote error message when the body has one.
func statusError(stage domain.StageKey, action string, code int, statusText string, raw []byte) error {
	var env googleErrorEnvelope
	_ = json.Unmarshal(raw, &env)
	remote := strings.TrimSpace(env.Error.Message)

	sentinel := domain.ErrRemoteService
	if code == http.StatusUnauthorized || code == http.StatusForbidden {
		sentinel = domain.ErrAuthorization
	}

	return &domain.StageError{
		Stage:      stage,
		StatusCode: code,
		StatusText: statusText,
		Message:    fmt.Sprintf("%s failed: %s - %s", action, statusText, remote),
		Err:        fmt.Errorf("%w: HTTP %d", sentinel, code),
	}
}
