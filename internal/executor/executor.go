// Package executor implements the remote operations behind the provisioning
// pipeline.
//
// Two strategies satisfy domain.Executor: Simulated, which sleeps a fixed
// per-stage delay and returns canned payloads, and Live, which calls the
// Google Cloud APIs with a bearer token. New selects one from the run mode so
// the pipeline never branches on the mode itself.
package executor

import (
	"context"
	"fmt"

	"nathanbeddoewebdev/gcpm/internal/catalog"
	"nathanbeddoewebdev/gcpm/internal/domain"

	"golang.org/x/oauth2"
)

// Options configures New.
type Options struct {
	// Endpoints are the API base URLs used in live mode.
	Endpoints catalog.Endpoints

	// Tokens supplies the live-mode credential. Ignored in simulated mode.
	Tokens oauth2.TokenSource

	// Delays paces simulated mode. The zero value means DefaultDelays.
	Delays *Delays
}

// New returns the executor for mode.
func New(mode domain.Mode, opts Options) (domain.Executor, error) {
	switch mode {
	case domain.ModeSimulated, "":
		delays := DefaultDelays()
		if opts.Delays != nil {
			delays = *opts.Delays
		}
		return NewSimulated(delays), nil
	case domain.ModeLive:
		if opts.Tokens == nil {
			return nil, fmt.Errorf("%w: live mode requires an access token", domain.ErrValidation)
		}
		return NewLive(opts.Endpoints, opts.Tokens), nil
	default:
		return nil, fmt.Errorf("%w: unknown mode %q", domain.ErrValidation, mode)
	}
}

// Unavailable returns an executor that reports mode and fails every call with
// err. It stands in when New fails but the run must still be recorded, for
// example a request the pipeline rejects before any stage runs.
func Unavailable(mode domain.Mode, err error) domain.Executor {
	return unavailable{mode: mode, err: err}
}

type unavailable struct {
	mode domain.Mode
	err  error
}

func (u unavailable) Mode() domain.Mode { return u.mode }

func (u unavailable) CreateProject(context.Context, string, string) (domain.Payload, error) {
	return nil, u.err
}

func (u unavailable) AddFirebase(context.Context, string) (domain.Payload, error) {
	return nil, u.err
}

func (u unavailable) ConfigureAuth(context.Context, string) (domain.Payload, error) {
	return nil, u.err
}

func (u unavailable) CreateDatabase(context.Context, string, string) (domain.Payload, error) {
	return nil, u.err
}
