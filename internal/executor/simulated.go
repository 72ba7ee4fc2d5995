package executor

import (
	"context"
	"fmt"
	"time"

	"nathanbeddoewebdev/gcpm/internal/domain"
)

// Delays paces the simulated stages so the operator-facing timing feels
// like real provisioning.
type Delays struct {
	CreateProject  time.Duration
	AddFirebase    time.Duration
	ConfigureAuth  time.Duration
	CreateDatabase time.Duration
}

// DefaultDelays returns the standard simulated stage durations.
func DefaultDelays() Delays {
	return Delays{
		CreateProject:  2000 * time.Millisecond,
		AddFirebase:    1500 * time.Millisecond,
		ConfigureAuth:  1200 * time.Millisecond,
		CreateDatabase: 2500 * time.Millisecond,
	}
}

// Compile-time check that Simulated satisfies domain.Executor.
var _ domain.Executor = (*Simulated)(nil)

// Simulated fabricates successful results after a fixed delay. It never
// performs network I/O and ignores credentials.
type Simulated struct {
	delays Delays
}

// NewSimulated creates a Simulated executor with the given delays.
func NewSimulated(delays Delays) *Simulated {
	return &Simulated{delays: delays}
}

func (s *Simulated) Mode() domain.Mode { return domain.ModeSimulated }

func (s *Simulated) CreateProject(ctx context.Context, projectID, displayName string) (domain.Payload, error) {
	if err := wait(ctx, domain.StageCreateProject, s.delays.CreateProject); err != nil {
		return nil, err
	}
	return domain.Payload{
		"projectId":      projectID,
		"name":           displayName,
		"lifecycleState": "ACTIVE",
	}, nil
}

func (s *Simulated) AddFirebase(ctx context.Context, projectID string) (domain.Payload, error) {
	if err := wait(ctx, domain.StageAddFirebase, s.delays.AddFirebase); err != nil {
		return nil, err
	}
	return domain.Payload{
		"projectId": projectID,
		"resources": map[string]any{},
	}, nil
}

func (s *Simulated) ConfigureAuth(ctx context.Context, projectID string) (domain.Payload, error) {
	if err := wait(ctx, domain.StageConfigureAuth, s.delays.ConfigureAuth); err != nil {
		return nil, err
	}
	return domain.Payload{
		"signIn": map[string]any{
			"email":     map[string]any{"enabled": true},
			"anonymous": map[string]any{"enabled": true},
		},
	}, nil
}

func (s *Simulated) CreateDatabase(ctx context.Context, projectID, location string) (domain.Payload, error) {
	if err := wait(ctx, domain.StageProvisionDatabase, s.delays.CreateDatabase); err != nil {
		return nil, err
	}
	return domain.Payload{
		"name":       fmt.Sprintf("projects/%s/databases/(default)", projectID),
		"locationId": location,
	}, nil
}

// wait sleeps for d unless ctx ends first.
func wait(ctx context.Context, stage domain.StageKey, d time.Duration) error {
	if d <= 0 {
		if err := ctx.Err(); err != nil {
			return cancelled(stage, err)
		}
		return nil
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return cancelled(stage, ctx.Err())
	case <-timer.C:
		return nil
	}
}

func cancelled(stage domain.StageKey, err error) error {
	return &domain.StageError{
		Stage:   stage,
		Message: fmt.Sprintf("%s cancelled: %v", stage.Title(), err),
		Err:     fmt.Errorf("%w: %w", domain.ErrTransport, err),
	}
}
