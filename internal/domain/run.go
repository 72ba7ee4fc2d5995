package domain

import (
	"fmt"
	"strings"
	"time"
)

// Mode selects how remote operations are carried out.
type Mode string

const (
	// ModeSimulated fabricates success after a fixed delay without any
	// network I/O. No credential is needed.
	ModeSimulated Mode = "simulated"

	// ModeLive issues real authenticated API calls.
	ModeLive Mode = "live"
)

// ParseMode converts user input into a Mode. An empty string means simulated.
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "simulated", "simulation", "sim":
		return ModeSimulated, nil
	case "live":
		return ModeLive, nil
	default:
		return "", fmt.Errorf("%w: unknown mode %q (valid: simulated, live)", ErrValidation, s)
	}
}

// LogLevel tags a run log line so renderers can colour it.
type LogLevel string

const (
	LogInfo    LogLevel = "info"
	LogSuccess LogLevel = "success"
	LogError   LogLevel = "error"
)

// LogEntry is one timestamped line of a run's operator-facing log.
type LogEntry struct {
	Time    time.Time `json:"time"`
	Level   LogLevel  `json:"level"`
	Message string    `json:"message"`
}

// String renders the entry the way the console shows it: "[15:04:05] msg".
func (e LogEntry) String() string {
	return fmt.Sprintf("[%s] %s", e.Time.Local().Format("15:04:05"), e.Message)
}

// Run is the state of one provisioning pipeline execution. It is owned by
// the invoking session and discarded when the next run starts.
type Run struct {
	TargetID    string     `json:"projectId"`
	DisplayName string     `json:"displayName"`
	Location    string     `json:"location"`
	Mode        Mode       `json:"mode"`
	Stages      []Stage    `json:"stages"`
	Log         []LogEntry `json:"log"`
	StartedAt   time.Time  `json:"startedAt"`
	FinishedAt  time.Time  `json:"finishedAt,omitzero"`
}

// Stage returns the stage with the given key, or nil.
func (r *Run) Stage(key StageKey) *Stage {
	for i := range r.Stages {
		if r.Stages[i].Key == key {
			return &r.Stages[i]
		}
	}
	return nil
}

// Succeeded reports whether every stage reached success.
func (r *Run) Succeeded() bool {
	if len(r.Stages) == 0 {
		return false
	}
	for _, s := range r.Stages {
		if s.Status != StageStatusSuccess {
			return false
		}
	}
	return true
}

// FailedStage returns the first failed stage, or nil.
func (r *Run) FailedStage() *Stage {
	for i := range r.Stages {
		if r.Stages[i].Status == StageStatusFailed {
			return &r.Stages[i]
		}
	}
	return nil
}

// Lines returns the rendered log.
func (r *Run) Lines() []string {
	lines := make([]string, len(r.Log))
	for i, e := range r.Log {
		lines[i] = e.String()
	}
	return lines
}

// Clone returns a deep copy safe to hand to another goroutine.
func (r *Run) Clone() *Run {
	if r == nil {
		return nil
	}
	c := *r
	c.Stages = append([]Stage(nil), r.Stages...)
	c.Log = append([]LogEntry(nil), r.Log...)
	return &c
}
