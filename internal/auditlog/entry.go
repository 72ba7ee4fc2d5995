package auditlog

import (
	"context"
	"strings"
	"time"
)

const (
	OutcomeSuccess = "success"
	OutcomeError   = "error"
)

// AuditEntry represents a persisted audit event.
type AuditEntry struct {
	ID           int64     `json:"id"`
	Timestamp    time.Time `json:"timestamp"`
	Command      string    `json:"command"`
	Args         string    `json:"args,omitempty"`
	Mode         string    `json:"mode,omitempty"`
	ResourceType string    `json:"resource_type,omitempty"`
	ResourceID   string    `json:"resource_id,omitempty"`
	ResourceName string    `json:"resource_name,omitempty"`
	Outcome      string    `json:"outcome"`
	Detail       string    `json:"detail,omitempty"`
	DurationMs   int64     `json:"duration_ms"`
}

// NewEntry builds the entry for one finished command. Secrets in args and
// in the error text are redacted before they reach the entry.
func NewEntry(command string, args []string, meta Metadata, start time.Time, runErr error) *AuditEntry {
	entry := &AuditEntry{
		Timestamp:    start.UTC(),
		Command:      command,
		Args:         strings.Join(SanitizeArgs(args), " "),
		Mode:         meta.Mode,
		ResourceType: meta.ResourceType,
		ResourceID:   meta.ResourceID,
		ResourceName: meta.ResourceName,
		Outcome:      OutcomeSuccess,
		DurationMs:   time.Since(start).Milliseconds(),
	}
	if runErr != nil {
		entry.Outcome = OutcomeError
		entry.Detail = Redact(runErr.Error())
	}
	return entry
}

// Resource renders "type:id (name)", dropping whichever parts are empty.
func (e AuditEntry) Resource() string {
	var b strings.Builder
	b.WriteString(e.ResourceType)
	if e.ResourceID != "" {
		if b.Len() > 0 {
			b.WriteByte(':')
		}
		b.WriteString(e.ResourceID)
	}
	if e.ResourceName == "" {
		return b.String()
	}
	if b.Len() == 0 {
		return e.ResourceName
	}
	return b.String() + " (" + e.ResourceName + ")"
}

// Metadata describes what a command acted on: the execution mode and, for
// provisioning, the target project.
type Metadata struct {
	Mode         string
	ResourceType string
	ResourceID   string
	ResourceName string
}

type metadataKey struct{}

// WithMetadata attaches audit metadata to ctx. Empty fields keep whatever an
// outer call already recorded.
func WithMetadata(ctx context.Context, meta Metadata) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	prev := MetadataFromContext(ctx)
	return context.WithValue(ctx, metadataKey{}, Metadata{
		Mode:         firstNonEmpty(meta.Mode, prev.Mode),
		ResourceType: firstNonEmpty(meta.ResourceType, prev.ResourceType),
		ResourceID:   firstNonEmpty(meta.ResourceID, prev.ResourceID),
		ResourceName: firstNonEmpty(meta.ResourceName, prev.ResourceName),
	})
}

// MetadataFromContext returns the audit metadata stored in ctx, if any.
func MetadataFromContext(ctx context.Context) Metadata {
	if ctx == nil {
		return Metadata{}
	}
	meta, _ := ctx.Value(metadataKey{}).(Metadata)
	return meta
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
