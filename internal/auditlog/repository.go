package auditlog

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"nathanbeddoewebdev/gcpm/internal/database"
)

// migrations is the audit_log schema history; see database.Migrate.
var migrations = []string{
	`CREATE TABLE audit_log (
        id            INTEGER PRIMARY KEY AUTOINCREMENT,
        timestamp     TEXT    NOT NULL,
        command       TEXT    NOT NULL,
        args          TEXT    NOT NULL DEFAULT '',
        mode          TEXT    NOT NULL DEFAULT '',
        resource_type TEXT    NOT NULL DEFAULT '',
        resource_id   TEXT    NOT NULL DEFAULT '',
        resource_name TEXT    NOT NULL DEFAULT '',
        outcome       TEXT    NOT NULL DEFAULT '',
        detail        TEXT    NOT NULL DEFAULT '',
        duration_ms   INTEGER NOT NULL DEFAULT 0
    );
    CREATE INDEX idx_audit_log_timestamp ON audit_log(timestamp);
    CREATE INDEX idx_audit_log_command ON audit_log(command);`,
	`CREATE INDEX idx_audit_log_mode ON audit_log(mode, timestamp);`,
}

const entryColumns = `id, timestamp, command, args, mode, resource_type, resource_id,
        resource_name, outcome, detail, duration_ms`

// Store persists audit entries in the local SQLite database.
type Store struct {
	db *sql.DB
}

// Filter selects entries for Query. Zero fields match everything; a zero
// Limit means no limit.
type Filter struct {
	Command string
	Mode    string
	Outcome string
	Since   time.Time
	Limit   int
}

// Open opens the audit store at the default database path.
func Open() (*Store, error) {
	path, err := database.DefaultPath()
	if err != nil {
		return nil, fmt.Errorf("auditlog: %w", err)
	}
	return OpenAt(path)
}

// OpenAt opens the audit store at path and brings its schema up to date.
func OpenAt(path string) (*Store, error) {
	db, err := database.Open(path)
	if err != nil {
		return nil, fmt.Errorf("auditlog: %w", err)
	}
	if err := database.Migrate(db, migrations); err != nil {
		db.Close()
		return nil, fmt.Errorf("auditlog: %w", err)
	}
	return &Store{db: db}, nil
}

// Save inserts entry and sets its ID. A zero Timestamp becomes now.
func (s *Store) Save(ctx context.Context, entry *AuditEntry) error {
	if entry.Timestamp.IsZero() {
		entry.Timestamp = time.Now().UTC()
	}

	res, err := s.db.ExecContext(ctx, `
        INSERT INTO audit_log (timestamp, command, args, mode, resource_type, resource_id,
            resource_name, outcome, detail, duration_ms)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		formatTime(entry.Timestamp), entry.Command, entry.Args, entry.Mode,
		entry.ResourceType, entry.ResourceID, entry.ResourceName,
		entry.Outcome, entry.Detail, entry.DurationMs,
	)
	if err != nil {
		return fmt.Errorf("auditlog: insert failed: %w", err)
	}
	if entry.ID, err = res.LastInsertId(); err != nil {
		return fmt.Errorf("auditlog: insert failed: %w", err)
	}
	return nil
}

// Query returns the entries matching f, newest first.
func (s *Store) Query(ctx context.Context, f Filter) ([]AuditEntry, error) {
	var (
		where []string
		args  []any
	)
	for _, c := range []struct{ column, value string }{
		{"command", f.Command},
		{"mode", f.Mode},
		{"outcome", f.Outcome},
	} {
		if c.value != "" {
			where = append(where, c.column+" = ?")
			args = append(args, c.value)
		}
	}
	if !f.Since.IsZero() {
		where = append(where, "timestamp >= ?")
		args = append(args, formatTime(f.Since))
	}

	query := "SELECT " + entryColumns + " FROM audit_log"
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY timestamp DESC, id DESC"
	if f.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, f.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("auditlog: query failed: %w", err)
	}
	defer rows.Close()

	var entries []AuditEntry
	for rows.Next() {
		var (
			e  AuditEntry
			ts string
		)
		if err := rows.Scan(&e.ID, &ts, &e.Command, &e.Args, &e.Mode,
			&e.ResourceType, &e.ResourceID, &e.ResourceName,
			&e.Outcome, &e.Detail, &e.DurationMs); err != nil {
			return nil, fmt.Errorf("auditlog: scan failed: %w", err)
		}
		e.Timestamp, _ = time.Parse(timeLayout, ts)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// Prune deletes entries recorded more than olderThan ago and reports how
// many were removed.
func (s *Store) Prune(ctx context.Context, olderThan time.Duration) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM audit_log WHERE timestamp < ?`,
		formatTime(time.Now().Add(-olderThan)))
	if err != nil {
		return 0, fmt.Errorf("auditlog: delete failed: %w", err)
	}
	return res.RowsAffected()
}

// Close releases the database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

// timeLayout is fixed-width so stored timestamps sort as text.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}
