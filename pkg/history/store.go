// Package history stores a summary row per analysis run in SQLite so that
// component and usage counts can be tracked over time.
package history

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/gnana997/cuin/pkg/report"
)

const (
	driverName  = "sqlite"
	maxAttempts = 5

	// DefaultLimit is the number of snapshots LoadSnapshots returns when
	// limit is not positive.
	DefaultLimit = 20
)

// Snapshot summarizes one analysis run.
type Snapshot struct {
	RunID           string    `json:"run_id"`
	ProjectKey      string    `json:"project_key"`
	Timestamp       time.Time `json:"timestamp"`
	FileCount       int       `json:"file_count"`
	FailedFileCount int       `json:"failed_file_count"`
	ComponentCount  int       `json:"component_count"`
	UsageCount      int       `json:"usage_count"`
	InternalCount   int       `json:"internal_count"`
	ExternalCount   int       `json:"external_count"`
	NativeCount     int       `json:"native_count"`
	DurationMs      int64     `json:"duration_ms"`
}

// NewSnapshot builds a snapshot of r. The project key is the report's base
// path.
func NewSnapshot(r *report.Report, files, failed int, duration time.Duration) Snapshot {
	sum := r.Summarize()
	return Snapshot{
		ProjectKey:      r.Meta.BasePath,
		FileCount:       files,
		FailedFileCount: failed,
		ComponentCount:  sum.Components,
		UsageCount:      sum.Usages,
		InternalCount:   sum.Internal,
		ExternalCount:   sum.External,
		NativeCount:     sum.Native,
		DurationMs:      duration.Milliseconds(),
	}
}

// Store is a SQLite-backed snapshot store.
type Store struct {
	path string
	db   *sql.DB
	mu   sync.Mutex
}

// DefaultPath is the history database location for a project root.
func DefaultPath(root string) string {
	return filepath.Join(root, ".cuin", "history.db")
}

// Open opens (creating if needed) the database at path and applies
// migrations.
func Open(path string) (*Store, error) {
	cleanPath := strings.TrimSpace(path)
	if cleanPath == "" {
		return nil, fmt.Errorf("history path must not be empty")
	}
	if info, err := os.Stat(cleanPath); err == nil && info.IsDir() {
		return nil, fmt.Errorf("history path %q is a directory, expected file", cleanPath)
	}

	dir := filepath.Dir(cleanPath)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create history directory %q: %w", dir, err)
		}
	}

	// busy_timeout + WAL keep the dev server and a concurrent CLI run from
	// failing on each other's locks.
	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(2000)&_pragma=journal_mode(WAL)", cleanPath)
	db, err := sql.Open(driverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite history %q: %w", cleanPath, err)
	}
	db.SetMaxOpenConns(1)
	db.SetConnMaxLifetime(0)
	db.SetConnMaxIdleTime(0)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite history %q: %w", cleanPath, err)
	}
	if err := EnsureSchema(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("initialize sqlite schema %q: %w", cleanPath, err)
	}

	return &Store{path: cleanPath, db: db}, nil
}

// Close closes the database.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Path returns the database path.
func (s *Store) Path() string {
	if s == nil {
		return ""
	}
	return s.path
}

// SaveSnapshot stores snapshot and returns it with its run id and timestamp
// filled in.
func (s *Store) SaveSnapshot(snapshot Snapshot) (Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if snapshot.RunID == "" {
		snapshot.RunID = uuid.NewString()
	}
	snapshot.ProjectKey = normalizeKey(snapshot.ProjectKey)
	if snapshot.Timestamp.IsZero() {
		snapshot.Timestamp = time.Now()
	}
	snapshot.Timestamp = snapshot.Timestamp.UTC()

	query := `
INSERT INTO runs (
  run_id, project_key, ts_utc, file_count, failed_file_count, component_count,
  usage_count, internal_count, external_count, native_count, duration_ms
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
`
	err := s.withRetry("save snapshot", func() error {
		_, err := s.db.Exec(
			query,
			snapshot.RunID,
			snapshot.ProjectKey,
			snapshot.Timestamp.Format(time.RFC3339Nano),
			snapshot.FileCount,
			snapshot.FailedFileCount,
			snapshot.ComponentCount,
			snapshot.UsageCount,
			snapshot.InternalCount,
			snapshot.ExternalCount,
			snapshot.NativeCount,
			snapshot.DurationMs,
		)
		return err
	})
	if err != nil {
		return Snapshot{}, err
	}
	return snapshot, nil
}

// LoadSnapshots returns the newest snapshots of projectKey, newest first.
func (s *Store) LoadSnapshots(projectKey string, limit int) ([]Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if limit <= 0 {
		limit = DefaultLimit
	}

	query := `
SELECT
  run_id, project_key, ts_utc, file_count, failed_file_count, component_count,
  usage_count, internal_count, external_count, native_count, duration_ms
FROM runs
WHERE project_key = ?
ORDER BY ts_utc DESC, run_id ASC
LIMIT ?
`
	var rows *sql.Rows
	err := s.withRetry("load snapshots", func() error {
		var qErr error
		rows, qErr = s.db.Query(query, normalizeKey(projectKey), limit)
		return qErr
	})
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	snapshots := make([]Snapshot, 0)
	for rows.Next() {
		var (
			tsRaw    string
			snapshot Snapshot
		)
		if err := rows.Scan(
			&snapshot.RunID,
			&snapshot.ProjectKey,
			&tsRaw,
			&snapshot.FileCount,
			&snapshot.FailedFileCount,
			&snapshot.ComponentCount,
			&snapshot.UsageCount,
			&snapshot.InternalCount,
			&snapshot.ExternalCount,
			&snapshot.NativeCount,
			&snapshot.DurationMs,
		); err != nil {
			return nil, fmt.Errorf("scan snapshot row: %w", err)
		}

		ts, err := time.Parse(time.RFC3339Nano, tsRaw)
		if err != nil {
			return nil, fmt.Errorf("parse snapshot timestamp %q: %w", tsRaw, err)
		}
		snapshot.Timestamp = ts.UTC()
		snapshots = append(snapshots, snapshot)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate snapshot rows: %w", err)
	}

	return snapshots, nil
}

func normalizeKey(key string) string {
	key = strings.TrimSpace(key)
	if key == "" {
		return "default"
	}
	return key
}

func (s *Store) withRetry(op string, fn func() error) error {
	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		err := fn()
		if err == nil {
			return nil
		}
		lastErr = err
		if !isLockError(err) || attempt == maxAttempts {
			break
		}
		time.Sleep(time.Duration(attempt*25) * time.Millisecond)
	}
	return fmt.Errorf("%s: %w", op, lastErr)
}

func isLockError(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "database is locked") || strings.Contains(msg, "busy")
}
