// File: internal/state/store.go
// Brief: Local SQLite record of deploy runs and captured stack outputs.

// Package state persists what the toolkit itself is responsible for
// remembering: which runs happened, how each stack fared, and the outputs
// the engine reported. Live resource state stays with the provisioning
// engine; this store only mirrors what it told us.
package state

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

const stateRelPath = ".cfi/state.sqlite"

type Store struct {
	db   *sql.DB
	path string
}

type Run struct {
	ID        string
	Command   string
	Status    string
	CreatedAt time.Time
	UpdatedAt time.Time
}

type StackRecord struct {
	RunID     string
	Stack     string
	Status    string
	Error     string
	Outputs   map[string]string
	UpdatedAt time.Time
}

// Stack statuses recorded per run.
const (
	StatusPlanned    = "planned"
	StatusApplying   = "applying"
	StatusApplied    = "applied"
	StatusFailed     = "failed"
	StatusBlocked    = "blocked"
	StatusDestroying = "destroying"
	StatusDestroyed  = "destroyed"
)

// Open opens (creating if needed) the state database under root.
func Open(root string) (*Store, error) {
	root = strings.TrimSpace(root)
	if root == "" {
		root = "."
	}
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, err
	}
	path := filepath.Join(absRoot, stateRelPath)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}
	s := &Store{db: db, path: path}
	if err := s.initSchema(ctx); err != nil {
		_ = s.Close()
		return nil, err
	}
	return s, nil
}

// OpenRead opens the store read-only; it fails if no state exists yet.
func OpenRead(root string) (*Store, error) {
	absRoot, err := filepath.Abs(strings.TrimSpace(root))
	if err != nil {
		return nil, err
	}
	path := filepath.Join(absRoot, stateRelPath)
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("no local state at %s (nothing deployed yet?): %w", path, err)
	}
	u := url.URL{Scheme: "file", Path: path}
	q := u.Query()
	q.Set("mode", "ro")
	u.RawQuery = q.Encode()
	db, err := sql.Open("sqlite", u.String())
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)
	return &Store{db: db, path: path}, nil
}

func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *Store) initSchema(ctx context.Context) error {
	stmts := []string{
		`PRAGMA journal_mode=WAL;`,
		`PRAGMA synchronous=NORMAL;`,
		`PRAGMA busy_timeout=5000;`,
		`
CREATE TABLE IF NOT EXISTS cfi_runs (
  run_id TEXT PRIMARY KEY,
  command TEXT NOT NULL,
  status TEXT NOT NULL,
  created_at_ns INTEGER NOT NULL,
  updated_at_ns INTEGER NOT NULL
);`,
		`
CREATE TABLE IF NOT EXISTS cfi_run_stacks (
  run_id TEXT NOT NULL,
  stack_name TEXT NOT NULL,
  status TEXT NOT NULL,
  error TEXT NOT NULL DEFAULT '',
  outputs_json TEXT NOT NULL DEFAULT '{}',
  updated_at_ns INTEGER NOT NULL,
  PRIMARY KEY (run_id, stack_name)
);`,
		`
CREATE TABLE IF NOT EXISTS cfi_outputs (
  stack_name TEXT NOT NULL,
  output_key TEXT NOT NULL,
  output_value TEXT NOT NULL,
  run_id TEXT NOT NULL,
  updated_at_ns INTEGER NOT NULL,
  PRIMARY KEY (stack_name, output_key)
);`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("init schema: %w", err)
		}
	}
	return nil
}

// BeginRun records a new run with every stack planned.
func (s *Store) BeginRun(ctx context.Context, runID, command string, stackNames []string) error {
	now := time.Now().UnixNano()
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO cfi_runs (run_id, command, status, created_at_ns, updated_at_ns) VALUES (?, ?, 'running', ?, ?)`,
		runID, command, now, now); err != nil {
		return fmt.Errorf("insert run: %w", err)
	}
	for _, name := range stackNames {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO cfi_run_stacks (run_id, stack_name, status, updated_at_ns) VALUES (?, ?, ?, ?)`,
			runID, name, StatusPlanned, now); err != nil {
			return fmt.Errorf("insert run stack: %w", err)
		}
	}
	return tx.Commit()
}

// FinishRun finalizes the run's status.
func (s *Store) FinishRun(ctx context.Context, runID, status string) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE cfi_runs SET status = ?, updated_at_ns = ? WHERE run_id = ?`,
		status, time.Now().UnixNano(), runID)
	return err
}

// RecordStack upserts one stack's status within a run. Applied stacks also
// replace the durable per-stack output snapshot.
func (s *Store) RecordStack(ctx context.Context, runID, stack, status, errMsg string, outputs map[string]string) error {
	now := time.Now().UnixNano()
	rawOutputs := "{}"
	if len(outputs) > 0 {
		raw, err := json.Marshal(outputs)
		if err != nil {
			return err
		}
		rawOutputs = string(raw)
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()
	if _, err := tx.ExecContext(ctx, `
INSERT INTO cfi_run_stacks (run_id, stack_name, status, error, outputs_json, updated_at_ns)
VALUES (?, ?, ?, ?, ?, ?)
ON CONFLICT (run_id, stack_name) DO UPDATE SET
  status = excluded.status,
  error = excluded.error,
  outputs_json = excluded.outputs_json,
  updated_at_ns = excluded.updated_at_ns`,
		runID, stack, status, errMsg, rawOutputs, now); err != nil {
		return fmt.Errorf("record stack: %w", err)
	}
	switch status {
	case StatusApplied:
		for k, v := range outputs {
			if _, err := tx.ExecContext(ctx, `
INSERT INTO cfi_outputs (stack_name, output_key, output_value, run_id, updated_at_ns)
VALUES (?, ?, ?, ?, ?)
ON CONFLICT (stack_name, output_key) DO UPDATE SET
  output_value = excluded.output_value,
  run_id = excluded.run_id,
  updated_at_ns = excluded.updated_at_ns`,
				stack, k, v, runID, now); err != nil {
				return fmt.Errorf("record output: %w", err)
			}
		}
	case StatusDestroyed:
		if _, err := tx.ExecContext(ctx, `DELETE FROM cfi_outputs WHERE stack_name = ?`, stack); err != nil {
			return fmt.Errorf("clear outputs: %w", err)
		}
	}
	return tx.Commit()
}

// LatestOutputs returns the last recorded outputs of the named stack.
func (s *Store) LatestOutputs(ctx context.Context, stack string) (map[string]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT output_key, output_value FROM cfi_outputs WHERE stack_name = ? ORDER BY output_key`, stack)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := map[string]string{}
	for rows.Next() {
		var k, v string
		if err := rows.Scan(&k, &v); err != nil {
			return nil, err
		}
		out[k] = v
	}
	return out, rows.Err()
}

// AllOutputs returns every recorded output keyed by stack name.
func (s *Store) AllOutputs(ctx context.Context) (map[string]map[string]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT stack_name, output_key, output_value FROM cfi_outputs ORDER BY stack_name, output_key`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := map[string]map[string]string{}
	for rows.Next() {
		var stack, k, v string
		if err := rows.Scan(&stack, &k, &v); err != nil {
			return nil, err
		}
		if out[stack] == nil {
			out[stack] = map[string]string{}
		}
		out[stack][k] = v
	}
	return out, rows.Err()
}

// ListRuns returns the most recent runs, newest first.
func (s *Store) ListRuns(ctx context.Context, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT run_id, command, status, created_at_ns, updated_at_ns FROM cfi_runs ORDER BY created_at_ns DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Run
	for rows.Next() {
		var r Run
		var created, updated int64
		if err := rows.Scan(&r.ID, &r.Command, &r.Status, &created, &updated); err != nil {
			return nil, err
		}
		r.CreatedAt = time.Unix(0, created)
		r.UpdatedAt = time.Unix(0, updated)
		out = append(out, r)
	}
	return out, rows.Err()
}

// RunStacks returns the per-stack records of one run, sorted by stack name.
func (s *Store) RunStacks(ctx context.Context, runID string) ([]StackRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
SELECT run_id, stack_name, status, error, outputs_json, updated_at_ns
FROM cfi_run_stacks WHERE run_id = ? ORDER BY stack_name`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []StackRecord
	for rows.Next() {
		var rec StackRecord
		var rawOutputs string
		var updated int64
		if err := rows.Scan(&rec.RunID, &rec.Stack, &rec.Status, &rec.Error, &rawOutputs, &updated); err != nil {
			return nil, err
		}
		rec.UpdatedAt = time.Unix(0, updated)
		if rawOutputs != "" && rawOutputs != "{}" {
			if err := json.Unmarshal([]byte(rawOutputs), &rec.Outputs); err != nil {
				return nil, fmt.Errorf("parse outputs for %s: %w", rec.Stack, err)
			}
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}
