// Package history archives completed runs in a local SQLite database so
// gatekeeper outcomes survive the per-run state file's deletion.
package history

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	// SQLite driver
	_ "github.com/mattn/go-sqlite3"

	"github.com/abdul-hamid-achik/gatekeep/packages/state"
)

const schema = `
CREATE TABLE IF NOT EXISTS runs (
	id          TEXT PRIMARY KEY,
	recorded_at INTEGER NOT NULL
);
CREATE TABLE IF NOT EXISTS results (
	run_id    TEXT NOT NULL REFERENCES runs(id),
	key       TEXT NOT NULL,
	passed    INTEGER NOT NULL,
	error     TEXT NOT NULL DEFAULT '',
	timestamp INTEGER NOT NULL,
	PRIMARY KEY (run_id, key)
);
CREATE TABLE IF NOT EXISTS dependencies (
	run_id TEXT NOT NULL REFERENCES runs(id),
	key    TEXT NOT NULL,
	dep    TEXT NOT NULL,
	ord    INTEGER NOT NULL
);
`

// Archive is a run history backed by SQLite.
type Archive struct {
	db *sql.DB
}

// Open opens (and creates if needed) the archive at path.
func Open(path string) (*Archive, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open history database: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("connect to history database: %w", err)
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create history schema: %w", err)
	}

	return &Archive{db: db}, nil
}

// Close closes the database connection.
func (a *Archive) Close() error {
	if a.db != nil {
		return a.db.Close()
	}
	return nil
}

// RecordRun stores a snapshot's committed results and edges under a fresh
// run id, which is returned.
func (a *Archive) RecordRun(snap *state.Snapshot) (string, error) {
	runID := uuid.NewString()

	tx, err := a.db.Begin()
	if err != nil {
		return "", fmt.Errorf("begin history transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(
		`INSERT INTO runs (id, recorded_at) VALUES (?, ?)`,
		runID, time.Now().UnixMilli(),
	); err != nil {
		return "", fmt.Errorf("insert run: %w", err)
	}

	// Stable insert order keeps the archive deterministic for a snapshot
	keys := make([]string, 0, len(snap.Results))
	for key := range snap.Results {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	for _, key := range keys {
		r := snap.Results[key]
		if _, err := tx.Exec(
			`INSERT INTO results (run_id, key, passed, error, timestamp) VALUES (?, ?, ?, ?, ?)`,
			runID, key, boolToInt(r.Passed), r.Error, r.Timestamp,
		); err != nil {
			return "", fmt.Errorf("insert result for %q: %w", key, err)
		}
	}

	depKeys := make([]string, 0, len(snap.Dependencies))
	for key := range snap.Dependencies {
		depKeys = append(depKeys, key)
	}
	sort.Strings(depKeys)

	for _, key := range depKeys {
		for ord, dep := range snap.Dependencies[key] {
			if _, err := tx.Exec(
				`INSERT INTO dependencies (run_id, key, dep, ord) VALUES (?, ?, ?, ?)`,
				runID, key, dep, ord,
			); err != nil {
				return "", fmt.Errorf("insert dependency %q -> %q: %w", key, dep, err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("commit history transaction: %w", err)
	}
	return runID, nil
}

// RunInfo summarizes one archived run.
type RunInfo struct {
	ID         string
	RecordedAt time.Time
	Total      int
	Passed     int
	Failed     int
}

// ListRuns returns the most recent runs, newest first. limit <= 0 means all.
func (a *Archive) ListRuns(limit int) ([]*RunInfo, error) {
	query := `
		SELECT r.id, r.recorded_at,
		       COUNT(res.key),
		       COALESCE(SUM(res.passed), 0)
		FROM runs r
		LEFT JOIN results res ON res.run_id = r.id
		GROUP BY r.id
		ORDER BY r.recorded_at DESC`
	args := []any{}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := a.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var runs []*RunInfo
	for rows.Next() {
		var info RunInfo
		var recordedAt int64
		if err := rows.Scan(&info.ID, &recordedAt, &info.Total, &info.Passed); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		info.RecordedAt = time.UnixMilli(recordedAt)
		info.Failed = info.Total - info.Passed
		runs = append(runs, &info)
	}
	return runs, rows.Err()
}

// RunResult is one archived gatekeeper outcome.
type RunResult struct {
	Key       string
	Passed    bool
	Error     string
	Timestamp time.Time
}

// RunResults returns the outcomes of one run, ordered by key.
func (a *Archive) RunResults(runID string) ([]*RunResult, error) {
	rows, err := a.db.Query(
		`SELECT key, passed, error, timestamp FROM results WHERE run_id = ? ORDER BY key`,
		runID,
	)
	if err != nil {
		return nil, fmt.Errorf("query run results: %w", err)
	}
	defer rows.Close()

	var results []*RunResult
	for rows.Next() {
		var r RunResult
		var passed int
		var ts int64
		if err := rows.Scan(&r.Key, &passed, &r.Error, &ts); err != nil {
			return nil, fmt.Errorf("scan result: %w", err)
		}
		r.Passed = passed != 0
		r.Timestamp = time.UnixMilli(ts)
		results = append(results, &r)
	}
	return results, rows.Err()
}

// RunDependencies returns the dependency edges of one run in declaration
// order per key.
func (a *Archive) RunDependencies(runID string) (map[string][]string, error) {
	rows, err := a.db.Query(
		`SELECT key, dep FROM dependencies WHERE run_id = ? ORDER BY key, ord`,
		runID,
	)
	if err != nil {
		return nil, fmt.Errorf("query run dependencies: %w", err)
	}
	defer rows.Close()

	deps := make(map[string][]string)
	for rows.Next() {
		var key, dep string
		if err := rows.Scan(&key, &dep); err != nil {
			return nil, fmt.Errorf("scan dependency: %w", err)
		}
		deps[key] = append(deps[key], dep)
	}
	return deps, rows.Err()
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
