package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/thecroxdevil/iptv-tools/internal/runner"
)

// Store keeps validation runs in a sqlite file so consecutive passes
// over the same playlist can be compared.
type Store struct {
	db *sql.DB
}

// RunRecord describes one validation run.
type RunRecord struct {
	ID        string
	StartedAt time.Time
	InputPath string
	Total     int
	Working   int
	Dead      int
}

// Verdict is the stored outcome of one channel in a run.
type Verdict struct {
	URL     string
	Name    string
	Working bool
	Reason  string
}

// Open opens (and if needed creates) the history database at path.
func Open(ctx context.Context, path string) (*Store, error) {
	db, err := sql.Open("sqlite", fmt.Sprintf("%s?_foreign_keys=on&_journal_mode=WAL", path))
	if err != nil {
		return nil, fmt.Errorf("unable to open history database: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("unable to ping history database: %w", err)
	}
	s := &Store{db: db}
	if err := s.migrate(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	return s, nil
}

func (s *Store) Close() error { return s.db.Close() }

func (s *Store) migrate(ctx context.Context) error {
	schema := `
CREATE TABLE IF NOT EXISTS runs (
	id          TEXT PRIMARY KEY,
	started_at  TEXT NOT NULL,
	input_path  TEXT NOT NULL,
	total       INTEGER NOT NULL,
	working     INTEGER NOT NULL,
	dead        INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_runs_started_at ON runs (started_at, id);

CREATE TABLE IF NOT EXISTS outcomes (
	run_id      TEXT NOT NULL,
	url         TEXT NOT NULL,
	name        TEXT NOT NULL,
	working     INTEGER NOT NULL,
	reason      TEXT,
	status_code INTEGER,
	latency_ms  REAL NOT NULL,
	FOREIGN KEY(run_id) REFERENCES runs(id) ON DELETE CASCADE
);
CREATE INDEX IF NOT EXISTS idx_outcomes_run_id ON outcomes (run_id);
CREATE INDEX IF NOT EXISTS idx_outcomes_url ON outcomes (url);
`
	_, err := s.db.ExecContext(ctx, schema)
	return err
}

// RecordRun stores the run header and every probed outcome in one
// transaction. A missing ID or start time is filled in.
func (s *Store) RecordRun(ctx context.Context, rec RunRecord, results []runner.Result) error {
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if rec.StartedAt.IsZero() {
		rec.StartedAt = time.Now().UTC()
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("could not begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO runs (id, started_at, input_path, total, working, dead)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.StartedAt.Format(time.RFC3339Nano), rec.InputPath,
		rec.Total, rec.Working, rec.Dead,
	)
	if err != nil {
		return fmt.Errorf("failed to insert run: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO outcomes (run_id, url, name, working, reason, status_code, latency_ms)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare outcome insert: %w", err)
	}
	defer stmt.Close()

	for _, res := range results {
		_, err := stmt.ExecContext(ctx,
			rec.ID, res.Entry.URL, res.Entry.Name(), res.Outcome.Working,
			string(res.Outcome.Reason), res.Outcome.StatusCode, res.Outcome.LatencyMS,
		)
		if err != nil {
			return fmt.Errorf("failed to insert outcome: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit run: %w", err)
	}
	return nil
}

// LastVerdicts returns the verdict per URL from the most recent run,
// or an empty map when no run has been recorded yet.
func (s *Store) LastVerdicts(ctx context.Context) (map[string]Verdict, error) {
	var runID string
	err := s.db.QueryRowContext(ctx,
		`SELECT id FROM runs ORDER BY started_at DESC, id DESC LIMIT 1`).Scan(&runID)
	if errors.Is(err, sql.ErrNoRows) {
		return map[string]Verdict{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find last run: %w", err)
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT url, name, working, reason FROM outcomes WHERE run_id = ?`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to list outcomes: %w", err)
	}
	defer rows.Close()

	verdicts := map[string]Verdict{}
	for rows.Next() {
		var v Verdict
		if err := rows.Scan(&v.URL, &v.Name, &v.Working, &v.Reason); err != nil {
			return nil, fmt.Errorf("failed to scan outcome row: %w", err)
		}
		verdicts[v.URL] = v
	}
	return verdicts, rows.Err()
}

// NewlyDead filters the dead results down to those whose URL was
// working in the previous run.
func NewlyDead(prev map[string]Verdict, dead []runner.Result) []runner.Result {
	var out []runner.Result
	for _, res := range dead {
		if v, ok := prev[res.Entry.URL]; ok && v.Working {
			out = append(out, res)
		}
	}
	return out
}
