package history

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"stagehand/internal/services"
)

// Store manages run history persistence backed by SQLite.
type Store struct {
	db   *sql.DB
	path string
}

// Open initializes or connects to the history database and applies migrations.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("ensure history directory: %w", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	store := &Store{db: db, path: path}
	if err := store.applyMigrations(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

// Path returns the database location.
func (s *Store) Path() string { return s.path }

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// CreateRun inserts a run in the running state.
func (s *Store) CreateRun(ctx context.Context, run Run) error {
	stages, err := json.Marshal(run.Stages)
	if err != nil {
		return fmt.Errorf("marshal stages: %w", err)
	}
	if run.Started.IsZero() {
		run.Started = time.Now().UTC()
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO runs (id, state, input_dir, output_dir, stages_json, started_at)
         VALUES (?, ?, ?, ?, ?, ?)`,
		run.ID, run.State, run.InputDir, run.OutputDir, string(stages), formatTime(run.Started),
	)
	if err != nil {
		return fmt.Errorf("insert run: %w", err)
	}
	return nil
}

// FinishRun records a run's terminal state.
func (s *Store) FinishRun(ctx context.Context, id, state, errMessage string, finished time.Time) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE runs SET state = ?, error_message = ?, finished_at = ? WHERE id = ?`,
		state, nullableString(errMessage), formatTime(finished), id,
	)
	if err != nil {
		return fmt.Errorf("finish run: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return services.Wrap(services.ErrNotFound, "history", "finish run", "unknown run "+id, nil)
	}
	return nil
}

// UpsertStep inserts or replaces a step record.
func (s *Store) UpsertStep(ctx context.Context, step Step) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO steps (run_id, step_index, name, status, input_dir, output_dir, command, exit_code, started_at, finished_at)
         VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
         ON CONFLICT(run_id, step_index) DO UPDATE SET
            name = excluded.name,
            status = excluded.status,
            input_dir = excluded.input_dir,
            output_dir = excluded.output_dir,
            command = excluded.command,
            exit_code = excluded.exit_code,
            started_at = excluded.started_at,
            finished_at = excluded.finished_at`,
		step.RunID, step.Index, step.Name, step.Status,
		nullableString(step.Input), nullableString(step.Output), nullableString(step.Command),
		nullableInt(step.ExitCode), nullableTime(step.Started), nullableTime(step.Finished),
	)
	if err != nil {
		return fmt.Errorf("upsert step: %w", err)
	}
	return nil
}

// ListRuns returns the most recent runs, newest first.
func (s *Store) ListRuns(ctx context.Context, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, state, input_dir, output_dir, stages_json, error_message, started_at, finished_at
         FROM runs ORDER BY started_at DESC, id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// GetRun fetches one run by identifier.
func (s *Store) GetRun(ctx context.Context, id string) (Run, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, state, input_dir, output_dir, stages_json, error_message, started_at, finished_at
         FROM runs WHERE id = ?`, id)
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Run{}, services.Wrap(services.ErrNotFound, "history", "get run", "unknown run "+id, err)
	}
	return run, err
}

// RunSteps returns a run's steps in execution order.
func (s *Store) RunSteps(ctx context.Context, runID string) ([]Step, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT run_id, step_index, name, status, input_dir, output_dir, command, exit_code, started_at, finished_at
         FROM steps WHERE run_id = ? ORDER BY step_index`, runID)
	if err != nil {
		return nil, fmt.Errorf("query steps: %w", err)
	}
	defer rows.Close()

	var steps []Step
	for rows.Next() {
		var (
			step                   Step
			input, output, command sql.NullString
			exitCode               sql.NullInt64
			started, finished      sql.NullString
		)
		if err := rows.Scan(&step.RunID, &step.Index, &step.Name, &step.Status,
			&input, &output, &command, &exitCode, &started, &finished); err != nil {
			return nil, fmt.Errorf("scan step: %w", err)
		}
		step.Input, step.Output, step.Command = input.String, output.String, command.String
		if exitCode.Valid {
			code := int(exitCode.Int64)
			step.ExitCode = &code
		}
		step.Started = parseNullableTime(started)
		step.Finished = parseNullableTime(finished)
		steps = append(steps, step)
	}
	return steps, rows.Err()
}

// DeleteBefore removes runs (and their steps) started before cutoff.
func (s *Store) DeleteBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM runs WHERE started_at < ?`, formatTime(cutoff))
	if err != nil {
		return 0, fmt.Errorf("delete runs: %w", err)
	}
	return res.RowsAffected()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(row rowScanner) (Run, error) {
	var (
		run      Run
		stages   string
		errMsg   sql.NullString
		started  string
		finished sql.NullString
	)
	if err := row.Scan(&run.ID, &run.State, &run.InputDir, &run.OutputDir, &stages, &errMsg, &started, &finished); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Run{}, err
		}
		return Run{}, fmt.Errorf("scan run: %w", err)
	}
	if err := json.Unmarshal([]byte(stages), &run.Stages); err != nil {
		return Run{}, fmt.Errorf("decode stages: %w", err)
	}
	run.Error = errMsg.String
	run.Started, _ = time.Parse(time.RFC3339Nano, started)
	run.Finished = parseNullableTime(finished)
	return run, nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func nullableString(v string) any {
	if v == "" {
		return nil
	}
	return v
}

func nullableInt(v *int) any {
	if v == nil {
		return nil
	}
	return *v
}

func nullableTime(t *time.Time) any {
	if t == nil || t.IsZero() {
		return nil
	}
	return formatTime(*t)
}

func parseNullableTime(v sql.NullString) *time.Time {
	if !v.Valid || v.String == "" {
		return nil
	}
	parsed, err := time.Parse(time.RFC3339Nano, v.String)
	if err != nil {
		return nil
	}
	return &parsed
}
