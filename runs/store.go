// Package runs keeps a history of scrape runs in SQLite. Each run is
// recorded when it starts and closed out as succeeded or failed; successful
// runs also keep the records they produced so they can be exported again.
package runs

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
	"github.com/pevans/holdings/holding"
)

var (
	ErrRunNotFound = errors.New("run not found")
	ErrRunFinished = errors.New("run already finished")
)

// Status is the lifecycle state of a run.
type Status string

const (
	StatusRunning   Status = "running"
	StatusSucceeded Status = "succeeded"
	StatusFailed    Status = "failed"
)

// Store manages run history using SQLite.
type Store struct {
	db  *sql.DB
	now func() time.Time
}

// Run is one recorded scrape.
type Run struct {
	RunID      uuid.UUID  `json:"run_id"`
	URL        string     `json:"url"`
	UserAgent  string     `json:"user_agent"`
	Status     Status     `json:"status"`
	StartedAt  time.Time  `json:"started_at"`
	FinishedAt *time.Time `json:"finished_at,omitempty"`
	Pages      int        `json:"pages"`
	RawRows    int        `json:"raw_rows"`
	ValidRows  int        `json:"valid_rows"`
	Stop       string     `json:"stop,omitempty"`
	OutputPath string     `json:"output_path,omitempty"`
	FailKind   string     `json:"fail_kind,omitempty"`
	Error      string     `json:"error,omitempty"`
}

// Duration is how long the run took, or zero while it is still running.
func (r *Run) Duration() time.Duration {
	if r.FinishedAt == nil {
		return 0
	}
	return r.FinishedAt.Sub(r.StartedAt)
}

// Summary holds the counters of a successful run.
type Summary struct {
	Pages      int
	RawRows    int
	Stop       string
	OutputPath string
}

// NewStore opens (creating if needed) the history database at dsn.
func NewStore(dsn string) (*Store, error) {
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	store := &Store{db: db, now: time.Now}
	if err := store.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return store, nil
}

func (s *Store) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS runs (
		run_id TEXT PRIMARY KEY,
		url TEXT NOT NULL,
		user_agent TEXT NOT NULL,
		status TEXT NOT NULL,
		started_at TEXT NOT NULL,
		finished_at TEXT,
		pages INTEGER NOT NULL DEFAULT 0,
		raw_rows INTEGER NOT NULL DEFAULT 0,
		valid_rows INTEGER NOT NULL DEFAULT 0,
		stop TEXT,
		output_path TEXT,
		fail_kind TEXT,
		error_message TEXT
	);

	CREATE TABLE IF NOT EXISTS run_records (
		run_id TEXT NOT NULL REFERENCES runs(run_id),
		position INTEGER NOT NULL,
		record TEXT NOT NULL,
		PRIMARY KEY (run_id, position)
	);

	CREATE INDEX IF NOT EXISTS idx_runs_started_at ON runs(started_at);
	`

	_, err := s.db.Exec(schema)
	return err
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Start records a new running run against url.
func (s *Store) Start(url, userAgent string) (*Run, error) {
	now := s.now()
	run := &Run{
		RunID:     uuid.New(),
		URL:       url,
		UserAgent: userAgent,
		Status:    StatusRunning,
		StartedAt: now.UTC().Truncate(0),
	}

	_, err := s.db.Exec(`
		INSERT INTO runs (run_id, url, user_agent, status, started_at)
		VALUES (?, ?, ?, ?, ?)
	`,
		run.RunID.String(),
		run.URL,
		run.UserAgent,
		string(run.Status),
		formatTime(&now),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to insert run: %w", err)
	}

	return run, nil
}

// Succeed closes out a running run and stores its records.
func (s *Store) Succeed(id uuid.UUID, summary Summary, records []holding.Record) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	now := s.now()
	res, err := tx.Exec(`
		UPDATE runs
		SET status = ?, finished_at = ?, pages = ?, raw_rows = ?,
			valid_rows = ?, stop = ?, output_path = ?
		WHERE run_id = ? AND status = ?
	`,
		string(StatusSucceeded),
		formatTime(&now),
		summary.Pages,
		summary.RawRows,
		len(records),
		nullString(summary.Stop),
		nullString(summary.OutputPath),
		id.String(),
		string(StatusRunning),
	)
	if err != nil {
		return fmt.Errorf("failed to update run: %w", err)
	}
	if err := s.checkUpdated(tx, id, res); err != nil {
		return err
	}

	stmt, err := tx.Prepare(`
		INSERT INTO run_records (run_id, position, record) VALUES (?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare record insert: %w", err)
	}
	defer stmt.Close()

	for i, record := range records {
		data, err := json.Marshal(record)
		if err != nil {
			return fmt.Errorf("failed to marshal record: %w", err)
		}
		if _, err := stmt.Exec(id.String(), i, string(data)); err != nil {
			return fmt.Errorf("failed to insert record: %w", err)
		}
	}

	return tx.Commit()
}

// Fail closes out a running run with the failure kind and message.
func (s *Store) Fail(id uuid.UUID, kind, message string) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	now := s.now()
	res, err := tx.Exec(`
		UPDATE runs
		SET status = ?, finished_at = ?, fail_kind = ?, error_message = ?
		WHERE run_id = ? AND status = ?
	`,
		string(StatusFailed),
		formatTime(&now),
		kind,
		message,
		id.String(),
		string(StatusRunning),
	)
	if err != nil {
		return fmt.Errorf("failed to update run: %w", err)
	}
	if err := s.checkUpdated(tx, id, res); err != nil {
		return err
	}

	return tx.Commit()
}

// checkUpdated tells a missing run apart from one that already finished.
func (s *Store) checkUpdated(tx *sql.Tx, id uuid.UUID, res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check rows affected: %w", err)
	}
	if n > 0 {
		return nil
	}

	var status string
	err = tx.QueryRow(`SELECT status FROM runs WHERE run_id = ?`, id.String()).Scan(&status)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrRunNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to query run: %w", err)
	}
	return ErrRunFinished
}

const runColumns = `run_id, url, user_agent, status, started_at, finished_at,
	pages, raw_rows, valid_rows, stop, output_path, fail_kind, error_message`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(row rowScanner) (*Run, error) {
	var run Run
	var runID, status, startedAt string
	var finishedAt, stop, outputPath, failKind, errMsg sql.NullString

	err := row.Scan(
		&runID,
		&run.URL,
		&run.UserAgent,
		&status,
		&startedAt,
		&finishedAt,
		&run.Pages,
		&run.RawRows,
		&run.ValidRows,
		&stop,
		&outputPath,
		&failKind,
		&errMsg,
	)
	if err != nil {
		return nil, err
	}

	id, err := uuid.Parse(runID)
	if err != nil {
		return nil, fmt.Errorf("failed to parse run id: %w", err)
	}
	run.RunID = id
	run.Status = Status(status)
	run.StartedAt = parseTime(startedAt)
	if finishedAt.Valid {
		t := parseTime(finishedAt.String)
		run.FinishedAt = &t
	}
	run.Stop = stop.String
	run.OutputPath = outputPath.String
	run.FailKind = failKind.String
	run.Error = errMsg.String

	return &run, nil
}

// Get retrieves a run by ID.
func (s *Store) Get(id uuid.UUID) (*Run, error) {
	row := s.db.QueryRow(`SELECT `+runColumns+` FROM runs WHERE run_id = ?`, id.String())
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrRunNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get run: %w", err)
	}
	return run, nil
}

// List returns runs newest first. A limit of zero or less returns all runs.
func (s *Store) List(limit int) ([]*Run, error) {
	query := `SELECT ` + runColumns + ` FROM runs ORDER BY started_at DESC`
	args := []any{}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer rows.Close()

	runs := []*Run{}
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		runs = append(runs, run)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating runs: %w", err)
	}

	return runs, nil
}

// Records returns the stored records of a run in their original order.
func (s *Store) Records(id uuid.UUID) ([]holding.Record, error) {
	if _, err := s.Get(id); err != nil {
		return nil, err
	}

	rows, err := s.db.Query(`
		SELECT record FROM run_records WHERE run_id = ? ORDER BY position
	`, id.String())
	if err != nil {
		return nil, fmt.Errorf("failed to query records: %w", err)
	}
	defer rows.Close()

	records := []holding.Record{}
	for rows.Next() {
		var data string
		if err := rows.Scan(&data); err != nil {
			return nil, fmt.Errorf("failed to scan record: %w", err)
		}
		var record holding.Record
		if err := json.Unmarshal([]byte(data), &record); err != nil {
			return nil, fmt.Errorf("failed to unmarshal record: %w", err)
		}
		records = append(records, record)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating records: %w", err)
	}

	return records, nil
}

// Lookup resolves a full run ID or a unique prefix of one.
func (s *Store) Lookup(prefix string) (*Run, error) {
	if id, err := uuid.Parse(prefix); err == nil {
		return s.Get(id)
	}

	rows, err := s.db.Query(
		`SELECT `+runColumns+` FROM runs WHERE run_id LIKE ? || '%' LIMIT 2`,
		prefix,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to look up run: %w", err)
	}
	defer rows.Close()

	var found []*Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		found = append(found, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating runs: %w", err)
	}

	switch len(found) {
	case 0:
		return nil, ErrRunNotFound
	case 1:
		return found[0], nil
	default:
		return nil, fmt.Errorf("run id prefix %q is ambiguous", prefix)
	}
}

func nullString(s string) any {
	if s == "" {
		return nil
	}
	return s
}

const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

func formatTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	// Fixed width in UTC so started_at sorts as text.
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) time.Time {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		t, _ = time.Parse(time.RFC3339, s)
	}
	return t.Truncate(0)
}
