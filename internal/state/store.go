package state

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// #region schema
const schema = `
CREATE TABLE IF NOT EXISTS runs (
	run_id          TEXT PRIMARY KEY,
	dataset         TEXT NOT NULL,
	config_json     TEXT,
	status          TEXT NOT NULL,
	query_input     TEXT,
	elapsed_seconds REAL,
	log_path        TEXT,
	error           TEXT,
	created_at      TEXT NOT NULL,
	finished_at     TEXT
);

CREATE TABLE IF NOT EXISTS cycle_records (
	id                    INTEGER PRIMARY KEY AUTOINCREMENT,
	run_id                TEXT NOT NULL,
	sequence_index        INTEGER NOT NULL,
	sequence_name         TEXT,
	cycle                 INTEGER NOT NULL,
	matches               INTEGER NOT NULL,
	length                INTEGER NOT NULL,
	accuracy              REAL NOT NULL,
	saturated             INTEGER NOT NULL,
	consecutive_saturated INTEGER NOT NULL,
	stopped               INTEGER NOT NULL,
	message               TEXT,
	created_at            TEXT NOT NULL,
	FOREIGN KEY (run_id) REFERENCES runs(run_id)
);

CREATE TABLE IF NOT EXISTS predictions (
	id          INTEGER PRIMARY KEY AUTOINCREMENT,
	run_id      TEXT NOT NULL,
	rank        INTEGER NOT NULL,
	query       TEXT,
	label       TEXT NOT NULL,
	similarity  REAL NOT NULL,
	same_bits   INTEGER NOT NULL,
	created_at  TEXT NOT NULL,
	FOREIGN KEY (run_id) REFERENCES runs(run_id)
);

CREATE INDEX IF NOT EXISTS idx_cycle_records_run ON cycle_records(run_id, sequence_index, cycle);
`

// #endregion schema

// #region store-struct
// Store persists experiment runs in SQLite.
type Store struct {
	db *sql.DB
}

// #endregion store-struct

// #region constructor
// NewStore opens a SQLite database and runs migrations.
func NewStore(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("pragma: %w", err)
	}
	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("pragma fk: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return &Store{db: db}, nil
}

// #endregion constructor

// #region close
// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// #endregion close

// #region db-accessor
// DB returns the underlying *sql.DB for use by other packages (e.g. logging).
func (s *Store) DB() *sql.DB {
	return s.db
}

// #endregion db-accessor

// #region create-run
// CreateRun registers a new run in the running state.
func (s *Store) CreateRun(dataset, configJSON string) (RunRecord, error) {
	rec := RunRecord{
		RunID:      uuid.New().String(),
		Dataset:    dataset,
		ConfigJSON: configJSON,
		Status:     StatusRunning,
		CreatedAt:  time.Now().UTC(),
	}

	var cfg interface{}
	if configJSON != "" {
		cfg = configJSON
	}
	_, err := s.db.Exec(
		`INSERT INTO runs (run_id, dataset, config_json, status, created_at) VALUES (?, ?, ?, ?, ?)`,
		rec.RunID, rec.Dataset, cfg, rec.Status, rec.CreatedAt.Format(time.RFC3339Nano),
	)
	if err != nil {
		return RunRecord{}, fmt.Errorf("insert run: %w", err)
	}
	return rec, nil
}

// #endregion create-run

// #region finish-run
// FinishRun marks a run finished and stores its summary.
func (s *Store) FinishRun(runID string, summary RunSummary) error {
	return s.closeRun(runID, StatusFinished, summary, "")
}

// FailRun marks a run failed with the error text.
func (s *Store) FailRun(runID string, runErr error) error {
	msg := ""
	if runErr != nil {
		msg = runErr.Error()
	}
	return s.closeRun(runID, StatusFailed, RunSummary{}, msg)
}

func (s *Store) closeRun(runID, status string, summary RunSummary, errText string) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	var current string
	if err := tx.QueryRow(`SELECT status FROM runs WHERE run_id = ?`, runID).Scan(&current); err != nil {
		return fmt.Errorf("get run %s: %w", runID, err)
	}
	if current != StatusRunning {
		return fmt.Errorf("run %s already %s", runID, current)
	}

	_, err = tx.Exec(
		`UPDATE runs SET status = ?, query_input = ?, elapsed_seconds = ?, log_path = ?, error = ?, finished_at = ?
		 WHERE run_id = ?`,
		status, nullIfEmpty(summary.QueryInput), summary.ElapsedSeconds, nullIfEmpty(summary.LogPath),
		nullIfEmpty(errText), time.Now().UTC().Format(time.RFC3339Nano), runID,
	)
	if err != nil {
		return fmt.Errorf("update run: %w", err)
	}
	return tx.Commit()
}

// #endregion finish-run

// #region get-run
const runColumns = `run_id, dataset, config_json, status, query_input, elapsed_seconds, log_path, error, created_at, finished_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(row rowScanner) (RunRecord, error) {
	var rec RunRecord
	var cfg, query, logPath, errText, finished sql.NullString
	var elapsed sql.NullFloat64
	var created string

	if err := row.Scan(&rec.RunID, &rec.Dataset, &cfg, &rec.Status, &query, &elapsed, &logPath, &errText, &created, &finished); err != nil {
		return RunRecord{}, err
	}
	rec.ConfigJSON = cfg.String
	rec.QueryInput = query.String
	rec.ElapsedSeconds = elapsed.Float64
	rec.LogPath = logPath.String
	rec.Error = errText.String
	rec.CreatedAt, _ = time.Parse(time.RFC3339Nano, created)
	if finished.Valid {
		rec.FinishedAt, _ = time.Parse(time.RFC3339Nano, finished.String)
	}
	return rec, nil
}

// GetRun retrieves a run by ID.
func (s *Store) GetRun(id string) (RunRecord, error) {
	rec, err := scanRun(s.db.QueryRow(`SELECT `+runColumns+` FROM runs WHERE run_id = ?`, id))
	if err != nil {
		return RunRecord{}, fmt.Errorf("get run %s: %w", id, err)
	}
	return rec, nil
}

// #endregion get-run

// #region list-runs
// ListRuns returns the most recent runs.
func (s *Store) ListRuns(limit int) ([]RunRecord, error) {
	rows, err := s.db.Query(`SELECT `+runColumns+` FROM runs ORDER BY created_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var records []RunRecord
	for rows.Next() {
		rec, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

// #endregion list-runs

// #region cycle-records
// CycleRecords returns a run's cycles in sequence then cycle order.
func (s *Store) CycleRecords(runID string) ([]CycleRow, error) {
	rows, err := s.db.Query(
		`SELECT sequence_index, sequence_name, cycle, matches, length, accuracy, saturated, consecutive_saturated, stopped, message, created_at
		 FROM cycle_records WHERE run_id = ? ORDER BY sequence_index, cycle, id`, runID,
	)
	if err != nil {
		return nil, fmt.Errorf("query cycles: %w", err)
	}
	defer rows.Close()

	var out []CycleRow
	for rows.Next() {
		var r CycleRow
		var name, msg sql.NullString
		var created string
		if err := rows.Scan(&r.SequenceIndex, &name, &r.Cycle, &r.Matches, &r.Length, &r.Accuracy,
			&r.Saturated, &r.ConsecutiveSaturated, &r.Stopped, &msg, &created); err != nil {
			return nil, fmt.Errorf("scan cycle: %w", err)
		}
		r.SequenceName = name.String
		r.Message = msg.String
		r.CreatedAt, _ = time.Parse(time.RFC3339Nano, created)
		out = append(out, r)
	}
	return out, rows.Err()
}

// #endregion cycle-records

// #region predictions
// Predictions returns a run's ranked predictions.
func (s *Store) Predictions(runID string) ([]PredictionRow, error) {
	rows, err := s.db.Query(
		`SELECT rank, query, label, similarity, same_bits, created_at
		 FROM predictions WHERE run_id = ? ORDER BY rank, id`, runID,
	)
	if err != nil {
		return nil, fmt.Errorf("query predictions: %w", err)
	}
	defer rows.Close()

	var out []PredictionRow
	for rows.Next() {
		var p PredictionRow
		var query sql.NullString
		var created string
		if err := rows.Scan(&p.Rank, &query, &p.Label, &p.Similarity, &p.SameBits, &created); err != nil {
			return nil, fmt.Errorf("scan prediction: %w", err)
		}
		p.Query = query.String
		p.CreatedAt, _ = time.Parse(time.RFC3339Nano, created)
		out = append(out, p)
	}
	return out, rows.Err()
}

// #endregion predictions

// #region helpers
func nullIfEmpty(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}

// #endregion helpers
