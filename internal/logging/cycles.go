package logging

import (
	"database/sql"
	"fmt"
	"time"
)

// #region log-cycle
// LogCycle writes one training cycle to the cycle_records table.
func LogCycle(db *sql.DB, entry CycleEntry) error {
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}

	_, err := db.Exec(
		`INSERT INTO cycle_records (run_id, sequence_index, sequence_name, cycle, matches, length, accuracy, saturated, consecutive_saturated, stopped, message, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		entry.RunID,
		entry.SequenceIndex,
		nullIfEmpty(entry.SequenceName),
		entry.Cycle,
		entry.Matches,
		entry.Length,
		entry.Accuracy,
		entry.Saturated,
		entry.ConsecutiveSaturated,
		entry.Stopped,
		nullIfEmpty(entry.Message),
		entry.CreatedAt.Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("log cycle: %w", err)
	}
	return nil
}

// #endregion log-cycle

// #region log-prediction
// LogPrediction writes one ranked prediction to the predictions table.
func LogPrediction(db *sql.DB, entry PredictionEntry) error {
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}

	_, err := db.Exec(
		`INSERT INTO predictions (run_id, rank, query, label, similarity, same_bits, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		entry.RunID,
		entry.Rank,
		nullIfEmpty(entry.Query),
		entry.Label,
		entry.Similarity,
		entry.SameBits,
		entry.CreatedAt.Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("log prediction: %w", err)
	}
	return nil
}

// #endregion log-prediction

// #region helpers
func nullIfEmpty(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}

// #endregion helpers
