package logging

import "time"

// #region cycle-entry
// CycleEntry is a single row in the cycle_records table.
type CycleEntry struct {
	RunID                string
	SequenceIndex        int
	SequenceName         string
	Cycle                int
	Matches              int
	Length               int
	Accuracy             float64
	Saturated            bool
	ConsecutiveSaturated int
	Stopped              bool
	Message              string
	CreatedAt            time.Time
}

// #endregion cycle-entry

// #region prediction-entry
// PredictionEntry is a single ranked label in the predictions table.
type PredictionEntry struct {
	RunID      string
	Rank       int
	Query      string
	Label      string
	Similarity float64
	SameBits   int
	CreatedAt  time.Time
}

// #endregion prediction-entry
