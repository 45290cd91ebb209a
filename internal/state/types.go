package state

import "time"

// #region run-status
const (
	StatusRunning  = "running"
	StatusFinished = "finished"
	StatusFailed   = "failed"
)

// #endregion run-status

// #region run-record
// RunRecord is one experiment run.
type RunRecord struct {
	RunID          string
	Dataset        string
	ConfigJSON     string
	Status         string // "running" | "finished" | "failed"
	QueryInput     string
	ElapsedSeconds float64
	LogPath        string
	Error          string
	CreatedAt      time.Time
	FinishedAt     time.Time
}

// RunSummary is what a finished run reports back to the store.
type RunSummary struct {
	QueryInput     string
	ElapsedSeconds float64
	LogPath        string
}

// #endregion run-record

// #region cycle-row
// CycleRow is a stored training cycle.
type CycleRow struct {
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

// #endregion cycle-row

// #region prediction-row
// PredictionRow is a stored ranked prediction for a run's query.
type PredictionRow struct {
	Rank       int
	Query      string
	Label      string
	Similarity float64
	SameBits   int
	CreatedAt  time.Time
}

// #endregion prediction-row
