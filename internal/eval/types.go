package eval

// #region eval-config
// EvalConfig holds thresholds for per-cycle accuracy evaluation.
type EvalConfig struct {
	ReportSimilarity float64 // predictions at or above this similarity are traced
}

// DefaultEvalConfig returns the experiment defaults.
func DefaultEvalConfig() EvalConfig {
	return EvalConfig{
		ReportSimilarity: 50.0,
	}
}

// #endregion eval-config

// #region eval-metric
// EvalMetric captures a single named value from a cycle evaluation.
type EvalMetric struct {
	Name  string
	Value float64
}

// #endregion eval-metric

// #region eval-result
// EvalResult is the outcome of evaluating one training cycle of one sequence.
type EvalResult struct {
	Matches             int
	SequenceLength      int
	Accuracy            float64 // percent, 0-100
	MaxPossibleAccuracy float64 // percent; the first element has no prior context
	Saturated           bool    // Accuracy >= MaxPossibleAccuracy
	Metrics             []EvalMetric
	Reason              string
}

// #endregion eval-result
