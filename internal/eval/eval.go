package eval

import "fmt"

// #region eval-harness
// EvalHarness scores one training cycle of a sequence.
type EvalHarness struct {
	config EvalConfig
}

// NewEvalHarness creates an eval harness with the given configuration.
func NewEvalHarness(config EvalConfig) *EvalHarness {
	return &EvalHarness{config: config}
}

// Run computes accuracy and saturation for matches correct predictions over a sequence of length elements.
func (h *EvalHarness) Run(matches, length int) EvalResult {
	acc := Accuracy(matches, length)
	maxAcc := MaxPossibleAccuracy(length)
	saturated := length > 0 && acc >= maxAcc

	metrics := []EvalMetric{
		{Name: "accuracy", Value: acc},
		{Name: "max_possible_accuracy", Value: maxAcc},
		{Name: "matches", Value: float64(matches)},
		{Name: "sequence_length", Value: float64(length)},
	}

	reason := fmt.Sprintf("accuracy %.2f below max %.2f", acc, maxAcc)
	if saturated {
		reason = fmt.Sprintf("accuracy %.2f reached max %.2f", acc, maxAcc)
	}

	return EvalResult{
		Matches:             matches,
		SequenceLength:      length,
		Accuracy:            acc,
		MaxPossibleAccuracy: maxAcc,
		Saturated:           saturated,
		Metrics:             metrics,
		Reason:              reason,
	}
}

// ShouldReport reports whether a prediction similarity is high enough to trace.
func (h *EvalHarness) ShouldReport(similarity float64) bool {
	return similarity >= h.config.ReportSimilarity
}

// #endregion eval-harness

// #region helpers
// Accuracy is matches/length as a percentage, clamped to [0,100]. Zero length yields 0.
func Accuracy(matches, length int) float64 {
	if length <= 0 || matches <= 0 {
		return 0
	}
	if matches > length {
		matches = length
	}
	return float64(matches) / float64(length) * 100.0
}

// MaxPossibleAccuracy is (length-1)/length as a percentage.
func MaxPossibleAccuracy(length int) float64 {
	if length <= 0 {
		return 0
	}
	return float64(length-1) / float64(length) * 100.0
}

// #endregion helpers
