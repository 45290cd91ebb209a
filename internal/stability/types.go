package stability

// #region monitor-config
// MonitorConfig controls when pooled output is considered stable.
type MonitorConfig struct {
	RequiredInputs     int     // distinct inputs that must have been seen
	WaitCycles         int     // consecutive unchanged observations required
	RequiredSimilarity float64 // output similarity counted as unchanged, in [0,1]
}

// DefaultMonitorConfig waits 50 unchanged observations at 97% similarity.
func DefaultMonitorConfig() MonitorConfig {
	return MonitorConfig{
		RequiredInputs:     1,
		WaitCycles:         50,
		RequiredSimilarity: 0.97,
	}
}

// #endregion monitor-config

// #region state
// State is the monitor's view after the most recent observation.
type State struct {
	IsStable        bool
	NumPatterns     int     // distinct inputs seen
	ActiveColumnAvg float64 // mean active columns per observation
	SeenInputs      int     // total observations
}

// Iteration approximates how many passes over the distinct inputs have been observed.
func (s State) Iteration() int {
	if s.NumPatterns == 0 {
		return 0
	}
	return s.SeenInputs / s.NumPatterns
}

// #endregion state
