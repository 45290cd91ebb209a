package gate

// #region gate-config
// GateConfig holds thresholds for the training stop decision.
type GateConfig struct {
	SaturationCycles int // consecutive saturated cycles before training stops
}

// DefaultGateConfig returns the experiment defaults.
func DefaultGateConfig() GateConfig {
	return GateConfig{
		SaturationCycles: 30,
	}
}

// #endregion gate-config

// #region gate-decision
const (
	ActionContinue = "continue"
	ActionStop     = "stop"
)

// GateDecision is the output of the gate evaluation.
type GateDecision struct {
	Action               string // "continue" | "stop"
	Reason               string
	Saturated            bool
	ConsecutiveSaturated int
}

// Stop reports whether training of the current sequence should end.
func (d GateDecision) Stop() bool {
	return d.Action == ActionStop
}

// #endregion gate-decision
