package replay

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/danielpatrickdp/multiseq-learning/internal/corpus"
	"github.com/danielpatrickdp/multiseq-learning/internal/sdr"
)

// #region fixture-types

// Fixture is the top-level JSON structure for a replay fixture.
type Fixture struct {
	Description     string                  `json:"description"`
	Config          FixtureConfig           `json:"config"`
	Sequences       []FixtureSequence       `json:"sequences"`
	Query           *FixtureQuery           `json:"query,omitempty"`
	ExpectedResults []FixtureExpectedResult `json:"expected_results"`
}

// FixtureSequence is a named list of events.
type FixtureSequence struct {
	Name   string         `json:"name"`
	Events []FixtureEvent `json:"events"`
}

// FixtureEvent is one event: key "<label>,<context>" and its active bits.
type FixtureEvent struct {
	Key  string `json:"key"`
	Bits []int  `json:"bits"`
}

// FixtureQuery is a held-out input and the label expected to rank first.
type FixtureQuery struct {
	Bits        []int  `json:"bits"`
	ExpectedTop string `json:"expected_top"` // empty means no prediction expected
}

// FixtureExpectedResult captures the expected outcome per sequence.
type FixtureExpectedResult struct {
	Sequence string `json:"sequence"`
	Cycles   int    `json:"cycles"`
	Stopped  bool   `json:"stopped"`
}

// FixtureConfig holds the settings a fixture overrides.
type FixtureConfig struct {
	MaxCycles        int                    `json:"max_cycles"`
	SaturationCycles int                    `json:"saturation_cycles"`
	TopK             int                    `json:"top_k"`
	Pooling          string                 `json:"pooling"`
	Columns          int                    `json:"columns"`
	Seed             int64                  `json:"seed"`
	Pooler           FixturePoolerConfig    `json:"pooler"`
	SequenceMemory   FixtureSequenceMemory  `json:"sequence_memory"`
	Stability        FixtureStabilityConfig `json:"stability"`
}

// FixturePoolerConfig mirrors the spatial pooler settings a fixture may set.
type FixturePoolerConfig struct {
	InputBits     int `json:"input_bits"`
	ActiveColumns int `json:"active_columns"`
}

// FixtureSequenceMemory mirrors seqmem.TMConfig with JSON tags.
type FixtureSequenceMemory struct {
	CellsPerColumn            int     `json:"cells_per_column"`
	ActivationThreshold       int     `json:"activation_threshold"`
	MinThreshold              int     `json:"min_threshold"`
	MaxNewSynapseCount        int     `json:"max_new_synapse_count"`
	InitialPermanence         float64 `json:"initial_permanence"`
	ConnectedPermanence       float64 `json:"connected_permanence"`
	PermanenceIncrement       float64 `json:"permanence_increment"`
	PermanenceDecrement       float64 `json:"permanence_decrement"`
	PredictedSegmentDecrement float64 `json:"predicted_segment_decrement"`
}

// FixtureStabilityConfig mirrors stability.MonitorConfig with JSON tags.
type FixtureStabilityConfig struct {
	RequiredInputs     int     `json:"required_inputs"`
	WaitCycles         int     `json:"wait_cycles"`
	RequiredSimilarity float64 `json:"required_similarity"`
}

// #endregion fixture-types

// #region fixture-loader

// LoadFixture reads and parses a JSON fixture file.
func LoadFixture(path string) (*Fixture, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read fixture %s: %w", path, err)
	}
	var f Fixture
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse fixture %s: %w", path, err)
	}
	return &f, nil
}

// ToMultiSequence converts the fixture sequences to a corpus.
func (f *Fixture) ToMultiSequence() corpus.MultiSequence {
	ms := make(corpus.MultiSequence, 0, len(f.Sequences))
	for _, fs := range f.Sequences {
		seq := corpus.Sequence{Name: fs.Name, Events: make([]corpus.Event, 0, len(fs.Events))}
		for _, fe := range fs.Events {
			seq.Events = append(seq.Events, corpus.Event{Key: fe.Key, Vector: sdr.Normalize(fe.Bits)})
		}
		ms = append(ms, seq)
	}
	return ms
}

// ToReplayConfig overlays the fixture settings on DefaultReplayConfig. Zero values keep defaults.
func (fc *FixtureConfig) ToReplayConfig() ReplayConfig {
	cfg := DefaultReplayConfig()

	if fc.MaxCycles > 0 {
		cfg.Controller.MaxCycles = fc.MaxCycles
	}
	if fc.SaturationCycles > 0 {
		cfg.Controller.Gate.SaturationCycles = fc.SaturationCycles
	}
	if fc.TopK > 0 {
		cfg.Controller.Engine.TopK = fc.TopK
	}
	if fc.Pooling != "" {
		cfg.Pooling = fc.Pooling
	}
	if fc.Columns > 0 {
		cfg.Pooler.ColumnCount = fc.Columns
		cfg.TM.ColumnCount = fc.Columns
	}
	cfg.Pooler.Seed = fc.Seed
	cfg.TM.Seed = fc.Seed
	if fc.Pooler.InputBits > 0 {
		cfg.Pooler.InputBits = fc.Pooler.InputBits
	}
	if fc.Pooler.ActiveColumns > 0 {
		cfg.Pooler.ActiveColumns = fc.Pooler.ActiveColumns
	}

	sm := fc.SequenceMemory
	setInt(&cfg.TM.CellsPerColumn, sm.CellsPerColumn)
	setInt(&cfg.TM.ActivationThreshold, sm.ActivationThreshold)
	setInt(&cfg.TM.MinThreshold, sm.MinThreshold)
	setInt(&cfg.TM.MaxNewSynapseCount, sm.MaxNewSynapseCount)
	setFloat(&cfg.TM.InitialPermanence, sm.InitialPermanence)
	setFloat(&cfg.TM.ConnectedPermanence, sm.ConnectedPermanence)
	setFloat(&cfg.TM.PermanenceIncrement, sm.PermanenceIncrement)
	setFloat(&cfg.TM.PermanenceDecrement, sm.PermanenceDecrement)
	// zero is meaningful here: no punishment
	cfg.TM.PredictedSegmentDecrement = sm.PredictedSegmentDecrement

	st := fc.Stability
	setInt(&cfg.Monitor.RequiredInputs, st.RequiredInputs)
	setInt(&cfg.Monitor.WaitCycles, st.WaitCycles)
	setFloat(&cfg.Monitor.RequiredSimilarity, st.RequiredSimilarity)
	return cfg
}

func setInt(dst *int, v int) {
	if v > 0 {
		*dst = v
	}
}

func setFloat(dst *float64, v float64) {
	if v > 0 {
		*dst = v
	}
}

// #endregion fixture-loader
