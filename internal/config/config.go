package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/danielpatrickdp/multiseq-learning/internal/classifier"
	"github.com/danielpatrickdp/multiseq-learning/internal/corpus"
	"github.com/danielpatrickdp/multiseq-learning/internal/engine"
	"github.com/danielpatrickdp/multiseq-learning/internal/eval"
	"github.com/danielpatrickdp/multiseq-learning/internal/gate"
	"github.com/danielpatrickdp/multiseq-learning/internal/pooler"
	"github.com/danielpatrickdp/multiseq-learning/internal/seqmem"
	"github.com/danielpatrickdp/multiseq-learning/internal/stability"
	"github.com/danielpatrickdp/multiseq-learning/internal/training"
)

const dateLayout = "2006-01-02"

// #region defaults
// Default returns the experiment defaults.
func Default() *Config {
	sp := pooler.DefaultPoolerConfig()
	tm := seqmem.DefaultTMConfig()
	mon := stability.DefaultMonitorConfig()
	return &Config{
		Experiment: ExperimentConfig{
			MaxCycles:        35,
			NumColumns:       2048,
			SequenceFormat:   string(corpus.ByWeek),
			SaturationCycles: gate.DefaultGateConfig().SaturationCycles,
			TopK:             engine.DefaultEngineConfig().TopK,
			Seed:             42,
			ValuePrecision:   2,
			QueryStart:       "2010-07-10",
			QueryEnd:         "2010-12-25",
			ReportSimilarity: eval.DefaultEvalConfig().ReportSimilarity,
		},
		Pooler: PoolerSection{
			ActiveColumns:      sp.ActiveColumns,
			PotentialPct:       sp.PotentialPct,
			StimulusThreshold:  sp.StimulusThreshold,
			SynPermConnected:   sp.SynPermConnected,
			SynPermActiveInc:   sp.SynPermActiveInc,
			SynPermInactiveDec: sp.SynPermInactiveDec,
			InitPermSpread:     sp.InitPermSpread,
		},
		SequenceMemory: SequenceMemorySection{
			CellsPerColumn:            tm.CellsPerColumn,
			ActivationThreshold:       tm.ActivationThreshold,
			MinThreshold:              tm.MinThreshold,
			MaxNewSynapseCount:        tm.MaxNewSynapseCount,
			InitialPermanence:         tm.InitialPermanence,
			ConnectedPermanence:       tm.ConnectedPermanence,
			PermanenceIncrement:       tm.PermanenceIncrement,
			PermanenceDecrement:       tm.PermanenceDecrement,
			PredictedSegmentDecrement: tm.PredictedSegmentDecrement,
			MaxSegmentsPerCell:        tm.MaxSegmentsPerCell,
			MaxSynapsesPerSegment:     tm.MaxSynapsesPerSegment,
		},
		Stability: StabilitySection{
			WaitCycles:         mon.WaitCycles,
			RequiredSimilarity: mon.RequiredSimilarity,
		},
		Classifier: ClassifierSection{
			MaxPatternsPerLabel: classifier.DefaultClassifierConfig().MaxPatternsPerLabel,
		},
		Output: OutputConfig{
			LogDir: ".",
		},
		Server: ServerConfig{
			Addr: ":50051",
		},
	}
}

// #endregion defaults

// #region load
// Load reads path over the defaults and validates the result.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadOrDefault loads path, or returns the defaults when path is empty or missing.
func LoadOrDefault(path string) (*Config, error) {
	if path == "" {
		return Default(), nil
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return Default(), nil
	}
	return Load(path)
}

// Save writes the configuration as YAML, creating the directory if needed.
func (c *Config) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

// #endregion load

// #region validate
// Validate checks ranges the collaborators cannot recover from.
func (c *Config) Validate() error {
	e := c.Experiment
	switch {
	case e.MaxCycles <= 0:
		return fmt.Errorf("%w: experiment.max_cycles must be positive", ErrInvalidConfig)
	case e.NumColumns <= 0:
		return fmt.Errorf("%w: experiment.num_columns must be positive", ErrInvalidConfig)
	case e.SaturationCycles <= 0:
		return fmt.Errorf("%w: experiment.saturation_cycles must be positive", ErrInvalidConfig)
	case e.TopK <= 0:
		return fmt.Errorf("%w: experiment.top_k must be positive", ErrInvalidConfig)
	case e.ValuePrecision < 0:
		return fmt.Errorf("%w: experiment.value_precision must not be negative", ErrInvalidConfig)
	case c.Pooler.ActiveColumns <= 0 || c.Pooler.ActiveColumns > e.NumColumns:
		return fmt.Errorf("%w: pooler.active_columns must be in [1,%d]", ErrInvalidConfig, e.NumColumns)
	case c.SequenceMemory.CellsPerColumn <= 0:
		return fmt.Errorf("%w: sequence_memory.cells_per_column must be positive", ErrInvalidConfig)
	case c.Stability.RequiredSimilarity < 0 || c.Stability.RequiredSimilarity > 1:
		return fmt.Errorf("%w: stability.required_similarity must be in [0,1]", ErrInvalidConfig)
	}
	if _, err := c.Format().Length(); err != nil {
		return fmt.Errorf("%w: experiment.sequence_format %q: %v", ErrInvalidConfig, e.SequenceFormat, err)
	}
	start, end, err := c.QueryRange()
	if err != nil {
		return err
	}
	if end.Before(start) {
		return fmt.Errorf("%w: experiment.query_end before query_start", ErrInvalidConfig)
	}
	return nil
}

// #endregion validate

// #region converters
// Format returns the configured sequence grouping.
func (c *Config) Format() corpus.SequenceFormat {
	return corpus.SequenceFormat(c.Experiment.SequenceFormat)
}

// QueryRange parses the held-out query date range.
func (c *Config) QueryRange() (time.Time, time.Time, error) {
	start, err := time.Parse(dateLayout, c.Experiment.QueryStart)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("%w: experiment.query_start: %v", ErrInvalidConfig, err)
	}
	end, err := time.Parse(dateLayout, c.Experiment.QueryEnd)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("%w: experiment.query_end: %v", ErrInvalidConfig, err)
	}
	return start, end, nil
}

// ToPoolerConfig builds the spatial pooler config for inputBits wide inputs.
func (c *Config) ToPoolerConfig(inputBits int) pooler.PoolerConfig {
	return pooler.PoolerConfig{
		InputBits:          inputBits,
		ColumnCount:        c.Experiment.NumColumns,
		ActiveColumns:      c.Pooler.ActiveColumns,
		PotentialPct:       c.Pooler.PotentialPct,
		StimulusThreshold:  c.Pooler.StimulusThreshold,
		SynPermConnected:   c.Pooler.SynPermConnected,
		SynPermActiveInc:   c.Pooler.SynPermActiveInc,
		SynPermInactiveDec: c.Pooler.SynPermInactiveDec,
		InitPermSpread:     c.Pooler.InitPermSpread,
		Seed:               c.Experiment.Seed,
	}
}

// ToTMConfig builds the temporal memory config.
func (c *Config) ToTMConfig() seqmem.TMConfig {
	s := c.SequenceMemory
	return seqmem.TMConfig{
		ColumnCount:               c.Experiment.NumColumns,
		CellsPerColumn:            s.CellsPerColumn,
		ActivationThreshold:       s.ActivationThreshold,
		MinThreshold:              s.MinThreshold,
		MaxNewSynapseCount:        s.MaxNewSynapseCount,
		InitialPermanence:         s.InitialPermanence,
		ConnectedPermanence:       s.ConnectedPermanence,
		PermanenceIncrement:       s.PermanenceIncrement,
		PermanenceDecrement:       s.PermanenceDecrement,
		PredictedSegmentDecrement: s.PredictedSegmentDecrement,
		MaxSegmentsPerCell:        s.MaxSegmentsPerCell,
		MaxSynapsesPerSegment:     s.MaxSynapsesPerSegment,
		Seed:                      c.Experiment.Seed,
	}
}

// ToMonitorConfig builds the stability monitor config. numSequences fills an unset RequiredInputs.
func (c *Config) ToMonitorConfig(numSequences int) stability.MonitorConfig {
	required := c.Stability.RequiredInputs
	if required <= 0 {
		required = numSequences
	}
	return stability.MonitorConfig{
		RequiredInputs:     required,
		WaitCycles:         c.Stability.WaitCycles,
		RequiredSimilarity: c.Stability.RequiredSimilarity,
	}
}

// ToClassifierConfig builds the label associator config.
func (c *Config) ToClassifierConfig() classifier.ClassifierConfig {
	return classifier.ClassifierConfig{MaxPatternsPerLabel: c.Classifier.MaxPatternsPerLabel}
}

// ToControllerConfig builds the training schedule.
func (c *Config) ToControllerConfig() training.ControllerConfig {
	return training.ControllerConfig{
		MaxCycles: c.Experiment.MaxCycles,
		Verbose:   c.Experiment.Verbose,
		Gate:      gate.GateConfig{SaturationCycles: c.Experiment.SaturationCycles},
		Eval:      eval.EvalConfig{ReportSimilarity: c.Experiment.ReportSimilarity},
		Engine:    engine.EngineConfig{TopK: c.Experiment.TopK},
	}
}

// #endregion converters
