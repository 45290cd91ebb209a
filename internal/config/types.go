package config

import "errors"

var ErrInvalidConfig = errors.New("invalid config")

// #region config
// Config is the root configuration for an experiment run.
type Config struct {
	Experiment     ExperimentConfig      `yaml:"experiment"`
	Pooler         PoolerSection         `yaml:"pooler"`
	SequenceMemory SequenceMemorySection `yaml:"sequence_memory"`
	Stability      StabilitySection      `yaml:"stability"`
	Classifier     ClassifierSection     `yaml:"classifier"`
	Output         OutputConfig          `yaml:"output"`
	Server         ServerConfig          `yaml:"server"`
}

// ExperimentConfig holds the training schedule and the held-out query.
type ExperimentConfig struct {
	MaxCycles        int     `yaml:"max_cycles"`
	NumColumns       int     `yaml:"num_columns"`
	SequenceFormat   string  `yaml:"sequence_format"` // byMonth | byWeek | byDay
	SaturationCycles int     `yaml:"saturation_cycles"`
	TopK             int     `yaml:"top_k"`
	Seed             int64   `yaml:"seed"`
	ValuePrecision   int     `yaml:"value_precision"` // decimals kept in event labels
	QueryStart       string  `yaml:"query_start"`     // YYYY-MM-DD
	QueryEnd         string  `yaml:"query_end"`
	ReportSimilarity float64 `yaml:"report_similarity"`
	Verbose          bool    `yaml:"verbose"`
}

// #endregion config

// #region sections
// PoolerSection tunes the spatial pooler. Input width comes from the encoder.
type PoolerSection struct {
	ActiveColumns      int     `yaml:"active_columns"`
	PotentialPct       float64 `yaml:"potential_pct"`
	StimulusThreshold  int     `yaml:"stimulus_threshold"`
	SynPermConnected   float64 `yaml:"syn_perm_connected"`
	SynPermActiveInc   float64 `yaml:"syn_perm_active_inc"`
	SynPermInactiveDec float64 `yaml:"syn_perm_inactive_dec"`
	InitPermSpread     float64 `yaml:"init_perm_spread"`
}

// SequenceMemorySection tunes the temporal memory. Column count comes from the experiment.
type SequenceMemorySection struct {
	CellsPerColumn            int     `yaml:"cells_per_column"`
	ActivationThreshold       int     `yaml:"activation_threshold"`
	MinThreshold              int     `yaml:"min_threshold"`
	MaxNewSynapseCount        int     `yaml:"max_new_synapse_count"`
	InitialPermanence         float64 `yaml:"initial_permanence"`
	ConnectedPermanence       float64 `yaml:"connected_permanence"`
	PermanenceIncrement       float64 `yaml:"permanence_increment"`
	PermanenceDecrement       float64 `yaml:"permanence_decrement"`
	PredictedSegmentDecrement float64 `yaml:"predicted_segment_decrement"`
	MaxSegmentsPerCell        int     `yaml:"max_segments_per_cell"`
	MaxSynapsesPerSegment     int     `yaml:"max_synapses_per_segment"`
}

// StabilitySection tunes the stability monitor.
type StabilitySection struct {
	RequiredInputs     int     `yaml:"required_inputs"` // 0 = number of sequences
	WaitCycles         int     `yaml:"wait_cycles"`
	RequiredSimilarity float64 `yaml:"required_similarity"`
}

// ClassifierSection tunes the label associator.
type ClassifierSection struct {
	MaxPatternsPerLabel int `yaml:"max_patterns_per_label"`
}

// OutputConfig names where artifacts go. An empty DBPath disables persistence.
type OutputConfig struct {
	LogDir string `yaml:"log_dir"`
	DBPath string `yaml:"db_path"`
}

// ServerConfig holds the prediction service settings.
type ServerConfig struct {
	Addr string `yaml:"addr"`
}

// #endregion sections
