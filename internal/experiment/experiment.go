package experiment

import (
	"encoding/json"
	"fmt"
	"log"
	"math/rand"
	"time"

	"github.com/danielpatrickdp/multiseq-learning/internal/classifier"
	"github.com/danielpatrickdp/multiseq-learning/internal/config"
	"github.com/danielpatrickdp/multiseq-learning/internal/corpus"
	"github.com/danielpatrickdp/multiseq-learning/internal/encoder"
	"github.com/danielpatrickdp/multiseq-learning/internal/logging"
	"github.com/danielpatrickdp/multiseq-learning/internal/pooler"
	"github.com/danielpatrickdp/multiseq-learning/internal/seqmem"
	"github.com/danielpatrickdp/multiseq-learning/internal/stability"
	"github.com/danielpatrickdp/multiseq-learning/internal/state"
	"github.com/danielpatrickdp/multiseq-learning/internal/training"
)

// QueryLayout is how the held-out query date is reported.
const QueryLayout = "2006-01-02 15:04:05"

// #region experiment
// Experiment prepares the corpus, trains, queries once and writes the run log.
type Experiment struct {
	cfg      *config.Config
	logger   *log.Logger
	progress training.Progress
}

// New creates an experiment. A nil cfg uses config.Default().
func New(cfg *config.Config) *Experiment {
	if cfg == nil {
		cfg = config.Default()
	}
	return &Experiment{cfg: cfg, logger: log.Default()}
}

// SetLogger replaces the trace logger.
func (e *Experiment) SetLogger(l *log.Logger) {
	if l != nil {
		e.logger = l
	}
}

// SetProgress attaches a training progress sink.
func (e *Experiment) SetProgress(p training.Progress) {
	e.progress = p
}

// RunExperiment runs the default experiment on datasetPath.
func RunExperiment(datasetPath string) (*RunResult, error) {
	return New(nil).Run(datasetPath)
}

// Run executes one experiment. On failure no result is returned; a partial
// log artifact may remain on disk.
func (e *Experiment) Run(datasetPath string) (*RunResult, error) {
	start := time.Now()
	if err := e.cfg.Validate(); err != nil {
		return nil, err
	}

	var store *state.Store
	runID := ""
	if e.cfg.Output.DBPath != "" {
		s, err := state.NewStore(e.cfg.Output.DBPath)
		if err != nil {
			return nil, fmt.Errorf("open run store: %w", err)
		}
		defer s.Close()
		cfgJSON, err := json.Marshal(e.cfg)
		if err != nil {
			return nil, fmt.Errorf("marshal config: %w", err)
		}
		rec, err := s.CreateRun(datasetPath, string(cfgJSON))
		if err != nil {
			return nil, fmt.Errorf("create run: %w", err)
		}
		store, runID = s, rec.RunID
	}

	res, err := e.run(datasetPath, start, store, runID)
	if err != nil {
		if store != nil {
			if ferr := store.FailRun(runID, err); ferr != nil {
				e.logger.Printf("mark run %s failed: %v", runID, ferr)
			}
		}
		return nil, err
	}

	if store != nil {
		err := store.FinishRun(runID, state.RunSummary{
			QueryInput:     res.QueryInput,
			ElapsedSeconds: res.ElapsedSeconds,
			LogPath:        res.LogPath,
		})
		if err != nil {
			return nil, fmt.Errorf("finish run: %w", err)
		}
	}
	return res, nil
}

func (e *Experiment) run(datasetPath string, start time.Time, store *state.Store, runID string) (*RunResult, error) {
	enc, err := encoder.NewDateTimeEncoder(encoder.DefaultDateTimeConfig())
	if err != nil {
		return nil, err
	}

	e.logger.Printf("Reading CSV file %s", datasetPath)
	groups, err := corpus.ReadPowerConsumptionCSV(datasetPath, e.cfg.Format())
	if err != nil {
		return nil, fmt.Errorf("prepare data: %w", err)
	}
	seqs, err := corpus.Encode(groups, enc, e.cfg.Experiment.ValuePrecision)
	if err != nil {
		return nil, fmt.Errorf("prepare data: %w", err)
	}
	e.logger.Printf("Encoded %d sequences, %d events", len(seqs), seqs.NumEvents())

	ctl, err := e.buildController(enc.Width(), len(seqs))
	if err != nil {
		return nil, err
	}

	e.logger.Printf("Started learning")
	trained, err := ctl.Train(seqs)
	if err != nil {
		return nil, fmt.Errorf("train: %w", err)
	}
	e.logger.Printf("Done learning in %s", trained.Duration)

	art, err := logging.CreateArtifact(e.cfg.Output.LogDir, start)
	if err != nil {
		return nil, err
	}
	defer art.Close()
	if err := writeTrainingLog(art, trained); err != nil {
		return nil, err
	}
	if store != nil {
		if err := persistCycles(store, runID, trained.SequenceLogs); err != nil {
			return nil, err
		}
	}

	res := &RunResult{
		RunID:           runID,
		AccuracyHistory: trained.AccuracyHistory,
		Predictions:     []Prediction{},
		LogPath:         art.Path(),
		SequenceLogs:    trained.SequenceLogs,
		Stabilized:      trained.Stabilized,
		NewbornCycles:   trained.NewbornCycles,
		Engine:          trained.Engine,
		Encoder:         enc,
	}

	if err := e.query(res, art, store); err != nil {
		return nil, err
	}
	if err := art.Close(); err != nil {
		return nil, err
	}
	res.ElapsedSeconds = time.Since(start).Seconds()
	return res, nil
}

// #endregion experiment

// #region wiring
func (e *Experiment) buildController(inputBits, numSequences int) (*training.Controller, error) {
	sp, err := pooler.NewSpatialPooler(e.cfg.ToPoolerConfig(inputBits))
	if err != nil {
		return nil, fmt.Errorf("build pooler: %w", err)
	}
	e.logger.Printf("pooling layer: %d input bits -> %d columns", sp.InputBits(), sp.ColumnCount())
	tm, err := seqmem.NewTemporalMemory(e.cfg.ToTMConfig())
	if err != nil {
		return nil, fmt.Errorf("build sequence memory: %w", err)
	}
	mon := stability.NewMonitor(e.cfg.ToMonitorConfig(numSequences))
	cls := classifier.NewClassifier(e.cfg.ToClassifierConfig())

	ctl := training.NewController(e.cfg.ToControllerConfig(), sp, tm, mon, cls)
	ctl.SetLogger(e.logger)
	ctl.SetProgress(e.progress)
	return ctl, nil
}

// #endregion wiring

// #region query
// query predicts the labels following a random held-out date.
func (e *Experiment) query(res *RunResult, art *logging.Artifact, store *state.Store) error {
	from, to, err := e.cfg.QueryRange()
	if err != nil {
		return err
	}
	rng := rand.New(rand.NewSource(e.cfg.Experiment.Seed))
	q := RandomDate(rng, from, to)
	res.QueryInput = q.Format(QueryLayout)

	line := fmt.Sprintf("Random User Input Date: %s", res.QueryInput)
	e.logger.Print(line)
	if err := art.WriteLine(line); err != nil {
		return err
	}

	vec, err := res.Encoder.Encode(q)
	if err != nil {
		return fmt.Errorf("encode query: %w", err)
	}
	predicted, err := res.Engine.Infer(vec)
	if err != nil {
		return fmt.Errorf("query: %w", err)
	}

	if len(predicted) == 0 {
		e.logger.Print("Nothing predicted :(")
		return art.WriteLine("Nothing predicted :(")
	}
	for i, p := range predicted {
		res.Predictions = append(res.Predictions, Prediction{Similarity: p.Similarity, Label: p.PredictedInput, SameBits: p.NumOfSameBits})
		line := fmt.Sprintf("SIMILARITY: %g PREDICTED VALUE: %s", p.Similarity, p.PredictedInput)
		e.logger.Print(line)
		if err := art.WriteLine(line); err != nil {
			return err
		}
		if store != nil {
			err := logging.LogPrediction(store.DB(), logging.PredictionEntry{
				RunID:      res.RunID,
				Rank:       i + 1,
				Query:      res.QueryInput,
				Label:      p.PredictedInput,
				Similarity: p.Similarity,
				SameBits:   p.NumOfSameBits,
			})
			if err != nil {
				return err
			}
		}
	}
	return nil
}

// RandomDate returns a whole-hour instant in [from, to).
func RandomDate(rng *rand.Rand, from, to time.Time) time.Time {
	hours := int(to.Sub(from).Hours())
	if hours <= 0 {
		return from
	}
	return from.Add(time.Duration(rng.Intn(hours)) * time.Hour)
}

// #endregion query

// #region output
func writeTrainingLog(art *logging.Artifact, trained *training.TrainingResult) error {
	for _, seqLog := range trained.SequenceLogs {
		if err := art.BeginSequence(); err != nil {
			return err
		}
		for _, rec := range seqLog.Records {
			if err := art.WriteLine(rec.Message); err != nil {
				return err
			}
			if rec.StopMessage != "" {
				if err := art.WriteLine(rec.StopMessage); err != nil {
					return err
				}
			}
		}
		if err := art.EndSequence(); err != nil {
			return err
		}
	}
	return art.WriteElapsed(trained.Duration)
}

func persistCycles(store *state.Store, runID string, logs []training.SequenceLog) error {
	db := store.DB()
	for _, seqLog := range logs {
		for _, rec := range seqLog.Records {
			err := logging.LogCycle(db, logging.CycleEntry{
				RunID:                runID,
				SequenceIndex:        rec.SequenceIndex,
				SequenceName:         seqLog.Name,
				Cycle:                rec.Cycle,
				Matches:              rec.Matches,
				Length:               rec.Length,
				Accuracy:             rec.Accuracy,
				Saturated:            rec.Saturated,
				ConsecutiveSaturated: rec.ConsecutiveSaturated,
				Stopped:              rec.Stopped,
				Message:              rec.Message,
			})
			if err != nil {
				return err
			}
		}
	}
	return nil
}

// #endregion output
