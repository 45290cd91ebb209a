package training

import (
	"errors"
	"fmt"
	"io"
	"log"
	"slices"
	"testing"

	"github.com/danielpatrickdp/multiseq-learning/internal/classifier"
	"github.com/danielpatrickdp/multiseq-learning/internal/corpus"
	"github.com/danielpatrickdp/multiseq-learning/internal/pooler"
	"github.com/danielpatrickdp/multiseq-learning/internal/sdr"
	"github.com/danielpatrickdp/multiseq-learning/internal/seqmem"
	"github.com/danielpatrickdp/multiseq-learning/internal/stability"
)

// #region fakes
type recordingPooler struct {
	learn []bool
	err   error
}

func (p *recordingPooler) Compute(input sdr.Vector, learn bool) (sdr.Vector, error) {
	p.learn = append(p.learn, learn)
	return input, p.err
}

// scriptedMemory echoes columns as cells and, from cycle learnAfter on, predicts
// the next element of the sequence the input belongs to.
type scriptedMemory struct {
	next       map[string]sdr.Vector
	learnAfter map[string]int
	skip       map[int]bool
	seen       map[string]int
	calls      int
	resets     int
}

func newScriptedMemory() *scriptedMemory {
	return &scriptedMemory{
		next:       make(map[string]sdr.Vector),
		learnAfter: make(map[string]int),
		skip:       make(map[int]bool),
		seen:       make(map[string]int),
	}
}

// script registers seq so that it is predicted perfectly from cycle learnAfter.
func (m *scriptedMemory) script(seq corpus.Sequence, learnAfter int) {
	for i, ev := range seq.Events {
		m.learnAfter[ev.Vector.Key()] = learnAfter
		if i+1 < seq.Len() {
			m.next[ev.Vector.Key()] = seq.Events[i+1].Vector
		}
	}
}

func (m *scriptedMemory) Compute(cols sdr.Vector, _ bool) (seqmem.Output, error) {
	m.calls++
	key := cols.Key()
	cycle := m.seen[key]
	m.seen[key]++

	out := seqmem.Output{ActiveCells: cols, WinnerCells: cols}
	after, ok := m.learnAfter[key]
	if ok && cycle >= after && !m.skip[cycle] {
		out.PredictiveCells = m.next[key]
	}
	return out, nil
}

func (m *scriptedMemory) Reset() { m.resets++ }

// scriptedMonitor reports the given state at the n-th observation.
type scriptedMonitor struct {
	at       int
	state    stability.State
	observed int
	pending  bool
}

func (m *scriptedMonitor) Observe(_, _ sdr.Vector) {
	m.observed++
	m.pending = m.observed == m.at
}

func (m *scriptedMonitor) Poll() (stability.State, bool) {
	r := m.pending
	m.pending = false
	if m.observed >= m.at && m.at > 0 {
		return m.state, r
	}
	return stability.State{}, r
}

type recordingProgress struct {
	begun, cycles, ended int
	endCycles            []int
}

func (p *recordingProgress) BeginSequence(int, string, int) { p.begun++ }
func (p *recordingProgress) CycleDone(int, CycleRecord)      { p.cycles++ }
func (p *recordingProgress) EndSequence(_ int, cycles int) {
	p.ended++
	p.endCycles = append(p.endCycles, cycles)
}

// #endregion fakes

// #region helpers
func makeCorpus(numSeqs, length int) corpus.MultiSequence {
	var m corpus.MultiSequence
	for s := range numSeqs {
		seq := corpus.Sequence{Name: fmt.Sprintf("seq-%d", s)}
		for j := range length {
			seq.Events = append(seq.Events, corpus.Event{
				Key:    fmt.Sprintf("s%de%d,2010-01-01 %02d:00", s, j, j%24),
				Vector: sdr.Vector{s*1000 + j},
			})
		}
		m = append(m, seq)
	}
	return m
}

func quietController(config ControllerConfig, p *recordingPooler, mem *scriptedMemory, mon StabilityMonitor) *Controller {
	c := NewController(config, p, mem, mon, classifier.NewClassifier(classifier.DefaultClassifierConfig()))
	c.SetLogger(log.New(io.Discard, "", 0))
	return c
}

func config(maxCycles int) ControllerConfig {
	cfg := DefaultControllerConfig()
	cfg.MaxCycles = maxCycles
	return cfg
}

// #endregion helpers

func TestTrain_StabilizationStopsOnStable(t *testing.T) {
	seqs := makeCorpus(2, 4)
	p := &recordingPooler{}
	mem := newScriptedMemory()
	mon := &scriptedMonitor{at: 5, state: stability.State{IsStable: true, NumPatterns: 5, SeenInputs: 5}}

	res, err := quietController(config(3), p, mem, mon).Train(seqs)
	if err != nil {
		t.Fatalf("Train: %v", err)
	}

	if !res.Stabilized || res.NewbornCycles != 1 {
		t.Fatalf("expected stable after 1 newborn cycle, got stabilized=%t cycles=%d", res.Stabilized, res.NewbornCycles)
	}
	stabilizing := len(p.learn) - mem.calls
	if stabilizing != 5 {
		t.Fatalf("expected 5 stabilization computes, got %d", stabilizing)
	}
	for i, l := range p.learn {
		if !l {
			t.Fatalf("compute %d ran without learning", i)
		}
	}
}

func TestTrain_UnstableLearnFlagCarriesIntoJointPhase(t *testing.T) {
	seqs := makeCorpus(2, 3)
	p := &recordingPooler{}
	mem := newScriptedMemory()
	mon := &scriptedMonitor{at: 1, state: stability.State{IsStable: false, NumPatterns: 1, SeenInputs: 1}}

	res, err := quietController(config(2), p, mem, mon).Train(seqs)
	if err != nil {
		t.Fatalf("Train: %v", err)
	}
	if res.Stabilized || res.NewbornCycles != 2 {
		t.Fatalf("expected 2 unstable newborn cycles, got stabilized=%t cycles=%d", res.Stabilized, res.NewbornCycles)
	}

	// 2 newborn cycles x 6 events, then 2 cycles x 3 events per sequence.
	if len(p.learn) != 12+6+6 {
		t.Fatalf("unexpected compute count %d", len(p.learn))
	}
	for i := 0; i < 12; i++ {
		if !p.learn[i] {
			t.Fatalf("stabilization compute %d must always learn", i)
		}
	}
	for i := 12; i < 18; i++ {
		if p.learn[i] {
			t.Fatalf("first sequence compute %d should inherit learn=false", i)
		}
	}
	for i := 18; i < 24; i++ {
		if !p.learn[i] {
			t.Fatalf("second sequence compute %d should learn after re-enable", i)
		}
	}
	if mem.resets != 2 {
		t.Fatalf("expected one reset per sequence, got %d", mem.resets)
	}
}

func TestTrain_SaturationStopsAtThirtiethCycle(t *testing.T) {
	seqs := makeCorpus(3, 24)
	mem := newScriptedMemory()
	mem.script(seqs[0], 5)
	progress := &recordingProgress{}

	c := quietController(config(35), &recordingPooler{}, mem, &scriptedMonitor{})
	c.SetProgress(progress)
	res, err := c.Train(seqs)
	if err != nil {
		t.Fatalf("Train: %v", err)
	}

	first := res.SequenceLogs[0]
	if first.Cycles() != 35 {
		t.Fatalf("expected 35 cycles for the learnt sequence, got %d", first.Cycles())
	}
	last := first.Records[len(first.Records)-1]
	if !last.Stopped || last.ConsecutiveSaturated != 30 || last.StopMessage == "" {
		t.Fatalf("expected stop on the 30th saturated cycle, got %+v", last)
	}
	for _, rec := range first.Records[:5] {
		if rec.Saturated || rec.Accuracy != 0 {
			t.Fatalf("cycle %d should be unsaturated, got %+v", rec.Cycle, rec)
		}
	}
	if !first.Records[5].Saturated {
		t.Fatalf("cycle 5 should be saturated, got %+v", first.Records[5])
	}

	for _, l := range res.SequenceLogs[1:] {
		if l.Cycles() != 35 {
			t.Fatalf("sequence %d: expected maxCycles, got %d", l.Index, l.Cycles())
		}
	}

	var want []float64
	for _, l := range res.SequenceLogs {
		for _, rec := range l.Records {
			want = append(want, rec.Accuracy)
		}
	}
	if len(res.AccuracyHistory) != 105 || !slices.Equal(res.AccuracyHistory, want) {
		t.Fatalf("accuracy history must hold one entry per executed cycle in order, got %d", len(res.AccuracyHistory))
	}
	if progress.begun != 3 || progress.ended != 3 || progress.cycles != 105 {
		t.Fatalf("unexpected progress calls %+v", progress)
	}
}

func TestTrain_SaturationStopsBeforeMaxCycles(t *testing.T) {
	seqs := makeCorpus(1, 24)
	mem := newScriptedMemory()
	mem.script(seqs[0], 2)

	res, err := quietController(config(50), &recordingPooler{}, mem, &scriptedMonitor{}).Train(seqs)
	if err != nil {
		t.Fatalf("Train: %v", err)
	}
	if got := res.SequenceLogs[0].Cycles(); got != 32 {
		t.Fatalf("expected stop after 2+30 cycles, got %d", got)
	}
}

func TestTrain_SaturationCountRestartsPerSequence(t *testing.T) {
	seqs := makeCorpus(2, 24)
	mem := newScriptedMemory()
	mem.script(seqs[0], 10)
	mem.script(seqs[1], 0)

	res, err := quietController(config(35), &recordingPooler{}, mem, &scriptedMonitor{}).Train(seqs)
	if err != nil {
		t.Fatalf("Train: %v", err)
	}
	first := res.SequenceLogs[0].Records
	if len(first) != 35 || first[34].ConsecutiveSaturated != 25 || first[34].Stopped {
		t.Fatalf("expected sequence 0 to end unstopped with 25 saturated cycles, got %+v", first[len(first)-1])
	}
	second := res.SequenceLogs[1].Records
	if second[0].ConsecutiveSaturated != 1 {
		t.Fatalf("expected the count to restart at sequence 1, got %d", second[0].ConsecutiveSaturated)
	}
	if len(second) != 30 || !second[29].Stopped {
		t.Fatalf("expected sequence 1 to stop after 30 of its own cycles, got %d", len(second))
	}
}

func TestTrain_AccuracyDropResetsSaturation(t *testing.T) {
	seqs := makeCorpus(1, 24)
	mem := newScriptedMemory()
	mem.script(seqs[0], 5)
	mem.skip[10] = true

	res, err := quietController(config(60), &recordingPooler{}, mem, &scriptedMonitor{}).Train(seqs)
	if err != nil {
		t.Fatalf("Train: %v", err)
	}
	recs := res.SequenceLogs[0].Records
	if recs[10].Saturated || recs[10].ConsecutiveSaturated != 0 {
		t.Fatalf("cycle 10 should reset saturation, got %+v", recs[10])
	}
	if recs[9].ConsecutiveSaturated != 5 {
		t.Fatalf("expected 5 saturated cycles before the drop, got %d", recs[9].ConsecutiveSaturated)
	}
	if len(recs) != 41 {
		t.Fatalf("expected stop at cycle 40, got %d cycles", len(recs))
	}
}

func TestTrain_MalformedKeyFailsFast(t *testing.T) {
	seqs := makeCorpus(1, 3)
	seqs[0].Events[1].Key = "no-delimiter"
	p := &recordingPooler{}

	_, err := quietController(config(5), p, newScriptedMemory(), &scriptedMonitor{}).Train(seqs)
	if !errors.Is(err, corpus.ErrMalformedKey) {
		t.Fatalf("expected ErrMalformedKey, got %v", err)
	}
	if len(p.learn) != 0 {
		t.Fatal("expected no learning before the malformed key was rejected")
	}
}

func TestTrain_CollaboratorErrorPropagates(t *testing.T) {
	boom := errors.New("boom")
	p := &recordingPooler{err: boom}

	res, err := quietController(config(5), p, newScriptedMemory(), &scriptedMonitor{}).Train(makeCorpus(1, 3))
	if !errors.Is(err, boom) {
		t.Fatalf("expected collaborator error, got %v", err)
	}
	if res != nil {
		t.Fatal("expected no partial result on failure")
	}
}

func TestTrain_EngineDetachesMonitor(t *testing.T) {
	seqs := makeCorpus(1, 4)
	mem := newScriptedMemory()
	mem.script(seqs[0], 0)
	mon := &scriptedMonitor{}

	res, err := quietController(config(3), &recordingPooler{}, mem, mon).Train(seqs)
	if err != nil {
		t.Fatalf("Train: %v", err)
	}
	before := mon.observed
	preds, err := res.Engine.Infer(seqs[0].Events[0].Vector)
	if err != nil {
		t.Fatalf("Infer: %v", err)
	}
	if mon.observed != before {
		t.Fatal("inference must not feed the stability monitor")
	}
	if len(preds) == 0 || preds[0].PredictedInput != "s0e1" {
		t.Fatalf("expected s0e1 as next label, got %+v", preds)
	}
}

func TestTrain_LastPredictionCarriesAcrossSequences(t *testing.T) {
	seqs := makeCorpus(2, 3)
	mem := newScriptedMemory()
	mem.script(seqs[0], 0)
	// the last element of sequence 0 predicts its first element
	mem.next[seqs[0].Events[2].Vector.Key()] = seqs[0].Events[0].Vector
	seqs[1].Events[0].Key = "s0e0,2010-01-01 00:00"

	res, err := quietController(config(2), &recordingPooler{}, mem, &scriptedMonitor{}).Train(seqs)
	if err != nil {
		t.Fatalf("Train: %v", err)
	}
	if got := res.SequenceLogs[0].Records[1].Matches; got != 3 {
		t.Fatalf("expected sequence 0 to match every element in cycle 1, got %d", got)
	}
	if got := res.SequenceLogs[1].Records[0].Matches; got != 1 {
		t.Fatalf("expected the prediction from sequence 0 to match sequence 1's first element, got %d matches", got)
	}
}

func TestTrain_RealCollaborators(t *testing.T) {
	seqs := corpus.MultiSequence{
		{Name: "a", Events: []corpus.Event{
			{Key: "1.0,t0", Vector: sdr.Vector{0, 1, 2, 3, 4}},
			{Key: "2.0,t1", Vector: sdr.Vector{10, 11, 12, 13, 14}},
			{Key: "3.0,t2", Vector: sdr.Vector{20, 21, 22, 23, 24}},
		}},
		{Name: "b", Events: []corpus.Event{
			{Key: "4.0,t3", Vector: sdr.Vector{30, 31, 32, 33, 34}},
			{Key: "5.0,t4", Vector: sdr.Vector{40, 41, 42, 43, 44}},
		}},
	}

	spCfg := pooler.DefaultPoolerConfig()
	spCfg.InputBits = 64
	spCfg.ColumnCount = 128
	spCfg.ActiveColumns = 8
	sp, err := pooler.NewSpatialPooler(spCfg)
	if err != nil {
		t.Fatalf("NewSpatialPooler: %v", err)
	}

	tmCfg := seqmem.DefaultTMConfig()
	tmCfg.ColumnCount = 128
	tmCfg.CellsPerColumn = 4
	tmCfg.ActivationThreshold = 4
	tmCfg.MinThreshold = 3
	tm, err := seqmem.NewTemporalMemory(tmCfg)
	if err != nil {
		t.Fatalf("NewTemporalMemory: %v", err)
	}

	mon := stability.NewMonitor(stability.MonitorConfig{RequiredInputs: 5, WaitCycles: 5, RequiredSimilarity: 0.97})
	c := NewController(config(6), sp, tm, mon, classifier.NewClassifier(classifier.DefaultClassifierConfig()))
	c.SetLogger(log.New(io.Discard, "", 0))

	res, err := c.Train(seqs)
	if err != nil {
		t.Fatalf("Train: %v", err)
	}
	if res.Engine == nil {
		t.Fatal("expected a trained engine")
	}
	total := 0
	for _, l := range res.SequenceLogs {
		total += l.Cycles()
		for _, rec := range l.Records {
			if rec.Accuracy < 0 || rec.Accuracy > 100 {
				t.Fatalf("accuracy out of range: %+v", rec)
			}
		}
	}
	if total != len(res.AccuracyHistory) {
		t.Fatalf("history %d != executed cycles %d", len(res.AccuracyHistory), total)
	}
	if _, err := res.Engine.Infer(seqs[0].Events[0].Vector); err != nil {
		t.Fatalf("Infer: %v", err)
	}
}
