package classifier

import (
	"cmp"
	"slices"

	"github.com/danielpatrickdp/multiseq-learning/internal/sdr"
)

// #region classifier
// Classifier associates labels with the cell patterns observed alongside them.
// Associations accumulate until ClearState. Not safe for concurrent use.
type Classifier struct {
	config ClassifierConfig
	labels []*labelMemory
	index  map[string]*labelMemory
}

// NewClassifier creates an empty classifier.
func NewClassifier(config ClassifierConfig) *Classifier {
	if config.MaxPatternsPerLabel <= 0 {
		config.MaxPatternsPerLabel = DefaultClassifierConfig().MaxPatternsPerLabel
	}
	return &Classifier{
		config: config,
		index:  make(map[string]*labelMemory),
	}
}

// Learn stores cells under label unless an identical pattern is already stored.
// The oldest pattern is evicted once the label is full.
func (c *Classifier) Learn(label string, cells sdr.Vector) {
	mem, ok := c.index[label]
	if !ok {
		mem = &labelMemory{label: label}
		c.index[label] = mem
		c.labels = append(c.labels, mem)
	}
	for _, p := range mem.patterns {
		if sdr.Equal(p, cells) {
			return
		}
	}
	mem.patterns = append(mem.patterns, slices.Clone(cells))
	if over := len(mem.patterns) - c.config.MaxPatternsPerLabel; over > 0 {
		mem.patterns = mem.patterns[over:]
	}
}

// NumLabels returns the number of distinct labels learned.
func (c *Classifier) NumLabels() int { return len(c.labels) }

// ClearState forgets every association.
func (c *Classifier) ClearState() {
	c.labels = nil
	c.index = make(map[string]*labelMemory)
}

// #endregion classifier

// #region predict
// Predict ranks labels by the best similarity between any of their patterns and cells.
// Labels with no overlapping bit are omitted; at most topK results are returned.
func (c *Classifier) Predict(cells sdr.Vector, topK int) []Result {
	if len(cells) == 0 || topK <= 0 {
		return nil
	}

	var results []Result
	for _, mem := range c.labels {
		best := Result{PredictedInput: mem.label}
		for _, p := range mem.patterns {
			same := sdr.Overlap(p, cells)
			if same == 0 {
				continue
			}
			sim := 100 * float64(same) / float64(max(len(p), len(cells)))
			if sim > best.Similarity || (sim == best.Similarity && same > best.NumOfSameBits) {
				best.Similarity = sim
				best.NumOfSameBits = same
			}
		}
		if best.NumOfSameBits > 0 {
			results = append(results, best)
		}
	}

	slices.SortFunc(results, func(a, b Result) int {
		if a.Similarity != b.Similarity {
			return cmp.Compare(b.Similarity, a.Similarity)
		}
		if a.NumOfSameBits != b.NumOfSameBits {
			return cmp.Compare(b.NumOfSameBits, a.NumOfSameBits)
		}
		return cmp.Compare(a.PredictedInput, b.PredictedInput)
	})
	return results[:min(topK, len(results))]
}

// #endregion predict
