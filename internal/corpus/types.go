package corpus

import (
	"errors"
	"time"

	"github.com/danielpatrickdp/multiseq-learning/internal/sdr"
)

// #region errors
var (
	ErrMalformedKey  = errors.New("malformed event key")
	ErrEmptySequence = errors.New("empty sequence")
	ErrEmptyCorpus   = errors.New("empty corpus")
	ErrUnknownFormat = errors.New("unknown sequence format")
	ErrMalformedRow  = errors.New("malformed csv row")
)

// #endregion errors

// #region event
// KeyDelimiter separates the label from the rest of an event key.
const KeyDelimiter = ","

// Event is one labelled observation. Key is "<label>,<context>".
type Event struct {
	Key    string
	Vector sdr.Vector
}

// Label returns the label part of the key, failing on malformed keys.
func (e Event) Label() (string, error) {
	return ParseLabel(e.Key)
}

// #endregion event

// #region sequence
// Sequence is an ordered run of events trained as one unit.
type Sequence struct {
	Name   string
	Events []Event
}

// Len returns the number of events.
func (s Sequence) Len() int { return len(s.Events) }

// MultiSequence is the full training corpus in order.
type MultiSequence []Sequence

// #endregion sequence

// #region formats
// SequenceFormat names how consecutive hourly rows are grouped into sequences.
type SequenceFormat string

const (
	ByMonth SequenceFormat = "byMonth"
	ByWeek  SequenceFormat = "byWeek"
	ByDay   SequenceFormat = "byDay"
)

// Length returns the number of rows per sequence for the format.
func (f SequenceFormat) Length() (int, error) {
	switch f {
	case ByMonth:
		return 720, nil
	case ByWeek:
		return 168, nil
	case ByDay:
		return 24, nil
	}
	return 0, ErrUnknownFormat
}

// #endregion formats

// #region raw-row
// Row is one parsed line of a power consumption CSV.
type Row struct {
	Timestamp time.Time
	RawTime   string
	Value     float64
}

// #endregion raw-row

// #region time-encoder
// TimeEncoder turns a timestamp into the sparse input vector.
type TimeEncoder interface {
	Encode(t time.Time) (sdr.Vector, error)
}

// #endregion time-encoder
