package encoder

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/danielpatrickdp/multiseq-learning/internal/sdr"
)

var ErrUnparseableTime = errors.New("unparseable date/time")

// #region scalar
// ScalarEncoder sets a block of ActiveBits consecutive bits positioned by the value.
type ScalarEncoder struct {
	cfg ScalarConfig
}

// NewScalarEncoder validates cfg and returns an encoder.
func NewScalarEncoder(cfg ScalarConfig) (*ScalarEncoder, error) {
	switch {
	case cfg.Width <= 0:
		return nil, fmt.Errorf("scalar encoder %q: width must be positive", cfg.Name)
	case cfg.ActiveBits <= 0 || cfg.ActiveBits > cfg.Width:
		return nil, fmt.Errorf("scalar encoder %q: active bits must be in [1,%d]", cfg.Name, cfg.Width)
	case cfg.Max <= cfg.Min:
		return nil, fmt.Errorf("scalar encoder %q: max must exceed min", cfg.Name)
	}
	return &ScalarEncoder{cfg: cfg}, nil
}

// Width returns the total bit count.
func (e *ScalarEncoder) Width() int { return e.cfg.Width }

// Encode returns the active bits for v. Non-periodic values outside [Min,Max] are clipped.
func (e *ScalarEncoder) Encode(v float64) (sdr.Vector, error) {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil, fmt.Errorf("scalar encoder %q: non-finite value", e.cfg.Name)
	}
	span := e.cfg.Max - e.cfg.Min
	bits := make([]int, 0, e.cfg.ActiveBits)

	if e.cfg.Periodic {
		pos := (v - e.cfg.Min) / span
		pos -= math.Floor(pos)
		start := int(pos*float64(e.cfg.Width)) % e.cfg.Width
		for i := 0; i < e.cfg.ActiveBits; i++ {
			bits = append(bits, (start+i)%e.cfg.Width)
		}
		return sdr.Normalize(bits), nil
	}

	clipped := math.Min(math.Max(v, e.cfg.Min), e.cfg.Max)
	buckets := e.cfg.Width - e.cfg.ActiveBits
	start := int(math.Round((clipped - e.cfg.Min) / span * float64(buckets)))
	for i := 0; i < e.cfg.ActiveBits; i++ {
		bits = append(bits, start+i)
	}
	return sdr.Normalize(bits), nil
}
// #endregion scalar

// #region datetime
// DateTimeEncoder concatenates month, day, weekday and hour sub-encodings.
type DateTimeEncoder struct {
	parts []*ScalarEncoder
	width int
}

// NewDateTimeEncoder builds the sub-encoders described by cfg.
func NewDateTimeEncoder(cfg DateTimeConfig) (*DateTimeEncoder, error) {
	e := &DateTimeEncoder{}
	for _, c := range []ScalarConfig{cfg.Month, cfg.Day, cfg.Weekday, cfg.Hour} {
		s, err := NewScalarEncoder(c)
		if err != nil {
			return nil, fmt.Errorf("datetime encoder: %w", err)
		}
		e.parts = append(e.parts, s)
		e.width += s.Width()
	}
	return e, nil
}

// Width returns the concatenated bit count.
func (e *DateTimeEncoder) Width() int { return e.width }

// Encode maps t into the concatenated sparse representation.
func (e *DateTimeEncoder) Encode(t time.Time) (sdr.Vector, error) {
	values := []float64{
		float64(t.Month()),
		float64(t.Day()),
		float64(t.Weekday()),
		float64(t.Hour()) + float64(t.Minute())/60,
	}
	var out []int
	offset := 0
	for i, part := range e.parts {
		bits, err := part.Encode(values[i])
		if err != nil {
			return nil, err
		}
		for _, b := range bits {
			out = append(out, b+offset)
		}
		offset += part.Width()
	}
	return sdr.Normalize(out), nil
}

// EncodeString parses raw with the accepted layouts and encodes it.
func (e *DateTimeEncoder) EncodeString(raw string) (sdr.Vector, error) {
	t, err := ParseTime(raw)
	if err != nil {
		return nil, err
	}
	return e.Encode(t)
}
// #endregion datetime

// #region parse-time
var layouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02T15:04:05",
	"2006-01-02",
	"1/2/2006 3:04:05 PM",
	"1/2/2006 15:04:05",
	"1/2/2006 15:04",
	"02.01.2006 15:04:05",
	"02.01.2006 15:04",
}

// ParseTime tries each accepted layout in order.
func ParseTime(raw string) (time.Time, error) {
	s := strings.TrimSpace(raw)
	for _, layout := range layouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: %q", ErrUnparseableTime, raw)
}
// #endregion parse-time
