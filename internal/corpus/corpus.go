package corpus

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/danielpatrickdp/multiseq-learning/internal/encoder"
)

// #region parse-label
// ParseLabel returns the text before the first delimiter of key.
// Keys without a delimiter or with an empty label are rejected.
func ParseLabel(key string) (string, error) {
	label, _, found := strings.Cut(key, KeyDelimiter)
	if !found {
		return "", fmt.Errorf("%w: %q has no %q delimiter", ErrMalformedKey, key, KeyDelimiter)
	}
	if strings.TrimSpace(label) == "" {
		return "", fmt.Errorf("%w: %q has an empty label", ErrMalformedKey, key)
	}
	return label, nil
}

// #endregion parse-label

// #region validate
// Validate checks the corpus is non-empty, each sequence is non-empty and every key parses.
func (m MultiSequence) Validate() error {
	if len(m) == 0 {
		return ErrEmptyCorpus
	}
	for i, seq := range m {
		if seq.Len() == 0 {
			return fmt.Errorf("sequence %d (%s): %w", i, seq.Name, ErrEmptySequence)
		}
		for j, ev := range seq.Events {
			if _, err := ev.Label(); err != nil {
				return fmt.Errorf("sequence %d event %d: %w", i, j, err)
			}
		}
	}
	return nil
}

// NumEvents returns the total event count across sequences.
func (m MultiSequence) NumEvents() int {
	n := 0
	for _, s := range m {
		n += s.Len()
	}
	return n
}

// #endregion validate

// #region read-csv
// ReadPowerConsumptionCSV reads "timestamp,value" rows from path and groups
// consecutive rows into sequences of format.Length() rows.
func ReadPowerConsumptionCSV(path string, format SequenceFormat) ([][]Row, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open dataset %s: %w", path, err)
	}
	defer f.Close()

	rows, err := ParseRows(f)
	if err != nil {
		return nil, fmt.Errorf("parse dataset %s: %w", path, err)
	}
	return GroupRows(rows, format)
}

// ParseRows parses CSV records. A first record that does not parse is treated as a header.
func ParseRows(r io.Reader) ([]Row, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	var rows []Row
	line := 0
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read csv: %w", err)
		}
		line++
		if len(rec) < 2 {
			return nil, fmt.Errorf("%w: line %d has %d fields", ErrMalformedRow, line, len(rec))
		}
		ts, tErr := encoder.ParseTime(rec[0])
		val, vErr := strconv.ParseFloat(strings.TrimSpace(rec[1]), 64)
		if tErr != nil || vErr != nil {
			if line == 1 {
				continue
			}
			return nil, fmt.Errorf("%w: line %d: %q", ErrMalformedRow, line, strings.Join(rec, ","))
		}
		rows = append(rows, Row{Timestamp: ts, RawTime: strings.TrimSpace(rec[0]), Value: val})
	}
	return rows, nil
}

// GroupRows chunks rows into sequences; a trailing partial chunk is kept.
func GroupRows(rows []Row, format SequenceFormat) ([][]Row, error) {
	size, err := format.Length()
	if err != nil {
		return nil, fmt.Errorf("%w: %q", err, format)
	}
	var groups [][]Row
	for start := 0; start < len(rows); start += size {
		end := min(start+size, len(rows))
		groups = append(groups, rows[start:end])
	}
	return groups, nil
}

// #endregion read-csv

// #region encode
// Encode turns grouped rows into a MultiSequence. Labels are values rounded
// to precision decimals; vectors come from enc applied to the timestamp.
func Encode(groups [][]Row, enc TimeEncoder, precision int) (MultiSequence, error) {
	ms := make(MultiSequence, 0, len(groups))
	for i, g := range groups {
		seq := Sequence{Name: fmt.Sprintf("sequence-%d", i+1), Events: make([]Event, 0, len(g))}
		if len(g) > 0 {
			seq.Name = fmt.Sprintf("%s..%s", g[0].RawTime, g[len(g)-1].RawTime)
		}
		for _, row := range g {
			vec, err := enc.Encode(row.Timestamp)
			if err != nil {
				return nil, fmt.Errorf("encode %s: %w", row.RawTime, err)
			}
			label := strconv.FormatFloat(row.Value, 'f', precision, 64)
			seq.Events = append(seq.Events, Event{
				Key:    label + KeyDelimiter + row.RawTime,
				Vector: vec,
			})
		}
		ms = append(ms, seq)
	}
	return ms, nil
}

// #endregion encode
