package corpus

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/danielpatrickdp/multiseq-learning/internal/sdr"
)

type hourEncoder struct{}

func (hourEncoder) Encode(t time.Time) (sdr.Vector, error) {
	return sdr.Vector{t.Hour()}, nil
}

func TestParseLabel(t *testing.T) {
	label, err := ParseLabel("21.2,2010-07-01 00:00")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if label != "21.2" {
		t.Fatalf("expected 21.2, got %q", label)
	}
}

func TestParseLabel_Malformed(t *testing.T) {
	for _, key := range []string{"no-delimiter", ",2010-07-01", "  ,x", ""} {
		if _, err := ParseLabel(key); !errors.Is(err, ErrMalformedKey) {
			t.Errorf("key %q: expected ErrMalformedKey, got %v", key, err)
		}
	}
}

func TestValidate(t *testing.T) {
	if err := (MultiSequence{}).Validate(); !errors.Is(err, ErrEmptyCorpus) {
		t.Fatalf("expected ErrEmptyCorpus, got %v", err)
	}

	empty := MultiSequence{{Name: "s"}}
	if err := empty.Validate(); !errors.Is(err, ErrEmptySequence) {
		t.Fatalf("expected ErrEmptySequence, got %v", err)
	}

	bad := MultiSequence{{Name: "s", Events: []Event{{Key: "A,1"}, {Key: "broken"}}}}
	if err := bad.Validate(); !errors.Is(err, ErrMalformedKey) {
		t.Fatalf("expected ErrMalformedKey, got %v", err)
	}

	good := MultiSequence{{Name: "s", Events: []Event{{Key: "A,1"}, {Key: "B,2"}}}}
	if err := good.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if good.NumEvents() != 2 {
		t.Fatalf("expected 2 events, got %d", good.NumEvents())
	}
}

func TestSequenceFormatLength(t *testing.T) {
	for f, want := range map[SequenceFormat]int{ByMonth: 720, ByWeek: 168, ByDay: 24} {
		got, err := f.Length()
		if err != nil || got != want {
			t.Errorf("%s: expected %d, got %d (%v)", f, want, got, err)
		}
	}
	if _, err := SequenceFormat("byYear").Length(); !errors.Is(err, ErrUnknownFormat) {
		t.Fatalf("expected ErrUnknownFormat, got %v", err)
	}
}

func TestParseRows_SkipsHeader(t *testing.T) {
	in := "timestamp,value\n2010-07-01 00:00,21.2\n2010-07-01 01:00,19.05\n"
	rows, err := ParseRows(strings.NewReader(in))
	if err != nil {
		t.Fatalf("ParseRows: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(rows))
	}
	if rows[1].Value != 19.05 || rows[1].Timestamp.Hour() != 1 {
		t.Fatalf("unexpected second row: %+v", rows[1])
	}
}

func TestParseRows_MalformedBody(t *testing.T) {
	in := "2010-07-01 00:00,21.2\n2010-07-01 01:00,abc\n"
	if _, err := ParseRows(strings.NewReader(in)); !errors.Is(err, ErrMalformedRow) {
		t.Fatalf("expected ErrMalformedRow, got %v", err)
	}
}

func TestReadAndEncode(t *testing.T) {
	var b strings.Builder
	b.WriteString("timestamp,value\n")
	start := time.Date(2010, 7, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 50; i++ {
		ts := start.Add(time.Duration(i) * time.Hour)
		b.WriteString(ts.Format("2006-01-02 15:04") + ",1.25\n")
	}
	path := filepath.Join(t.TempDir(), "power.csv")
	if err := os.WriteFile(path, []byte(b.String()), 0o644); err != nil {
		t.Fatalf("write csv: %v", err)
	}

	groups, err := ReadPowerConsumptionCSV(path, ByDay)
	if err != nil {
		t.Fatalf("ReadPowerConsumptionCSV: %v", err)
	}
	if len(groups) != 3 || len(groups[0]) != 24 || len(groups[2]) != 2 {
		t.Fatalf("unexpected grouping: %d groups", len(groups))
	}

	ms, err := Encode(groups, hourEncoder{}, 1)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	if err := ms.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
	first := ms[0].Events[0]
	label, _ := first.Label()
	if label != "1.2" && label != "1.3" {
		t.Fatalf("unexpected label %q", label)
	}
	if !sdr.Equal(ms[0].Events[5].Vector, sdr.Vector{5}) {
		t.Fatalf("unexpected vector %v", ms[0].Events[5].Vector)
	}
}

func TestReadPowerConsumptionCSV_MissingFile(t *testing.T) {
	if _, err := ReadPowerConsumptionCSV(filepath.Join(t.TempDir(), "missing.csv"), ByWeek); err == nil {
		t.Fatal("expected error for missing file")
	}
}
