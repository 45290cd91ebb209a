package logging

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

const (
	sequenceStart = "******Sequence Starting*****"
	sequenceEnd   = "****Sequence Ending*****"
)

// #region artifact
// Artifact is the plain-text run log: a name line, one section per sequence, then summaries.
type Artifact struct {
	path   string
	file   *os.File
	w      *bufio.Writer
	inSeq  bool
	closed bool
}

// ArtifactName derives the run log file name from the run start time.
func ArtifactName(now time.Time) string {
	return fmt.Sprintf("PowerConsumptionPredictionExperiment_%s_%d.txt", now.Format("122006"), now.UnixNano())
}

// CreateArtifact creates dir if needed and opens a new artifact named after now.
func CreateArtifact(dir string, now time.Time) (*Artifact, error) {
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create log dir: %w", err)
	}
	name := ArtifactName(now)
	path, err := filepath.Abs(filepath.Join(dir, name))
	if err != nil {
		return nil, fmt.Errorf("resolve log path: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("create log: %w", err)
	}
	a := &Artifact{path: path, file: f, w: bufio.NewWriter(f)}
	if err := a.WriteLine(name); err != nil {
		f.Close()
		return nil, err
	}
	return a, nil
}

// Path returns the absolute artifact path.
func (a *Artifact) Path() string { return a.path }

// BeginSequence opens a sequence section.
func (a *Artifact) BeginSequence() error {
	if a.inSeq {
		return fmt.Errorf("write log: sequence section already open")
	}
	a.inSeq = true
	return a.WriteLine(sequenceStart)
}

// EndSequence closes the open sequence section.
func (a *Artifact) EndSequence() error {
	if !a.inSeq {
		return fmt.Errorf("write log: no sequence section open")
	}
	a.inSeq = false
	return a.WriteLine(sequenceEnd)
}

// WriteLine appends one line.
func (a *Artifact) WriteLine(line string) error {
	if a.closed {
		return fmt.Errorf("write log: artifact closed")
	}
	if _, err := a.w.WriteString(line + "\n"); err != nil {
		return fmt.Errorf("write log: %w", err)
	}
	return nil
}

// WriteElapsed appends the training time summary line.
func (a *Artifact) WriteElapsed(d time.Duration) error {
	return a.WriteLine(ElapsedSummary(d))
}

// Close flushes and closes the file. Safe to call twice.
func (a *Artifact) Close() error {
	if a.closed {
		return nil
	}
	a.closed = true
	if err := a.w.Flush(); err != nil {
		a.file.Close()
		return fmt.Errorf("flush log: %w", err)
	}
	return a.file.Close()
}

// #endregion artifact

// #region summary
// ElapsedSummary formats a training duration for the artifact.
func ElapsedSummary(d time.Duration) string {
	return fmt.Sprintf("Training Time : %g total minutes and %d seconds", d.Minutes(), int(d.Seconds())%60)
}

// #endregion summary
