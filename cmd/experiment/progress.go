package main

import (
	"fmt"

	"github.com/danielpatrickdp/multiseq-learning/internal/training"
	"github.com/vbauerster/mpb/v8"
	"github.com/vbauerster/mpb/v8/decor"
)

// #region progress
// barProgress renders one bar per sequence. A bar's total is MaxCycles and
// shrinks to the executed count when saturation stops the sequence early.
type barProgress struct {
	p   *mpb.Progress
	bar *mpb.Bar
}

func newBarProgress() *barProgress {
	return &barProgress{p: mpb.New(mpb.WithWidth(80))}
}

func (b *barProgress) BeginSequence(index int, name string, maxCycles int) {
	b.bar = b.p.AddBar(int64(maxCycles),
		mpb.PrependDecorators(
			decor.Name(fmt.Sprintf("Sequence %d (%s): ", index, name)),
			decor.CountersNoUnit("%d / %d", decor.WCSyncSpace),
		),
		mpb.AppendDecorators(
			decor.OnComplete(decor.Percentage(decor.WC{W: 5}), "done!"),
		),
	)
}

func (b *barProgress) CycleDone(_ int, _ training.CycleRecord) {
	if b.bar != nil {
		b.bar.Increment()
	}
}

func (b *barProgress) EndSequence(_ int, cycles int) {
	if b.bar != nil {
		b.bar.SetTotal(int64(cycles), true)
	}
}

// wait flushes the bars. A bar left open by a failed run is aborted first.
func (b *barProgress) wait() {
	if b.bar != nil && !b.bar.Completed() {
		b.bar.Abort(false)
	}
	b.p.Wait()
}

// #endregion progress
