// Package progress reports the advance of long running loops.
package progress

import (
	"io"
	"sync"
	"time"

	"github.com/vbauerster/mpb/v8"
	"github.com/vbauerster/mpb/v8/decor"
)

// Bar tracks one loop.
type Bar interface {
	// Increment advances the bar by one item that took elapsed.
	Increment(elapsed time.Duration)
	// SetMessage replaces the text shown after the counters.
	SetMessage(msg string)
	// Done completes the bar even if fewer items than announced were seen.
	Done()
}

// Reporter creates bars.
type Reporter interface {
	NewBar(name string, total int) Bar
	// Wait blocks until every bar has been rendered for the last time.
	Wait()
}

// Nop discards all progress.
type Nop struct{}

func (Nop) NewBar(string, int) Bar { return nopBar{} }
func (Nop) Wait()                  {}

type nopBar struct{}

func (nopBar) Increment(time.Duration) {}
func (nopBar) SetMessage(string)       {}
func (nopBar) Done()                   {}

// Terminal draws mpb bars.
type Terminal struct {
	p *mpb.Progress
}

// NewTerminal draws bars on w.
func NewTerminal(w io.Writer) *Terminal {
	return &Terminal{p: mpb.New(mpb.WithWidth(64), mpb.WithOutput(w))}
}

func (t *Terminal) NewBar(name string, total int) Bar {
	b := &bar{}
	b.bar = t.p.AddBar(int64(total),
		mpb.PrependDecorators(
			decor.Name(name+": "),
			decor.CountersNoUnit("%d / %d"),
		),
		mpb.AppendDecorators(
			decor.EwmaETA(decor.ET_STYLE_GO, 30),
			decor.Name(" "),
			decor.Any(b.message),
		),
	)
	return b
}

func (t *Terminal) Wait() {
	t.p.Wait()
}

type bar struct {
	bar *mpb.Bar

	mu  sync.Mutex
	msg string
}

func (b *bar) Increment(elapsed time.Duration) {
	b.bar.EwmaIncrement(elapsed)
}

func (b *bar) SetMessage(msg string) {
	b.mu.Lock()
	b.msg = msg
	b.mu.Unlock()
}

func (b *bar) message(decor.Statistics) string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.msg
}

// Done aborts a bar that stopped short of its total, so that Wait returns.
// Abort leaves an already completed bar alone.
func (b *bar) Done() {
	b.bar.Abort(false)
}
