// Package progress renders transient stderr progress for long scans.
// A nil *Tracker is a valid no-op, so callers thread one through
// unconditionally and only construct it when output is wanted.
package progress

import (
	"fmt"
	"os"
	"sync"

	"github.com/schollz/progressbar/v3"
)

// Tracker drives one progress bar or spinner.
type Tracker struct {
	bar   *progressbar.ProgressBar
	label string
}

// NewTracker returns a counted bar for work with a known total.
func NewTracker(label string, total int) *Tracker {
	bar := progressbar.NewOptions(total,
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionShowCount(),
		progressbar.OptionSetWidth(30),
		progressbar.OptionSetDescription(label),
		progressbar.OptionUseANSICodes(true),
		progressbar.OptionSetElapsedTime(false),
		progressbar.OptionSetPredictTime(false),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "=",
			SaucerHead:    ">",
			SaucerPadding: " ",
			BarStart:      "[",
			BarEnd:        "]",
		}),
	)
	return &Tracker{bar: bar, label: label}
}

// NewSpinner returns a spinner for work with no known total.
func NewSpinner(label string) *Tracker {
	bar := progressbar.NewOptions(-1,
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionSetWidth(20),
		progressbar.OptionSetDescription(label),
		progressbar.OptionSpinnerType(14),
		progressbar.OptionClearOnFinish(),
	)
	return &Tracker{bar: bar, label: label}
}

// Tick advances the bar by one unit. Safe for concurrent use.
func (t *Tracker) Tick() {
	if t == nil {
		return
	}
	t.bar.Add(1)
}

// FinishSuccess removes the bar without leaving output behind.
func (t *Tracker) FinishSuccess() {
	if t == nil {
		return
	}
	t.bar.Finish()
	t.bar.Clear()
}

// FinishSkipped removes the bar and notes why the work was skipped.
func (t *Tracker) FinishSkipped(reason string) {
	if t == nil {
		return
	}
	t.bar.Finish()
	t.bar.Clear()
	fmt.Fprintf(os.Stderr, "  %s skipped (%s)\n", t.label, reason)
}

// FinishError removes the bar and reports the failure.
func (t *Tracker) FinishError(err error) {
	if t == nil {
		return
	}
	t.bar.Finish()
	t.bar.Clear()
	fmt.Fprintf(os.Stderr, "  %s error: %v\n", t.label, err)
}

// Callback returns a progress callback that renders a counted stderr
// bar. The bar is created lazily on the first call, once the total is
// known, and cleared when the count reaches it.
func Callback(label string) func(current, total int, item string) {
	var mu sync.Mutex
	var bar *Tracker
	return func(current, total int, _ string) {
		mu.Lock()
		if bar == nil {
			bar = NewTracker(label, total)
		}
		b := bar
		mu.Unlock()
		b.Tick()
		if current >= total {
			b.FinishSuccess()
		}
	}
}
