package cli

import (
	"io"
	"os"
	"time"

	"github.com/schollz/progressbar/v3"
	"golang.org/x/term"
)

var barTheme = progressbar.Theme{
	Saucer:        "=",
	SaucerHead:    ">",
	SaucerPadding: " ",
	BarStart:      "[",
	BarEnd:        "]",
}

// ProgressEnabled reports whether stderr is a terminal.
func ProgressEnabled() bool {
	return term.IsTerminal(int(os.Stderr.Fd()))
}

// Progress counts finished uploads. A nil *Progress is a no-op.
type Progress struct {
	bar *progressbar.ProgressBar
}

// NewProgress returns a bar of total steps written to w, or nil when disabled.
func NewProgress(enabled bool, w io.Writer, total int, desc string) *Progress {
	if !enabled || total <= 0 {
		return nil
	}
	return &Progress{bar: progressbar.NewOptions(total,
		progressbar.OptionSetWriter(w),
		progressbar.OptionSetDescription(desc),
		progressbar.OptionSetWidth(32),
		progressbar.OptionShowCount(),
		progressbar.OptionClearOnFinish(),
		progressbar.OptionSetTheme(barTheme),
	)}
}

// Describe changes the label shown next to the bar.
func (p *Progress) Describe(desc string) {
	if p == nil {
		return
	}
	p.bar.Describe(desc)
}

// Increment advances the bar by one.
func (p *Progress) Increment() {
	if p == nil {
		return
	}
	_ = p.bar.Add(1)
}

// Finish completes and clears the bar.
func (p *Progress) Finish() {
	if p == nil {
		return
	}
	_ = p.bar.Finish()
}

// StartSpinner shows an indeterminate spinner on stderr until the returned func is called.
func StartSpinner(enabled bool, desc string) func() {
	if !enabled {
		return func() {}
	}
	bar := progressbar.NewOptions(-1,
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionSpinnerType(9),
		progressbar.OptionSetDescription(desc),
		progressbar.OptionSetWidth(10),
		progressbar.OptionClearOnFinish(),
		progressbar.OptionSetTheme(barTheme),
	)
	done := make(chan struct{})
	stopped := make(chan struct{})
	go func() {
		defer close(stopped)
		ticker := time.NewTicker(120 * time.Millisecond)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				_ = bar.Add(1)
			case <-done:
				_ = bar.Finish()
				return
			}
		}
	}()
	return func() {
		close(done)
		<-stopped
	}
}
