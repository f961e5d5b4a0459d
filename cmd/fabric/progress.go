package main

import (
	"context"
	"io"
	"sync"
	"time"

	"github.com/klothoplatform/fabric/pkg/provision"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

// barProgress draws engine progress as a terminal progress bar, or a spinner while the total
// is unknown.
type barProgress struct {
	mu  sync.Mutex
	bar *progressbar.ProgressBar
	max int
}

var _ provision.Progress = (*barProgress)(nil)

func newBarProgress(w io.Writer, color bool) *barProgress {
	return &barProgress{
		bar: progressbar.NewOptions(-1,
			progressbar.OptionSetWriter(w),
			progressbar.OptionSpinnerType(14),
			progressbar.OptionShowCount(),
			progressbar.OptionClearOnFinish(),
			progressbar.OptionEnableColorCodes(color),
			progressbar.OptionThrottle(65*time.Millisecond),
		),
		max: -1,
	}
}

func (p *barProgress) resize(total int) {
	if p.max != total {
		p.bar.ChangeMax(total)
		p.max = total
	}
}

func (p *barProgress) Update(status string, current, total int) {
	if total <= 0 {
		p.UpdateIndeterminate(status)
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.resize(total)
	p.bar.Describe(status)
	_ = p.bar.Set(current)
}

func (p *barProgress) UpdateIndeterminate(status string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.resize(-1)
	p.bar.Describe(status)
	_ = p.bar.Add(1)
}

func (p *barProgress) Complete(status string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.bar.Describe(status)
	_ = p.bar.Finish()
}

func (p *barProgress) close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	_ = p.bar.Clear()
}

// withProgress puts a progress bar on the command's context when stderr is an interactive
// terminal and the report is text. The returned func removes the bar.
func (a *app) withProgress(cmd *cobra.Command) (context.Context, func()) {
	ctx := cmd.Context()
	w := cmd.ErrOrStderr()
	if a.cfg.noProgress || a.cfg.output != outputText || a.cfg.Verbosity() > 0 || !a.isTerminal(w) {
		return ctx, func() {}
	}
	p := newBarProgress(w, a.reportOptions(w).Color)
	return provision.WithProgress(ctx, p), p.close
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(interface{ Fd() uintptr })
	return ok && term.IsTerminal(int(f.Fd()))
}
