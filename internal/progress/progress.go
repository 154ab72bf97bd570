// Package progress implements pipeline.ProgressReporter against the
// terminal using pterm, mirroring how internal/ui wraps pterm's spinner
// with quiet-mode support.
package progress

import (
	"fmt"
	"sync"

	"github.com/pterm/pterm"

	"github.com/griffithind/habitat/internal/phases"
	"github.com/griffithind/habitat/internal/pipeline"
)

// Reporter starts a pterm spinner at each phase start, retitles it on
// progress ticks, and resolves it success/fail at the phase boundary.
type Reporter struct {
	mu      sync.Mutex
	spinner *pterm.SpinnerPrinter
	quiet   bool
}

var _ pipeline.ProgressReporter = (*Reporter)(nil)

// New returns a Reporter. When quiet is true, every call is a no-op.
func New(quiet bool) *Reporter {
	return &Reporter{quiet: quiet}
}

func (r *Reporter) OnProgress(p pipeline.PhaseProgress) {
	if r.quiet {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.spinner != nil {
		r.spinner.UpdateText(fmt.Sprintf("%s: %s", p.Phase, p.Message))
	}
}

func (r *Reporter) OnPhaseStart(id phases.ID) {
	if r.quiet {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	s, _ := pterm.DefaultSpinner.Start(fmt.Sprintf("phase %s", id))
	r.spinner = s
}

func (r *Reporter) OnPhaseComplete(id phases.ID, err error) {
	if r.quiet {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.spinner == nil {
		return
	}
	if err != nil {
		r.spinner.Fail(fmt.Sprintf("phase %s failed: %v", id, err))
	} else {
		r.spinner.Success(fmt.Sprintf("phase %s", id))
	}
	r.spinner = nil
}
