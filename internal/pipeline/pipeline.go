// Package pipeline implements the Pipeline Engine (C6): a single-threaded,
// cooperative runner over the fixed Phase Registry, generalized from the
// teacher's fixed five-stage Parse->Resolve->Plan->Build->Deploy sequence
// into a loop over however many of the twelve habitat phases the run
// needs to cover.
package pipeline

import "github.com/griffithind/habitat/internal/phases"

// PhaseProgress reports progress for one phase of a run, the same shape
// as the teacher's StageProgress generalized from a fixed Stage enum to
// any phases.ID.
type PhaseProgress struct {
	Phase      phases.ID
	Message    string
	Percentage int // 0-100, or -1 for indeterminate
}

// ProgressReporter receives progress updates during a run.
type ProgressReporter interface {
	OnProgress(progress PhaseProgress)
	OnPhaseStart(phase phases.ID)
	OnPhaseComplete(phase phases.ID, err error)
}

// NullProgressReporter is a no-op ProgressReporter.
type NullProgressReporter struct{}

func (NullProgressReporter) OnProgress(PhaseProgress)         {}
func (NullProgressReporter) OnPhaseStart(phases.ID)           {}
func (NullProgressReporter) OnPhaseComplete(phases.ID, error) {}
