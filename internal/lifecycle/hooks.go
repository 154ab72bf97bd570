// Package lifecycle dispatches the before/after file and script hooks
// attached to individual phases. Every habitat.FileEntry and
// habitat.ScriptEntry carries an optional Before or After phase tag, and
// the Pipeline Engine calls HookRunner around each phase's own handler to
// run the ones that match — generalized from the teacher's fixed
// five-command lifecycle sequence (initializeCommand, onCreateCommand,
// updateContentCommand, postCreateCommand, postStartCommand) to habitat's
// per-phase before/after tagging, where any of the twelve phases, not
// just five fixed points, can carry hooks.
package lifecycle

import (
	"context"
	"fmt"

	"github.com/griffithind/habitat/internal/habitat"
	"github.com/griffithind/habitat/internal/phasehandlers"
	"github.com/griffithind/habitat/internal/phases"
)

// HookRunner dispatches the file and script hooks declared in cfg that
// are tagged for a given phase.
type HookRunner struct {
	cfg *habitat.HabitatConfig
}

// NewHookRunner returns a HookRunner dispatching hooks declared in cfg.
func NewHookRunner(cfg *habitat.HabitatConfig) *HookRunner {
	return &HookRunner{cfg: cfg}
}

// RunBefore runs every file and script entry tagged Before: phase, files
// before scripts, in config declaration order.
func (r *HookRunner) RunBefore(ctx context.Context, st *phasehandlers.State, phase phases.ID) error {
	name := string(phase)
	for _, entry := range r.cfg.Files {
		if entry.Before == name {
			if err := phasehandlers.ApplyFile(ctx, st, entry); err != nil {
				return fmt.Errorf("before:%s file hook %s: %w", name, entry.Dest, err)
			}
		}
	}
	for _, entry := range r.cfg.Scripts {
		if entry.Before == name {
			if err := phasehandlers.RunScript(ctx, st, entry); err != nil {
				return fmt.Errorf("before:%s script hook: %w", name, err)
			}
		}
	}
	return nil
}

// RunAfter runs every file and script entry tagged After: phase, files
// before scripts, in config declaration order.
func (r *HookRunner) RunAfter(ctx context.Context, st *phasehandlers.State, phase phases.ID) error {
	name := string(phase)
	for _, entry := range r.cfg.Files {
		if entry.After == name {
			if err := phasehandlers.ApplyFile(ctx, st, entry); err != nil {
				return fmt.Errorf("after:%s file hook %s: %w", name, entry.Dest, err)
			}
		}
	}
	for _, entry := range r.cfg.Scripts {
		if entry.After == name {
			if err := phasehandlers.RunScript(ctx, st, entry); err != nil {
				return fmt.Errorf("after:%s script hook: %w", name, err)
			}
		}
	}
	return nil
}
