// Package phasehandlers implements the per-phase build logic (C7): one
// handler function per fixed phase, composed from runtime.Port calls the
// way single.Runner's methods (resolveImage, createContainer, buildEnv,
// buildLabels) compose Docker calls for devcontainer bring-up —
// generalized here from one container's startup sequence to the twelve
// fixed habitat phases.
package phasehandlers

import (
	"context"
	"io"
	"log/slog"

	"github.com/griffithind/habitat/internal/habitat"
	"github.com/griffithind/habitat/internal/hlog"
	"github.com/griffithind/habitat/internal/phases"
	"github.com/griffithind/habitat/internal/runtime"
)

// Handler implements one phase's build logic against the running build
// container referenced by State.ContainerID.
type Handler func(ctx context.Context, st *State) error

// State is the shared context every phase handler and lifecycle hook
// operates against: the live build container, the coalesced config, the
// resolved environment, and bookkeeping the Pipeline Engine needs after
// each phase (live repo/file state for re-hashing, the pending
// ENTRYPOINT change for the final commit).
type State struct {
	Port        runtime.Port
	Config      *habitat.HabitatConfig
	Env         map[string]string
	ContainerID string
	HabitatName string
	HabitatID   string

	// FilesTierDir and ReposTierDir are the host directories relative
	// paths in cfg.Files/cfg.Repos should be resolved against: the
	// directory containing whichever tier file last set that list.
	FilesTierDir string
	ReposTierDir string

	// SystemDir, SharedDir, and LocalDir are the host directories holding
	// each config tier's file tree, copied wholesale into
	// $HABITAT_PATH/{system,shared,local} by the files handler unless
	// bypass mode is set. LocalDir is the directory containing the
	// habitat's own (innermost) config file.
	SystemDir string
	SharedDir string
	LocalDir  string

	Logger *slog.Logger
	Stdout io.Writer
	Stderr io.Writer

	// RepoStates and FileStates are filled in by the repos/files handlers
	// as they run, and fed back into phases.Hash for the final-phase
	// re-hash (spec.md §4.6 step 2d).
	RepoStates []phases.RepoState
	FileStates []phases.FileState

	// PendingEntrypoint is set by the final handler; the Pipeline Engine
	// applies it to the commit's CommitOptions, not as a live container
	// mutation.
	PendingEntrypoint []string
}

func (st *State) logger() *slog.Logger {
	if st.Logger != nil {
		return st.Logger
	}
	return hlog.Default()
}

// user returns the resolved USER env value, or "root" if unset.
func (st *State) user() string {
	if u, ok := st.Env["USER"]; ok && u != "" {
		return u
	}
	return "root"
}

func (st *State) workdir() string {
	return st.Env["WORKDIR"]
}

func (st *State) exec(ctx context.Context, opts runtime.ExecOptions) error {
	if opts.Stdout == nil {
		opts.Stdout = st.Stdout
	}
	if opts.Stderr == nil {
		opts.Stderr = st.Stderr
	}
	code, err := st.Port.Exec(ctx, st.ContainerID, opts)
	if err != nil {
		return err
	}
	if code != 0 {
		return newExecError(opts.Cmd, code)
	}
	return nil
}
