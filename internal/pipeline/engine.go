package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/griffithind/habitat/internal/habitat"
	"github.com/griffithind/habitat/internal/herrors"
	"github.com/griffithind/habitat/internal/hlog"
	"github.com/griffithind/habitat/internal/lifecycle"
	"github.com/griffithind/habitat/internal/phasehandlers"
	"github.com/griffithind/habitat/internal/phases"
	"github.com/griffithind/habitat/internal/runtime"
)

// Engine runs the fixed phase sequence against a build container,
// generalized from the teacher's Executor.Up orchestration of its five
// hardcoded stages into a loop over the Phase Registry's phases.
type Engine struct {
	port     runtime.Port
	logger   *slog.Logger
	progress ProgressReporter
}

// Options configures a new Engine.
type Options struct {
	Port     runtime.Port
	Logger   *slog.Logger
	Progress ProgressReporter
}

// New returns an Engine ready to run.
func New(opts Options) *Engine {
	if opts.Progress == nil {
		opts.Progress = NullProgressReporter{}
	}
	if opts.Logger == nil {
		opts.Logger = hlog.Default()
	}
	return &Engine{port: opts.Port, logger: opts.Logger, progress: opts.Progress}
}

// RunOptions configures one pipeline run.
type RunOptions struct {
	Config        *habitat.HabitatConfig
	HabitatName   string
	HabitatID     string
	Target        phases.ID
	StartFromPhase int
	BaseImageTag  string
	CurrentHashes map[phases.ID]string
	Env           map[string]string
	FilesTierDir  string
	ReposTierDir  string
	SystemDir     string
	SharedDir     string
	LocalDir      string
}

// Result is what a completed run produces.
type Result struct {
	ContainerID string
	FinalTag    string
}

// Run executes the phase sequence from opts.StartFromPhase through
// opts.Target, per spec.md §4.6's run loop: start (or resume into) a
// build container, then for every phase in range run its before-hooks,
// its handler, its after-hooks, and — if the phase snapshots — commit an
// image stamped with every phase hash accumulated so far.
func (e *Engine) Run(ctx context.Context, opts RunOptions) (*Result, error) {
	targetIdx := phases.IndexOf(opts.Target)
	if targetIdx < 0 {
		return nil, herrors.ConfigValidation(fmt.Sprintf("unknown target phase %q", opts.Target))
	}

	st := &phasehandlers.State{
		Port:         e.port,
		Config:       opts.Config,
		Env:          opts.Env,
		HabitatName:  opts.HabitatName,
		HabitatID:    opts.HabitatID,
		Logger:       e.logger,
		FilesTierDir: opts.FilesTierDir,
		ReposTierDir: opts.ReposTierDir,
		SystemDir:    opts.SystemDir,
		SharedDir:    opts.SharedDir,
		LocalDir:     opts.LocalDir,
	}

	if opts.StartFromPhase > 0 {
		if opts.BaseImageTag == "" {
			return nil, herrors.ConfigValidation("resuming a run requires a base image tag")
		}
		containerID, err := e.port.RunDetached(ctx, runtime.RunOptions{
			Name:    fmt.Sprintf("claude-habitat-build-%s", opts.HabitatID),
			Image:   opts.BaseImageTag,
			Mounts:  opts.Config.Volumes,
			RunArgs: opts.Config.RunArgs,
			Entrypoint: []string{"sleep"},
			Cmd:        []string{"infinity"},
		})
		if err != nil {
			return nil, herrors.Wrap(err, herrors.CategoryRuntime, herrors.CodeRuntimeContainer, "resume build container from snapshot")
		}
		st.ContainerID = containerID
	}

	hooks := lifecycle.NewHookRunner(opts.Config)
	accumulated := map[string]string{}
	for i := 0; i < opts.StartFromPhase; i++ {
		p := phases.Registry[i]
		if h, ok := opts.CurrentHashes[p.ID]; ok {
			accumulated[string(p.ID)] = h
		}
	}

	var finalTag string
	for i := opts.StartFromPhase; i <= targetIdx; i++ {
		p := phases.Registry[i]
		e.progress.OnPhaseStart(p.ID)

		timeout, err := opts.Config.PhaseTimeout(string(p.ID))
		if err != nil {
			err = herrors.ConfigValidation(fmt.Sprintf("phase %q: %s", p.ID, err))
			e.progress.OnPhaseComplete(p.ID, err)
			return nil, err
		}

		phaseCtx, cancel := context.WithTimeout(ctx, timeout)
		err = e.runOnePhase(phaseCtx, st, hooks, p)
		cancel()
		if err != nil {
			if phaseCtx.Err() == context.DeadlineExceeded {
				err = herrors.RuntimeTimeout(string(p.ID), timeout)
			}
			e.progress.OnPhaseComplete(p.ID, err)
			return nil, err
		}

		hash := opts.CurrentHashes[p.ID]
		if p.ID == phases.Final {
			if h, err := phases.Hash(opts.Config, p, st.RepoStates, st.FileStates); err == nil {
				hash = h
			}
		}
		accumulated[string(p.ID)] = hash

		if p.Snapshot {
			tag := habitat.SnapshotTag(opts.HabitatName, fmt.Sprintf("%d", i+1), string(p.ID))
			timestamp := time.Now().UTC().Format(time.RFC3339)
			labels := runtime.SnapshotLabels(opts.HabitatID, opts.HabitatName, string(p.ID), "success", timestamp, accumulated, opts.Config.Labels)
			if err := e.commit(ctx, st, tag, labels); err != nil {
				e.progress.OnPhaseComplete(p.ID, err)
				return nil, err
			}
			finalTag = tag

			if p.ID == phases.Final && opts.Config.ShutdownAction != "none" {
				if err := e.port.StopContainer(ctx, st.ContainerID, nil); err != nil {
					e.progress.OnPhaseComplete(p.ID, err)
					return nil, herrors.Wrap(err, herrors.CategoryRuntime, herrors.CodeRuntimeContainer, "stop final container")
				}
			}
		}

		e.progress.OnPhaseComplete(p.ID, nil)
	}

	return &Result{ContainerID: st.ContainerID, FinalTag: finalTag}, nil
}

func (e *Engine) runOnePhase(ctx context.Context, st *phasehandlers.State, hooks *lifecycle.HookRunner, p phases.Phase) error {
	if err := hooks.RunBefore(ctx, st, p.ID); err != nil {
		return err
	}

	handler, ok := phasehandlers.ByID[p.ID]
	if !ok {
		return herrors.Newf(herrors.CategoryInternal, herrors.CodeInternal, "no handler registered for phase %q", p.ID)
	}
	if err := handler(ctx, st); err != nil {
		return err
	}

	return hooks.RunAfter(ctx, st, p.ID)
}

func (e *Engine) commit(ctx context.Context, st *phasehandlers.State, tag string, labels map[string]string) error {
	return e.port.CommitImage(ctx, st.ContainerID, tag, labels, st.PendingEntrypoint)
}
