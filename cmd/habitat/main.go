// Package main provides the entry point for the habitat CLI.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/griffithind/habitat/internal/cleanup"
	"github.com/griffithind/habitat/internal/config"
	"github.com/griffithind/habitat/internal/habitat"
	"github.com/griffithind/habitat/internal/herrors"
	"github.com/griffithind/habitat/internal/hlog"
	"github.com/griffithind/habitat/internal/lastused"
	"github.com/griffithind/habitat/internal/phasehandlers"
	"github.com/griffithind/habitat/internal/phases"
	"github.com/griffithind/habitat/internal/pipeline"
	"github.com/griffithind/habitat/internal/progress"
	"github.com/griffithind/habitat/internal/repospec"
	"github.com/griffithind/habitat/internal/runtime"
	"github.com/griffithind/habitat/internal/snapshot"
)

var (
	rebuild     bool
	rebuildFrom string
	target      string
	command     string
	tty         bool
	noCleanup   bool
	verbose     bool
	extraRepos  []string
)

var rootCmd = &cobra.Command{
	Use:   "habitat [name-or-path]",
	Short: "Build and run isolated, reproducible container environments",
	Long: `habitat builds a container environment from a layered YAML config
through a fixed twelve-phase pipeline, resuming from the highest cached
snapshot whose inputs still match and committing a new snapshot after
every phase that changed.`,
	Args: cobra.MaximumNArgs(1),
	RunE: run,
}

func init() {
	rootCmd.Flags().BoolVar(&rebuild, "rebuild", false, "ignore cached snapshots and rebuild from the base image")
	rootCmd.Flags().StringVar(&rebuildFrom, "rebuild-from", "", "rebuild starting at the named phase")
	rootCmd.Flags().StringVar(&target, "target", string(phases.Final), "phase to build up to")
	rootCmd.Flags().StringVar(&command, "command", "", "command to run in the final container instead of its default entry")
	rootCmd.Flags().BoolVar(&tty, "tty", false, "allocate a tty for --command")
	rootCmd.Flags().BoolVar(&noCleanup, "no-cleanup", false, "skip the cleanup pass on exit")
	rootCmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	rootCmd.Flags().StringArrayVar(&extraRepos, "repo", nil, "additional repository to clone, url[:path[:branch]] (repeatable)")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		if errors.Is(err, context.Canceled) {
			os.Exit(130)
		}
		if herr, ok := herrors.AsHabitatError(err); ok {
			fmt.Fprintln(os.Stderr, herr.UserFriendly())
		} else {
			fmt.Fprintln(os.Stderr, err)
		}
		os.Exit(1)
	}
}

func run(cmd *cobra.Command, args []string) error {
	hlog.SetVerbose(verbose)

	nameOrPath, err := resolveNameOrPath(args)
	if err != nil {
		return err
	}

	repos, err := parseExtraRepos(extraRepos)
	if err != nil {
		return err
	}

	port, err := runtime.NewDockerPort()
	if err != nil {
		return herrors.RuntimeNotRunning(err)
	}
	defer port.Close()

	coordinator := cleanup.New(port, "claude-habitat-build-", hlog.Default())

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	if !noCleanup {
		stop := coordinator.HandleSignals(cancel)
		defer stop()
		// Runs on every return from here down, success or failure, so the
		// build container is never left behind on a normal pipeline error
		// (spec.md §4.6: the caller always cleans up the build container).
		defer func() {
			if _, cerr := coordinator.Run(context.Background(), false); cerr != nil {
				hlog.Warn("cleanup failed", "err", cerr)
			}
		}()
	}

	result, err := buildHabitat(ctx, port, nameOrPath, repos)
	if err != nil {
		return err
	}

	if err := lastused.Write(".", nameOrPath); err != nil {
		hlog.Warn("failed to persist last-used config", "err", err)
	}

	if command != "" {
		if err := runOverrideCommand(ctx, port, result.ContainerID); err != nil {
			return err
		}
	}

	return nil
}

func resolveNameOrPath(args []string) (string, error) {
	if len(args) == 1 {
		return args[0], nil
	}
	last := lastused.Read(".")
	if last == "" {
		return "", herrors.CliUsage("no habitat name or config path given, and no last-used config found")
	}
	return last, nil
}

func parseExtraRepos(specs []string) ([]habitat.RepoSpec, error) {
	repos := make([]habitat.RepoSpec, 0, len(specs))
	for _, s := range specs {
		r, err := repospec.Parse(s)
		if err != nil {
			return nil, herrors.CliUsage(err.Error())
		}
		repos = append(repos, r)
	}
	return repos, nil
}

// localConfigPath resolves nameOrPath to an on-disk local-tier config
// file: used directly if it already names a file, otherwise treated as
// a habitat name under ./habitats/<name>/config.yaml.
func localConfigPath(nameOrPath string) string {
	if info, err := os.Stat(nameOrPath); err == nil && !info.IsDir() {
		return nameOrPath
	}
	return filepath.Join("habitats", nameOrPath, "config.yaml")
}

func buildHabitat(ctx context.Context, port runtime.Port, nameOrPath string, repos []habitat.RepoSpec) (*pipeline.Result, error) {
	localPath := localConfigPath(nameOrPath)
	tierPaths := config.DefaultTierPaths(localPath)
	coalesced, err := config.Load(tierPaths, false)
	if err != nil {
		return nil, err
	}
	cfg := coalesced.Config
	cfg.Repos = append(cfg.Repos, repos...)

	targetID := phases.ID(target)
	if _, ok := phases.ByID(targetID); !ok {
		return nil, herrors.CliUsage(fmt.Sprintf("unknown target phase %q", target))
	}

	filesTierDir := tierPaths.Dir(coalesced.Origin["files"])
	reposTierDir := tierPaths.Dir(coalesced.Origin["repos"])

	fileStates := make([]phases.FileState, 0, len(cfg.Files))
	for _, f := range cfg.Files {
		fileStates = append(fileStates, phasehandlers.FileContentState(f, filesTierDir))
	}
	repoStates := make([]phases.RepoState, 0, len(cfg.Repos))
	for _, r := range cfg.Repos {
		repoStates = append(repoStates, probeRepoState(r))
	}

	currentHashes, err := phases.CalculateAll(cfg, targetID, repoStates, fileStates)
	if err != nil {
		return nil, herrors.Wrap(err, herrors.CategoryInternal, herrors.CodeInternal, "compute phase hashes")
	}

	plan, err := snapshot.Resolve(ctx, port, cfg.Name, currentHashes, targetID, snapshot.Options{
		Rebuild:     rebuild,
		RebuildFrom: phases.ID(rebuildFrom),
	})
	if err != nil {
		return nil, err
	}
	if plan.AlreadySatisfied {
		return &pipeline.Result{FinalTag: plan.SatisfiedTag}, nil
	}

	engine := pipeline.New(pipeline.Options{
		Port:     port,
		Logger:   hlog.Default(),
		Progress: progress.New(!verbose),
	})

	return engine.Run(ctx, pipeline.RunOptions{
		Config:         cfg,
		HabitatName:    cfg.Name,
		HabitatID:      habitat.ComputeID(cfg.Name),
		Target:         targetID,
		StartFromPhase: plan.StartFromPhase,
		BaseImageTag:   plan.BaseImageTag,
		CurrentHashes:  currentHashes,
		Env:            habitat.EnvMap(cfg.Env),
		FilesTierDir:   filesTierDir,
		ReposTierDir:   reposTierDir,
		SystemDir:      filepath.Dir(tierPaths.System),
		SharedDir:      filepath.Dir(tierPaths.Shared),
		LocalDir:       filepath.Dir(localPath),
	})
}

// probeRepoState approximates the repos-phase hash enrichment a live clone
// would produce (readRepoHead in internal/phasehandlers/repos_phase.go) by
// asking the remote for the commit its configured branch currently points
// at, without cloning. Falls back to the same "not-cloned" sentinel the
// phase handler records when it cannot read a clone's HEAD.
func probeRepoState(repo habitat.RepoSpec) phases.RepoState {
	ref := repo.Branch
	if ref == "" {
		ref = "HEAD"
	}
	out, err := exec.Command("git", "ls-remote", repo.URL, ref).Output()
	if err != nil {
		return phases.RepoState{URL: repo.URL, CurrentCommit: "not-cloned", CurrentBranch: "not-cloned"}
	}
	fields := strings.Fields(string(out))
	if len(fields) == 0 {
		return phases.RepoState{URL: repo.URL, CurrentCommit: "not-cloned", CurrentBranch: "not-cloned"}
	}
	commit := fields[0]
	if len(commit) > 12 {
		commit = commit[:12]
	}
	return phases.RepoState{URL: repo.URL, CurrentCommit: commit, CurrentBranch: repo.Branch}
}

func runOverrideCommand(ctx context.Context, port runtime.Port, containerID string) error {
	code, err := port.Exec(ctx, containerID, runtime.ExecOptions{
		Cmd:    []string{"sh", "-c", command},
		Tty:    tty,
		Stdin:  os.Stdin,
		Stdout: os.Stdout,
		Stderr: os.Stderr,
	})
	if err != nil {
		return herrors.Wrap(err, herrors.CategoryRuntime, herrors.CodeRuntimeExec, "run override command")
	}
	if code != 0 {
		return herrors.RuntimeExec("command", code, "")
	}
	return nil
}
