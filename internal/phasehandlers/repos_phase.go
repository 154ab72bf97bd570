package phasehandlers

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/griffithind/habitat/internal/habitat"
	"github.com/griffithind/habitat/internal/herrors"
	"github.com/griffithind/habitat/internal/phases"
	"github.com/griffithind/habitat/internal/runtime"
)

// Repos clones every configured repository into its target path,
// replacing whatever is there, then checks out the configured branch if
// any. A target colliding with $WORKDIR is cloned into a temp directory
// inside the container first and copied over it there, since $WORKDIR may already be populated by the
// time this phase runs.
func Repos(ctx context.Context, st *State) error {
	for _, repo := range st.Config.Repos {
		if err := cloneOne(ctx, st, repo); err != nil {
			return err
		}
	}
	return nil
}

func cloneOne(ctx context.Context, st *State, repo habitat.RepoSpec) error {
	target := repo.Path
	cloneTarget := target
	usesTemp := target == st.workdir()
	if usesTemp {
		cloneTarget = "/tmp/habitat-clone-" + shaHex([]byte(repo.URL))[:12]
	}

	if err := st.exec(ctx, runtime.ExecOptions{Cmd: []string{"rm", "-rf", cloneTarget}}); err != nil {
		return err
	}
	if err := st.exec(ctx, runtime.ExecOptions{Cmd: []string{"mkdir", "-p", cloneTarget}}); err != nil {
		return err
	}

	cloneArgs := []string{"git", "clone"}
	if repo.Shallow {
		cloneArgs = append(cloneArgs, "--depth", "1")
	}
	if repo.Branch != "" {
		cloneArgs = append(cloneArgs, "--branch", repo.Branch)
	}
	cloneArgs = append(cloneArgs, repo.URL, ".")

	var stderr bytes.Buffer
	code, err := st.Port.Exec(ctx, st.ContainerID, runtime.ExecOptions{
		Cmd:        cloneArgs,
		WorkingDir: cloneTarget,
		Stdout:     st.Stdout,
		Stderr:     &stderr,
	})
	if err != nil {
		return err
	}
	if code != 0 {
		herr := herrors.Wrap(newExecError(cloneArgs, code), herrors.CategoryRepository, herrors.CodeRepositoryClone,
			fmt.Sprintf("clone %s", repo.URL))
		if hint := cloneErrorHint(stderr.String()); hint != "" {
			herr = herr.WithHint(hint)
		}
		return herr
	}

	if usesTemp {
		if err := st.exec(ctx, runtime.ExecOptions{Cmd: []string{"mkdir", "-p", target}}); err != nil {
			return err
		}
		if err := st.exec(ctx, runtime.ExecOptions{Cmd: []string{"cp", "-a", cloneTarget + "/.", target}}); err != nil {
			return err
		}
		if err := st.exec(ctx, runtime.ExecOptions{Cmd: []string{"rm", "-rf", cloneTarget}}); err != nil {
			return err
		}
	}

	user := st.user()
	if user != "root" {
		if err := st.exec(ctx, runtime.ExecOptions{Cmd: []string{"chown", "-R", user, target}}); err != nil {
			return err
		}
	}

	state := phases.RepoState{URL: repo.URL}
	commit, branch, err := readRepoHead(ctx, st, target)
	if err != nil {
		state.CurrentCommit = "not-cloned"
		state.CurrentBranch = "not-cloned"
	} else {
		state.CurrentCommit = commit
		state.CurrentBranch = branch
	}
	st.RepoStates = append(st.RepoStates, state)
	return nil
}

func readRepoHead(ctx context.Context, st *State, dir string) (commit, branch string, err error) {
	var commitOut, branchOut bytes.Buffer
	if code, err := st.Port.Exec(ctx, st.ContainerID, runtime.ExecOptions{
		Cmd:        []string{"git", "rev-parse", "HEAD"},
		WorkingDir: dir,
		Stdout:     &commitOut,
	}); err != nil || code != 0 {
		return "", "", fmt.Errorf("read HEAD commit")
	}
	if code, err := st.Port.Exec(ctx, st.ContainerID, runtime.ExecOptions{
		Cmd:        []string{"git", "rev-parse", "--abbrev-ref", "HEAD"},
		WorkingDir: dir,
		Stdout:     &branchOut,
	}); err != nil || code != 0 {
		return "", "", fmt.Errorf("read HEAD branch")
	}
	commit = strings.TrimSpace(commitOut.String())
	if len(commit) > 12 {
		commit = commit[:12]
	}
	return commit, strings.TrimSpace(branchOut.String()), nil
}
