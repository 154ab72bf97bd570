package phasehandlers

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/griffithind/habitat/internal/habitat"
	"github.com/griffithind/habitat/internal/runtime"
)

func startedState(t *testing.T) (*runtime.Fake, *State) {
	t.Helper()
	f := runtime.NewFake()
	st := newTestState(f)
	st.Config.BaseImage = "ubuntu:22.04"
	require.NoError(t, Base(context.Background(), st))
	return f, st
}

func TestUsersSkipsRootUser(t *testing.T) {
	f, st := startedState(t)
	st.Env["USER"] = "root"

	require.NoError(t, Users(context.Background(), st))
	for _, call := range f.Calls {
		assert.NotContains(t, call, "useradd")
	}
}

func TestUsersCreatesNonRootUser(t *testing.T) {
	f, st := startedState(t)
	f.ExecFunc = func(containerID string, opts runtime.ExecOptions) (int, error) {
		if len(opts.Cmd) >= 2 && opts.Cmd[0] == "id" {
			return 1, nil // user does not exist yet
		}
		return 0, nil
	}

	require.NoError(t, Users(context.Background(), st))

	var sawUseradd bool
	for _, call := range f.Calls {
		if call == "Exec "+st.ContainerID+" [useradd -m -s /bin/bash dev]" {
			sawUseradd = true
		}
	}
	assert.True(t, sawUseradd)
}

func TestEnvWritesProfileScript(t *testing.T) {
	f, st := startedState(t)

	require.NoError(t, Env(context.Background(), st))

	var sawCopyIn bool
	for _, call := range f.Calls {
		if call == "CopyIn "+st.ContainerID+" /etc/profile.d" {
			sawCopyIn = true
		}
	}
	assert.True(t, sawCopyIn)
}

func TestWorkdirCreatesAndChowns(t *testing.T) {
	f, st := startedState(t)

	require.NoError(t, Workdir(context.Background(), st))

	var sawMkdir, sawChown bool
	for _, call := range f.Calls {
		if call == "Exec "+st.ContainerID+" [mkdir -p /work]" {
			sawMkdir = true
		}
		if call == "Exec "+st.ContainerID+" [chown dev /work]" {
			sawChown = true
		}
	}
	assert.True(t, sawMkdir)
	assert.True(t, sawChown)
	assert.NotEmpty(t, st.Env["HOME"])
}

func TestHabitatDirsCreatesThreeTiers(t *testing.T) {
	_, st := startedState(t)
	st.Env["HABITAT_PATH"] = "/work/.habitat"

	require.NoError(t, HabitatDirs(context.Background(), st))
}

func TestToolsIsNoop(t *testing.T) {
	_, st := startedState(t)
	assert.NoError(t, Tools(context.Background(), st))
}

func TestScriptsWritesEntrypointAndRunsUntaggedEntries(t *testing.T) {
	f, st := startedState(t)
	st.Config.Scripts = []habitat.ScriptEntry{
		{Commands: []string{"echo hello"}},
		{Commands: []string{"echo skip"}, Before: "repos"},
	}

	require.NoError(t, Scripts(context.Background(), st))

	var sawEntrypointCopy, sawEcho, sawSkip bool
	for _, call := range f.Calls {
		if call == "CopyIn "+st.ContainerID+" /" {
			sawEntrypointCopy = true
		}
		if call == "Exec "+st.ContainerID+" [sh -c echo hello]" {
			sawEcho = true
		}
		if call == "Exec "+st.ContainerID+" [sh -c echo skip]" {
			sawSkip = true
		}
	}
	assert.True(t, sawEntrypointCopy)
	assert.True(t, sawEcho)
	assert.False(t, sawSkip)
}

func TestVerifyPassesWhenAllPathsExist(t *testing.T) {
	_, st := startedState(t)
	st.Config.VerifyFS.RequiredFiles = []string{"${WORKDIR}/marker"}

	require.NoError(t, Verify(context.Background(), st))
}

func TestVerifyFailsWhenPathMissing(t *testing.T) {
	f, st := startedState(t)
	f.ExecFunc = func(containerID string, opts runtime.ExecOptions) (int, error) {
		return 1, nil
	}
	st.Config.VerifyFS.RequiredFiles = []string{"${WORKDIR}/marker"}

	err := Verify(context.Background(), st)
	assert.Error(t, err)
}

func TestTestPhaseRunsEachScript(t *testing.T) {
	f, st := startedState(t)
	st.Config.Tests = []string{"test/smoke.sh"}

	require.NoError(t, Test(context.Background(), st))

	var saw bool
	for _, call := range f.Calls {
		if call == "Exec "+st.ContainerID+" [sh /work/test/smoke.sh]" {
			saw = true
		}
	}
	assert.True(t, saw)
}

func TestFinalStashesEntrypoint(t *testing.T) {
	_, st := startedState(t)

	require.NoError(t, Final(context.Background(), st))
	assert.Equal(t, []string{"/entrypoint.sh"}, st.PendingEntrypoint)
}
