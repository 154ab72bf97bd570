package lifecycle

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/griffithind/habitat/internal/habitat"
	"github.com/griffithind/habitat/internal/phasehandlers"
	"github.com/griffithind/habitat/internal/phases"
	"github.com/griffithind/habitat/internal/runtime"
)

func newHookState(t *testing.T, cfg *habitat.HabitatConfig) (*runtime.Fake, *phasehandlers.State) {
	t.Helper()
	f := runtime.NewFake()
	containerID, err := f.RunDetached(context.Background(), runtime.RunOptions{Image: "ubuntu"})
	require.NoError(t, err)
	return f, &phasehandlers.State{
		Port:        f,
		Config:      cfg,
		Env:         map[string]string{"USER": "dev", "WORKDIR": "/work"},
		ContainerID: containerID,
	}
}

func TestRunBeforeRunsOnlyMatchingFileAndScriptHooks(t *testing.T) {
	cfg := &habitat.HabitatConfig{
		Files: []habitat.FileEntry{
			{Src: "/etc/hosts", Dest: "/tmp/hosts", Before: "repos"},
			{Src: "/etc/hosts", Dest: "/skip/hosts", Before: "scripts"},
		},
		Scripts: []habitat.ScriptEntry{
			{Commands: []string{"echo before-repos"}, Before: "repos"},
		},
	}
	f, st := newHookState(t, cfg)
	r := NewHookRunner(cfg)

	require.NoError(t, r.RunBefore(context.Background(), st, phases.Repos))

	var sawCopy, sawSkip, sawScript bool
	for _, call := range f.Calls {
		if call == "CopyIn "+st.ContainerID+" /tmp" {
			sawCopy = true
		}
		if call == "CopyIn "+st.ContainerID+" /skip" {
			sawSkip = true
		}
		if call == "Exec "+st.ContainerID+" [sh -c echo before-repos]" {
			sawScript = true
		}
	}
	assert.True(t, sawCopy)
	assert.False(t, sawSkip)
	assert.True(t, sawScript)
}

func TestRunAfterRunsOnlyMatchingHooks(t *testing.T) {
	cfg := &habitat.HabitatConfig{
		Scripts: []habitat.ScriptEntry{
			{Commands: []string{"echo after-final"}, After: "final"},
			{Commands: []string{"echo after-verify"}, After: "verify"},
		},
	}
	f, st := newHookState(t, cfg)
	r := NewHookRunner(cfg)

	require.NoError(t, r.RunAfter(context.Background(), st, phases.Final))

	var sawFinal, sawVerify bool
	for _, call := range f.Calls {
		if call == "Exec "+st.ContainerID+" [sh -c echo after-final]" {
			sawFinal = true
		}
		if call == "Exec "+st.ContainerID+" [sh -c echo after-verify]" {
			sawVerify = true
		}
	}
	assert.True(t, sawFinal)
	assert.False(t, sawVerify)
}

func TestRunBeforeNoHooksIsNoop(t *testing.T) {
	cfg := &habitat.HabitatConfig{}
	_, st := newHookState(t, cfg)
	r := NewHookRunner(cfg)

	assert.NoError(t, r.RunBefore(context.Background(), st, phases.Base))
}
