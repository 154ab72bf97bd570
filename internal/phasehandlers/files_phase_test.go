package phasehandlers

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/griffithind/habitat/internal/habitat"
)

func TestFilesCopiesTierTreesUnlessBypassed(t *testing.T) {
	f, st := startedState(t)
	st.Env["HABITAT_PATH"] = "/work/.habitat"
	st.SystemDir = t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(st.SystemDir, "tools.yaml"), []byte("x: 1\n"), 0o644))

	require.NoError(t, Files(context.Background(), st))

	var sawSystemCopy bool
	for _, call := range f.Calls {
		if call == "CopyIn "+st.ContainerID+" /work/.habitat/system" {
			sawSystemCopy = true
		}
	}
	assert.True(t, sawSystemCopy)
}

func TestFilesSkipsTierCopyInBypassMode(t *testing.T) {
	f, st := startedState(t)
	st.Env["HABITAT_PATH"] = "/work/.habitat"
	st.SystemDir = t.TempDir()
	st.Config.Entry.BypassHabitatConstruction = true

	require.NoError(t, Files(context.Background(), st))

	for _, call := range f.Calls {
		assert.NotContains(t, call, "/work/.habitat/system")
	}
}

func TestFilesAppliesUntaggedFileEntries(t *testing.T) {
	_, st := startedState(t)
	st.FilesTierDir = t.TempDir()
	src := filepath.Join(st.FilesTierDir, "motd")
	require.NoError(t, os.WriteFile(src, []byte("welcome\n"), 0o644))
	st.Config.Files = []habitat.FileEntry{
		{Src: "motd", Dest: "/etc/motd"},
		{Src: "motd", Dest: "/etc/skip", Before: "scripts"},
	}

	require.NoError(t, Files(context.Background(), st))
	require.Len(t, st.FileStates, 1)
	assert.Equal(t, "motd", st.FileStates[0].Source)
	assert.NotEmpty(t, st.FileStates[0].ContentHash)
}
