package phases

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/griffithind/habitat/internal/habitat"
)

func TestHashIsDeterministic(t *testing.T) {
	cfg := &habitat.HabitatConfig{
		Name:      "demo",
		BaseImage: "ubuntu:24.04",
	}
	p, ok := ByID(Base)
	require.True(t, ok)

	h1, err := Hash(cfg, p, nil, nil)
	require.NoError(t, err)
	h2, err := Hash(cfg, p, nil, nil)
	require.NoError(t, err)

	assert.Equal(t, h1, h2)
	assert.Len(t, h1, 12)
}

func TestHashChangesWithConfig(t *testing.T) {
	p, ok := ByID(Base)
	require.True(t, ok)

	cfg1 := &habitat.HabitatConfig{BaseImage: "ubuntu:24.04"}
	cfg2 := &habitat.HabitatConfig{BaseImage: "ubuntu:22.04"}

	h1, err := Hash(cfg1, p, nil, nil)
	require.NoError(t, err)
	h2, err := Hash(cfg2, p, nil, nil)
	require.NoError(t, err)

	assert.NotEqual(t, h1, h2)
}

func TestHashIgnoresUnrelatedSections(t *testing.T) {
	p, ok := ByID(Base)
	require.True(t, ok)

	cfg1 := &habitat.HabitatConfig{
		BaseImage: "ubuntu:24.04",
		Tools:     []string{"curl"},
	}
	cfg2 := &habitat.HabitatConfig{
		BaseImage: "ubuntu:24.04",
		Tools:     []string{"curl", "jq"},
	}

	h1, err := Hash(cfg1, p, nil, nil)
	require.NoError(t, err)
	h2, err := Hash(cfg2, p, nil, nil)
	require.NoError(t, err)

	assert.Equal(t, h1, h2, "base phase hash must not depend on the tools section")
}

func TestHashUsersPhaseOnlyLooksAtUserAndWorkdirEnv(t *testing.T) {
	p, ok := ByID(Users)
	require.True(t, ok)

	cfg1 := &habitat.HabitatConfig{Env: []string{"USER=dev", "WORKDIR=/work", "FOO=bar"}}
	cfg2 := &habitat.HabitatConfig{Env: []string{"USER=dev", "WORKDIR=/work", "FOO=baz"}}

	h1, err := Hash(cfg1, p, nil, nil)
	require.NoError(t, err)
	h2, err := Hash(cfg2, p, nil, nil)
	require.NoError(t, err)

	assert.Equal(t, h1, h2, "users phase hash must not depend on unrelated env keys")
}

func TestHashEnvPhaseCoversFullEnv(t *testing.T) {
	p, ok := ByID(Env)
	require.True(t, ok)

	cfg1 := &habitat.HabitatConfig{Env: []string{"USER=dev", "FOO=bar"}}
	cfg2 := &habitat.HabitatConfig{Env: []string{"USER=dev", "FOO=baz"}}

	h1, err := Hash(cfg1, p, nil, nil)
	require.NoError(t, err)
	h2, err := Hash(cfg2, p, nil, nil)
	require.NoError(t, err)

	assert.NotEqual(t, h1, h2, "env phase hash must cover every env key")
}

func TestHashReposAugmentedByCurrentCommit(t *testing.T) {
	p, ok := ByID(Repos)
	require.True(t, ok)

	cfg := &habitat.HabitatConfig{
		Repos: []habitat.RepoSpec{{URL: "https://example.com/repo.git", Branch: "main"}},
	}

	h1, err := Hash(cfg, p, []RepoState{{URL: "https://example.com/repo.git", CurrentCommit: "abc123"}}, nil)
	require.NoError(t, err)
	h2, err := Hash(cfg, p, []RepoState{{URL: "https://example.com/repo.git", CurrentCommit: "def456"}}, nil)
	require.NoError(t, err)

	assert.NotEqual(t, h1, h2, "a moved branch ref must invalidate the repos phase hash")
}

func TestHashFilesAugmentedByContentHash(t *testing.T) {
	p, ok := ByID(Files)
	require.True(t, ok)

	cfg := &habitat.HabitatConfig{
		Files: []habitat.FileEntry{{Src: "/host/a.txt", Dest: "/container/a.txt"}},
	}

	h1, err := Hash(cfg, p, nil, []FileState{{Source: "/host/a.txt", ContentHash: "aaaaaaaaaaaa"}})
	require.NoError(t, err)
	h2, err := Hash(cfg, p, nil, []FileState{{Source: "/host/a.txt", ContentHash: "bbbbbbbbbbbb"}})
	require.NoError(t, err)

	assert.NotEqual(t, h1, h2, "an edited local file must invalidate the files phase hash")
}

func TestCalculateAllCoversRequestedRange(t *testing.T) {
	cfg := &habitat.HabitatConfig{Name: "demo", BaseImage: "ubuntu:24.04"}

	hashes, err := CalculateAll(cfg, Workdir, nil, nil)
	require.NoError(t, err)

	assert.Contains(t, hashes, Base)
	assert.Contains(t, hashes, Users)
	assert.Contains(t, hashes, Env)
	assert.Contains(t, hashes, Workdir)
	assert.NotContains(t, hashes, Files, "CalculateAll must stop at the requested target")
}

func TestVerifyAndTestPhasesDoNotSnapshot(t *testing.T) {
	v, ok := ByID(Verify)
	require.True(t, ok)
	assert.False(t, v.Snapshot)

	ts, ok := ByID(Test)
	require.True(t, ok)
	assert.False(t, ts.Snapshot)
}

func TestHabitatPhaseDoesSnapshot(t *testing.T) {
	h, ok := ByID(Habitat)
	require.True(t, ok)
	assert.True(t, h.Snapshot)
}
