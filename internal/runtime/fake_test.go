package runtime

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFakeBuildAndCommitRoundTrip(t *testing.T) {
	ctx := context.Background()
	f := NewFake()

	err := f.BuildImage(ctx, BuildOptions{Tag: "habitat/abc:base-000000000000"})
	require.NoError(t, err)

	exists, err := f.ImageExists(ctx, "habitat/abc:base-000000000000")
	require.NoError(t, err)
	assert.True(t, exists)

	id, err := f.RunDetached(ctx, RunOptions{Image: "habitat/abc:base-000000000000", Name: "habitat-abc"})
	require.NoError(t, err)
	assert.NotEmpty(t, id)

	code, err := f.Exec(ctx, id, ExecOptions{Cmd: []string{"true"}})
	require.NoError(t, err)
	assert.Equal(t, 0, code)

	labels := SnapshotLabels("abc", "demo", "users", "success", "2026-07-31T00:00:00Z", map[string]string{
		"base":  "000000000000",
		"users": "111111111111",
	}, nil)
	err = f.CommitImage(ctx, id, "habitat/abc:users-111111111111", labels, nil)
	require.NoError(t, err)

	got, err := f.ImageLabels(ctx, "habitat/abc:users-111111111111")
	require.NoError(t, err)
	assert.Equal(t, "abc", got[LabelHabitatID])
	assert.Equal(t, "users", got[LabelPhase])
}

func TestFakeListContainersFiltersByLabel(t *testing.T) {
	ctx := context.Background()
	f := NewFake()

	_, err := f.RunDetached(ctx, RunOptions{Image: "x", Labels: map[string]string{LabelHabitatID: "abc"}})
	require.NoError(t, err)
	_, err = f.RunDetached(ctx, RunOptions{Image: "x", Labels: map[string]string{LabelHabitatID: "def"}})
	require.NoError(t, err)

	matched, err := f.ListContainers(ctx, map[string]string{LabelHabitatID: "abc"})
	require.NoError(t, err)
	assert.Len(t, matched, 1)
}

func TestSnapshotLabelsDropsReservedUserLabels(t *testing.T) {
	labels := SnapshotLabels("abc", "demo", "base", "success", "2026-07-31T00:00:00Z", map[string]string{"base": "000000000000"}, []string{
		"habitat.sneaky=true",
		"team=infra",
	})

	assert.Equal(t, "infra", labels["team"])
	assert.NotContains(t, labels, "habitat.sneaky")
	assert.Equal(t, "000000000000", labels[PhaseHashLabel("base")])
}
