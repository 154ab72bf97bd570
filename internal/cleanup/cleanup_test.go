package cleanup

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/griffithind/habitat/internal/runtime"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunRemovesHabitatPrefixedContainersAndDanglingImages(t *testing.T) {
	f := runtime.NewFake()
	ctx := context.Background()

	keptID, err := f.RunDetached(ctx, runtime.RunOptions{Name: "unrelated-container", Image: "ubuntu"})
	require.NoError(t, err)
	habitatID, err := f.RunDetached(ctx, runtime.RunOptions{Name: "claude-habitat-build-abc123", Image: "ubuntu"})
	require.NoError(t, err)

	require.NoError(t, f.BuildImage(ctx, runtime.BuildOptions{Tag: "habitat-demo:1-base"}))
	f.Images["<dangling>"] = runtime.Image{ID: "<dangling>"}

	c := New(f, "claude-habitat-build-", nil)
	result, err := c.Run(ctx, true)
	require.NoError(t, err)
	assert.False(t, result.Skipped)
	assert.Equal(t, 1, result.ContainersRemoved)
	assert.Equal(t, 1, result.ImagesRemoved)

	_, stillThere := f.Containers[keptID]
	assert.True(t, stillThere, "container without the habitat prefix must survive")
	_, removed := f.Containers[habitatID]
	assert.False(t, removed)

	_, stillTagged := f.Images["habitat-demo:1-base"]
	assert.True(t, stillTagged, "tagged image must survive")
	_, danglingGone := f.Images["<dangling>"]
	assert.False(t, danglingGone)
}

// stopFailingPort wraps a Fake whose StopContainer always fails, so Run's
// per-container error handling is exercised.
type stopFailingPort struct {
	*runtime.Fake
}

func (p stopFailingPort) StopContainer(ctx context.Context, containerID string, timeout *time.Duration) error {
	return errors.New("stop failed")
}

func TestRunIgnoresPerResourceErrors(t *testing.T) {
	f := runtime.NewFake()
	ctx := context.Background()

	_, err := f.RunDetached(ctx, runtime.RunOptions{Name: "claude-habitat-build-one", Image: "ubuntu"})
	require.NoError(t, err)
	_, err = f.RunDetached(ctx, runtime.RunOptions{Name: "claude-habitat-build-two", Image: "ubuntu"})
	require.NoError(t, err)

	c := New(stopFailingPort{Fake: f}, "claude-habitat-build-", nil)
	result, err := c.Run(ctx, true)
	require.NoError(t, err)
	assert.Equal(t, 2, result.ContainersRemoved)
}

func TestRunMarksStateCompleteAfterFinishing(t *testing.T) {
	f := runtime.NewFake()
	c := New(f, "claude-habitat-build-", nil)
	assert.Equal(t, StateIdle, c.State())

	_, err := c.Run(context.Background(), true)
	require.NoError(t, err)
	assert.Equal(t, StateComplete, c.State())
}

// blockingPort wraps a Fake and blocks inside ListContainers until
// release is closed, letting tests observe the in_progress state and the
// concurrent-entry skip behavior deterministically.
type blockingPort struct {
	*runtime.Fake
	entered chan struct{}
	release chan struct{}
}

func (b *blockingPort) ListContainers(ctx context.Context, labelFilters map[string]string) ([]runtime.Container, error) {
	close(b.entered)
	<-b.release
	return b.Fake.ListContainers(ctx, labelFilters)
}

func TestConcurrentRunSkipsWhileOneInProgress(t *testing.T) {
	bp := &blockingPort{Fake: runtime.NewFake(), entered: make(chan struct{}), release: make(chan struct{})}
	c := New(bp, "claude-habitat-build-", nil)

	firstDone := make(chan *Result, 1)
	go func() {
		r, err := c.Run(context.Background(), true)
		require.NoError(t, err)
		firstDone <- r
	}()

	select {
	case <-bp.entered:
	case <-time.After(time.Second):
		t.Fatal("first Run never reached ListContainers")
	}
	assert.Equal(t, StateInProgress, c.State())

	second, err := c.Run(context.Background(), true)
	require.NoError(t, err)
	assert.True(t, second.Skipped)

	close(bp.release)
	first := <-firstDone
	assert.False(t, first.Skipped)
}

func TestIsLastProcessRunsWithoutError(t *testing.T) {
	// This process's own binary necessarily appears in the process table,
	// so the call must at least complete without error.
	_, err := IsLastProcess()
	assert.NoError(t, err)
}

func TestIsDangling(t *testing.T) {
	assert.True(t, isDangling(runtime.Image{}))
	assert.True(t, isDangling(runtime.Image{RepoTags: []string{"<none>:<none>"}}))
	assert.False(t, isDangling(runtime.Image{RepoTags: []string{"habitat-demo:1-base"}}))
}
