package envprobe

import (
	"context"
	"testing"

	"github.com/griffithind/habitat/internal/runtime"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveHomeParsesPasswdLine(t *testing.T) {
	f := runtime.NewFake()
	ctx := context.Background()
	id, err := f.RunDetached(ctx, runtime.RunOptions{Image: "x"})
	require.NoError(t, err)

	f.ExecFunc = func(containerID string, opts runtime.ExecOptions) (int, error) {
		opts.Stdout.Write([]byte("dev:x:1000:1000:Dev User:/home/dev:/bin/bash\n"))
		return 0, nil
	}

	home := ResolveHome(ctx, f, id, "dev")
	assert.Equal(t, "/home/dev", home)
}

func TestResolveHomeFallsBackOnFailure(t *testing.T) {
	f := runtime.NewFake()
	ctx := context.Background()
	id, err := f.RunDetached(ctx, runtime.RunOptions{Image: "x"})
	require.NoError(t, err)

	f.ExecFunc = func(containerID string, opts runtime.ExecOptions) (int, error) {
		return 1, nil
	}

	assert.Equal(t, "/home/dev", ResolveHome(ctx, f, id, "dev"))
	assert.Equal(t, "/root", ResolveHome(ctx, f, id, "root"))
}

func TestResolveHomeFallsBackOnMalformedLine(t *testing.T) {
	f := runtime.NewFake()
	ctx := context.Background()
	id, err := f.RunDetached(ctx, runtime.RunOptions{Image: "x"})
	require.NoError(t, err)

	f.ExecFunc = func(containerID string, opts runtime.ExecOptions) (int, error) {
		opts.Stdout.Write([]byte("not-a-passwd-line\n"))
		return 0, nil
	}

	assert.Equal(t, "/home/dev", ResolveHome(ctx, f, id, "dev"))
}
