// Package runtime implements the Container Runtime Port: the typed
// boundary between the pipeline engine and whatever container engine
// actually builds images and runs containers. The concrete adapter wraps
// the Docker Engine API; tests substitute the in-memory Fake.
package runtime

import (
	"context"
	"io"
	"time"
)

// Port is the Container Runtime Port. Every phase handler and the
// Snapshot Cache talk to containers exclusively through this interface.
type Port interface {
	// ImageExists reports whether imageRef is present in local storage.
	ImageExists(ctx context.Context, imageRef string) (bool, error)

	// ImageLabels returns the labels baked into imageRef's image config.
	ImageLabels(ctx context.Context, imageRef string) (map[string]string, error)

	// PullImage pulls imageRef from its registry.
	PullImage(ctx context.Context, imageRef string) error

	// BuildImage builds an image from a Dockerfile-based build context.
	BuildImage(ctx context.Context, opts BuildOptions) error

	// TagImage adds targetRef as an additional name for sourceRef.
	TagImage(ctx context.Context, sourceRef, targetRef string) error

	// RunDetached creates and starts a container, returning its ID.
	RunDetached(ctx context.Context, opts RunOptions) (string, error)

	// Exec runs a command inside a running container and streams its
	// output, returning the command's exit code.
	Exec(ctx context.Context, containerID string, opts ExecOptions) (int, error)

	// CopyIn copies the contents of a local tar archive into containerID
	// at destPath.
	CopyIn(ctx context.Context, containerID, destPath string, tarContent io.Reader) error

	// CommitImage commits containerID's current filesystem state as a new
	// image tagged targetRef, stamped with labels. entrypoint, if
	// non-empty, overrides the committed image's ENTRYPOINT.
	CommitImage(ctx context.Context, containerID, targetRef string, labels map[string]string, entrypoint []string) error

	// StopContainer stops containerID, waiting up to timeout for a clean exit.
	StopContainer(ctx context.Context, containerID string, timeout *time.Duration) error

	// RemoveContainer removes containerID.
	RemoveContainer(ctx context.Context, containerID string, force bool) error

	// ListContainers returns containers matching the given label filters.
	ListContainers(ctx context.Context, labelFilters map[string]string) ([]Container, error)

	// RemoveImage removes imageRef from local storage.
	RemoveImage(ctx context.Context, imageRef string) error

	// ListImages returns images whose repository matches repoPrefix.
	ListImages(ctx context.Context, repoPrefix string) ([]Image, error)

	// Ping verifies the runtime is reachable.
	Ping(ctx context.Context) error

	// Close releases any resources held by the adapter.
	Close() error
}

// Container is a runtime-agnostic view of a container.
type Container struct {
	ID      string
	Name    string
	Image   string
	State   string
	Labels  map[string]string
	Created time.Time
	Running bool
}

// Image is a runtime-agnostic view of an image.
type Image struct {
	ID         string
	RepoTags   []string
	Labels     map[string]string
	Size       int64
	Entrypoint []string
}

// BuildOptions configures an image build.
type BuildOptions struct {
	Tag        string
	Dockerfile string
	Context    string
	Args       map[string]string
	Target     string
	CacheFrom  []string
	Labels     map[string]string
	Stdout     io.Writer
	Stderr     io.Writer
}

// RunOptions configures container creation.
type RunOptions struct {
	Name       string
	Image      string
	Labels     map[string]string
	Env        []string
	Mounts     []string
	RunArgs    []string
	User       string
	WorkingDir string
	Privileged bool
	Init       bool
	Entrypoint []string
	Cmd        []string
}

// ExecOptions configures an exec call.
type ExecOptions struct {
	Cmd        []string
	Env        []string
	WorkingDir string
	User       string
	Tty        bool
	Stdin      io.Reader
	Stdout     io.Writer
	Stderr     io.Writer
}
