package runtime

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"
)

// Fake is an in-memory recording double for Port, used by pipeline and
// snapshot cache tests so they never touch a real container engine.
type Fake struct {
	mu sync.Mutex

	Images     map[string]Image
	Containers map[string]*Container
	Calls      []string

	nextContainerID int

	// ExecFunc, if set, is invoked by Exec instead of the default
	// always-succeeds behavior, letting tests script exit codes.
	ExecFunc func(containerID string, opts ExecOptions) (int, error)
}

var _ Port = (*Fake)(nil)

// NewFake returns an empty Fake ready for use.
func NewFake() *Fake {
	return &Fake{
		Images:     make(map[string]Image),
		Containers: make(map[string]*Container),
	}
}

func (f *Fake) record(call string) {
	f.Calls = append(f.Calls, call)
}

func (f *Fake) ImageExists(ctx context.Context, imageRef string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("ImageExists " + imageRef)
	_, ok := f.Images[imageRef]
	return ok, nil
}

func (f *Fake) ImageLabels(ctx context.Context, imageRef string) (map[string]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("ImageLabels " + imageRef)
	img, ok := f.Images[imageRef]
	if !ok {
		return nil, fmt.Errorf("image %s not found", imageRef)
	}
	return img.Labels, nil
}

func (f *Fake) PullImage(ctx context.Context, imageRef string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("PullImage " + imageRef)
	if _, ok := f.Images[imageRef]; !ok {
		f.Images[imageRef] = Image{ID: imageRef, RepoTags: []string{imageRef}}
	}
	return nil
}

func (f *Fake) BuildImage(ctx context.Context, opts BuildOptions) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("BuildImage " + opts.Tag)
	f.Images[opts.Tag] = Image{ID: opts.Tag, RepoTags: []string{opts.Tag}, Labels: opts.Labels}
	return nil
}

func (f *Fake) TagImage(ctx context.Context, sourceRef, targetRef string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("TagImage " + sourceRef + " " + targetRef)
	img, ok := f.Images[sourceRef]
	if !ok {
		return fmt.Errorf("image %s not found", sourceRef)
	}
	img.RepoTags = append(img.RepoTags, targetRef)
	f.Images[targetRef] = img
	return nil
}

func (f *Fake) RunDetached(ctx context.Context, opts RunOptions) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextContainerID++
	id := fmt.Sprintf("fake-container-%d", f.nextContainerID)
	f.record("RunDetached " + opts.Image + " -> " + id)
	f.Containers[id] = &Container{
		ID:      id,
		Name:    opts.Name,
		Image:   opts.Image,
		State:   "running",
		Labels:  opts.Labels,
		Created: time.Unix(0, 0),
		Running: true,
	}
	return id, nil
}

func (f *Fake) Exec(ctx context.Context, containerID string, opts ExecOptions) (int, error) {
	f.mu.Lock()
	fn := f.ExecFunc
	f.record(fmt.Sprintf("Exec %s %v", containerID, opts.Cmd))
	f.mu.Unlock()
	if fn != nil {
		return fn(containerID, opts)
	}
	if opts.Stdout != nil {
		fmt.Fprintf(opts.Stdout, "exec: %v\n", opts.Cmd)
	}
	return 0, nil
}

func (f *Fake) CopyIn(ctx context.Context, containerID, destPath string, tarContent io.Reader) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("CopyIn " + containerID + " " + destPath)
	_, err := io.Copy(io.Discard, tarContent)
	return err
}

func (f *Fake) CommitImage(ctx context.Context, containerID, targetRef string, labels map[string]string, entrypoint []string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("CommitImage " + containerID + " " + targetRef)
	if _, ok := f.Containers[containerID]; !ok {
		return fmt.Errorf("container %s not found", containerID)
	}
	f.Images[targetRef] = Image{ID: targetRef, RepoTags: []string{targetRef}, Labels: labels, Entrypoint: entrypoint}
	return nil
}

func (f *Fake) StopContainer(ctx context.Context, containerID string, timeout *time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("StopContainer " + containerID)
	if c, ok := f.Containers[containerID]; ok {
		c.Running = false
		c.State = "exited"
	}
	return nil
}

func (f *Fake) RemoveContainer(ctx context.Context, containerID string, force bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("RemoveContainer " + containerID)
	delete(f.Containers, containerID)
	return nil
}

func (f *Fake) ListContainers(ctx context.Context, labelFilters map[string]string) ([]Container, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("ListContainers")
	var out []Container
	for _, c := range f.Containers {
		if matchesLabels(c.Labels, labelFilters) {
			out = append(out, *c)
		}
	}
	return out, nil
}

func (f *Fake) RemoveImage(ctx context.Context, imageRef string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("RemoveImage " + imageRef)
	delete(f.Images, imageRef)
	return nil
}

func (f *Fake) ListImages(ctx context.Context, repoPrefix string) ([]Image, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("ListImages " + repoPrefix)
	var out []Image
	for ref, img := range f.Images {
		if repoPrefix == "" || hasPrefix(ref, repoPrefix) {
			out = append(out, img)
		}
	}
	return out, nil
}

func (f *Fake) Ping(ctx context.Context) error { return nil }
func (f *Fake) Close() error                   { return nil }

func matchesLabels(have, want map[string]string) bool {
	for k, v := range want {
		if have[k] != v {
			return false
		}
	}
	return true
}

func hasPrefix(s, prefix string) bool {
	return len(s) >= len(prefix) && s[:len(prefix)] == prefix
}
