package runtime

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/docker/docker/api/types/filters"
	"github.com/docker/docker/api/types/image"
	"github.com/docker/docker/client"
)

// ImageExists reports whether imageRef is present in local storage.
func (d *DockerPort) ImageExists(ctx context.Context, imageRef string) (bool, error) {
	_, _, err := d.cli.ImageInspectWithRaw(ctx, imageRef)
	if err != nil {
		if client.IsErrNotFound(err) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// ImageLabels returns the labels baked into imageRef's image config.
func (d *DockerPort) ImageLabels(ctx context.Context, imageRef string) (map[string]string, error) {
	info, _, err := d.cli.ImageInspectWithRaw(ctx, imageRef)
	if err != nil {
		return nil, fmt.Errorf("inspect image %s: %w", imageRef, err)
	}
	if info.Config == nil {
		return nil, nil
	}
	return info.Config.Labels, nil
}

// TagImage adds targetRef as an additional name for sourceRef.
func (d *DockerPort) TagImage(ctx context.Context, sourceRef, targetRef string) error {
	return d.cli.ImageTag(ctx, sourceRef, targetRef)
}

// RemoveImage removes imageRef from local storage.
func (d *DockerPort) RemoveImage(ctx context.Context, imageRef string) error {
	_, err := d.cli.ImageRemove(ctx, imageRef, image.RemoveOptions{Force: true})
	return err
}

// ListImages returns images whose repository matches repoPrefix.
func (d *DockerPort) ListImages(ctx context.Context, repoPrefix string) ([]Image, error) {
	filterArgs := filters.NewArgs()
	if repoPrefix != "" {
		filterArgs.Add("reference", repoPrefix+"*")
	}

	images, err := d.cli.ImageList(ctx, image.ListOptions{Filters: filterArgs})
	if err != nil {
		return nil, fmt.Errorf("list images: %w", err)
	}

	out := make([]Image, 0, len(images))
	for _, img := range images {
		out = append(out, Image{
			ID:       img.ID,
			RepoTags: img.RepoTags,
			Labels:   img.Labels,
			Size:     img.Size,
		})
	}
	return out, nil
}

// PullImage pulls imageRef from its registry, discarding progress output.
func (d *DockerPort) PullImage(ctx context.Context, imageRef string) error {
	reader, err := d.cli.ImagePull(ctx, imageRef, image.PullOptions{})
	if err != nil {
		return fmt.Errorf("pull image %s: %w", imageRef, err)
	}
	defer reader.Close()
	_, err = io.Copy(io.Discard, reader)
	return err
}

// CommitImage commits containerID's current filesystem state as a new
// image tagged targetRef, stamped with labels.
func (d *DockerPort) CommitImage(ctx context.Context, containerID, targetRef string, labels map[string]string, entrypoint []string) error {
	ref, tag := splitImageRef(targetRef)

	resp, err := d.cli.ContainerCommit(ctx, containerID, containerCommitOptions(ref, tag, labels, entrypoint))
	if err != nil {
		return fmt.Errorf("commit container %s as %s: %w", containerID, targetRef, err)
	}
	_ = resp.ID
	return nil
}

// pullProgressEvent mirrors the JSON lines Docker streams while pulling,
// as decoded by PullImageWithProgress.
type pullProgressEvent struct {
	ID     string `json:"id,omitempty"`
	Status string `json:"status,omitempty"`
	Error  string `json:"error,omitempty"`
}

// PullImageWithProgress pulls imageRef, decoding Docker's progress stream
// and forwarding a human-readable line per status change to out.
func (d *DockerPort) PullImageWithProgress(ctx context.Context, imageRef string, out io.Writer) error {
	if out == nil {
		return d.PullImage(ctx, imageRef)
	}

	reader, err := d.cli.ImagePull(ctx, imageRef, image.PullOptions{})
	if err != nil {
		return fmt.Errorf("pull image %s: %w", imageRef, err)
	}
	defer reader.Close()

	decoder := json.NewDecoder(reader)
	var last string
	for {
		var evt pullProgressEvent
		if err := decoder.Decode(&evt); err != nil {
			if err == io.EOF {
				return nil
			}
			return nil
		}
		if evt.Error != "" {
			return fmt.Errorf("%s", evt.Error)
		}
		if evt.Status != "" && evt.Status != last {
			fmt.Fprintln(out, evt.Status)
			last = evt.Status
		}
	}
}

func splitImageRef(ref string) (string, string) {
	for i := len(ref) - 1; i >= 0; i-- {
		if ref[i] == ':' {
			return ref[:i], ref[i+1:]
		}
		if ref[i] == '/' {
			break
		}
	}
	return ref, "latest"
}
