package runtime

import (
	"context"
	"fmt"
	"time"

	containertypes "github.com/docker/docker/api/types/container"
	"github.com/docker/docker/api/types/filters"
)

// RunDetached creates and starts a container from opts, returning its ID.
func (d *DockerPort) RunDetached(ctx context.Context, opts RunOptions) (string, error) {
	hostConfig := &containertypes.HostConfig{
		Privileged: opts.Privileged,
		Init:       &opts.Init,
	}

	for _, mount := range opts.Mounts {
		hostConfig.Binds = append(hostConfig.Binds, mount)
	}
	for _, mount := range parseRunArgMounts(opts.RunArgs) {
		hostConfig.Binds = append(hostConfig.Binds, mount)
	}

	containerConfig := &containertypes.Config{
		Image:      opts.Image,
		Labels:     opts.Labels,
		Env:        opts.Env,
		User:       opts.User,
		WorkingDir: opts.WorkingDir,
		Tty:        true,
		OpenStdin:  true,
	}
	if len(opts.Entrypoint) > 0 {
		containerConfig.Entrypoint = opts.Entrypoint
	}
	if len(opts.Cmd) > 0 {
		containerConfig.Cmd = opts.Cmd
	}

	resp, err := d.cli.ContainerCreate(ctx, containerConfig, hostConfig, nil, nil, opts.Name)
	if err != nil {
		return "", fmt.Errorf("create container: %w", err)
	}

	if err := d.cli.ContainerStart(ctx, resp.ID, containertypes.StartOptions{}); err != nil {
		return "", fmt.Errorf("start container %s: %w", resp.ID, err)
	}

	return resp.ID, nil
}

// parseRunArgMounts extracts `-v`/`--mount` bind specs out of a freeform
// run_args list, per the habitat config's passthrough escape hatch for
// flags the Port interface doesn't model directly.
func parseRunArgMounts(runArgs []string) []string {
	var mounts []string
	for i := 0; i < len(runArgs); i++ {
		switch runArgs[i] {
		case "-v", "--volume":
			if i+1 < len(runArgs) {
				mounts = append(mounts, runArgs[i+1])
				i++
			}
		case "--mount":
			if i+1 < len(runArgs) {
				if bind := parseMountSpec(runArgs[i+1]); bind != "" {
					mounts = append(mounts, bind)
				}
				i++
			}
		}
	}
	return mounts
}

// StopContainer stops containerID, waiting up to timeout for a clean exit.
func (d *DockerPort) StopContainer(ctx context.Context, containerID string, timeout *time.Duration) error {
	var timeoutSecs *int
	if timeout != nil {
		secs := int(timeout.Seconds())
		timeoutSecs = &secs
	}
	return d.cli.ContainerStop(ctx, containerID, containertypes.StopOptions{Timeout: timeoutSecs})
}

// RemoveContainer removes containerID.
func (d *DockerPort) RemoveContainer(ctx context.Context, containerID string, force bool) error {
	return d.cli.ContainerRemove(ctx, containerID, containertypes.RemoveOptions{
		Force:         force,
		RemoveVolumes: true,
	})
}

// ListContainers returns containers matching the given label filters.
func (d *DockerPort) ListContainers(ctx context.Context, labelFilters map[string]string) ([]Container, error) {
	filterArgs := filters.NewArgs()
	for key, value := range labelFilters {
		filterArgs.Add("label", fmt.Sprintf("%s=%s", key, value))
	}

	containers, err := d.cli.ContainerList(ctx, containertypes.ListOptions{
		All:     true,
		Filters: filterArgs,
	})
	if err != nil {
		return nil, fmt.Errorf("list containers: %w", err)
	}

	out := make([]Container, 0, len(containers))
	for _, ctr := range containers {
		name := ""
		if len(ctr.Names) > 0 {
			name = ctr.Names[0]
			if len(name) > 0 && name[0] == '/' {
				name = name[1:]
			}
		}
		out = append(out, Container{
			ID:      ctr.ID,
			Name:    name,
			Image:   ctr.Image,
			State:   ctr.State,
			Labels:  ctr.Labels,
			Created: time.Unix(ctr.Created, 0),
			Running: ctr.State == "running",
		})
	}
	return out, nil
}

// containerCommitOptions builds the commit options for CommitImage.
func containerCommitOptions(repo, tag string, labels map[string]string, entrypoint []string) containertypes.CommitOptions {
	return containertypes.CommitOptions{
		Reference: repo + ":" + tag,
		Config: &containertypes.Config{
			Labels:     labels,
			Entrypoint: entrypoint,
		},
	}
}
