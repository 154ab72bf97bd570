package runtime

import (
	"context"
	"fmt"
	"io"
	"os/exec"
	"path/filepath"
)

// BuildImage builds an image from a Dockerfile-based build context by
// shelling out to the docker CLI, the same approach the Docker Desktop
// BuildKit frontend expects for straightforward single-image builds.
func (d *DockerPort) BuildImage(ctx context.Context, opts BuildOptions) error {
	contextPath := opts.Context
	if contextPath == "" {
		contextPath = "."
	}

	args := []string{"build"}
	if opts.Tag != "" {
		args = append(args, "-t", opts.Tag)
	}
	if opts.Dockerfile != "" {
		dockerfilePath := opts.Dockerfile
		if !filepath.IsAbs(dockerfilePath) {
			dockerfilePath = filepath.Join(contextPath, dockerfilePath)
		}
		args = append(args, "-f", dockerfilePath)
	}
	if opts.Target != "" {
		args = append(args, "--target", opts.Target)
	}
	for key, value := range opts.Args {
		args = append(args, "--build-arg", fmt.Sprintf("%s=%s", key, value))
	}
	for _, cache := range opts.CacheFrom {
		args = append(args, "--cache-from", cache)
	}
	for key, value := range opts.Labels {
		args = append(args, "--label", fmt.Sprintf("%s=%s", key, value))
	}
	args = append(args, contextPath)

	cmd := exec.CommandContext(ctx, "docker", args...)
	if opts.Stdout != nil {
		cmd.Stdout = opts.Stdout
	} else {
		cmd.Stdout = io.Discard
	}
	if opts.Stderr != nil {
		cmd.Stderr = opts.Stderr
	} else {
		cmd.Stderr = io.Discard
	}

	if err := cmd.Run(); err != nil {
		return fmt.Errorf("docker build %s: %w", opts.Tag, err)
	}
	return nil
}
