package runtime

import (
	"context"
	"fmt"

	"github.com/docker/docker/client"
)

// DockerPort is the Port implementation backed by the Docker Engine API.
type DockerPort struct {
	cli *client.Client
}

var _ Port = (*DockerPort)(nil)

// NewDockerPort creates a Port backed by the local Docker daemon,
// negotiating the API version against whatever is configured in the
// environment (DOCKER_HOST, DOCKER_CERT_PATH, etc).
func NewDockerPort() (*DockerPort, error) {
	cli, err := client.NewClientWithOpts(
		client.FromEnv,
		client.WithAPIVersionNegotiation(),
	)
	if err != nil {
		return nil, fmt.Errorf("create docker client: %w", err)
	}
	return &DockerPort{cli: cli}, nil
}

// Close releases the underlying Docker client connection.
func (d *DockerPort) Close() error {
	return d.cli.Close()
}

// Ping verifies the Docker daemon is reachable.
func (d *DockerPort) Ping(ctx context.Context) error {
	_, err := d.cli.Ping(ctx)
	return err
}
