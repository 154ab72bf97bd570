package runtime

import (
	"context"
	"fmt"
	"io"

	containertypes "github.com/docker/docker/api/types/container"
	"github.com/docker/docker/pkg/stdcopy"
)

// Exec runs a command inside a running container and streams its output,
// returning the command's exit code.
func (d *DockerPort) Exec(ctx context.Context, containerID string, opts ExecOptions) (int, error) {
	execConfig := containertypes.ExecOptions{
		Cmd:          opts.Cmd,
		Env:          opts.Env,
		WorkingDir:   opts.WorkingDir,
		User:         opts.User,
		Tty:          opts.Tty,
		AttachStdin:  opts.Stdin != nil,
		AttachStdout: true,
		AttachStderr: true,
	}

	created, err := d.cli.ContainerExecCreate(ctx, containerID, execConfig)
	if err != nil {
		return -1, fmt.Errorf("create exec: %w", err)
	}

	attached, err := d.cli.ContainerExecAttach(ctx, created.ID, containertypes.ExecAttachOptions{Tty: opts.Tty})
	if err != nil {
		return -1, fmt.Errorf("attach exec: %w", err)
	}
	defer attached.Close()

	errCh := make(chan error, 2)
	if opts.Stdin != nil {
		go func() {
			_, err := io.Copy(attached.Conn, opts.Stdin)
			if cw, ok := attached.Conn.(interface{ CloseWrite() error }); ok {
				cw.CloseWrite()
			}
			errCh <- err
		}()
	}

	go func() {
		if opts.Tty {
			if opts.Stdout != nil {
				_, err := io.Copy(opts.Stdout, attached.Reader)
				errCh <- err
				return
			}
		} else {
			_, err := stdcopy.StdCopy(discardIfNil(opts.Stdout), discardIfNil(opts.Stderr), attached.Reader)
			errCh <- err
			return
		}
		errCh <- nil
	}()

	<-errCh
	if opts.Stdin != nil {
		<-errCh
	}

	inspect, err := d.cli.ContainerExecInspect(ctx, created.ID)
	if err != nil {
		return -1, fmt.Errorf("inspect exec: %w", err)
	}
	return inspect.ExitCode, nil
}

func discardIfNil(w io.Writer) io.Writer {
	if w == nil {
		return io.Discard
	}
	return w
}

// CopyIn copies the contents of a local tar archive into containerID at
// destPath.
func (d *DockerPort) CopyIn(ctx context.Context, containerID, destPath string, tarContent io.Reader) error {
	return d.cli.CopyToContainer(ctx, containerID, destPath, tarContent, containertypes.CopyToContainerOptions{})
}
