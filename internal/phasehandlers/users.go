package phasehandlers

import (
	"context"

	"github.com/griffithind/habitat/internal/runtime"
)

// Users ensures the configured USER exists inside the build container and
// is added to sudo/docker groups, best-effort: group membership failures
// (group absent on a minimal base image) never fail the phase.
func Users(ctx context.Context, st *State) error {
	user := st.user()
	if user == "root" {
		return nil
	}

	code, err := st.Port.Exec(ctx, st.ContainerID, runtime.ExecOptions{Cmd: []string{"id", user}})
	if err != nil {
		return err
	}
	if code != 0 {
		if err := st.exec(ctx, runtime.ExecOptions{Cmd: []string{"useradd", "-m", "-s", "/bin/bash", user}}); err != nil {
			return err
		}
	}

	for _, group := range []string{"sudo", "docker"} {
		_ = st.exec(ctx, runtime.ExecOptions{Cmd: []string{"usermod", "-aG", group, user}})
	}
	return nil
}
