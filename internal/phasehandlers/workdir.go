package phasehandlers

import (
	"context"

	"github.com/griffithind/habitat/internal/envprobe"
	"github.com/griffithind/habitat/internal/runtime"
)

// Workdir creates $WORKDIR, chowns it to USER when USER isn't root, and
// resolves the user's home directory into st.Env["HOME"] for later "~"
// expansion in file destinations.
func Workdir(ctx context.Context, st *State) error {
	wd := st.workdir()
	if wd == "" {
		return nil
	}
	if err := st.exec(ctx, runtime.ExecOptions{Cmd: []string{"mkdir", "-p", wd}}); err != nil {
		return err
	}

	user := st.user()
	if user != "root" {
		if err := st.exec(ctx, runtime.ExecOptions{Cmd: []string{"chown", user, wd}}); err != nil {
			return err
		}
	}

	st.Env["HOME"] = envprobe.ResolveHome(ctx, st.Port, st.ContainerID, user)
	return nil
}
