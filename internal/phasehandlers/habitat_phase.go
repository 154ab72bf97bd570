package phasehandlers

import (
	"context"
	"path"

	"github.com/griffithind/habitat/internal/runtime"
)

// HabitatDirs creates $HABITAT_PATH/{system,shared,local}, chowned to USER
// when USER isn't root, mirroring Workdir's ownership rule.
func HabitatDirs(ctx context.Context, st *State) error {
	base := st.Env["HABITAT_PATH"]
	if base == "" {
		return nil
	}
	user := st.user()

	for _, tier := range []string{"system", "shared", "local"} {
		dir := path.Join(base, tier)
		if err := st.exec(ctx, runtime.ExecOptions{Cmd: []string{"mkdir", "-p", dir}}); err != nil {
			return err
		}
		if user != "root" {
			if err := st.exec(ctx, runtime.ExecOptions{Cmd: []string{"chown", user, dir}}); err != nil {
				return err
			}
		}
	}
	return nil
}
