package phasehandlers

import (
	"context"
	"fmt"

	"github.com/griffithind/habitat/internal/config"
	"github.com/griffithind/habitat/internal/herrors"
	"github.com/griffithind/habitat/internal/runtime"
)

// Verify checks every verify-fs.required_files entry exists inside the
// build container, ${VAR}-expanding it against the resolved environment
// first. The first missing path aborts the phase.
func Verify(ctx context.Context, st *State) error {
	for _, raw := range st.Config.VerifyFS.RequiredFiles {
		path := config.ExpandVars(raw, st.Env)
		code, err := st.Port.Exec(ctx, st.ContainerID, runtime.ExecOptions{Cmd: []string{"test", "-e", path}})
		if err != nil {
			return err
		}
		if code != 0 {
			return herrors.Newf(herrors.CategoryFilesystem, herrors.CodeFileNotFound, "required file missing: %s", path).
				WithContext("path", path).
				WithHint(fmt.Sprintf("ensure %s is created by an earlier phase", path))
		}
	}
	return nil
}
