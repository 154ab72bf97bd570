package phasehandlers

import (
	"context"

	"github.com/griffithind/habitat/internal/runtime"
)

// Test runs each configured test script at $WORKDIR/<path>, as USER.
func Test(ctx context.Context, st *State) error {
	wd := st.workdir()
	for _, script := range st.Config.Tests {
		if err := st.exec(ctx, runtime.ExecOptions{
			Cmd:        []string{"sh", wd + "/" + script},
			User:       st.user(),
			WorkingDir: wd,
		}); err != nil {
			return err
		}
	}
	return nil
}
