package phasehandlers

import (
	"context"

	"github.com/griffithind/habitat/internal/habitat"
	"github.com/griffithind/habitat/internal/runtime"
)

// RunScript executes every command in entry.Commands in order, each as its
// own "sh -c" invocation under the configured RunAs user (default the
// resolved build user), stopping at the first failure.
func RunScript(ctx context.Context, st *State, entry habitat.ScriptEntry) error {
	user := entry.RunAs
	if user == "" {
		user = st.user()
	}
	for _, cmd := range entry.Commands {
		if cmd == "" {
			continue
		}
		if err := st.exec(ctx, runtime.ExecOptions{
			Cmd:        []string{"sh", "-c", cmd},
			User:       user,
			WorkingDir: st.workdir(),
		}); err != nil {
			return err
		}
	}
	return nil
}
