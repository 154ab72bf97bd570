package phasehandlers

import "context"

const entrypointScript = `#!/bin/sh
[ -f /etc/profile.d/habitat-env.sh ] && . /etc/profile.d/habitat-env.sh
export PATH="${PATH:-/usr/local/sbin:/usr/local/bin:/usr/sbin:/usr/bin:/sbin:/bin}"
exec "$@"
`

// Scripts writes /entrypoint.sh (sourcing the env profile, falling back
// to a sane PATH, then exec-ing its arguments) and runs every script
// entry tagged for the scripts phase — i.e. entries with neither Before
// nor After set.
func Scripts(ctx context.Context, st *State) error {
	tarContent, err := buildSingleFileTar("entrypoint.sh", []byte(entrypointScript), "0755")
	if err != nil {
		return err
	}
	if err := st.Port.CopyIn(ctx, st.ContainerID, "/", tarContent); err != nil {
		return err
	}

	for _, entry := range st.Config.Scripts {
		if entry.Before != "" || entry.After != "" {
			continue
		}
		if err := RunScript(ctx, st, entry); err != nil {
			return err
		}
	}
	return nil
}
