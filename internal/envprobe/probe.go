// Package envprobe resolves container-side user identity needed for
// "${VAR}" and "~" expansion: a build container's HOME directory for a
// given user, queried from /etc/passwd rather than assumed.
package envprobe

import (
	"bytes"
	"context"
	"strings"

	"github.com/griffithind/habitat/internal/runtime"
)

// ResolveHome queries containerID's /etc/passwd for user's home directory
// via "getent passwd", falling back to "/root" or "/home/<user>" when the
// lookup fails (minimal base images without nss tooling, or a user not
// yet created). Mirrors the exec-then-parse shape of env.Prober.Probe,
// narrowed from a full "env" dump to a single passwd field.
func ResolveHome(ctx context.Context, port runtime.Port, containerID, user string) string {
	var out bytes.Buffer
	code, err := port.Exec(ctx, containerID, runtime.ExecOptions{
		Cmd:    []string{"getent", "passwd", user},
		Stdout: &out,
	})
	if err != nil || code != 0 {
		return fallbackHome(user)
	}
	return parsePasswdHome(out.String(), user)
}

func parsePasswdHome(line, user string) string {
	fields := strings.Split(strings.TrimSpace(line), ":")
	if len(fields) >= 6 && fields[5] != "" {
		return fields[5]
	}
	return fallbackHome(user)
}

func fallbackHome(user string) string {
	if user == "root" || user == "" {
		return "/root"
	}
	return "/home/" + user
}
