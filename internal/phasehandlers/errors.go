package phasehandlers

import (
	"bytes"
	"strings"

	"github.com/griffithind/habitat/internal/herrors"
)

func newExecError(cmd []string, exitCode int) error {
	return herrors.RuntimeExec(strings.Join(cmd, " "), exitCode, "")
}

// captureStderrTail runs run with a buffered stderr and, on failure, wraps
// the error with the trimmed tail for diagnosis, per spec.md §7.
func captureStderrTail(run func(stderr *bytes.Buffer) error) error {
	var buf bytes.Buffer
	err := run(&buf)
	if err == nil {
		return nil
	}
	tail := buf.String()
	if len(tail) > 4096 {
		tail = tail[len(tail)-4096:]
	}
	if herr, ok := herrors.AsHabitatError(err); ok {
		return herr.WithContext("stderr_tail", tail)
	}
	return err
}

// cloneErrorHint inspects clone stderr to categorize common git failures,
// per spec.md §4.7's "Error categorization for clone failures."
func cloneErrorHint(stderr string) string {
	lower := strings.ToLower(stderr)
	switch {
	case strings.Contains(lower, "permission denied"), strings.Contains(lower, "publickey"):
		return "check that a private key with access to this repository is available"
	case strings.Contains(lower, "not found"), strings.Contains(lower, "does not exist"):
		return "check the repository URL"
	case strings.Contains(lower, "branch"):
		return "check the configured branch, or omit it to use the default branch"
	default:
		return ""
	}
}
