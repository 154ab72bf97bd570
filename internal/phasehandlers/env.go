package phasehandlers

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/griffithind/habitat/internal/runtime"
)

// Env writes /etc/profile.d/habitat-env.sh exporting every resolved
// environment variable plus a trailing "cd $WORKDIR", and marks it
// executable so login shells pick it up.
func Env(ctx context.Context, st *State) error {
	var b strings.Builder
	b.WriteString("#!/bin/sh\n")
	for _, k := range sortedKeys(st.Env) {
		fmt.Fprintf(&b, "export %s=%q\n", k, st.Env[k])
	}
	if wd := st.workdir(); wd != "" {
		fmt.Fprintf(&b, "cd %q\n", wd)
	}

	tarContent, err := buildSingleFileTar("habitat-env.sh", []byte(b.String()), "0755")
	if err != nil {
		return err
	}
	if err := st.Port.CopyIn(ctx, st.ContainerID, "/etc/profile.d", tarContent); err != nil {
		return err
	}
	return st.exec(ctx, runtime.ExecOptions{Cmd: []string{"chmod", "+x", "/etc/profile.d/habitat-env.sh"}})
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
