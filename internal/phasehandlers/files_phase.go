package phasehandlers

import (
	"context"
	"os"

	"github.com/griffithind/habitat/internal/runtime"
)

// Files copies the system/shared/local config tier trees into
// $HABITAT_PATH/{system,shared,local} (unless bypass mode is set), then
// applies every file entry tagged for the files phase — i.e. entries with
// neither Before nor After set.
func Files(ctx context.Context, st *State) error {
	if !st.Config.Entry.BypassHabitatConstruction {
		if err := copyTierTree(ctx, st, st.SystemDir, "system"); err != nil {
			return err
		}
		if err := copyTierTree(ctx, st, st.SharedDir, "shared"); err != nil {
			return err
		}
		if err := copyTierTree(ctx, st, st.LocalDir, "local"); err != nil {
			return err
		}
	}

	for _, entry := range st.Config.Files {
		if entry.Before != "" || entry.After != "" {
			continue
		}
		if err := ApplyFile(ctx, st, entry); err != nil {
			return err
		}
		st.FileStates = append(st.FileStates, FileContentState(entry, st.FilesTierDir))
	}
	return nil
}

func copyTierTree(ctx context.Context, st *State, srcDir, tierName string) error {
	if srcDir == "" {
		return nil
	}
	if _, err := os.Stat(srcDir); err != nil {
		return nil
	}
	base := st.Env["HABITAT_PATH"]
	if base == "" {
		return nil
	}
	dest := base + "/" + tierName
	tarContent, err := buildDirectoryTar(srcDir, "")
	if err != nil {
		return err
	}
	if err := st.exec(ctx, runtime.ExecOptions{Cmd: []string{"mkdir", "-p", dest}}); err != nil {
		return err
	}
	return st.Port.CopyIn(ctx, st.ContainerID, dest, tarContent)
}
