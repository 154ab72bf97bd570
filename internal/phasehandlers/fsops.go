package phasehandlers

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/griffithind/habitat/internal/config"
	"github.com/griffithind/habitat/internal/habitat"
	"github.com/griffithind/habitat/internal/herrors"
	"github.com/griffithind/habitat/internal/phases"
	"github.com/griffithind/habitat/internal/runtime"
)

// ApplyFile materializes one FileEntry inside the build container: a
// directory entry is recursively copied honoring .habignore; a file entry
// has its parent created, is copied, then has mode/owner applied. dest is
// expanded for ${VAR} and "~" against st.Env before use, per spec.md §4.7's
// "File entries" rule.
func ApplyFile(ctx context.Context, st *State, entry habitat.FileEntry) error {
	src, err := resolveSrcPath(entry.Src, st.FilesTierDir)
	if err != nil {
		return err
	}
	dest := expandDest(entry.Dest, st.Env, st.user())

	info, err := os.Stat(src)
	if err != nil {
		return herrors.FileNotFound(src)
	}

	if info.IsDir() {
		tarContent, err := buildDirectoryTar(src, filepath.Base(dest))
		if err != nil {
			return herrors.FileRead(src, err)
		}
		parent := filepath.Dir(dest)
		if err := st.exec(ctx, runtime.ExecOptions{Cmd: []string{"mkdir", "-p", parent}}); err != nil {
			return err
		}
		if err := st.Port.CopyIn(ctx, st.ContainerID, parent, tarContent); err != nil {
			return herrors.Wrap(err, herrors.CategoryFilesystem, herrors.CodeFileWrite, fmt.Sprintf("copy directory %s", dest))
		}
		return applyModeOwner(ctx, st, dest, entry.Mode, entry.Owner, true)
	}

	content, err := os.ReadFile(src)
	if err != nil {
		return herrors.FileRead(src, err)
	}
	if err := st.exec(ctx, runtime.ExecOptions{Cmd: []string{"mkdir", "-p", filepath.Dir(dest)}}); err != nil {
		return err
	}
	tarContent, err := buildSingleFileTar(filepath.Base(dest), content, entry.Mode)
	if err != nil {
		return err
	}
	if err := st.Port.CopyIn(ctx, st.ContainerID, filepath.Dir(dest), tarContent); err != nil {
		return herrors.Wrap(err, herrors.CategoryFilesystem, herrors.CodeFileWrite, fmt.Sprintf("copy file %s", dest))
	}
	return applyModeOwner(ctx, st, dest, entry.Mode, entry.Owner, false)
}

func applyModeOwner(ctx context.Context, st *State, dest, mode, owner string, recursive bool) error {
	if mode != "" {
		args := []string{"chmod"}
		if recursive {
			args = append(args, "-R")
		}
		args = append(args, mode, dest)
		if err := st.exec(ctx, runtime.ExecOptions{Cmd: args}); err != nil {
			return err
		}
	}
	if owner != "" {
		args := []string{"chown"}
		if recursive {
			args = append(args, "-R")
		}
		args = append(args, owner, dest)
		if err := st.exec(ctx, runtime.ExecOptions{Cmd: args}); err != nil {
			return err
		}
	}
	return nil
}

// resolveSrcPath resolves a configured src: absolute paths pass through;
// "~/" expands against the host user's home; everything else is relative
// to tierDir, the directory of the config tier that declared it.
func resolveSrcPath(src, tierDir string) (string, error) {
	if filepath.IsAbs(src) {
		return src, nil
	}
	if strings.HasPrefix(src, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		return filepath.Join(home, src[2:]), nil
	}
	return filepath.Join(tierDir, src), nil
}

// expandDest expands ${VAR} references against env, then "~" against the
// container user's home — approximated here as $HOME if resolved, else
// /home/<user> (the in-container /etc/passwd lookup spec.md describes is
// performed once per build by the workdir handler and cached into env as
// HOME; see workdir.go).
func expandDest(dest string, env map[string]string, user string) string {
	dest = config.ExpandVars(dest, env)
	if strings.HasPrefix(dest, "~/") {
		home := env["HOME"]
		if home == "" {
			home = "/home/" + user
			if user == "root" {
				home = "/root"
			}
		}
		dest = filepath.Join(home, dest[2:])
	}
	return dest
}

// FileContentState computes the sha256-based content fingerprint fed back
// into phases.FileState for the Phase Hasher: exported so callers outside
// this package (the CLI entry point computing pre-run resume hashes) can
// enrich files-phase entries the same way ApplyFile's caller does.
func FileContentState(entry habitat.FileEntry, tierDir string) phases.FileState {
	src, err := resolveSrcPath(entry.Src, tierDir)
	if err != nil {
		return phases.FileState{Source: entry.Src, ContentHash: "error:not-read"}
	}
	hash, err := hashPath(src)
	if err != nil {
		return phases.FileState{Source: entry.Src, ContentHash: "error:not-read"}
	}
	return phases.FileState{Source: entry.Src, ContentHash: hash[:12]}
}

func hashPath(path string) (string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return "", err
	}
	if info.IsDir() {
		var all bytes.Buffer
		err := filepath.Walk(path, func(p string, fi os.FileInfo, err error) error {
			if err != nil || fi.IsDir() {
				return err
			}
			data, err := os.ReadFile(p)
			if err != nil {
				return err
			}
			all.Write(data)
			return nil
		})
		if err != nil {
			return "", err
		}
		return shaHex(all.Bytes()), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return shaHex(data), nil
}

func shaHex(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
