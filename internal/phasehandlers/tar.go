package phasehandlers

import (
	"archive/tar"
	"bytes"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// tarBuilder assembles an in-memory tar archive for Port.CopyIn, the same
// approach build.ContextBuilder uses for Docker build contexts — adapted
// here from "build context" to "single file or directory destined for a
// running container."
type tarBuilder struct {
	buf    bytes.Buffer
	writer *tar.Writer
}

func newTarBuilder() *tarBuilder {
	b := &tarBuilder{}
	b.writer = tar.NewWriter(&b.buf)
	return b
}

func (b *tarBuilder) addFile(name string, content []byte, mode int64) error {
	header := &tar.Header{Name: name, Mode: mode, Size: int64(len(content))}
	if err := b.writer.WriteHeader(header); err != nil {
		return err
	}
	_, err := b.writer.Write(content)
	return err
}

func (b *tarBuilder) build() (io.Reader, error) {
	if err := b.writer.Close(); err != nil {
		return nil, err
	}
	return bytes.NewReader(b.buf.Bytes()), nil
}

// buildSingleFileTar produces a tar archive containing one entry named
// destName, with mode applied if non-empty (an octal string, e.g. "0644").
func buildSingleFileTar(destName string, content []byte, mode string) (io.Reader, error) {
	b := newTarBuilder()
	if err := b.addFile(destName, content, fileMode(mode, 0o644)); err != nil {
		return nil, err
	}
	return b.build()
}

// buildDirectoryTar walks srcDir and produces a tar archive rooted at
// destPrefix, skipping any path matched by the .habignore patterns found
// at the root of srcDir.
func buildDirectoryTar(srcDir, destPrefix string) (io.Reader, error) {
	patterns := readHabignore(filepath.Join(srcDir, ".habignore"))
	b := newTarBuilder()

	err := filepath.Walk(srcDir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(srcDir, path)
		if err != nil {
			return err
		}
		if rel == "." {
			return nil
		}
		if matchesHabignore(rel, patterns) {
			if info.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if info.IsDir() {
			return nil
		}
		content, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		name := filepath.ToSlash(filepath.Join(destPrefix, rel))
		return b.addFile(name, content, int64(info.Mode().Perm()))
	})
	if err != nil {
		return nil, err
	}
	return b.build()
}

func fileMode(mode string, fallback int64) int64 {
	if mode == "" {
		return fallback
	}
	v, err := strconv.ParseInt(mode, 8, 64)
	if err != nil {
		return fallback
	}
	return v
}

func readHabignore(path string) []string {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil
	}
	var patterns []string
	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || line[0] == '#' {
			continue
		}
		patterns = append(patterns, line)
	}
	return patterns
}

func matchesHabignore(relPath string, patterns []string) bool {
	base := filepath.Base(relPath)
	for _, p := range patterns {
		if ok, _ := filepath.Match(p, base); ok {
			return true
		}
		if ok, _ := filepath.Match(p, relPath); ok {
			return true
		}
	}
	return false
}
