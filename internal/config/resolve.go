package config

import (
	"path"
	"regexp"
	"strings"

	"github.com/griffithind/habitat/internal/herrors"
)

// Resolve POSIX-joins env[envVar] with segments, per spec.md §4.2's path
// helper. It errors if envVar is unset in env — there is no default.
func Resolve(env map[string]string, envVar string, segments ...string) (string, error) {
	base, ok := env[envVar]
	if !ok {
		return "", herrors.ConfigMissingField("env." + envVar)
	}
	parts := append([]string{base}, segments...)
	return path.Join(parts...), nil
}

// Template expands {env.X}, ${X}, {name}, {image.tag}, {container.*}, and
// {repositories.N.field} placeholders against the coalesced config, per
// spec.md §4.2. Unknown placeholders are preserved verbatim. Used by
// phase handlers, never by hashing.
func Template(s string, cfg TemplateContext) string {
	s = varRefPattern.ReplaceAllStringFunc(s, func(match string) string {
		if v, ok := cfg.Env[varRefPattern.FindStringSubmatch(match)[1]]; ok {
			return v
		}
		return match
	})
	s = expandBraced(s, cfg)
	return s
}

// TemplateContext is the minimal view Template needs, built by the caller
// from a coalesced HabitatConfig plus whatever live container/repo state
// is in scope.
type TemplateContext struct {
	Env           map[string]string
	Name          string
	ImageTag      string
	Container     map[string]string
	Repositories  []map[string]string
}

var bracePattern = regexp.MustCompile(`\{([^{}]+)\}`)

func expandBraced(s string, cfg TemplateContext) string {
	return bracePattern.ReplaceAllStringFunc(s, func(match string) string {
		addr := match[1 : len(match)-1]
		if v, ok := resolvePlaceholder(addr, cfg); ok {
			return v
		}
		return match
	})
}

func resolvePlaceholder(addr string, cfg TemplateContext) (string, bool) {
	switch {
	case addr == "name":
		return cfg.Name, true
	case addr == "image.tag":
		return cfg.ImageTag, true
	case strings.HasPrefix(addr, "env."):
		v, ok := cfg.Env[strings.TrimPrefix(addr, "env.")]
		return v, ok
	case strings.HasPrefix(addr, "container."):
		v, ok := cfg.Container[strings.TrimPrefix(addr, "container.")]
		return v, ok
	case strings.HasPrefix(addr, "repositories."):
		return resolveRepoPlaceholder(strings.TrimPrefix(addr, "repositories."), cfg)
	}
	return "", false
}

func resolveRepoPlaceholder(rest string, cfg TemplateContext) (string, bool) {
	idxStr, field, ok := strings.Cut(rest, ".")
	if !ok {
		return "", false
	}
	idx := 0
	for _, c := range idxStr {
		if c < '0' || c > '9' {
			return "", false
		}
		idx = idx*10 + int(c-'0')
	}
	if idx < 0 || idx >= len(cfg.Repositories) {
		return "", false
	}
	v, ok := cfg.Repositories[idx][field]
	return v, ok
}
