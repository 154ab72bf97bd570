package config

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/griffithind/habitat/internal/habitat"
	"github.com/griffithind/habitat/internal/herrors"
)

// recognizedKeys is the top-level key set HabitatConfig decodes, used by
// strict-mode unknown-key detection (spec.md §4.2).
var recognizedKeys = map[string]bool{
	"name": true, "description": true, "base_image": true, "image": true, "env": true,
	"files": true, "scripts": true, "repos": true, "repositories": true, "volumes": true,
	"tools": true, "verify-fs": true, "tests": true, "entry": true,
	"labels": true, "shutdown_action": true, "init": true,
	"privileged": true, "run_args": true, "timeout": true,
}

var namePattern = regexp.MustCompile(`^[a-z][a-z0-9-]*$`)
var envKeyPattern = regexp.MustCompile(`^[A-Z][A-Z0-9_]*$`)

// ValidationErrors collects every ConfigError found, so a user sees all
// problems in one pass rather than fixing them one at a time.
type ValidationErrors []*herrors.HabitatError

func (e ValidationErrors) Error() string {
	if len(e) == 0 {
		return ""
	}
	msgs := make([]string, 0, len(e))
	for _, err := range e {
		msgs = append(msgs, err.Error())
	}
	return strings.Join(msgs, "; ")
}

// Validate checks a coalesced HabitatConfig against spec.md §4.2's error
// rules: missing name; missing USER or WORKDIR; WORKDIR not absolute;
// unknown top-level key (strict mode); repo entry missing url or path;
// invalid env entry not matching KEY=value with an uppercase key.
func Validate(cfg *habitat.HabitatConfig, rawKeys map[string]interface{}, strict bool) error {
	var errs ValidationErrors

	if cfg.Name == "" {
		errs = append(errs, herrors.ConfigMissingField("name"))
	} else if !namePattern.MatchString(cfg.Name) {
		errs = append(errs, herrors.ConfigValidation(fmt.Sprintf("name %q must match ^[a-z][a-z0-9-]*$", cfg.Name)))
	}

	env := habitat.EnvMap(cfg.Env)
	if _, ok := env["USER"]; !ok {
		errs = append(errs, herrors.ConfigMissingField("env.USER"))
	}
	workdir, hasWorkdir := env["WORKDIR"]
	if !hasWorkdir {
		errs = append(errs, herrors.ConfigMissingField("env.WORKDIR"))
	} else if !strings.HasPrefix(workdir, "/") {
		errs = append(errs, herrors.ConfigValidation(fmt.Sprintf("env.WORKDIR %q must be absolute", workdir)))
	}

	for _, entry := range cfg.Env {
		key, _, ok := splitEnvEntry(entry)
		if !ok || !envKeyPattern.MatchString(key) {
			errs = append(errs, herrors.ConfigValidation(fmt.Sprintf("invalid env entry %q: must match KEY=value with an uppercase key", entry)))
		}
	}

	if strict {
		for key := range rawKeys {
			if !recognizedKeys[key] {
				errs = append(errs, herrors.ConfigUnknownKey("local", key))
			}
		}
	}

	for i, r := range cfg.Repos {
		if r.URL == "" {
			errs = append(errs, herrors.ConfigMissingField(fmt.Sprintf("repos[%d].url", i)))
		}
		if r.Path == "" {
			errs = append(errs, herrors.ConfigMissingField(fmt.Sprintf("repos[%d].path", i)))
		}
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}
