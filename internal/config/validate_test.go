package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/griffithind/habitat/internal/habitat"
	"github.com/griffithind/habitat/internal/herrors"
)

func validConfig() *habitat.HabitatConfig {
	return &habitat.HabitatConfig{
		Name: "my-habitat",
		Env:  []string{"USER=dev", "WORKDIR=/work"},
	}
}

func TestValidateAcceptsWellFormedConfig(t *testing.T) {
	err := Validate(validConfig(), map[string]interface{}{"name": "x", "env": []interface{}{}}, false)
	assert.NoError(t, err)
}

func TestValidateRejectsMissingName(t *testing.T) {
	cfg := validConfig()
	cfg.Name = ""
	err := Validate(cfg, map[string]interface{}{}, false)
	require.Error(t, err)
	errs, ok := err.(ValidationErrors)
	require.True(t, ok)
	assert.True(t, herrors.Is(errs[0], herrors.CodeConfigMissing))
}

func TestValidateRejectsInvalidNameShape(t *testing.T) {
	cfg := validConfig()
	cfg.Name = "My_Habitat"
	err := Validate(cfg, map[string]interface{}{}, false)
	require.Error(t, err)
}

func TestValidateRejectsMissingUserAndWorkdir(t *testing.T) {
	cfg := validConfig()
	cfg.Env = nil
	err := Validate(cfg, map[string]interface{}{}, false)
	require.Error(t, err)
	errs := err.(ValidationErrors)
	codes := map[string]bool{}
	for _, e := range errs {
		codes[herrors.GetCode(e)] = true
	}
	assert.True(t, codes[herrors.CodeConfigMissing])
}

func TestValidateRejectsNonAbsoluteWorkdir(t *testing.T) {
	cfg := validConfig()
	cfg.Env = []string{"USER=dev", "WORKDIR=relative/path"}
	err := Validate(cfg, map[string]interface{}{}, false)
	require.Error(t, err)
	errs := err.(ValidationErrors)
	assert.True(t, herrors.Is(errs[0], herrors.CodeConfigValidation))
}

func TestValidateRejectsMalformedEnvEntry(t *testing.T) {
	cfg := validConfig()
	cfg.Env = append(cfg.Env, "lowercase=bad")
	err := Validate(cfg, map[string]interface{}{}, false)
	require.Error(t, err)
}

func TestValidateStrictModeRejectsUnknownTopLevelKey(t *testing.T) {
	cfg := validConfig()
	err := Validate(cfg, map[string]interface{}{"typo_field": true}, true)
	require.Error(t, err)
	errs := err.(ValidationErrors)
	assert.True(t, herrors.Is(errs[0], herrors.CodeConfigUnknownKey))
}

func TestValidateNonStrictModeIgnoresUnknownTopLevelKey(t *testing.T) {
	cfg := validConfig()
	err := Validate(cfg, map[string]interface{}{"typo_field": true}, false)
	assert.NoError(t, err)
}

func TestValidateStrictModeAcceptsTimeoutDescriptionAndRepositoriesKeys(t *testing.T) {
	cfg := validConfig()
	err := Validate(cfg, map[string]interface{}{
		"description": "x", "timeout": map[string]interface{}{"per-phase": "30s"}, "repositories": []interface{}{},
	}, true)
	assert.NoError(t, err)
}

func TestValidateRejectsRepoMissingURLOrPath(t *testing.T) {
	cfg := validConfig()
	cfg.Repos = []habitat.RepoSpec{{Path: "/work/app"}, {URL: "https://example.com/repo.git"}}
	err := Validate(cfg, map[string]interface{}{}, false)
	require.Error(t, err)
	errs := err.(ValidationErrors)
	assert.Len(t, errs, 2)
}
