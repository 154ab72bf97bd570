// Package config loads and layer-merges the three habitat configuration
// tiers (system, shared, local) into a single coalesced
// habitat.HabitatConfig, resolving ${VAR} environment references.
package config

import (
	"os"
	"path/filepath"
)

// Tier identifies which of the three coalescing layers a field came from.
type Tier string

const (
	TierSystem Tier = "system"
	TierShared Tier = "shared"
	TierLocal  Tier = "local"
)

// TierPaths locates the three YAML files that make up one habitat's
// configuration. System and shared are optional; local is required.
type TierPaths struct {
	System string
	Shared string
	Local  string
}

// DefaultTierPaths returns the standard system/shared locations plus the
// given local habitat config path, mirroring the teacher's layered
// config-directory convention.
func DefaultTierPaths(localPath string) TierPaths {
	sharedDir, _ := habitatConfigDir()
	return TierPaths{
		System: "/etc/habitat/system.yaml",
		Shared: filepath.Join(sharedDir, "shared.yaml"),
		Local:  localPath,
	}
}

// Dir returns the directory of the tier file named by t, the host
// directory phase handlers resolve that tier's Files/Repos entries
// against (spec.md §4.7's per-entry source resolution).
func (tp TierPaths) Dir(t Tier) string {
	switch t {
	case TierSystem:
		return filepath.Dir(tp.System)
	case TierShared:
		return filepath.Dir(tp.Shared)
	default:
		return filepath.Dir(tp.Local)
	}
}

// habitatConfigDir returns $XDG_CONFIG_HOME/habitat (or ~/.config/habitat),
// the shared-tier directory, paralleling util.CacheDir's resolution order.
func habitatConfigDir() (string, error) {
	if dir := os.Getenv("XDG_CONFIG_HOME"); dir != "" {
		return filepath.Join(dir, "habitat"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "habitat"), nil
}
