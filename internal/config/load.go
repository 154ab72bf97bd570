package config

import (
	"os"

	"gopkg.in/yaml.v3"

	"github.com/griffithind/habitat/internal/habitat"
	"github.com/griffithind/habitat/internal/herrors"
)

// Coalesced is the result of loading and merging the three config tiers:
// the decoded config plus enough bookkeeping to answer "which tier did
// this top-level key come from" for diagnostics (spec.md §4.2 step 4).
type Coalesced struct {
	Config *habitat.HabitatConfig
	Origin map[string]Tier
	keys   map[string]bool // every top-level key present after merging, for strict-mode validation
}

// Load reads, merges, and resolves the three config tiers named in paths,
// validates the result, and returns the fully coalesced configuration.
// strict enables unknown-top-level-key rejection.
func Load(paths TierPaths, strict bool) (*Coalesced, error) {
	systemTree, err := loadTier(paths.System, true)
	if err != nil {
		return nil, err
	}
	sharedTree, err := loadTier(paths.Shared, true)
	if err != nil {
		return nil, err
	}
	localTree, err := loadTier(paths.Local, false)
	if err != nil {
		return nil, err
	}

	merged, origin := merge(
		tieredTree{Tier: TierSystem, Tree: systemTree},
		tieredTree{Tier: TierShared, Tree: sharedTree},
		tieredTree{Tier: TierLocal, Tree: localTree},
	)

	cfg, err := decode(merged)
	if err != nil {
		return nil, herrors.ConfigParse(paths.Local, err)
	}

	cfg.Env = resolveEnv(cfg.Env)

	if err := Validate(cfg, merged, strict); err != nil {
		return nil, err
	}

	keys := make(map[string]bool, len(merged))
	for k := range merged {
		keys[k] = true
	}

	return &Coalesced{Config: cfg, Origin: origin, keys: keys}, nil
}

// loadTier reads path as YAML into a generic tree. A missing optional
// tier yields an empty tree; a missing required tier is an error.
func loadTier(path string, optional bool) (map[string]interface{}, error) {
	if path == "" {
		if optional {
			return map[string]interface{}{}, nil
		}
		return nil, herrors.ConfigMissingField("path")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			if optional {
				return map[string]interface{}{}, nil
			}
			return nil, herrors.ConfigNotFound(path)
		}
		return nil, herrors.FileRead(path, err)
	}

	var tree map[string]interface{}
	if err := yaml.Unmarshal(data, &tree); err != nil {
		return nil, herrors.ConfigParse(path, err)
	}
	if tree == nil {
		tree = map[string]interface{}{}
	}
	return tree, nil
}

// decode renders a merged generic tree back into a HabitatConfig by
// round-tripping through YAML, relying on the struct's yaml tags matching
// the same key names used in the raw tiers.
func decode(tree map[string]interface{}) (*habitat.HabitatConfig, error) {
	data, err := yaml.Marshal(tree)
	if err != nil {
		return nil, err
	}
	var cfg habitat.HabitatConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}
