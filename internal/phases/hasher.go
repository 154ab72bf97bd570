package phases

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/gowebpki/jcs"

	"github.com/griffithind/habitat/internal/habitat"
)

// schemaVersion is bumped whenever the hash projection or canonicalization
// logic changes, forcing every cached snapshot to miss.
const schemaVersion = "1"

// RepoState carries the live repository state (current commit and branch)
// used to enrich a repos-phase projection entry, per spec.md §4.4: a repo
// whose clone target pre-exists on the build host contributes its current
// commit and branch to the hash, so a moved ref invalidates the cache.
type RepoState struct {
	URL           string
	CurrentCommit string // 12 hex chars, or "not-cloned"
	CurrentBranch string // or "not-cloned"
}

// FileState carries the live content hash of a files-phase entry, keyed
// by its source path, per spec.md §4.4: each files entry is enriched with
// a 12-hex contentHash of the source file, or "error:not-read" if it cannot
// be read; the cause of the read failure is not recorded.
type FileState struct {
	Source      string
	ContentHash string
}

// hashProjection is the canonicalized structure a phase's hash is computed
// over: a fixed schema version, the dotted-path projection of the
// coalesced config, and any live enrichment data.
type hashProjection struct {
	SchemaVersion string                 `json:"schema_version"`
	Phase         ID                     `json:"phase"`
	Config        map[string]interface{} `json:"config"`
}

// Hash computes the content-addressed PhaseHash for phase p against the
// coalesced cfg, enriched with live repo/file state where applicable. The
// result is a 12-character hex digest.
func Hash(cfg *habitat.HabitatConfig, p Phase, repoStates []RepoState, fileStates []FileState) (string, error) {
	tree := buildTree(cfg)
	enrichTree(tree, p.ID, repoStates, fileStates)

	projected := project(tree, p.ConfigSections)

	proj := hashProjection{
		SchemaVersion: schemaVersion,
		Phase:         p.ID,
		Config:        projected,
	}

	return canonicalHash(proj)
}

// CalculateAll computes the hash for every phase from "base" up to and
// including target in one pass, loading the config once and reusing it,
// per spec.md §4.4's calculate_all batch API. Returns hashes keyed by
// phase ID.
func CalculateAll(cfg *habitat.HabitatConfig, target ID, repoStates []RepoState, fileStates []FileState) (map[ID]string, error) {
	tree := buildTree(cfg)

	out := make(map[ID]string)
	for _, p := range Slice(target) {
		t := cloneTree(tree)
		enrichTree(t, p.ID, repoStates, fileStates)
		projected := project(t, p.ConfigSections)

		proj := hashProjection{
			SchemaVersion: schemaVersion,
			Phase:         p.ID,
			Config:        projected,
		}
		h, err := canonicalHash(proj)
		if err != nil {
			return nil, err
		}
		out[p.ID] = h
	}
	return out, nil
}

// buildTree renders cfg into the generic tree the dotted-path projector
// walks. Env is represented as a resolved map (not the ordered KEY=value
// list) so "env.USER"-style dotted paths address it directly.
func buildTree(cfg *habitat.HabitatConfig) map[string]interface{} {
	tree := map[string]interface{}{
		"name": cfg.Name,
		"env":  habitat.EnvMap(cfg.Env),
	}
	if cfg.BaseImage != "" {
		tree["base_image"] = cfg.BaseImage
	}
	if cfg.Image != nil {
		tree["image"] = cfg.Image
	}
	if len(cfg.Files) > 0 {
		tree["files"] = cloneFileEntries(cfg.Files)
	}
	if len(cfg.Volumes) > 0 {
		tree["volumes"] = cfg.Volumes
	}
	if len(cfg.Repos) > 0 {
		tree["repos"] = cloneRepoEntries(cfg.Repos)
	}
	if len(cfg.Tools) > 0 {
		tree["tools"] = cfg.Tools
	}
	if len(cfg.Scripts) > 0 {
		tree["scripts"] = cfg.Scripts
	}
	tree["verify-fs"] = cfg.VerifyFS
	if len(cfg.Tests) > 0 {
		tree["tests"] = cfg.Tests
	}
	tree["entry"] = cfg.Entry
	return tree
}

// fileProjection and repoProjection are the per-entry shapes placed in
// the tree, later enriched in-place with their live content/commit state.
type fileProjection struct {
	Src         string `json:"src"`
	Dest        string `json:"dest"`
	Mode        string `json:"mode,omitempty"`
	Owner       string `json:"owner,omitempty"`
	ContentHash string `json:"contentHash,omitempty"`
}

type repoProjection struct {
	URL           string `json:"url"`
	Path          string `json:"path"`
	Branch        string `json:"branch,omitempty"`
	CurrentCommit string `json:"currentCommit,omitempty"`
	CurrentBranch string `json:"currentBranch,omitempty"`
}

func cloneFileEntries(files []habitat.FileEntry) []fileProjection {
	out := make([]fileProjection, len(files))
	for i, f := range files {
		out[i] = fileProjection{Src: f.Src, Dest: f.Dest, Mode: f.Mode, Owner: f.Owner}
	}
	return out
}

func cloneRepoEntries(repos []habitat.RepoSpec) []repoProjection {
	out := make([]repoProjection, len(repos))
	for i, r := range repos {
		out[i] = repoProjection{URL: r.URL, Path: r.Path, Branch: r.Branch}
	}
	return out
}

// cloneTree deep-copies the slice-typed values in tree so CalculateAll's
// per-phase enrichment doesn't mutate a shared base tree across phases.
func cloneTree(tree map[string]interface{}) map[string]interface{} {
	out := make(map[string]interface{}, len(tree))
	for k, v := range tree {
		switch vv := v.(type) {
		case []fileProjection:
			cp := make([]fileProjection, len(vv))
			copy(cp, vv)
			out[k] = cp
		case []repoProjection:
			cp := make([]repoProjection, len(vv))
			copy(cp, vv)
			out[k] = cp
		default:
			out[k] = v
		}
	}
	return out
}

// enrichTree applies the files/repos live-state augmentation described in
// spec.md §4.4, only when phase id is the phase that owns that section.
func enrichTree(tree map[string]interface{}, id ID, repoStates []RepoState, fileStates []FileState) {
	if id == Files {
		if files, ok := tree["files"].([]fileProjection); ok {
			byPath := make(map[string]string, len(fileStates))
			for _, fs := range fileStates {
				byPath[fs.Source] = fs.ContentHash
			}
			for i := range files {
				if h, ok := byPath[files[i].Src]; ok {
					files[i].ContentHash = h
				} else {
					files[i].ContentHash = "error:not-read"
				}
			}
		}
	}
	if id == Repos {
		if repos, ok := tree["repos"].([]repoProjection); ok {
			byURL := make(map[string]RepoState, len(repoStates))
			for _, rs := range repoStates {
				byURL[rs.URL] = rs
			}
			for i := range repos {
				if rs, ok := byURL[repos[i].URL]; ok {
					repos[i].CurrentCommit = rs.CurrentCommit
					repos[i].CurrentBranch = rs.CurrentBranch
				} else {
					repos[i].CurrentCommit = "not-cloned"
					repos[i].CurrentBranch = "not-cloned"
				}
			}
		}
	}
}

// project selects the dotted config_sections out of tree, merging
// sections that share a top-level prefix (e.g. several "env.X" sections
// accumulate into a single "env" sub-map). Only one level of nesting is
// needed by the Phase Registry's table.
func project(tree map[string]interface{}, sections []string) map[string]interface{} {
	out := make(map[string]interface{})
	for _, section := range sections {
		head, rest, nested := strings.Cut(section, ".")
		val, ok := tree[head]
		if !ok {
			continue
		}
		if !nested {
			out[head] = val
			continue
		}
		envMap, ok := val.(map[string]string)
		if !ok {
			continue
		}
		v, present := envMap[rest]
		if !present {
			continue
		}
		sub, _ := out[head].(map[string]string)
		if sub == nil {
			sub = make(map[string]string)
		}
		sub[rest] = v
		out[head] = sub
	}
	return out
}

// canonicalHash marshals v, canonicalizes it per RFC 8785 (JCS), and
// returns the truncated hex SHA-256 digest used as a PhaseHash.
func canonicalHash(v interface{}) (string, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("marshal hash projection: %w", err)
	}

	canonical, err := jcs.Transform(data)
	if err != nil {
		return "", fmt.Errorf("canonicalize hash projection: %w", err)
	}

	sum := sha256.Sum256(canonical)
	full := hex.EncodeToString(sum[:])
	return full[:12], nil
}
