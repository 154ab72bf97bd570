// Package habitat defines the core data model for a habitat: the
// coalesced configuration, its repositories, the fixed phase registry
// member it describes, and the content-addressed identifiers used to
// locate cached snapshots.
package habitat

import (
	"crypto/sha256"
	"encoding/base32"
	"strings"
)

// HabitatConfig is the fully coalesced configuration for a habitat,
// merged from the system, shared, and local YAML tiers and with every
// ${VAR} env reference substituted.
type HabitatConfig struct {
	// Name is the habitat identifier, matching ^[a-z][a-z0-9-]*$.
	Name string `yaml:"name"`

	// BaseImage is a ready-to-pull image reference used directly as the
	// base phase's starting point.
	BaseImage string `yaml:"base_image,omitempty"`

	// Image optionally builds the base phase's starting point from a
	// Dockerfile instead of pulling BaseImage.
	Image *ImageSpec `yaml:"image,omitempty"`

	// Env is the ordered list of KEY=value entries; a value may reference
	// ${OTHER} for forward/self substitution. Includes at minimum USER
	// and WORKDIR once resolved.
	Env []string `yaml:"env,omitempty"`

	Files   []FileEntry   `yaml:"files,omitempty"`
	Scripts []ScriptEntry `yaml:"scripts,omitempty"`
	Repos   []RepoSpec    `yaml:"repos,omitempty"`

	// Volumes are host:container bind-mount strings with ${VAR} and ~
	// expansion applied.
	Volumes []string `yaml:"volumes,omitempty"`

	// Tools is a free-form list consumed by the tools phase; empty by
	// default since tools normally arrive via Files.
	Tools []string `yaml:"tools,omitempty"`

	VerifyFS VerifyFSSpec `yaml:"verify-fs,omitempty"`
	Tests    []string     `yaml:"tests,omitempty"`
	Entry    EntrySpec    `yaml:"entry,omitempty"`

	// Labels are arbitrary user labels merged onto every snapshot image in
	// addition to the phase-hash labels. The "habitat." prefix is
	// reserved and silently dropped from this list during merge.
	Labels []string `yaml:"labels,omitempty"`

	// ShutdownAction controls what happens to the final phase's container
	// once it has been committed: "stop" (the default) stops it, "none"
	// leaves it running for immediate attach.
	ShutdownAction string `yaml:"shutdown_action,omitempty"`

	Init       bool     `yaml:"init,omitempty"`
	Privileged bool     `yaml:"privileged,omitempty"`
	RunArgs    []string `yaml:"run_args,omitempty"`

	// Timeout maps a phase ID, or the "per-phase" sentinel, to a duration
	// string in the form spec.md §5 describes ("30s", "2m", "1h", "1d", or
	// a plain millisecond count). Resolved by PhaseTimeout.
	Timeout map[string]string `yaml:"timeout,omitempty"`

	// Description is free-form and carried only for display; no component
	// reads it.
	Description string `yaml:"description,omitempty"`
}

// ImageSpec builds the base phase's starting image from a Dockerfile.
type ImageSpec struct {
	Dockerfile string            `yaml:"dockerfile,omitempty"`
	Context    string            `yaml:"context,omitempty"`
	BuildArgs  map[string]string `yaml:"build_args,omitempty"`
}

// FileEntry describes one file or directory materialized during the
// files phase, or adjacent to another phase via Before/After.
type FileEntry struct {
	Src    string `yaml:"src"`
	Dest   string `yaml:"dest"`
	Mode   string `yaml:"mode,omitempty"`
	Owner  string `yaml:"owner,omitempty"`
	Before string `yaml:"before,omitempty"`
	After  string `yaml:"after,omitempty"`
}

// ScriptEntry describes one group of shell commands run during the
// scripts phase, or adjacent to another phase via Before/After.
type ScriptEntry struct {
	RunAs    string   `yaml:"run_as,omitempty"`
	Commands []string `yaml:"commands"`
	Before   string   `yaml:"before,omitempty"`
	After    string   `yaml:"after,omitempty"`
}

// RepoSpec describes one repository checked out during the repos phase.
type RepoSpec struct {
	URL     string `yaml:"url"`
	Path    string `yaml:"path"`
	Branch  string `yaml:"branch,omitempty"`
	Shallow bool   `yaml:"shallow,omitempty"`
	Access  string `yaml:"access,omitempty"`
}

// VerifyFSSpec lists filesystem assertions checked by the verify phase.
type VerifyFSSpec struct {
	RequiredFiles []string `yaml:"required_files,omitempty"`
}

// EntrySpec carries final-phase-only options.
type EntrySpec struct {
	TTY                       bool `yaml:"tty,omitempty"`
	StartupDelay              int  `yaml:"startup_delay,omitempty"`
	BypassHabitatConstruction bool `yaml:"bypass_habitat_construction,omitempty"`
}

// ComputeID derives the stable, short identifier for a habitat name:
// base32(sha256(name))[0:12], lowercased. This mirrors the workspace
// identity scheme used for image tags and labels throughout habitat.
func ComputeID(name string) string {
	sum := sha256.Sum256([]byte(name))
	encoded := strings.ToLower(base32.StdEncoding.EncodeToString(sum[:]))
	if len(encoded) > 12 {
		encoded = encoded[:12]
	}
	return encoded
}

// SnapshotTag returns the image reference for a given habitat/phase pair:
// habitat-<name>:<id>-<name>, per the Snapshot data model (spec.md §3).
func SnapshotTag(habitatName, phaseID, phaseName string) string {
	return "habitat-" + habitatName + ":" + phaseID + "-" + phaseName
}
