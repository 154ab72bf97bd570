// Package phases defines the fixed Phase Registry and the content-addressed
// Phase Hasher used to decide which cached snapshot a pipeline run can
// resume from.
package phases

// ID identifies one of the twelve fixed phases, in pipeline order.
type ID string

// The twelve fixed phases, in the order the Pipeline Engine runs them.
const (
	Base    ID = "base"
	Users   ID = "users"
	Env     ID = "env"
	Workdir ID = "workdir"
	Habitat ID = "habitat"
	Files   ID = "files"
	Repos   ID = "repos"
	Tools   ID = "tools"
	Scripts ID = "scripts"
	Verify  ID = "verify"
	Test    ID = "test"
	Final   ID = "final"
)

// Phase is one entry in the Phase Registry: a fixed pipeline step plus
// the dotted config paths its hash is computed over.
type Phase struct {
	ID ID

	// ConfigSections are the dotted paths into the coalesced config that
	// this phase's hash projection is computed from, per spec.md §4.3.
	ConfigSections []string

	// Snapshot reports whether this phase commits an image after running.
	// verify and test are validation-only and never snapshot.
	Snapshot bool
}

// Registry is the fixed, ordered list of phases every habitat pipeline
// run walks from "base" to the requested target, matching spec.md §4.3's
// table exactly.
var Registry = []Phase{
	{ID: Base, ConfigSections: []string{"base_image", "image", "name"}, Snapshot: true},
	{ID: Users, ConfigSections: []string{"env.USER", "env.WORKDIR"}, Snapshot: true},
	{ID: Env, ConfigSections: []string{"env"}, Snapshot: true},
	{ID: Workdir, ConfigSections: []string{"env.WORKDIR", "env.HABITAT_PATH", "env.SYSTEM_PATH", "env.SHARED_PATH", "env.LOCAL_PATH"}, Snapshot: true},
	{ID: Habitat, ConfigSections: []string{"env.HABITAT_PATH", "env.SYSTEM_PATH", "env.SHARED_PATH", "env.LOCAL_PATH"}, Snapshot: true},
	{ID: Files, ConfigSections: []string{"files", "volumes"}, Snapshot: true},
	{ID: Repos, ConfigSections: []string{"repos"}, Snapshot: true},
	{ID: Tools, ConfigSections: []string{"tools"}, Snapshot: true},
	{ID: Scripts, ConfigSections: []string{"scripts"}, Snapshot: true},
	{ID: Verify, ConfigSections: []string{"verify-fs"}, Snapshot: false},
	{ID: Test, ConfigSections: []string{"tests"}, Snapshot: false},
	{ID: Final, ConfigSections: []string{"entry"}, Snapshot: true},
}

// IndexOf returns the position of id in Registry, or -1 if not present.
func IndexOf(id ID) int {
	for i, p := range Registry {
		if p.ID == id {
			return i
		}
	}
	return -1
}

// ByID returns the Phase entry for id.
func ByID(id ID) (Phase, bool) {
	i := IndexOf(id)
	if i < 0 {
		return Phase{}, false
	}
	return Registry[i], true
}

// Slice returns the sub-sequence of Registry from "base" up to and
// including target. A target not in the registry returns the full list.
func Slice(target ID) []Phase {
	end := IndexOf(target)
	if end < 0 {
		return Registry
	}
	return Registry[:end+1]
}

// SnapshottableReversed returns the sub-sequence of phases up to and including
// target that actually commit a snapshot, in reverse (last first) — the
// order the Snapshot Cache walks when resolving a resume point.
func SnapshottableReversed(target ID) []Phase {
	all := Slice(target)
	out := make([]Phase, 0, len(all))
	for i := len(all) - 1; i >= 0; i-- {
		if all[i].Snapshot {
			out = append(out, all[i])
		}
	}
	return out
}
