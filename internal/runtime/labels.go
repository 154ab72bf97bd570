package runtime

// Label constants for habitat-managed images and containers. All labels
// use the reserved "habitat." namespace; user-supplied labels beginning
// with this prefix are dropped during merge (see habitat.HabitatConfig.Labels).
const (
	LabelPrefix = "habitat."

	// LabelManaged marks a container or image as habitat-managed.
	LabelManaged = LabelPrefix + "managed"

	// LabelHabitatID is the content-addressed habitat identity
	// (habitat.ComputeID) the image/container belongs to.
	LabelHabitatID = LabelPrefix + "id"

	// LabelHabitatName is the human-readable habitat name.
	LabelHabitatName = LabelPrefix + "name"

	// LabelPhase is the phase this snapshot image was committed for.
	LabelPhase = LabelPrefix + "phase"

	// LabelResult carries the pipeline run's terminal outcome.
	LabelResult = LabelPrefix + "result"

	// LabelTimestamp is the RFC3339 commit time of the snapshot.
	LabelTimestamp = LabelPrefix + "timestamp"

	// LabelSchemaVersion is the label schema version, bumped whenever the
	// meaning of the above labels changes incompatibly.
	LabelSchemaVersion = LabelPrefix + "schema_version"

	// phaseHashLabelSuffix is appended to a phase name to form its
	// accumulated hash label, e.g. "habitat.phase.base.hash".
	phaseHashLabelPrefix = LabelPrefix + "phase."
	phaseHashLabelSuffix = ".hash"
)

// CurrentLabelSchemaVersion is the schema version habitat currently writes.
const CurrentLabelSchemaVersion = "1"

// PhaseHashLabel returns the label key carrying phaseName's accumulated
// PhaseHash, e.g. PhaseHashLabel("base") == "habitat.phase.base.hash".
func PhaseHashLabel(phaseName string) string {
	return phaseHashLabelPrefix + phaseName + phaseHashLabelSuffix
}

// PhaseNameFromHashLabel reverses PhaseHashLabel, returning ("", false) if
// key is not a phase-hash label.
func PhaseNameFromHashLabel(key string) (string, bool) {
	if len(key) <= len(phaseHashLabelPrefix)+len(phaseHashLabelSuffix) {
		return "", false
	}
	if key[:len(phaseHashLabelPrefix)] != phaseHashLabelPrefix {
		return "", false
	}
	if key[len(key)-len(phaseHashLabelSuffix):] != phaseHashLabelSuffix {
		return "", false
	}
	return key[len(phaseHashLabelPrefix) : len(key)-len(phaseHashLabelSuffix)], true
}

// SnapshotLabels builds the full label set stamped on a phase snapshot
// image: identity labels, one accumulated hash label per phase executed so
// far (phaseHashes), and any user-supplied labels, with the reserved
// prefix silently dropped from the latter.
func SnapshotLabels(habitatID, habitatName, phase, result, timestamp string, phaseHashes map[string]string, userLabels []string) map[string]string {
	m := map[string]string{
		LabelManaged:       "true",
		LabelHabitatID:     habitatID,
		LabelHabitatName:   habitatName,
		LabelPhase:         phase,
		LabelResult:        result,
		LabelTimestamp:     timestamp,
		LabelSchemaVersion: CurrentLabelSchemaVersion,
	}
	for name, hash := range phaseHashes {
		m[PhaseHashLabel(name)] = hash
	}
	for _, l := range userLabels {
		if len(l) >= len(LabelPrefix) && l[:len(LabelPrefix)] == LabelPrefix {
			continue
		}
		if k, v, ok := splitLabel(l); ok {
			m[k] = v
		}
	}
	return m
}

func splitLabel(s string) (string, string, bool) {
	for i := 0; i < len(s); i++ {
		if s[i] == '=' {
			return s[:i], s[i+1:], true
		}
	}
	return "", "", false
}
