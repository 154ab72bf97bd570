// Package snapshot implements the Snapshot Cache: deciding the highest
// phase a pipeline run can resume from by comparing each candidate
// snapshot image's accumulated phase-hash labels against the currently
// computed hashes, the way labels.Manager.Read/CheckStaleness compares a
// container's cached labels against current config hashes — generalized
// from one container's labels to a chain of committed phase images.
package snapshot

import (
	"context"
	"fmt"

	"github.com/griffithind/habitat/internal/habitat"
	"github.com/griffithind/habitat/internal/phases"
	"github.com/griffithind/habitat/internal/runtime"
)

// Plan is the result of resolving a resume point: where the pipeline
// should start, and which image (if any) to create the build container
// from.
type Plan struct {
	// StartFromPhase is the index into phases.Registry the pipeline should
	// begin running at. 0 means start from the raw base image.
	StartFromPhase int

	// BaseImageTag is the snapshot image to create the build container
	// from, or "" to start from the habitat's configured base image.
	BaseImageTag string

	// AlreadySatisfied is true when the matched snapshot already covers
	// the requested target phase, so the pipeline has no work to do.
	AlreadySatisfied bool

	// SatisfiedTag is the tag to report when AlreadySatisfied is true.
	SatisfiedTag string
}

// Options carries the rebuild overrides from the CLI surface (spec.md
// §4.5's "Rebuild overrides").
type Options struct {
	Rebuild     bool
	RebuildFrom phases.ID // empty means no override
}

// Resolve decides the highest valid resume point for a pipeline run
// targeting target, given the habitat's current phase hashes.
//
// It walks phases.SnapshottableReversed(phases.Final) — every
// snapshot-eligible phase, last first — checking for each candidate k
// whether habitat-<name>:<k+1>-<k.ID> exists and, for every snapshotting
// phase j <= k, whether the image's accumulated hash label for j matches
// currentHashes[j]. The first k that matches wins; a k at or past target
// means the target is already satisfied by that snapshot.
func Resolve(ctx context.Context, port runtime.Port, habitatName string, currentHashes map[phases.ID]string, target phases.ID, opts Options) (Plan, error) {
	if opts.Rebuild {
		return Plan{StartFromPhase: 0}, nil
	}

	if opts.RebuildFrom != "" {
		return resolveRebuildFrom(ctx, port, habitatName, currentHashes, opts.RebuildFrom)
	}

	targetIdx := phases.IndexOf(target)
	if targetIdx < 0 {
		return Plan{}, fmt.Errorf("unknown target phase %q", target)
	}

	for _, candidate := range phases.SnapshottableReversed(phases.Final) {
		tag := snapshotTag(habitatName, candidate.ID)
		ok, err := snapshotMatches(ctx, port, tag, candidate.ID, currentHashes)
		if err != nil {
			return Plan{}, err
		}
		if !ok {
			continue
		}

		candidateIdx := phases.IndexOf(candidate.ID)
		if candidateIdx >= targetIdx {
			return Plan{AlreadySatisfied: true, SatisfiedTag: tag, StartFromPhase: candidateIdx + 1}, nil
		}
		return Plan{StartFromPhase: candidateIdx + 1, BaseImageTag: tag}, nil
	}

	return Plan{StartFromPhase: 0}, nil
}

// resolveRebuildFrom implements `rebuildFrom=P`: start at P, requiring a
// valid snapshot for the phase immediately before P to exist; falling
// back to a full rebuild if it does not.
func resolveRebuildFrom(ctx context.Context, port runtime.Port, habitatName string, currentHashes map[phases.ID]string, from phases.ID) (Plan, error) {
	fromIdx := phases.IndexOf(from)
	if fromIdx < 0 {
		return Plan{}, fmt.Errorf("unknown target phase %q", from)
	}
	if fromIdx == 0 {
		return Plan{StartFromPhase: 0}, nil
	}

	priorID := phases.Registry[fromIdx-1].ID
	tag := snapshotTag(habitatName, priorID)
	ok, err := snapshotMatches(ctx, port, tag, priorID, currentHashes)
	if err != nil {
		return Plan{}, err
	}
	if !ok {
		return Plan{StartFromPhase: 0}, nil
	}
	return Plan{StartFromPhase: fromIdx, BaseImageTag: tag}, nil
}

// snapshotMatches reports whether tag exists and, for every snapshotting
// phase j <= upTo, its accumulated hash label equals currentHashes[j], per
// spec.md §4.5. Phases after upTo are allowed to have drifted — that
// drift is exactly what a resume is for.
func snapshotMatches(ctx context.Context, port runtime.Port, tag string, upTo phases.ID, currentHashes map[phases.ID]string) (bool, error) {
	exists, err := port.ImageExists(ctx, tag)
	if err != nil {
		return false, err
	}
	if !exists {
		return false, nil
	}

	imgLabels, err := port.ImageLabels(ctx, tag)
	if err != nil {
		return false, err
	}

	upToIdx := phases.IndexOf(upTo)
	for _, p := range phases.Registry[:upToIdx+1] {
		if !p.Snapshot {
			continue
		}
		want, ok := currentHashes[p.ID]
		if !ok {
			return false, nil
		}
		got, ok := imgLabels[runtime.PhaseHashLabel(string(p.ID))]
		if !ok || got != want {
			return false, nil
		}
	}
	return true, nil
}

func snapshotTag(habitatName string, id phases.ID) string {
	idx := phases.IndexOf(id)
	return habitat.SnapshotTag(habitatName, fmt.Sprintf("%d", idx+1), string(id))
}
