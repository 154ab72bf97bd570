package progress

import (
	"errors"
	"testing"

	"github.com/griffithind/habitat/internal/phases"
	"github.com/griffithind/habitat/internal/pipeline"
)

func TestQuietReporterIsNoop(t *testing.T) {
	r := New(true)
	r.OnPhaseStart(phases.Base)
	r.OnProgress(pipeline.PhaseProgress{Phase: phases.Base, Message: "pulling"})
	r.OnPhaseComplete(phases.Base, nil)
}

func TestReporterRunsThroughAPhaseWithoutPanicking(t *testing.T) {
	r := New(false)
	r.OnPhaseStart(phases.Base)
	r.OnProgress(pipeline.PhaseProgress{Phase: phases.Base, Message: "pulling image"})
	r.OnPhaseComplete(phases.Base, nil)
	r.OnPhaseComplete(phases.Base, errors.New("boom"))
}
