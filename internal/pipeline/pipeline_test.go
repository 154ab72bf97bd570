package pipeline

import (
	"testing"

	"github.com/griffithind/habitat/internal/phases"
	"github.com/stretchr/testify/assert"
)

func TestNullProgressReporter(t *testing.T) {
	// Should not panic.
	r := NullProgressReporter{}
	r.OnProgress(PhaseProgress{Phase: phases.Base, Message: "test", Percentage: 50})
	r.OnPhaseStart(phases.Base)
	r.OnPhaseComplete(phases.Base, nil)
}

type mockProgressReporter struct {
	started   []phases.ID
	completed []phases.ID
	messages  []string
}

func (m *mockProgressReporter) OnProgress(p PhaseProgress) {
	m.messages = append(m.messages, p.Message)
}

func (m *mockProgressReporter) OnPhaseStart(id phases.ID) {
	m.started = append(m.started, id)
}

func (m *mockProgressReporter) OnPhaseComplete(id phases.ID, err error) {
	m.completed = append(m.completed, id)
}

func TestPhaseProgressFields(t *testing.T) {
	p := PhaseProgress{Phase: phases.Users, Message: "creating user", Percentage: 25}
	assert.Equal(t, phases.Users, p.Phase)
	assert.Equal(t, "creating user", p.Message)
	assert.Equal(t, 25, p.Percentage)
}
