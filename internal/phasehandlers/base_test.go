package phasehandlers

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/griffithind/habitat/internal/habitat"
	"github.com/griffithind/habitat/internal/runtime"
)

func newTestState(f *runtime.Fake) *State {
	return &State{
		Port:        f,
		Config:      &habitat.HabitatConfig{Name: "demo"},
		Env:         map[string]string{"USER": "dev", "WORKDIR": "/work"},
		HabitatName: "demo",
		HabitatID:   habitat.ComputeID("demo"),
	}
}

func TestBasePullsAndStartsFromBaseImage(t *testing.T) {
	f := runtime.NewFake()
	st := newTestState(f)
	st.Config.BaseImage = "ubuntu:22.04"

	err := Base(context.Background(), st)
	require.NoError(t, err)
	assert.NotEmpty(t, st.ContainerID)

	exists, _ := f.ImageExists(context.Background(), "ubuntu:22.04")
	assert.True(t, exists)
}

func TestBaseBuildsFromDockerfile(t *testing.T) {
	f := runtime.NewFake()
	st := newTestState(f)
	st.Config.Image = &habitat.ImageSpec{Dockerfile: "Dockerfile", Context: "."}

	err := Base(context.Background(), st)
	require.NoError(t, err)
	assert.NotEmpty(t, st.ContainerID)

	tag := "temp-dockerfile-" + st.HabitatID
	exists, _ := f.ImageExists(context.Background(), tag)
	assert.True(t, exists)
}

func TestBaseRejectsMissingImageSource(t *testing.T) {
	f := runtime.NewFake()
	st := newTestState(f)

	err := Base(context.Background(), st)
	assert.Error(t, err)
}
