package phasehandlers

import (
	"context"
	"fmt"

	"github.com/griffithind/habitat/internal/habitat"
	"github.com/griffithind/habitat/internal/herrors"
	"github.com/griffithind/habitat/internal/runtime"
)

// Base starts the build container: either from a ready-to-pull BaseImage,
// or built from a Dockerfile via Image, tagged under a temp-dockerfile-*
// reference before RunDetached. Mirrors single.Runner.resolveImage's
// pull-or-build dispatch, generalized to habitat's two config shapes.
func Base(ctx context.Context, st *State) error {
	cfg := st.Config
	var imageRef string

	switch {
	case cfg.Image != nil:
		tag := fmt.Sprintf("temp-dockerfile-%s", st.HabitatID)
		if err := st.Port.BuildImage(ctx, buildOptionsFromSpec(cfg.Image, tag, st)); err != nil {
			return herrors.Wrap(err, herrors.CategoryRuntime, herrors.CodeRuntimeBuild, "build base image from Dockerfile")
		}
		imageRef = tag
	case cfg.BaseImage != "":
		imageRef = cfg.BaseImage
		exists, err := st.Port.ImageExists(ctx, imageRef)
		if err != nil {
			return herrors.Wrap(err, herrors.CategoryRuntime, herrors.CodeRuntimeImage, "check base image presence")
		}
		if !exists {
			if err := st.Port.PullImage(ctx, imageRef); err != nil {
				return herrors.Wrap(err, herrors.CategoryRuntime, herrors.CodeRuntimeImage, fmt.Sprintf("pull base image %s", imageRef))
			}
		}
	default:
		return herrors.ConfigValidation("habitat requires either base_image or image")
	}

	containerID, err := st.Port.RunDetached(ctx, baseRunOptions(st, imageRef))
	if err != nil {
		return herrors.Wrap(err, herrors.CategoryRuntime, herrors.CodeRuntimeContainer, "start build container")
	}
	st.ContainerID = containerID
	return nil
}

func buildOptionsFromSpec(spec *habitat.ImageSpec, tag string, st *State) runtime.BuildOptions {
	return runtime.BuildOptions{
		Tag:        tag,
		Dockerfile: spec.Dockerfile,
		Context:    spec.Context,
		Args:       spec.BuildArgs,
		Stdout:     st.Stdout,
		Stderr:     st.Stderr,
	}
}

func baseRunOptions(st *State, imageRef string) runtime.RunOptions {
	return runtime.RunOptions{
		Name:       fmt.Sprintf("claude-habitat-build-%s", st.HabitatID),
		Image:      imageRef,
		Mounts:     st.Config.Volumes,
		RunArgs:    st.Config.RunArgs,
		Privileged: st.Config.Privileged,
		Init:       st.Config.Init,
		Entrypoint: []string{"sleep"},
		Cmd:        []string{"infinity"},
	}
}
