package phasehandlers

import "github.com/griffithind/habitat/internal/phases"

// ByID maps each fixed phase to its handler function.
var ByID = map[phases.ID]Handler{
	phases.Base:    Base,
	phases.Users:   Users,
	phases.Env:     Env,
	phases.Workdir: Workdir,
	phases.Habitat: HabitatDirs,
	phases.Files:   Files,
	phases.Repos:   Repos,
	phases.Tools:   Tools,
	phases.Scripts: Scripts,
	phases.Verify:  Verify,
	phases.Test:    Test,
	phases.Final:   Final,
}
