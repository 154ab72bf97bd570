package phasehandlers

import "context"

// Tools is a no-op by default: cfg.Tools is a free-form list consumed by
// later automation (tools normally arrive via Files), not by the build
// itself.
func Tools(ctx context.Context, st *State) error {
	return nil
}
