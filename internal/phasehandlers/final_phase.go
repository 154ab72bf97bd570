package phasehandlers

import "context"

// Final stashes the ENTRYPOINT change the Pipeline Engine applies to the
// snapshot commit rather than mutating the running container: habitat
// images always boot through /entrypoint.sh.
func Final(ctx context.Context, st *State) error {
	st.PendingEntrypoint = []string{"/entrypoint.sh"}
	return nil
}
