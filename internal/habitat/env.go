package habitat

import (
	"sort"
	"strings"
)

// EnvMap parses an ordered KEY=value list into a map, later entries
// winning on duplicate keys. Used wherever a single resolved value is
// needed rather than the full ordered list (hashing projections, the
// resolved environment consumed by phase handlers).
func EnvMap(env []string) map[string]string {
	m := make(map[string]string, len(env))
	for _, entry := range env {
		key, value, ok := strings.Cut(entry, "=")
		if !ok {
			continue
		}
		m[key] = value
	}
	return m
}

// EnvSlice renders a map back into a sorted KEY=value list.
func EnvSlice(m map[string]string) []string {
	out := make([]string, 0, len(m))
	for k, v := range m {
		out = append(out, k+"="+v)
	}
	sort.Strings(out)
	return out
}
