package habitat

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// PerPhaseTimeoutKey is the Timeout map key naming the fallback applied
// to every phase without its own entry.
const PerPhaseTimeoutKey = "per-phase"

// DefaultPhaseTimeout is the bound applied when neither a phase-specific
// nor a "per-phase" timeout is configured.
const DefaultPhaseTimeout = 120 * time.Second

// ParseTimeout parses one of spec.md §5's duration forms: a plain integer
// (milliseconds), or a string suffixed with "s", "m", "h", or "d".
// time.ParseDuration already handles s/m/h; "d" is handled here since the
// standard library has no day unit.
func ParseTimeout(s string) (time.Duration, error) {
	if s == "" {
		return 0, fmt.Errorf("empty timeout value")
	}
	if n, err := strconv.Atoi(s); err == nil {
		return time.Duration(n) * time.Millisecond, nil
	}
	if days, ok := strings.CutSuffix(s, "d"); ok {
		n, err := strconv.Atoi(days)
		if err != nil {
			return 0, fmt.Errorf("invalid timeout %q: %w", s, err)
		}
		return time.Duration(n) * 24 * time.Hour, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("invalid timeout %q: %w", s, err)
	}
	return d, nil
}

// PhaseTimeout resolves the timeout bound for phaseID per spec.md §5's
// order: phase-specific entry, then "per-phase", then DefaultPhaseTimeout.
func (c *HabitatConfig) PhaseTimeout(phaseID string) (time.Duration, error) {
	if s, ok := c.Timeout[phaseID]; ok {
		return ParseTimeout(s)
	}
	if s, ok := c.Timeout[PerPhaseTimeoutKey]; ok {
		return ParseTimeout(s)
	}
	return DefaultPhaseTimeout, nil
}
