// Package cleanup implements the Cleanup Coordinator: a process-wide,
// idempotent sweep of habitat-managed containers and dangling images,
// gated by a "last process wins" check against peer processes, and
// wired to the process's termination signals.
package cleanup

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"sync"
	"syscall"

	"github.com/shirou/gopsutil/v4/process"

	"github.com/griffithind/habitat/internal/hlog"
	"github.com/griffithind/habitat/internal/runtime"
)

// State is one of the coordinator's three observable states.
type State string

const (
	StateIdle       State = "idle"
	StateInProgress State = "in_progress"
	StateComplete   State = "complete"
)

// Result reports what a cleanup pass did.
type Result struct {
	ContainersRemoved int
	ImagesRemoved     int
	Skipped           bool // true when another cleanup was already running, or this wasn't the last process
}

// Coordinator wraps runtime.Port cleanup calls with the state machine and
// peer-process gate spec.md §4.8 describes, generalized from the
// teacher's image-only CleanupDanglingImages/CleanupDerivedImages pair
// (internal/docker/cleanup.go) to also sweep habitat-prefixed containers
// and to gate on whether this is the last surviving process.
type Coordinator struct {
	port          runtime.Port
	habitatPrefix string
	logger        *slog.Logger

	mu       sync.Mutex
	state    State
	attempts int
}

// New returns a Coordinator in the idle state. habitatPrefix is the
// container-name prefix that marks a container as habitat-managed (see
// phasehandlers.Base's "claude-habitat-build-" naming).
func New(port runtime.Port, habitatPrefix string, logger *slog.Logger) *Coordinator {
	if logger == nil {
		logger = hlog.Default()
	}
	return &Coordinator{port: port, habitatPrefix: habitatPrefix, logger: logger, state: StateIdle}
}

// State reports the coordinator's current state.
func (c *Coordinator) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Attempts reports how many termination signals have been observed.
func (c *Coordinator) Attempts() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.attempts
}

// IsLastProcess reports whether no other running process shares this
// process's executable basename. It is the "last process wins" gate:
// cleanup only runs unattended when this is true, since another still-
// running instance may still need the containers/images this one would
// remove.
func IsLastProcess() (bool, error) {
	self := filepath.Base(os.Args[0])
	procs, err := process.Processes()
	if err != nil {
		return false, fmt.Errorf("enumerate processes: %w", err)
	}
	selfPID := os.Getpid()
	for _, p := range procs {
		if int(p.Pid) == selfPID {
			continue
		}
		name, err := p.Name()
		if err != nil {
			continue
		}
		if name == self {
			return false, nil
		}
	}
	return true, nil
}

// Run performs one cleanup pass: stops and removes every container whose
// name carries the habitat prefix, then removes every dangling image.
// Per-resource errors are logged and ignored. force bypasses the "last
// process wins" gate. Only one pass runs at a time; a concurrent caller
// gets back a Result with Skipped set rather than re-entering.
func (c *Coordinator) Run(ctx context.Context, force bool) (*Result, error) {
	c.mu.Lock()
	if c.state == StateInProgress {
		c.mu.Unlock()
		return &Result{Skipped: true}, nil
	}
	c.state = StateInProgress
	c.mu.Unlock()

	defer func() {
		c.mu.Lock()
		c.state = StateComplete
		c.mu.Unlock()
	}()

	if !force {
		last, err := IsLastProcess()
		if err == nil && !last {
			c.logger.Debug("cleanup skipped, other instances still running")
			return &Result{Skipped: true}, nil
		}
		if err != nil {
			c.logger.Warn("peer process check failed, proceeding with cleanup", "err", err)
		}
	}

	result := &Result{}
	result.ContainersRemoved = c.cleanContainers(ctx)
	result.ImagesRemoved = c.cleanDanglingImages(ctx)
	return result, nil
}

func (c *Coordinator) cleanContainers(ctx context.Context) int {
	containers, err := c.port.ListContainers(ctx, nil)
	if err != nil {
		c.logger.Warn("list containers failed", "err", err)
		return 0
	}

	removed := 0
	for _, ct := range containers {
		if !hasPrefix(ct.Name, c.habitatPrefix) {
			continue
		}
		if err := c.port.StopContainer(ctx, ct.ID, nil); err != nil {
			c.logger.Warn("stop container failed", "container", ct.ID, "err", err)
		}
		if err := c.port.RemoveContainer(ctx, ct.ID, true); err != nil {
			c.logger.Warn("remove container failed", "container", ct.ID, "err", err)
			continue
		}
		removed++
	}
	return removed
}

func (c *Coordinator) cleanDanglingImages(ctx context.Context) int {
	images, err := c.port.ListImages(ctx, "")
	if err != nil {
		c.logger.Warn("list images failed", "err", err)
		return 0
	}

	removed := 0
	for _, img := range images {
		if !isDangling(img) {
			continue
		}
		if err := c.port.RemoveImage(ctx, img.ID); err != nil {
			c.logger.Warn("remove image failed", "image", img.ID, "err", err)
			continue
		}
		removed++
	}
	return removed
}

func isDangling(img runtime.Image) bool {
	if len(img.RepoTags) == 0 {
		return true
	}
	for _, tag := range img.RepoTags {
		if tag != "" && tag != "<none>:<none>" {
			return false
		}
	}
	return true
}

func hasPrefix(s, prefix string) bool {
	return len(s) >= len(prefix) && s[:len(prefix)] == prefix
}

// HandleSignals installs the progressive-interrupt signal loop from
// spec.md §4.8: the first SIGINT/SIGTERM calls onFirstInterrupt (if
// non-nil, typically the running pipeline's cancel func) and begins a
// graceful cleanup asynchronously; the 2nd through 4th print a
// remaining-attempts warning; the 5th exits immediately with status 1.
// It returns a stop function that removes the signal handler.
func (c *Coordinator) HandleSignals(onFirstInterrupt func()) (stop func()) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	done := make(chan struct{})
	go func() {
		for {
			select {
			case <-sigCh:
				c.onSignal(onFirstInterrupt)
			case <-done:
				return
			}
		}
	}()

	return func() {
		signal.Stop(sigCh)
		close(done)
	}
}

func (c *Coordinator) onSignal(onFirstInterrupt func()) {
	c.mu.Lock()
	c.attempts++
	n := c.attempts
	c.mu.Unlock()

	switch {
	case n == 1:
		if onFirstInterrupt != nil {
			onFirstInterrupt()
		}
		go func() {
			if _, err := c.Run(context.Background(), false); err != nil {
				c.logger.Warn("cleanup failed", "err", err)
			}
		}()
	case n < 5:
		fmt.Fprintf(os.Stderr, "shutdown in progress, %d more times to force exit\n", 5-n)
	default:
		os.Exit(1)
	}
}
