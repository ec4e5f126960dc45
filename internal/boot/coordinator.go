package boot

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/danmuck/bootctl/internal/collab"
	"github.com/danmuck/bootctl/internal/observability"
	"github.com/rs/zerolog/log"
)

var (
	ErrMissingDependency = errors.New("boot: missing dependency")
	ErrAlreadyBound      = errors.New("boot: already bound")
	ErrDevModeRequired   = errors.New("boot: debug operation requires dev mode")
	ErrRegistryRequired  = errors.New("boot: collaborator registry required")
)

// CoordinatorConfig describes one coordinator instance. Required kinds
// are fatal when absent at bind time; optional kinds are skipped with a
// diagnostic.
type CoordinatorConfig struct {
	Node     string
	Registry *collab.Registry
	Required []string
	Optional []string
	DevMode  bool
}

// CoordinatorSnapshot is a read-only projection of binding state.
type CoordinatorSnapshot struct {
	Node    string
	Ready   bool
	Bound   []string
	Skipped []string
	Missing []string
	BoundAt time.Time
}

// Coordinator binds the dependency set after the startup barrier and
// owns the process readiness flag. Construction performs no collaborator
// access; that is phase one of the two-phase startup.
type Coordinator struct {
	node     string
	registry *collab.Registry
	required []string
	optional []string
	devMode  bool

	mu      sync.Mutex
	ready   atomic.Bool
	readyCh chan struct{}
	bound   []string
	skipped []string
	missing []string
	boundAt time.Time
}

// NewCoordinator constructs an unbound coordinator. Callers must claim
// the slot with Acquire before calling Bind.
func NewCoordinator(cfg CoordinatorConfig) (*Coordinator, error) {
	if cfg.Registry == nil {
		return nil, ErrRegistryRequired
	}
	node := strings.TrimSpace(cfg.Node)
	if node == "" {
		node = "boot.local"
	}
	required := cfg.Required
	if len(required) == 0 {
		required = []string{collab.KindSaves, collab.KindProfiles}
	}
	return &Coordinator{
		node:     node,
		registry: cfg.Registry,
		required: normalizeKinds(required),
		optional: normalizeKinds(cfg.Optional),
		devMode:  cfg.DevMode,
		readyCh:  make(chan struct{}),
	}, nil
}

// Node returns the coordinator's node label.
func (c *Coordinator) Node() string {
	return c.node
}

// Bind is phase two: it resolves every required kind against the
// registry. On full resolution the readiness flag transitions
// false -> true exactly once. Any absent required kind classifies the
// boot attempt as missing-dependency and the flag is never set.
func (c *Coordinator) Bind() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.ready.Load() {
		return fmt.Errorf("%w: %s", ErrAlreadyBound, c.node)
	}
	return c.bindLocked()
}

func (c *Coordinator) bindLocked() error {
	bound := make([]string, 0, len(c.required))
	missing := make([]string, 0)
	for _, kind := range c.required {
		if _, ok := c.registry.Resolve(kind); !ok {
			missing = append(missing, kind)
			continue
		}
		bound = append(bound, kind)
	}

	skipped := make([]string, 0)
	for _, kind := range c.optional {
		if _, ok := c.registry.Resolve(kind); !ok {
			skipped = append(skipped, kind)
			log.Warn().Str("node", c.node).Str("kind", kind).Msg("optional_collaborator_absent")
		}
	}
	c.skipped = skipped

	if len(missing) > 0 {
		c.missing = missing
		observability.RecordBindAttempt(c.node, "missing_dependency")
		log.Error().
			Str("node", c.node).
			Strs("missing", missing).
			Msg("dependency_bind_failed")
		return fmt.Errorf("%w: %s", ErrMissingDependency, strings.Join(missing, ", "))
	}

	c.bound = bound
	c.missing = nil
	c.boundAt = time.Now()
	c.ready.Store(true)
	close(c.readyCh)
	observability.RecordBindAttempt(c.node, "success")
	log.Info().
		Str("node", c.node).
		Strs("bound", bound).
		Int("optional_skipped", len(skipped)).
		Msg("dependency_bind_complete")
	return nil
}

// Ready reports the monotonic readiness flag. An observer that reads
// true is guaranteed every required binding completed first.
func (c *Coordinator) Ready() bool {
	return c.ready.Load()
}

// ReadyCh returns a channel closed when the coordinator becomes ready.
func (c *Coordinator) ReadyCh() <-chan struct{} {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.readyCh
}

// Snapshot returns a defensive copy of binding state.
func (c *Coordinator) Snapshot() CoordinatorSnapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return CoordinatorSnapshot{
		Node:    c.node,
		Ready:   c.ready.Load(),
		Bound:   append([]string{}, c.bound...),
		Skipped: append([]string{}, c.skipped...),
		Missing: append([]string{}, c.missing...),
		BoundAt: c.boundAt,
	}
}

// DebugResetReady reverts the readiness flag and re-arms the ready
// channel. Dev mode only; the flag is otherwise monotonic for the
// coordinator's lifetime.
func (c *Coordinator) DebugResetReady() error {
	if !c.devMode {
		return ErrDevModeRequired
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.ready.Load() {
		return nil
	}
	c.ready.Store(false)
	c.readyCh = make(chan struct{})
	c.bound = nil
	c.boundAt = time.Time{}
	log.Warn().Str("node", c.node).Msg("readiness_debug_reset")
	return nil
}

// DebugRebind re-runs dependency binding for this coordinator even
// though it already bound, bypassing the usual once-only rule for one
// call. Dev mode only.
func (c *Coordinator) DebugRebind() error {
	if !c.devMode {
		return ErrDevModeRequired
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.ready.Load() {
		c.ready.Store(false)
		c.readyCh = make(chan struct{})
	}
	return c.bindLocked()
}

func normalizeKinds(in []string) []string {
	out := make([]string, 0, len(in))
	seen := make(map[string]struct{}, len(in))
	for _, raw := range in {
		kind := strings.TrimSpace(raw)
		if kind == "" {
			continue
		}
		if _, ok := seen[kind]; ok {
			continue
		}
		seen[kind] = struct{}{}
		out = append(out, kind)
	}
	return out
}
