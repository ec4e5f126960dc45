package gate

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/danmuck/bootctl/internal/flagstore"
	"github.com/danmuck/bootctl/internal/observability"
	"github.com/danmuck/bootctl/internal/scene"
	"github.com/rs/zerolog/log"
)

var (
	ErrInvalidGateConfig = errors.New("gate: invalid config")
	ErrGateAlreadyFired  = errors.New("gate: already fired")
	ErrDebugUnavailable  = errors.New("gate: debug reset requires dev mode")
)

// Decision is the selected follow-up transition of a gate evaluation.
type Decision string

const (
	DecisionSkip      Decision = "skip"
	DecisionReturning Decision = "returning"
	DecisionFirstTime Decision = "first_time"
	DecisionDeclined  Decision = "declined"
)

// State of the one-time gate machine.
type State string

const (
	StateUnseen State = "unseen"
	StateSeen   State = "seen"
)

// Transitions maps decisions to symbolic scene destinations. Skip and
// Returning may share a destination; FirstTime is required.
type Transitions struct {
	FirstTime string
	Returning string
	Skip      string
}

// Config describes one gate instance.
type Config struct {
	Name        string
	Key         string
	Enabled     bool
	DevMode     bool
	ForceSkip   bool
	Transitions Transitions
	Store       flagstore.Store
	Node        string
}

// Gate evaluates a persisted flag plus static toggles and fires exactly
// one transition, at most once per instance.
type Gate struct {
	cfg Config

	mu    sync.Mutex
	fired bool
}

// New validates gate wiring and returns an unfired gate.
func New(cfg Config) (*Gate, error) {
	if strings.TrimSpace(cfg.Name) == "" {
		return nil, fmt.Errorf("%w: missing name", ErrInvalidGateConfig)
	}
	if strings.TrimSpace(cfg.Key) == "" {
		return nil, fmt.Errorf("%w: missing flag key", ErrInvalidGateConfig)
	}
	if cfg.Store == nil {
		return nil, fmt.Errorf("%w: missing flag store", ErrInvalidGateConfig)
	}
	if strings.TrimSpace(cfg.Transitions.FirstTime) == "" {
		return nil, fmt.Errorf("%w: missing first-time destination", ErrInvalidGateConfig)
	}
	return &Gate{cfg: cfg}, nil
}

// State reports Seen when the persisted flag reads true.
func (g *Gate) State() State {
	if g.cfg.Store.Get(g.cfg.Key) {
		return StateSeen
	}
	return StateUnseen
}

// Decide evaluates the precedence table without side effects.
// First match wins: disabled, dev force-skip, already seen, first run.
func (g *Gate) Decide() Decision {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.decideLocked()
}

func (g *Gate) decideLocked() Decision {
	if !g.cfg.Enabled {
		return DecisionSkip
	}
	if g.cfg.DevMode && g.cfg.ForceSkip {
		return DecisionSkip
	}
	if g.cfg.Store.Get(g.cfg.Key) {
		return DecisionReturning
	}
	return DecisionFirstTime
}

// Enabled reports the current feature toggle.
func (g *Gate) Enabled() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.cfg.Enabled
}

// DebugSetEnabled flips the feature toggle at runtime. Dev mode only;
// outside dev mode the toggle is fixed at construction.
func (g *Gate) DebugSetEnabled(enabled bool) error {
	if !g.cfg.DevMode {
		return ErrDebugUnavailable
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	g.cfg.Enabled = enabled
	log.Warn().Str("gate", g.cfg.Name).Bool("enabled", enabled).Msg("gate_toggle_debug_set")
	return nil
}

// Fire evaluates the gate once and requests the selected transition.
// On the first-time path the Seen flag is persisted before the router
// sees the transition, so a crash in between cannot re-show the gate.
// A failed flag write is non-fatal for this session.
func (g *Gate) Fire(router scene.Router) (Decision, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.fired {
		return "", fmt.Errorf("%w: %s", ErrGateAlreadyFired, g.cfg.Name)
	}

	decision := g.decideLocked()
	if decision == DecisionFirstTime {
		if err := g.cfg.Store.Set(g.cfg.Key, true); err != nil {
			log.Warn().
				Str("gate", g.cfg.Name).
				Str("key", g.cfg.Key).
				Err(err).
				Msg("gate_flag_persist_failed")
		}
	}
	g.fired = true
	observability.RecordGateDecision(g.cfg.Node, g.cfg.Name, string(decision))
	log.Info().
		Str("gate", g.cfg.Name).
		Str("decision", string(decision)).
		Str("dest", g.destination(decision)).
		Msg("gate_fired")

	if router != nil {
		if dest := g.destination(decision); dest != "" {
			router.Transition(dest)
		}
	}
	return decision, nil
}

// DebugReset reverts the gate to Unseen. Dev mode only.
func (g *Gate) DebugReset() error {
	if !g.cfg.DevMode {
		return ErrDebugUnavailable
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	if err := g.cfg.Store.Reset(g.cfg.Key); err != nil {
		return err
	}
	g.fired = false
	return nil
}

func (g *Gate) destination(decision Decision) string {
	switch decision {
	case DecisionFirstTime:
		return g.cfg.Transitions.FirstTime
	case DecisionReturning:
		return g.cfg.Transitions.Returning
	case DecisionSkip:
		return g.cfg.Transitions.Skip
	default:
		return ""
	}
}
