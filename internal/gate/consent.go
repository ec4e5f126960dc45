package gate

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/danmuck/bootctl/internal/observability"
	"github.com/rs/zerolog/log"
)

var (
	ErrConsentDeclined = errors.New("gate: consent declined")
	ErrPrompterMissing = errors.New("gate: consent prompter required")
)

// Prompter collects the user's consent decision on the first-time path.
type Prompter interface {
	Prompt(ctx context.Context) (bool, error)
}

// ConsentGate is the consent variant of the one-time gate. Its
// follow-up transition is the continuation of the boot flow rather
// than a scene load, and its first-time path has a terminal decline
// branch that writes nothing.
type ConsentGate struct {
	cfg      Config
	prompter Prompter

	mu    sync.Mutex
	fired bool
}

// NewConsent validates consent gate wiring.
func NewConsent(cfg Config, prompter Prompter) (*ConsentGate, error) {
	if prompter == nil {
		return nil, ErrPrompterMissing
	}
	if cfg.Transitions.FirstTime == "" {
		// The consent continuation carries no scene destination; the
		// shared validation still wants a non-empty first-time label.
		cfg.Transitions.FirstTime = "continue"
	}
	base, err := New(cfg)
	if err != nil {
		return nil, err
	}
	return &ConsentGate{cfg: base.cfg, prompter: prompter}, nil
}

// State reports Seen when consent has been accepted and persisted.
func (g *ConsentGate) State() State {
	if g.cfg.Store.Get(g.cfg.Key) {
		return StateSeen
	}
	return StateUnseen
}

// Decide evaluates the shared precedence table without prompting.
func (g *ConsentGate) Decide() Decision {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.decideLocked()
}

func (g *ConsentGate) decideLocked() Decision {
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
func (g *ConsentGate) Enabled() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.cfg.Enabled
}

// DebugSetEnabled flips the feature toggle at runtime. Dev mode only.
func (g *ConsentGate) DebugSetEnabled(enabled bool) error {
	if !g.cfg.DevMode {
		return ErrDebugUnavailable
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	g.cfg.Enabled = enabled
	log.Warn().Str("gate", g.cfg.Name).Bool("enabled", enabled).Msg("gate_toggle_debug_set")
	return nil
}

// Run fires the consent gate once. On the first-time path it prompts;
// accept persists the flag synchronously before the continuation is
// observable, decline returns ErrConsentDeclined with nothing written
// so the next process run shows the gate again.
func (g *ConsentGate) Run(ctx context.Context) (Decision, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.fired {
		return "", fmt.Errorf("%w: %s", ErrGateAlreadyFired, g.cfg.Name)
	}

	decision := g.decideLocked()
	if decision == DecisionFirstTime {
		accepted, err := g.prompter.Prompt(ctx)
		if err != nil {
			return "", fmt.Errorf("gate: consent prompt: %w", err)
		}
		if !accepted {
			g.fired = true
			observability.RecordGateDecision(g.cfg.Node, g.cfg.Name, string(DecisionDeclined))
			log.Info().Str("gate", g.cfg.Name).Msg("consent_declined")
			return DecisionDeclined, ErrConsentDeclined
		}
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
		Msg("gate_fired")
	return decision, nil
}

// DebugReset reverts the consent gate to Unseen. Dev mode only.
func (g *ConsentGate) DebugReset() error {
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
