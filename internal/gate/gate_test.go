package gate

import (
	"errors"
	"testing"

	"github.com/danmuck/bootctl/internal/flagstore"
	"github.com/danmuck/bootctl/internal/scene"
	"github.com/danmuck/bootctl/internal/testutil/testlog"
)

func cutsceneConfig(store flagstore.Store) Config {
	return Config{
		Name:    "cutscene",
		Key:     flagstore.KeyCutsceneSeen,
		Enabled: true,
		Transitions: Transitions{
			FirstTime: scene.DestIntro,
			Returning: scene.DestMenu,
			Skip:      scene.DestMenu,
		},
		Store: store,
		Node:  "boot.test",
	}
}

func TestGateDecisionPrecedence(t *testing.T) {
	testlog.Start(t)
	tests := []struct {
		name      string
		enabled   bool
		devMode   bool
		forceSkip bool
		seen      bool
		want      Decision
	}{
		{name: "disabled always skips", enabled: false, seen: true, want: DecisionSkip},
		{name: "dev force skip", enabled: true, devMode: true, forceSkip: true, want: DecisionSkip},
		{name: "force skip ignored outside dev mode", enabled: true, forceSkip: true, want: DecisionFirstTime},
		{name: "seen beats first run", enabled: true, seen: true, want: DecisionReturning},
		{name: "seen beats dev force skip order", enabled: true, devMode: true, forceSkip: true, seen: true, want: DecisionSkip},
		{name: "first run", enabled: true, want: DecisionFirstTime},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			store := flagstore.NewMemStore()
			if tc.seen {
				if err := store.Set(flagstore.KeyCutsceneSeen, true); err != nil {
					t.Fatalf("seed store failed: %v", err)
				}
			}
			cfg := cutsceneConfig(store)
			cfg.Enabled = tc.enabled
			cfg.DevMode = tc.devMode
			cfg.ForceSkip = tc.forceSkip

			g, err := New(cfg)
			if err != nil {
				t.Fatalf("new gate failed: %v", err)
			}
			if got := g.Decide(); got != tc.want {
				t.Fatalf("expected decision %q, got %q", tc.want, got)
			}
		})
	}
}

// flagCheckRouter records whether the persisted flag already read true
// at the moment each transition was requested.
type flagCheckRouter struct {
	store    flagstore.Store
	key      string
	recorder scene.Recorder
	flagSet  []bool
}

func (r *flagCheckRouter) Transition(dest string) {
	r.flagSet = append(r.flagSet, r.store.Get(r.key))
	r.recorder.Transition(dest)
}

func TestGateFirstRunPersistsBeforeTransition(t *testing.T) {
	testlog.Start(t)
	store := flagstore.NewMemStore()
	g, err := New(cutsceneConfig(store))
	if err != nil {
		t.Fatalf("new gate failed: %v", err)
	}

	router := &flagCheckRouter{store: store, key: flagstore.KeyCutsceneSeen}
	decision, err := g.Fire(router)
	if err != nil {
		t.Fatalf("fire failed: %v", err)
	}
	if decision != DecisionFirstTime {
		t.Fatalf("expected first-time decision, got %q", decision)
	}
	dests := router.recorder.Destinations()
	if len(dests) != 1 || dests[0] != scene.DestIntro {
		t.Fatalf("unexpected destinations: %v", dests)
	}
	if len(router.flagSet) != 1 || !router.flagSet[0] {
		t.Fatalf("expected flag persisted before transition, got %v", router.flagSet)
	}
	if g.State() != StateSeen {
		t.Fatalf("expected state seen after first run")
	}
}

func TestGateFiresAtMostOnce(t *testing.T) {
	testlog.Start(t)
	store := flagstore.NewMemStore()
	g, err := New(cutsceneConfig(store))
	if err != nil {
		t.Fatalf("new gate failed: %v", err)
	}

	if _, err := g.Fire(&scene.Recorder{}); err != nil {
		t.Fatalf("first fire failed: %v", err)
	}
	if _, err := g.Fire(&scene.Recorder{}); !errors.Is(err, ErrGateAlreadyFired) {
		t.Fatalf("expected ErrGateAlreadyFired, got %v", err)
	}
}

func TestGateSeenRoutesToReturningDestination(t *testing.T) {
	testlog.Start(t)
	tests := []struct {
		name    string
		enabled bool
	}{
		{name: "enabled", enabled: true},
		{name: "disabled", enabled: false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			store := flagstore.NewMemStore()
			if err := store.Set(flagstore.KeyCutsceneSeen, true); err != nil {
				t.Fatalf("seed store failed: %v", err)
			}
			cfg := cutsceneConfig(store)
			cfg.Enabled = tc.enabled

			g, err := New(cfg)
			if err != nil {
				t.Fatalf("new gate failed: %v", err)
			}
			rec := &scene.Recorder{}
			if _, err := g.Fire(rec); err != nil {
				t.Fatalf("fire failed: %v", err)
			}
			// Skip and returning share the menu destination, so a seen
			// gate lands on the menu regardless of the enabled toggle.
			dests := rec.Destinations()
			if len(dests) != 1 || dests[0] != scene.DestMenu {
				t.Fatalf("unexpected destinations: %v", dests)
			}
		})
	}
}

func TestGateSkipLeavesStateUntouched(t *testing.T) {
	testlog.Start(t)
	store := flagstore.NewMemStore()
	cfg := cutsceneConfig(store)
	cfg.Enabled = false

	g, err := New(cfg)
	if err != nil {
		t.Fatalf("new gate failed: %v", err)
	}
	decision, err := g.Fire(&scene.Recorder{})
	if err != nil {
		t.Fatalf("fire failed: %v", err)
	}
	if decision != DecisionSkip {
		t.Fatalf("expected skip decision, got %q", decision)
	}
	if store.Get(flagstore.KeyCutsceneSeen) {
		t.Fatalf("expected skip to leave flag unset")
	}
	if g.State() != StateUnseen {
		t.Fatalf("expected state unseen after skip")
	}
}

func TestGateFlagWriteFailureIsNonFatal(t *testing.T) {
	testlog.Start(t)
	store := flagstore.NewMemStore()
	store.FailWrites = true

	g, err := New(cutsceneConfig(store))
	if err != nil {
		t.Fatalf("new gate failed: %v", err)
	}
	rec := &scene.Recorder{}
	decision, err := g.Fire(rec)
	if err != nil {
		t.Fatalf("expected non-fatal write failure, got %v", err)
	}
	if decision != DecisionFirstTime {
		t.Fatalf("expected first-time decision, got %q", decision)
	}
	if dests := rec.Destinations(); len(dests) != 1 || dests[0] != scene.DestIntro {
		t.Fatalf("expected transition despite write failure, got %v", dests)
	}
}

func TestGateDebugResetRequiresDevMode(t *testing.T) {
	testlog.Start(t)
	store := flagstore.NewMemStore()

	prod, err := New(cutsceneConfig(store))
	if err != nil {
		t.Fatalf("new gate failed: %v", err)
	}
	if err := prod.DebugReset(); !errors.Is(err, ErrDebugUnavailable) {
		t.Fatalf("expected ErrDebugUnavailable, got %v", err)
	}

	cfg := cutsceneConfig(store)
	cfg.DevMode = true
	dev, err := New(cfg)
	if err != nil {
		t.Fatalf("new gate failed: %v", err)
	}
	if _, err := dev.Fire(&scene.Recorder{}); err != nil {
		t.Fatalf("fire failed: %v", err)
	}
	if err := dev.DebugReset(); err != nil {
		t.Fatalf("debug reset failed: %v", err)
	}
	if dev.State() != StateUnseen {
		t.Fatalf("expected state unseen after reset")
	}
	decision, err := dev.Fire(&scene.Recorder{})
	if err != nil {
		t.Fatalf("fire after reset failed: %v", err)
	}
	if decision != DecisionFirstTime {
		t.Fatalf("expected fresh first-time decision, got %q", decision)
	}
}

func TestGateDebugToggleRequiresDevMode(t *testing.T) {
	testlog.Start(t)
	prod, err := New(cutsceneConfig(flagstore.NewMemStore()))
	if err != nil {
		t.Fatalf("new gate failed: %v", err)
	}
	if err := prod.DebugSetEnabled(false); !errors.Is(err, ErrDebugUnavailable) {
		t.Fatalf("expected ErrDebugUnavailable, got %v", err)
	}
	if !prod.Enabled() {
		t.Fatalf("refused toggle must not change the flag")
	}
}

func TestGateDebugToggleFlipsDecision(t *testing.T) {
	testlog.Start(t)
	cfg := cutsceneConfig(flagstore.NewMemStore())
	cfg.DevMode = true
	g, err := New(cfg)
	if err != nil {
		t.Fatalf("new gate failed: %v", err)
	}

	if got := g.Decide(); got != DecisionFirstTime {
		t.Fatalf("expected first-time while enabled, got %q", got)
	}
	if err := g.DebugSetEnabled(false); err != nil {
		t.Fatalf("toggle off failed: %v", err)
	}
	if g.Enabled() {
		t.Fatalf("expected toggle off")
	}
	if got := g.Decide(); got != DecisionSkip {
		t.Fatalf("expected skip while disabled, got %q", got)
	}
	if err := g.DebugSetEnabled(true); err != nil {
		t.Fatalf("toggle on failed: %v", err)
	}
	if got := g.Decide(); got != DecisionFirstTime {
		t.Fatalf("expected first-time after re-enable, got %q", got)
	}
}

func TestNewGateValidatesConfig(t *testing.T) {
	testlog.Start(t)
	store := flagstore.NewMemStore()
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{name: "missing name", mutate: func(c *Config) { c.Name = "" }},
		{name: "missing key", mutate: func(c *Config) { c.Key = " " }},
		{name: "missing store", mutate: func(c *Config) { c.Store = nil }},
		{name: "missing first-time destination", mutate: func(c *Config) { c.Transitions.FirstTime = "" }},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := cutsceneConfig(store)
			tc.mutate(&cfg)
			if _, err := New(cfg); !errors.Is(err, ErrInvalidGateConfig) {
				t.Fatalf("expected ErrInvalidGateConfig, got %v", err)
			}
		})
	}
}
