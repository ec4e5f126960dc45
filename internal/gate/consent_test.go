package gate

import (
	"context"
	"errors"
	"testing"

	"github.com/danmuck/bootctl/internal/collab"
	"github.com/danmuck/bootctl/internal/flagstore"
	"github.com/danmuck/bootctl/internal/testutil/testlog"
)

func consentConfig(store flagstore.Store) Config {
	return Config{
		Name:    "consent",
		Key:     flagstore.KeyConsentAccepted,
		Enabled: true,
		Store:   store,
		Node:    "boot.test",
	}
}

func TestConsentAcceptPersistsFlag(t *testing.T) {
	testlog.Start(t)
	store := flagstore.NewMemStore()
	g, err := NewConsent(consentConfig(store), collab.StaticPrompter{Accepted: true})
	if err != nil {
		t.Fatalf("new consent gate failed: %v", err)
	}

	decision, err := g.Run(context.Background())
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if decision != DecisionFirstTime {
		t.Fatalf("expected first-time decision, got %q", decision)
	}
	if !store.Get(flagstore.KeyConsentAccepted) {
		t.Fatalf("expected %s persisted on accept", flagstore.KeyConsentAccepted)
	}
	if g.State() != StateSeen {
		t.Fatalf("expected state seen after accept")
	}
}

func TestConsentDeclineWritesNothing(t *testing.T) {
	testlog.Start(t)
	store := flagstore.NewMemStore()
	g, err := NewConsent(consentConfig(store), collab.StaticPrompter{Accepted: false})
	if err != nil {
		t.Fatalf("new consent gate failed: %v", err)
	}

	decision, err := g.Run(context.Background())
	if !errors.Is(err, ErrConsentDeclined) {
		t.Fatalf("expected ErrConsentDeclined, got %v", err)
	}
	if decision != DecisionDeclined {
		t.Fatalf("expected declined decision, got %q", decision)
	}
	if store.Get(flagstore.KeyConsentAccepted) {
		t.Fatalf("decline must not write %s", flagstore.KeyConsentAccepted)
	}

	// A fresh process run over the same store shows the gate again.
	rerun, err := NewConsent(consentConfig(store), collab.StaticPrompter{Accepted: false})
	if err != nil {
		t.Fatalf("new consent gate failed: %v", err)
	}
	if got := rerun.Decide(); got != DecisionFirstTime {
		t.Fatalf("expected first-time decision after decline, got %q", got)
	}
}

func TestConsentReturningSkipsPrompt(t *testing.T) {
	testlog.Start(t)
	store := flagstore.NewMemStore()
	if err := store.Set(flagstore.KeyConsentAccepted, true); err != nil {
		t.Fatalf("seed store failed: %v", err)
	}

	promptErr := errors.New("prompter must not run")
	g, err := NewConsent(consentConfig(store), collab.StaticPrompter{Err: promptErr})
	if err != nil {
		t.Fatalf("new consent gate failed: %v", err)
	}
	decision, err := g.Run(context.Background())
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if decision != DecisionReturning {
		t.Fatalf("expected returning decision, got %q", decision)
	}
}

func TestConsentRunsAtMostOnce(t *testing.T) {
	testlog.Start(t)
	store := flagstore.NewMemStore()
	g, err := NewConsent(consentConfig(store), collab.StaticPrompter{Accepted: true})
	if err != nil {
		t.Fatalf("new consent gate failed: %v", err)
	}
	if _, err := g.Run(context.Background()); err != nil {
		t.Fatalf("first run failed: %v", err)
	}
	if _, err := g.Run(context.Background()); !errors.Is(err, ErrGateAlreadyFired) {
		t.Fatalf("expected ErrGateAlreadyFired, got %v", err)
	}
}

func TestConsentPromptCancellation(t *testing.T) {
	testlog.Start(t)
	store := flagstore.NewMemStore()
	g, err := NewConsent(consentConfig(store), collab.StaticPrompter{Accepted: true})
	if err != nil {
		t.Fatalf("new consent gate failed: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := g.Run(ctx); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context cancellation, got %v", err)
	}
	if store.Get(flagstore.KeyConsentAccepted) {
		t.Fatalf("cancelled prompt must not write the flag")
	}
}

func TestConsentDebugToggle(t *testing.T) {
	testlog.Start(t)
	store := flagstore.NewMemStore()

	prod, err := NewConsent(consentConfig(store), collab.StaticPrompter{Accepted: true})
	if err != nil {
		t.Fatalf("new consent gate failed: %v", err)
	}
	if err := prod.DebugSetEnabled(false); !errors.Is(err, ErrDebugUnavailable) {
		t.Fatalf("expected ErrDebugUnavailable, got %v", err)
	}

	cfg := consentConfig(store)
	cfg.DevMode = true
	dev, err := NewConsent(cfg, collab.StaticPrompter{Accepted: true})
	if err != nil {
		t.Fatalf("new consent gate failed: %v", err)
	}
	if err := dev.DebugSetEnabled(false); err != nil {
		t.Fatalf("toggle off failed: %v", err)
	}
	decision, err := dev.Run(context.Background())
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if decision != DecisionSkip {
		t.Fatalf("expected skip while toggled off, got %q", decision)
	}
	if store.Get(flagstore.KeyConsentAccepted) {
		t.Fatalf("toggled-off gate must not persist consent")
	}
}

func TestConsentRequiresPrompter(t *testing.T) {
	testlog.Start(t)
	if _, err := NewConsent(consentConfig(flagstore.NewMemStore()), nil); !errors.Is(err, ErrPrompterMissing) {
		t.Fatalf("expected ErrPrompterMissing, got %v", err)
	}
}
