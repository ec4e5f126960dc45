package boot

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/danmuck/bootctl/internal/collab"
	"github.com/danmuck/bootctl/internal/flagstore"
	"github.com/danmuck/bootctl/internal/gate"
	"github.com/danmuck/bootctl/internal/scene"
	"github.com/rs/zerolog/log"
)

var (
	ErrInvalidHeartbeatInterval = errors.New("boot: invalid heartbeat interval")
	ErrCoordinatorActive        = errors.New("boot: another coordinator owns this process")
)

// SceneTargets are the symbolic destinations the boot flow hands to
// the scene-transition sink.
type SceneTargets struct {
	Intro string
	Menu  string
}

// ServiceConfig configures the standalone boot runtime defaults.
type ServiceConfig struct {
	Node              string
	DevMode           bool
	HeartbeatInterval time.Duration
	ReadyTimeout      time.Duration
	AdminListenAddr   string
	AdminToken        string
	CorsOrigins       []string
	StateFilePath     string
	ActiveProfile     string

	ConsentEnabled   bool
	ConsentForceSkip bool
	// ConsentAccepted is the standalone prompter's fixed answer; an
	// interactive frontend registers its own prompter collaborator.
	ConsentAccepted bool

	CutsceneEnabled   bool
	CutsceneForceSkip bool

	Scenes SceneTargets
}

// Boot service defaults for standalone runtime configuration.
func DefaultServiceConfig() ServiceConfig {
	return ServiceConfig{
		Node:              "boot.local",
		HeartbeatInterval: 5 * time.Second,
		ReadyTimeout:      DefaultReadyTimeout,
		CorsOrigins:       []string{"http://localhost:3000"},
		StateFilePath:     filepath.Join("local", "state", "bootctl.toml"),
		ActiveProfile:     "player-one",
		ConsentEnabled:    true,
		ConsentAccepted:   true,
		CutsceneEnabled:   true,
		Scenes: SceneTargets{
			Intro: scene.DestIntro,
			Menu:  scene.DestMenu,
		},
	}
}

// Service runs the boot coordinator lifecycle as a standalone process.
type Service struct {
	cfg ServiceConfig

	registry    *collab.Registry
	coordinator *Coordinator
	store       flagstore.Store
	router      scene.Router
	consent     *gate.ConsentGate
	cutscene    *gate.Gate
	startedAt   time.Time
}

// Boot service constructor using default standalone config.
func NewService() *Service {
	return NewServiceWithConfig(DefaultServiceConfig())
}

// Boot service constructor using explicit config.
func NewServiceWithConfig(cfg ServiceConfig) *Service {
	if strings.TrimSpace(cfg.Node) == "" {
		cfg.Node = "boot.local"
	}
	if cfg.ReadyTimeout <= 0 {
		cfg.ReadyTimeout = DefaultReadyTimeout
	}
	return &Service{
		cfg:       cfg,
		registry:  collab.NewRegistry(),
		startedAt: time.Now(),
	}
}

// Boot runtime entrypoint that blocks until process signal shutdown.
func (s *Service) Run() error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	defer func() { Release(s.coordinator) }()

	if err := s.bootstrap(); err != nil {
		if !errors.Is(err, ErrMissingDependency) || s.cfg.DevMode {
			return err
		}
		// Production keeps the process up, non-ready indefinitely; the
		// admin surface stays answerable and the gates never fire.
		log.Error().Str("node", s.cfg.Node).Err(err).Msg("boot_degraded_non_ready")
	}

	if err := s.postBoot(ctx); err != nil {
		switch {
		case errors.Is(err, gate.ErrConsentDeclined):
			log.Info().Str("node", s.cfg.Node).Msg("session_ended_by_consent_decline")
			return nil
		case errors.Is(err, ErrReadinessTimeout):
			log.Error().Str("node", s.cfg.Node).Err(err).Msg("readiness_wait_aborted")
		case errors.Is(err, context.Canceled):
			return nil
		default:
			return err
		}
	}
	return s.serve(ctx)
}

// Coordinator returns the lifecycle/readiness boundary owner, if boot
// reached coordinator construction.
func (s *Service) Coordinator() *Coordinator {
	return s.coordinator
}

// Store returns the persisted flag store, if boot opened it.
func (s *Service) Store() flagstore.Store {
	return s.store
}

// Boot sequence phase one constructs and registers every subsystem with
// no cross-references; phase two binds the dependency set. The explicit
// call ordering is the startup barrier: Bind never observes a registry
// that is still being populated.
func (s *Service) bootstrap() error {
	if s.cfg.HeartbeatInterval <= 0 {
		return ErrInvalidHeartbeatInterval
	}

	store, err := flagstore.Open(s.cfg.StateFilePath)
	if err != nil {
		return err
	}
	s.store = store
	s.router = scene.LogRouter{Logger: log.Logger}

	if err := s.registerCollaborators(); err != nil {
		return err
	}

	coordinator, err := NewCoordinator(CoordinatorConfig{
		Node:     s.cfg.Node,
		Registry: s.registry,
		Required: []string{collab.KindSaves, collab.KindProfiles},
		Optional: []string{collab.KindAudio, collab.KindUI, collab.KindConsentPrompt},
		DevMode:  s.cfg.DevMode,
	})
	if err != nil {
		return err
	}
	if !Acquire(coordinator) {
		// Losing the slot means another live coordinator owns this
		// process; this instance is discarded before any binding.
		return fmt.Errorf("%w: node=%s", ErrCoordinatorActive, s.cfg.Node)
	}
	s.coordinator = coordinator

	if err := s.buildGates(); err != nil {
		return err
	}
	return coordinator.Bind()
}

// registerCollaborators is phase one: independent construction only.
// The UI kind is deliberately left unregistered in the standalone
// runtime; it exercises the optional-absent diagnostic path.
func (s *Service) registerCollaborators() error {
	if err := s.registry.Register(collab.NewSaveManager()); err != nil {
		return err
	}
	if err := s.registry.Register(collab.NewProfileManager(s.cfg.ActiveProfile)); err != nil {
		return err
	}
	if err := s.registry.Register(collab.NewAudioBus()); err != nil {
		return err
	}
	return s.registry.Register(collab.StaticPrompter{Accepted: s.cfg.ConsentAccepted})
}

func (s *Service) buildGates() error {
	consent, err := gate.NewConsent(gate.Config{
		Name:      "consent",
		Key:       flagstore.KeyConsentAccepted,
		Enabled:   s.cfg.ConsentEnabled,
		DevMode:   s.cfg.DevMode,
		ForceSkip: s.cfg.ConsentForceSkip,
		Store:     s.store,
		Node:      s.cfg.Node,
	}, s.prompter())
	if err != nil {
		return err
	}
	s.consent = consent

	intro := s.cfg.Scenes.Intro
	if intro == "" {
		intro = scene.DestIntro
	}
	menu := s.cfg.Scenes.Menu
	if menu == "" {
		menu = scene.DestMenu
	}
	cutscene, err := gate.New(gate.Config{
		Name:      "cutscene",
		Key:       flagstore.KeyCutsceneSeen,
		Enabled:   s.cfg.CutsceneEnabled,
		DevMode:   s.cfg.DevMode,
		ForceSkip: s.cfg.CutsceneForceSkip,
		Transitions: gate.Transitions{
			FirstTime: intro,
			Returning: menu,
			Skip:      menu,
		},
		Store: s.store,
		Node:  s.cfg.Node,
	})
	if err != nil {
		return err
	}
	s.cutscene = cutscene
	return nil
}

// prompter prefers a registered consent-prompt collaborator and falls
// back to the configured static answer.
func (s *Service) prompter() gate.Prompter {
	if c, ok := s.registry.Resolve(collab.KindConsentPrompt); ok {
		if p, ok := c.(gate.Prompter); ok {
			return p
		}
	}
	return collab.StaticPrompter{Accepted: s.cfg.ConsentAccepted}
}

// postBoot is the consumer side of the readiness contract: a bounded
// wait, then the consent and cutscene gates in order. Either failure
// class of the wait prevents both gates from firing.
func (s *Service) postBoot(ctx context.Context) error {
	if s.coordinator == nil {
		return fmt.Errorf("%w: coordinator never constructed", ErrReadinessTimeout)
	}
	if err := WaitReady(ctx, s.coordinator, s.cfg.ReadyTimeout); err != nil {
		return err
	}

	decision, err := s.consent.Run(ctx)
	if err != nil {
		return err
	}
	log.Info().Str("node", s.cfg.Node).Str("decision", string(decision)).Msg("consent_gate_done")

	if _, err := s.cutscene.Fire(s.router); err != nil {
		return err
	}
	return nil
}

// Boot main loop for heartbeat logging and the optional admin surface.
func (s *Service) serve(ctx context.Context) error {
	heartbeat := s.cfg.HeartbeatInterval
	if heartbeat <= 0 {
		heartbeat = 5 * time.Second
	}
	ticker := time.NewTicker(heartbeat)
	defer ticker.Stop()

	adminErr := make(chan error, 1)
	if strings.TrimSpace(s.cfg.AdminListenAddr) != "" {
		go func() {
			adminErr <- s.serveAdmin(ctx, s.cfg.AdminListenAddr)
		}()
	}

	for {
		select {
		case <-ctx.Done():
			log.Info().Str("node", s.cfg.Node).Msg("boot_service_shutdown")
			return nil
		case err := <-adminErr:
			if err != nil {
				return err
			}
		case <-ticker.C:
			snapshot := s.coordinator.Snapshot()
			log.Info().
				Str("node", s.cfg.Node).
				Bool("ready", snapshot.Ready).
				Int("bound", len(snapshot.Bound)).
				Int("missing", len(snapshot.Missing)).
				Str("uptime", time.Since(s.startedAt).String()).
				Msg("boot_service_heartbeat")
		}
	}
}
