package boot

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/danmuck/bootctl/internal/auth"
	"github.com/danmuck/bootctl/internal/flagstore"
	"github.com/danmuck/bootctl/internal/gate"
	"github.com/danmuck/bootctl/internal/observability"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
)

// AdminRouter builds the admin/debug HTTP surface. Read endpoints are
// always available; the debug group is token-gated and refused outside
// dev mode.
func (s *Service) AdminRouter() *gin.Engine {
	observability.RegisterMetrics()
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(observability.Requests(s.cfg.Node, log.Logger))
	origins := s.cfg.CorsOrigins
	if len(origins) == 0 {
		origins = []string{"http://localhost:3000"}
	}
	r.Use(cors.New(cors.Config{
		AllowOrigins: origins,
		AllowMethods: []string{"GET", "POST"},
		AllowHeaders: []string{"Origin", "Content-Type", auth.HeaderToken},
		MaxAge:       12 * time.Hour,
	}))
	_ = r.SetTrustedProxies([]string{"127.0.0.1", "::1"})

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "ok",
			"uptime":  time.Since(s.startedAt).String(),
			"node":    s.cfg.Node,
			"version": "0.0.1",
		})
	})

	r.GET("/ready", func(c *gin.Context) {
		snapshot := s.coordinator.Snapshot()
		status := http.StatusOK
		if !snapshot.Ready {
			status = http.StatusServiceUnavailable
		}
		c.JSON(status, gin.H{
			"ready":   snapshot.Ready,
			"bound":   snapshot.Bound,
			"missing": snapshot.Missing,
			"node":    s.cfg.Node,
		})
	})

	r.GET("/collaborators", func(c *gin.Context) {
		snapshot := s.coordinator.Snapshot()
		statuses := make(map[string]any)
		for _, kind := range s.registry.Kinds() {
			col, ok := s.registry.Resolve(kind)
			if !ok {
				continue
			}
			status, err := col.Status()
			if err != nil {
				statuses[kind] = gin.H{"error": err.Error()}
				continue
			}
			statuses[kind] = status
		}
		c.JSON(http.StatusOK, gin.H{
			"registered": s.registry.Kinds(),
			"bound":      snapshot.Bound,
			"skipped":    snapshot.Skipped,
			"status":     statuses,
		})
	})

	r.GET("/flags", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"flags": s.store.Snapshot()})
	})

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	debug := r.Group("/debug", auth.RequireToken(auth.StaticToken{Token: s.cfg.AdminToken}))
	debug.POST("/flags/:key/reset", s.handleDebugFlagReset)
	debug.POST("/gates/:name/enabled", s.handleDebugGateEnabled)
	debug.POST("/ready/reset", s.handleDebugReadyReset)
	debug.POST("/rebind", s.handleDebugRebind)

	return r
}

func (s *Service) handleDebugFlagReset(c *gin.Context) {
	if !s.cfg.DevMode {
		c.JSON(http.StatusForbidden, gin.H{"error": ErrDevModeRequired.Error()})
		return
	}
	key := c.Param("key")
	if err := s.store.Reset(key); err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, flagstore.ErrInvalidKey) {
			status = http.StatusBadRequest
		}
		c.JSON(status, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok", "key": key, "value": false})
}

// handleDebugGateEnabled toggles a gate's feature flag at runtime via
// ?value=true|false. Dev mode only; the change is not persisted.
func (s *Service) handleDebugGateEnabled(c *gin.Context) {
	value, err := strconv.ParseBool(c.Query("value"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "value must be a boolean"})
		return
	}

	name := c.Param("name")
	var toggleErr error
	var enabled bool
	switch name {
	case "consent":
		toggleErr = s.consent.DebugSetEnabled(value)
		enabled = s.consent.Enabled()
	case "cutscene":
		toggleErr = s.cutscene.DebugSetEnabled(value)
		enabled = s.cutscene.Enabled()
	default:
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown gate: " + name})
		return
	}
	if toggleErr != nil {
		status := http.StatusInternalServerError
		if errors.Is(toggleErr, gate.ErrDebugUnavailable) {
			status = http.StatusForbidden
		}
		c.JSON(status, gin.H{"error": toggleErr.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok", "gate": name, "enabled": enabled})
}

func (s *Service) handleDebugReadyReset(c *gin.Context) {
	if err := s.coordinator.DebugResetReady(); err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, ErrDevModeRequired) {
			status = http.StatusForbidden
		}
		c.JSON(status, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok", "ready": s.coordinator.Ready()})
}

func (s *Service) handleDebugRebind(c *gin.Context) {
	if err := s.coordinator.DebugRebind(); err != nil {
		status := http.StatusInternalServerError
		switch {
		case errors.Is(err, ErrDevModeRequired):
			status = http.StatusForbidden
		case errors.Is(err, ErrMissingDependency):
			status = http.StatusConflict
		}
		c.JSON(status, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok", "ready": s.coordinator.Ready()})
}

// serveAdmin runs the admin surface until ctx is cancelled.
func (s *Service) serveAdmin(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:    addr,
		Handler: s.AdminRouter(),
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()
	log.Info().Str("node", s.cfg.Node).Str("addr", addr).Msg("admin_surface_listening")

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
