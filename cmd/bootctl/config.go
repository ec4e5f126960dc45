package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/danmuck/bootctl/internal/boot"
)

type fileConfig struct {
	Node                string   `toml:"node"`
	DevMode             bool     `toml:"dev_mode"`
	Heartbeat           string   `toml:"heartbeat"`
	HeartbeatInterval   string   `toml:"heartbeat_interval"`
	HeartbeatIntervalMS int64    `toml:"heartbeat_interval_ms"`
	ReadyTimeout        string   `toml:"ready_timeout"`
	AdminListenAddr     string   `toml:"admin_listen_addr"`
	AdminToken          string   `toml:"admin_token"`
	CorsOrigins         []string `toml:"cors_origins"`
	StateFile           string   `toml:"state_file"`
	Profile             string   `toml:"profile"`
	ConsentEnabled      bool     `toml:"consent_enabled"`
	ConsentForceSkip    bool     `toml:"consent_force_skip"`
	ConsentAccepted     bool     `toml:"consent_accepted"`
	CutsceneEnabled     bool     `toml:"cutscene_enabled"`
	CutsceneForceSkip   bool     `toml:"cutscene_force_skip"`
	SceneIntro          string   `toml:"scene_intro"`
	SceneMenu           string   `toml:"scene_menu"`
}

func loadServiceConfig(path string) (boot.ServiceConfig, error) {
	return applyOverrides(boot.DefaultServiceConfig(), path)
}

// applyOverrides layers the flat override file onto cfg. Only keys the
// file actually defines are applied.
func applyOverrides(cfg boot.ServiceConfig, path string) (boot.ServiceConfig, error) {
	var raw fileConfig
	meta, err := toml.DecodeFile(path, &raw)
	if err != nil {
		return boot.ServiceConfig{}, fmt.Errorf("load boot config: %w", err)
	}

	if meta.IsDefined("node") {
		node := strings.TrimSpace(raw.Node)
		if node != "" {
			cfg.Node = node
		}
	}

	if meta.IsDefined("dev_mode") {
		cfg.DevMode = raw.DevMode
	}

	if meta.IsDefined("heartbeat") {
		d, err := time.ParseDuration(strings.TrimSpace(raw.Heartbeat))
		if err != nil {
			return boot.ServiceConfig{}, fmt.Errorf("parse heartbeat: %w", err)
		}
		cfg.HeartbeatInterval = d
	}

	if meta.IsDefined("heartbeat_interval") {
		d, err := time.ParseDuration(strings.TrimSpace(raw.HeartbeatInterval))
		if err != nil {
			return boot.ServiceConfig{}, fmt.Errorf("parse heartbeat_interval: %w", err)
		}
		cfg.HeartbeatInterval = d
	}

	if meta.IsDefined("heartbeat_interval_ms") {
		cfg.HeartbeatInterval = time.Duration(raw.HeartbeatIntervalMS) * time.Millisecond
	}

	if meta.IsDefined("ready_timeout") {
		d, err := time.ParseDuration(strings.TrimSpace(raw.ReadyTimeout))
		if err != nil {
			return boot.ServiceConfig{}, fmt.Errorf("parse ready_timeout: %w", err)
		}
		cfg.ReadyTimeout = d
	}

	if meta.IsDefined("admin_listen_addr") {
		cfg.AdminListenAddr = strings.TrimSpace(raw.AdminListenAddr)
	}

	if meta.IsDefined("admin_token") {
		cfg.AdminToken = strings.TrimSpace(raw.AdminToken)
	}

	if meta.IsDefined("cors_origins") {
		cfg.CorsOrigins = normalizeOrigins(raw.CorsOrigins)
	}

	if meta.IsDefined("state_file") {
		state := strings.TrimSpace(raw.StateFile)
		if state != "" {
			cfg.StateFilePath = state
		}
	}

	if meta.IsDefined("profile") {
		profile := strings.TrimSpace(raw.Profile)
		if profile != "" {
			cfg.ActiveProfile = profile
		}
	}

	if meta.IsDefined("consent_enabled") {
		cfg.ConsentEnabled = raw.ConsentEnabled
	}

	if meta.IsDefined("consent_force_skip") {
		cfg.ConsentForceSkip = raw.ConsentForceSkip
	}

	if meta.IsDefined("consent_accepted") {
		cfg.ConsentAccepted = raw.ConsentAccepted
	}

	if meta.IsDefined("cutscene_enabled") {
		cfg.CutsceneEnabled = raw.CutsceneEnabled
	}

	if meta.IsDefined("cutscene_force_skip") {
		cfg.CutsceneForceSkip = raw.CutsceneForceSkip
	}

	if meta.IsDefined("scene_intro") {
		intro := strings.TrimSpace(raw.SceneIntro)
		if intro != "" {
			cfg.Scenes.Intro = intro
		}
	}

	if meta.IsDefined("scene_menu") {
		menu := strings.TrimSpace(raw.SceneMenu)
		if menu != "" {
			cfg.Scenes.Menu = menu
		}
	}

	return cfg, nil
}

func normalizeOrigins(in []string) []string {
	if len(in) == 0 {
		return []string{}
	}
	out := make([]string, 0, len(in))
	for _, origin := range in {
		v := strings.TrimSpace(origin)
		if v == "" {
			continue
		}
		out = append(out, v)
	}
	return out
}
