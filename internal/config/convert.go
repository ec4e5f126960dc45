package config

import (
	"github.com/danmuck/bootctl/internal/boot"
)

// ServiceConfig projects a loaded boot config onto the runtime defaults.
// Gate entries are matched by name; unknown gate names are ignored so a
// config can carry entries for frontends this runtime does not host.
func ServiceConfig(cfg BootConfig) boot.ServiceConfig {
	out := boot.DefaultServiceConfig()
	out.Node = cfg.Node
	out.DevMode = cfg.DevMode
	out.AdminListenAddr = cfg.Addr
	if len(cfg.CorsOrigins) > 0 {
		out.CorsOrigins = append([]string{}, cfg.CorsOrigins...)
	}
	if cfg.StateFile != "" {
		out.StateFilePath = cfg.StateFile
	}
	if cfg.Profile != "" {
		out.ActiveProfile = cfg.Profile
	}

	for _, gateCfg := range cfg.Gates {
		switch gateCfg.Name {
		case "consent":
			out.ConsentEnabled = gateCfg.Enabled
			out.ConsentForceSkip = gateCfg.ForceSkip
		case "cutscene":
			out.CutsceneEnabled = gateCfg.Enabled
			out.CutsceneForceSkip = gateCfg.ForceSkip
			if gateCfg.FirstTime != "" {
				out.Scenes.Intro = gateCfg.FirstTime
			}
			if gateCfg.Returning != "" {
				out.Scenes.Menu = gateCfg.Returning
			}
		}
	}
	return out
}
