package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

type BootConfig struct {
	Node        string       `toml:"node"`
	Addr        string       `toml:"addr"`
	CorsOrigins []string     `toml:"cors_origins"`
	StateFile   string       `toml:"state_file"`
	Profile     string       `toml:"profile"`
	DevMode     bool         `toml:"dev_mode"`
	Gates       []GateConfig `toml:"gates"`
}

type GateConfig struct {
	Name      string `toml:"name"`
	Key       string `toml:"key"`
	Enabled   bool   `toml:"enabled"`
	ForceSkip bool   `toml:"force_skip"`
	FirstTime string `toml:"first_time"`
	Returning string `toml:"returning"`
}

func LoadBootConfig(path string) (BootConfig, error) {
	var cfg BootConfig
	if err := loadToml(path, &cfg); err != nil {
		return BootConfig{}, err
	}
	if cfg.Node == "" {
		cfg.Node = "boot-ctl"
	}
	if cfg.StateFile == "" {
		cfg.StateFile = "local/state/bootctl.toml"
	}
	if err := ValidateBootConfig(cfg); err != nil {
		return BootConfig{}, err
	}
	return cfg, nil
}

func loadToml(path string, out any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("config load failed (%s): %w", path, err)
	}
	if err := toml.Unmarshal(data, out); err != nil {
		return fmt.Errorf("config parse failed (%s): %w", path, err)
	}
	return nil
}

func ValidateBootConfig(cfg BootConfig) error {
	if strings.TrimSpace(cfg.Node) == "" {
		return fmt.Errorf("boot config missing node")
	}
	if strings.TrimSpace(cfg.StateFile) == "" {
		return fmt.Errorf("boot config missing state_file")
	}
	for i, gateCfg := range cfg.Gates {
		if err := ValidateGateEntry(gateCfg); err != nil {
			return fmt.Errorf("gate[%d] invalid: %w", i, err)
		}
	}
	return nil
}

func ValidateGateEntry(cfg GateConfig) error {
	if strings.TrimSpace(cfg.Name) == "" {
		return fmt.Errorf("name is required")
	}
	if strings.TrimSpace(cfg.Key) == "" {
		return fmt.Errorf("key is required")
	}
	if cfg.Enabled && strings.TrimSpace(cfg.FirstTime) == "" {
		return fmt.Errorf("first_time destination required when enabled")
	}
	return nil
}
