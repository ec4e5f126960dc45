package config

import (
	"fmt"
	"os"
	"strings"
)

func Template(kind string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(kind)) {
	case "boot":
		return bootTemplate, nil
	case "dev":
		return devTemplate, nil
	default:
		return "", fmt.Errorf("unknown config kind: %s", kind)
	}
}

func WriteTemplate(path, kind string, overwrite bool) error {
	template, err := Template(kind)
	if err != nil {
		return err
	}
	if !overwrite {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("config already exists: %s", path)
		}
	}
	return os.WriteFile(path, []byte(template), 0o600)
}

const bootTemplate = `node = "boot-ctl"
addr = "127.0.0.1:7020"
cors_origins = ["http://localhost:3000"]
state_file = "local/state/bootctl.toml"
profile = "player-one"

[[gates]]
name = "consent"
key = "consent-accepted"
enabled = true
first_time = "continue"

[[gates]]
name = "cutscene"
key = "cutscene-seen"
enabled = true
first_time = "scene.intro"
returning = "scene.menu"
`

const devTemplate = `node = "boot-ctl.dev"
addr = "127.0.0.1:7020"
cors_origins = ["http://localhost:3000"]
state_file = "local/state/bootctl.dev.toml"
profile = "player-one"
dev_mode = true

[[gates]]
name = "consent"
key = "consent-accepted"
enabled = true
force_skip = true
first_time = "continue"

[[gates]]
name = "cutscene"
key = "cutscene-seen"
enabled = true
force_skip = true
first_time = "scene.intro"
returning = "scene.menu"
`
