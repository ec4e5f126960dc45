package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/danmuck/bootctl/internal/boot"
	"github.com/danmuck/bootctl/internal/config"
	"github.com/danmuck/bootctl/internal/logging"
)

func main() {
	configPath := flag.String("config", "", "path to structured boot config")
	overridePath := flag.String("overrides", "", "path to flat runtime overrides")
	flag.Parse()

	logging.ConfigureRuntime()

	cfg := boot.DefaultServiceConfig()
	if *configPath != "" {
		bootCfg, err := config.LoadBootConfig(*configPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "bootctl: %v\n", err)
			os.Exit(1)
		}
		cfg = config.ServiceConfig(bootCfg)
	}
	if *overridePath != "" {
		overlaid, err := applyOverrides(cfg, *overridePath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "bootctl: %v\n", err)
			os.Exit(1)
		}
		cfg = overlaid
	}

	svc := boot.NewServiceWithConfig(cfg)
	if err := svc.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "bootctl: %v\n", err)
		os.Exit(1)
	}
}
