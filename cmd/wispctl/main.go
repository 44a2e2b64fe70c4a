package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/danmuck/wisp/internal/logging"
	"github.com/danmuck/wisp/internal/observability"
	"github.com/danmuck/wisp/toolkit"
)

func main() {
	var (
		configPath string
		initConfig bool
		validate   bool
		overwrite  bool
	)
	flag.StringVar(&configPath, "config", "", "path to a wispctl config file (TOML)")
	flag.BoolVar(&initConfig, "init", false, "write a starter config to -config and exit")
	flag.BoolVar(&validate, "validate", false, "check the -config file and exit")
	flag.BoolVar(&overwrite, "overwrite", false, "allow -init to replace an existing file")
	flag.Parse()

	logging.ConfigureRuntime()
	observability.InitLogger("wispctl")

	switch {
	case initConfig:
		if configPath == "" {
			fail(errors.New("-init requires -config"))
		}
		if err := writeConfigTemplate(configPath, overwrite); err != nil {
			fail(err)
		}
		fmt.Printf("wrote config template to %s\n", configPath)
	case validate:
		if configPath == "" {
			fail(errors.New("-validate requires -config"))
		}
		if err := validateConfigFile(configPath); err != nil {
			fail(err)
		}
		fmt.Printf("config ok: %s\n", configPath)
	default:
		if err := run(configPath); err != nil {
			fail(err)
		}
	}
}

func fail(err error) {
	fmt.Fprintf(os.Stderr, "wispctl: %v\n", err)
	os.Exit(1)
}

func run(configPath string) error {
	cfg := defaultDaemonConfig()
	if configPath != "" {
		loaded, err := loadDaemonConfig(configPath)
		if err != nil {
			return err
		}
		cfg = loaded
	}

	svc, err := toolkit.NewService(cfg.Service)
	if err != nil {
		return err
	}
	if err := registerBuiltins(svc, cfg.Actions); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Profile updates are best effort; the toolkit serves either way.
	if cfg.Info.Name != "" || cfg.Info.Description != "" {
		if err := svc.UpdateInfo(ctx, cfg.Info); err != nil {
			logging.Warnf("wispctl update info failed err=%v", err)
		}
	}

	return svc.Run(ctx)
}
