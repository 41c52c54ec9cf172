package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/vbonduro/stockgate/internal/access"
	"github.com/vbonduro/stockgate/internal/cli"
	"github.com/vbonduro/stockgate/internal/config"
	"github.com/vbonduro/stockgate/internal/db"
	"github.com/vbonduro/stockgate/internal/domain"
	"github.com/vbonduro/stockgate/internal/logging"
	"github.com/vbonduro/stockgate/internal/recordstore"
	"github.com/vbonduro/stockgate/internal/store"
	"github.com/vbonduro/stockgate/internal/web"
	"github.com/vbonduro/stockgate/internal/web/templates"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, cleanup, err := logging.New(cfg.LogLevel, cfg.LogFile)
	if err != nil {
		log.Fatalf("failed to initialize logger: %v", err)
	}
	defer cleanup()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := os.MkdirAll(cfg.DataDir, 0755); err != nil {
		logger.Error("failed to create data directory", "error", err)
		return
	}

	backend := access.FileBackend(cfg.DataDir)
	if cfg.StoreBackend == "sqlite" {
		database, err := db.Open(cfg.DBPath)
		if err != nil {
			logger.Error("failed to open database", "error", err)
			return
		}
		defer func() {
			if err := database.Close(); err != nil {
				logger.Error("failed to close database", "error", err)
			}
		}()
		backend = func(c domain.Category) recordstore.Persistence[domain.UserRecord] {
			return store.NewUserTable(database, c)
		}
	}

	registry := access.NewRegistry(cfg.GateCategories, backend, logger)
	if err := registry.Load(ctx); err != nil {
		logger.Error("failed to load users", "error", err)
		return
	}

	denials := access.NewDenialLog(cfg.GateDenialLog)
	defer func() {
		if err := denials.Close(); err != nil {
			logger.Error("failed to close denial log", "error", err)
		}
	}()

	opts := []access.GateOption{access.WithCloseDelay(cfg.GateCloseDelay)}
	console := cfg.UIMode == "console"
	if console {
		opts = append(opts, access.WithNotifier(func(msg string) { fmt.Fprintln(os.Stdout, msg) }))
	}
	gate := access.NewGate(registry, denials, logger, opts...)
	defer gate.Close()

	switch cfg.UIMode {
	case "", "web":
		server := web.NewServer(templates.FS, logger, web.WithGate(gate, registry))
		if err := server.ListenAndServe(ctx, cfg.ListenAddr); err != nil {
			logger.Error("server error", "error", err)
		}
	case "console":
		panel := cli.NewGatePanel(gate, registry, cli.NewPrompter(os.Stdin, os.Stdout), os.Stdout)
		if err := panel.Run(ctx); err != nil && ctx.Err() == nil {
			logger.Error("console error", "error", err)
		}
	default:
		logger.Error("unknown UI_MODE", "ui_mode", cfg.UIMode)
	}
}
