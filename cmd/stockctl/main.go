package main

import (
	"context"
	"database/sql"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/liushuangls/go-anthropic/v2"

	"github.com/vbonduro/stockgate/internal/cli"
	"github.com/vbonduro/stockgate/internal/config"
	"github.com/vbonduro/stockgate/internal/db"
	"github.com/vbonduro/stockgate/internal/domain"
	"github.com/vbonduro/stockgate/internal/flatfile"
	"github.com/vbonduro/stockgate/internal/inventory"
	"github.com/vbonduro/stockgate/internal/logging"
	"github.com/vbonduro/stockgate/internal/photostore"
	"github.com/vbonduro/stockgate/internal/photostore/local"
	"github.com/vbonduro/stockgate/internal/recordstore"
	"github.com/vbonduro/stockgate/internal/store"
	"github.com/vbonduro/stockgate/internal/vision"
	claudevision "github.com/vbonduro/stockgate/internal/vision/claude"
	ollamavision "github.com/vbonduro/stockgate/internal/vision/ollama"
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

	var persist recordstore.Persistence[domain.Item]
	switch cfg.StoreBackend {
	case "sqlite":
		database, err := db.Open(cfg.DBPath)
		if err != nil {
			logger.Error("failed to open database", "error", err)
			return
		}
		defer closeDB(database, logger)
		persist = store.NewItemTable(database)
	default:
		persist = flatfile.New[domain.Item](cfg.InventoryFile, flatfile.ItemCodec{})
	}

	visionAnalyzer := newVisionAnalyzer(cfg, logger)

	var photoStg photostore.PhotoStore
	if visionAnalyzer != nil {
		ps, err := local.New(cfg.PhotoPath)
		if err != nil {
			logger.Error("failed to initialize photo store", "error", err)
			return
		}
		photoStg = ps
	}

	svc := inventory.NewService(persist, visionAnalyzer, photoStg, logger)
	if err := svc.Load(ctx); err != nil {
		logger.Error("failed to load inventory", "error", err)
		return
	}

	switch cfg.UIMode {
	case "web":
		server := web.NewServer(templates.FS, logger, web.WithInventory(svc, photoStg))
		if err := server.ListenAndServe(ctx, cfg.ListenAddr); err != nil {
			logger.Error("server error", "error", err)
		}
	case "", "console":
		menu := cli.NewInventoryMenu(svc, cli.NewPrompter(os.Stdin, os.Stdout), os.Stdout)
		if err := menu.Run(ctx); err != nil && ctx.Err() == nil {
			logger.Error("console error", "error", err)
		}
	default:
		logger.Error("unknown UI_MODE", "ui_mode", cfg.UIMode)
	}
}

func newVisionAnalyzer(cfg *config.Config, logger *slog.Logger) vision.VisionAnalyzer {
	switch cfg.VisionBackend {
	case "claude":
		if cfg.ClaudeAPIKey == "" {
			logger.Error("CLAUDE_API_KEY is required when VISION_BACKEND=claude")
			return nil
		}
		logger.Info("using Claude vision backend", "model", cfg.ClaudeModel)
		return claudevision.NewClaudeAnalyzer(cfg.ClaudeAPIKey, cfg.ClaudeModel, anthropic.WithHTTPClient(&http.Client{Timeout: 2 * time.Minute}))
	case "ollama":
		logger.Info("using Ollama vision backend", "model", cfg.OllamaModel)
		return ollamavision.NewOllamaAnalyzer(cfg.OllamaHost, cfg.OllamaModel)
	default:
		logger.Info("photo restock disabled")
		return nil
	}
}

func closeDB(database *sql.DB, logger *slog.Logger) {
	if err := database.Close(); err != nil {
		logger.Error("failed to close database", "error", err)
	}
}
