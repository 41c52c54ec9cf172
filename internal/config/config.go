package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/vbonduro/stockgate/internal/domain"
)

type Config struct {
	UIMode         string
	ListenAddr     string
	DataDir        string
	InventoryFile  string
	StoreBackend   string
	DBPath         string
	GateCategories []domain.Category
	GateDenialLog  string
	GateCloseDelay time.Duration
	VisionBackend  string
	OllamaHost     string
	OllamaModel    string
	ClaudeAPIKey   string
	ClaudeModel    string
	PhotoPath      string
	LogLevel       string
	LogFile        string
}

// Load reads the environment. Paths left unset are placed under DATA_DIR.
// UIMode is empty when UI_MODE is unset so each command can pick its own default.
func Load() (*Config, error) {
	dataDir := getEnv("DATA_DIR", "./data")

	closeDelay, err := time.ParseDuration(getEnv("GATE_CLOSE_DELAY", "5s"))
	if err != nil {
		return nil, fmt.Errorf("invalid GATE_CLOSE_DELAY: %w", err)
	}
	if closeDelay <= 0 {
		return nil, fmt.Errorf("invalid GATE_CLOSE_DELAY: %s is not positive", closeDelay)
	}

	cfg := &Config{
		UIMode:         getEnv("UI_MODE", ""),
		ListenAddr:     getEnv("LISTEN_ADDR", ":8080"),
		DataDir:        dataDir,
		InventoryFile:  getEnv("INVENTORY_FILE", filepath.Join(dataDir, "inventory.txt")),
		StoreBackend:   getEnv("STORE_BACKEND", "file"),
		DBPath:         getEnv("DB_PATH", filepath.Join(dataDir, "stockgate.db")),
		GateCategories: parseCategories(getEnv("GATE_CATEGORIES", "")),
		GateDenialLog:  getEnv("GATE_DENIAL_LOG", filepath.Join(dataDir, "denied.log")),
		GateCloseDelay: closeDelay,
		VisionBackend:  getEnv("VISION_BACKEND", "none"),
		OllamaHost:     getEnv("OLLAMA_HOST", "http://localhost:11434"),
		OllamaModel:    getEnv("OLLAMA_MODEL", "llava"),
		ClaudeAPIKey:   getEnv("CLAUDE_API_KEY", ""),
		ClaudeModel:    getEnv("CLAUDE_MODEL", "claude-sonnet-4-5"),
		PhotoPath:      getEnv("PHOTO_LOCAL_PATH", filepath.Join(dataDir, "photos")),
		LogLevel:       getEnv("LOG_LEVEL", "info"),
		LogFile:        getEnv("LOG_FILE", ""),
	}

	switch cfg.StoreBackend {
	case "file", "sqlite":
	default:
		return nil, fmt.Errorf("invalid STORE_BACKEND %q: want file or sqlite", cfg.StoreBackend)
	}
	switch cfg.VisionBackend {
	case "none", "ollama", "claude":
	default:
		return nil, fmt.Errorf("invalid VISION_BACKEND %q: want none, ollama or claude", cfg.VisionBackend)
	}
	return cfg, nil
}

// parseCategories splits a comma separated list. Residents and visitor are
// always present because the gate has dedicated rules for them.
func parseCategories(s string) []domain.Category {
	if strings.TrimSpace(s) == "" {
		return append([]domain.Category(nil), domain.DefaultCategories...)
	}
	cats := []domain.Category{domain.CategoryResidents}
	seen := map[domain.Category]bool{domain.CategoryResidents: true, domain.CategoryVisitor: true}
	for _, part := range strings.Split(s, ",") {
		c := domain.Category(strings.ToLower(strings.TrimSpace(part)))
		if c == "" || seen[c] {
			continue
		}
		seen[c] = true
		cats = append(cats, c)
	}
	return append(cats, domain.CategoryVisitor)
}

func getEnv(key, defaultVal string) string {
	if val, exists := os.LookupEnv(key); exists {
		return val
	}
	return defaultVal
}
