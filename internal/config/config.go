package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/fadedpez/playtimeshop/internal/logging"
	"github.com/fadedpez/playtimeshop/internal/types"
	"github.com/fadedpez/playtimeshop/pkg/catalog"
	"github.com/fadedpez/playtimeshop/pkg/entities"
	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
)

// Storage backends for player ledgers
const (
	StorageFile   = "file"
	StorageSQLite = "sqlite"
	StorageMemory = "memory"
)

// Deployment environments
const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

// Config holds all configuration for the application
type Config struct {
	// Discord configuration
	Token         string
	CommandPrefix string

	// Resource paths
	DataDir     string
	CatalogPath string
	SQLitePath  string
	StorageType string

	// Accrual
	RewardPeriod    time.Duration
	PointsPerPeriod decimal.Decimal

	// Purchases
	MatchPolicy  string
	GameHostURL  string
	GrantTimeout time.Duration

	// Runtime
	HTTPAddr           string
	CheckpointInterval time.Duration
	LogLevel           logging.Level
	Environment        string // EnvDevelopment or EnvProduction
}

// Load reads the configuration from a .env file, if present, and the environment
func Load() (*Config, error) {
	// Load .env file if it exists
	if err := godotenv.Load(); err != nil {
		// Only return error if file exists but couldn't be loaded
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("error loading .env file: %w", err)
		}
	}

	cfg, err := FromEnv()
	if err != nil {
		return nil, err
	}

	// Create data directory if it doesn't exist
	if err := os.MkdirAll(cfg.DataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	return cfg, nil
}

// FromEnv builds and validates a Config from environment variables alone
func FromEnv() (*Config, error) {
	dataDir := getEnvWithDefault("DATA_DIR", "data")

	cfg := &Config{
		Token:         os.Getenv("DISCORD_TOKEN"),
		CommandPrefix: getEnvWithDefault("COMMAND_PREFIX", `\prs`),
		DataDir:       dataDir,
		CatalogPath:   getEnvWithDefault("CATALOG_PATH", filepath.Join(dataDir, catalog.DefaultFileName)),
		SQLitePath:    getEnvWithDefault("SQLITE_PATH", filepath.Join(dataDir, "playtimeshop.db")),
		StorageType:   strings.ToLower(getEnvWithDefault("STORAGE_TYPE", StorageFile)),
		MatchPolicy:   strings.ToLower(getEnvWithDefault("MATCH_POLICY", catalog.MatchPrefix)),
		GameHostURL:   os.Getenv("GAME_HOST_URL"),
		HTTPAddr:      getEnvWithDefault("HTTP_ADDR", ":8080"),
		Environment:   strings.ToLower(getEnvWithDefault("ENVIRONMENT", EnvDevelopment)),
	}

	periodMinutes := getEnvWithDefault("REWARD_PERIOD_MINUTES", "5")
	minutes, err := strconv.ParseFloat(periodMinutes, 64)
	if err != nil {
		return nil, invalid("REWARD_PERIOD_MINUTES", periodMinutes, err)
	}
	cfg.RewardPeriod = time.Duration(minutes * float64(time.Minute))

	points := getEnvWithDefault("REWARD_POINTS_PER_PERIOD", "10")
	if cfg.PointsPerPeriod, err = decimal.NewFromString(points); err != nil {
		return nil, invalid("REWARD_POINTS_PER_PERIOD", points, err)
	}

	if cfg.GrantTimeout, err = getDuration("GRANT_TIMEOUT", "10s"); err != nil {
		return nil, err
	}
	if cfg.CheckpointInterval, err = getDuration("CHECKPOINT_INTERVAL", "5m"); err != nil {
		return nil, err
	}

	level := getEnvWithDefault("LOG_LEVEL", "INFO")
	if cfg.LogLevel, err = logging.ParseLevel(level); err != nil {
		return nil, invalid("LOG_LEVEL", level, err)
	}

	// Validate required fields
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// validate checks that the configuration is usable
func (c *Config) validate() error {
	if err := c.RewardRate().Validate(); err != nil {
		return types.WrapError(types.ErrInvalidConfig, "invalid reward rate", err)
	}

	switch c.StorageType {
	case StorageFile, StorageSQLite, StorageMemory:
	default:
		return types.NewShopError(types.ErrInvalidConfig, fmt.Sprintf("STORAGE_TYPE must be file, sqlite or memory, got %q", c.StorageType))
	}

	if _, err := catalog.MatcherFor(c.MatchPolicy); err != nil {
		return err
	}

	if c.GrantTimeout <= 0 {
		return types.NewShopError(types.ErrInvalidConfig, "GRANT_TIMEOUT must be positive")
	}
	if c.CheckpointInterval < 0 {
		return types.NewShopError(types.ErrInvalidConfig, "CHECKPOINT_INTERVAL cannot be negative")
	}
	if strings.TrimSpace(c.CommandPrefix) == "" {
		return types.NewShopError(types.ErrInvalidConfig, "COMMAND_PREFIX cannot be blank")
	}

	switch c.Environment {
	case EnvDevelopment:
	case EnvProduction:
		// Production rewards must reach a real game host
		if c.GameHostURL == "" {
			return types.NewShopError(types.ErrInvalidConfig, "GAME_HOST_URL is required in production")
		}
	default:
		return types.NewShopError(types.ErrInvalidConfig, fmt.Sprintf("ENVIRONMENT must be development or production, got %q", c.Environment))
	}

	return nil
}

// RewardRate returns the configured accrual rate
func (c *Config) RewardRate() entities.RewardRate {
	return entities.RewardRate{
		PointsPerPeriod: c.PointsPerPeriod,
		PeriodLength:    c.RewardPeriod,
	}
}

// DiscordEnabled reports whether the chat bot should connect
func (c *Config) DiscordEnabled() bool {
	return c.Token != ""
}

// IsDevelopment returns true if running in development environment
func (c *Config) IsDevelopment() bool {
	return c.Environment == EnvDevelopment
}

// getEnvWithDefault returns environment variable value or default if not set
func getEnvWithDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getDuration(key, defaultValue string) (time.Duration, error) {
	raw := getEnvWithDefault(key, defaultValue)
	if raw == "0" {
		return 0, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, invalid(key, raw, err)
	}
	return d, nil
}

func invalid(key, value string, err error) error {
	return types.WrapError(types.ErrInvalidConfig, fmt.Sprintf("%s has invalid value %q", key, value), err)
}
