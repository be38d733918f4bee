package infra

import (
	"errors"
	"fmt"
	"os"

	"fastlob/internal/domain"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

// Config holds every application setting.
// Loaded from YAML by LoadConfig, then overridden from the environment.
type Config struct {
	App struct {
		Name    string `yaml:"name"`
		Version string `yaml:"version"`
	} `yaml:"app"`

	Pool struct {
		InitialCapacity int `yaml:"initial_capacity"`
		MaxCapacity     int `yaml:"max_capacity"` // 0 = unbounded
	} `yaml:"pool"`

	Book struct {
		ID       uint16          `yaml:"id"`
		Symbol   string          `yaml:"symbol"`
		TickSize decimal.Decimal `yaml:"tick_size"`
	} `yaml:"book"`

	Engine struct {
		InboxSize int             `yaml:"inbox_size"`
		Demo      bool            `yaml:"demo"`
		DemoPrice decimal.Decimal `yaml:"demo_price"`
	} `yaml:"engine"`

	Storage struct {
		Path string `yaml:"path"` // empty = OS config dir
	} `yaml:"storage"`

	Logging struct {
		Level string `yaml:"level"`
		Dir   string `yaml:"dir"`
	} `yaml:"logging"`
}

// LoadConfig reads and parses the configuration file.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", domain.ErrConfigNotFound, path)
		}
		return nil, err
	}

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}

	overrideWithEnv(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// DefaultConfig returns the settings used when a key is absent from the file.
func DefaultConfig() *Config {
	var cfg Config
	cfg.App.Name = "fastlob"
	cfg.Pool.InitialCapacity = 1000
	cfg.Book.ID = 1
	cfg.Book.TickSize = decimal.RequireFromString("0.01")
	cfg.Engine.InboxSize = 1024
	cfg.Engine.DemoPrice = decimal.NewFromInt(1)
	cfg.Logging.Level = "info"
	cfg.Logging.Dir = "logs"
	return &cfg
}

// Validate checks configuration validity
func (c *Config) Validate() error {
	if c.Pool.InitialCapacity < 0 {
		return &domain.ConfigError{Field: "pool.initial_capacity", Err: errors.New("must not be negative")}
	}
	if c.Pool.MaxCapacity < 0 {
		return &domain.ConfigError{Field: "pool.max_capacity", Err: errors.New("must not be negative")}
	}
	if c.Pool.MaxCapacity > 0 && c.Pool.InitialCapacity > c.Pool.MaxCapacity {
		return &domain.ConfigError{
			Field: "pool.initial_capacity",
			Err:   fmt.Errorf("%d exceeds max_capacity %d", c.Pool.InitialCapacity, c.Pool.MaxCapacity),
		}
	}

	if !c.Book.TickSize.IsPositive() {
		return &domain.ConfigError{Field: "book.tick_size", Err: errors.New("must be positive")}
	}

	if c.Engine.InboxSize <= 0 {
		return &domain.ConfigError{Field: "engine.inbox_size", Err: errors.New("must be positive")}
	}

	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return &domain.ConfigError{Field: "logging.level", Err: fmt.Errorf("unknown level %q", c.Logging.Level)}
	}

	return nil
}

// overrideWithEnv overwrites settings from environment variables when present.
func overrideWithEnv(cfg *Config) {
	if path := os.Getenv("FASTLOB_DB_PATH"); path != "" {
		cfg.Storage.Path = path
	}
	if level := os.Getenv("FASTLOB_LOG_LEVEL"); level != "" {
		cfg.Logging.Level = level
	}
}
