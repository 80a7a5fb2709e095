package config

import (
	"errors"
	"fmt"
	"io/fs"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

const (
	StoreMemory   = "memory"
	StorePostgres = "postgres"
)

type Config struct {
	Addr         string `env:"PACKBOARD_ADDR"  envDefault:":8080"`
	Store        string `env:"PACKBOARD_STORE" envDefault:"memory"`
	DatabaseURL  string `env:"DATABASE_URL"`
	PasswordHash string `env:"PACKBOARD_PASSWORD_HASH"`

	DefaultTotalPacks int `env:"PACKBOARD_DEFAULT_TOTAL_PACKS" envDefault:"36"`

	LogLevel string `env:"PACKBOARD_LOG_LEVEL" envDefault:"info"`
	Dev      bool   `env:"PACKBOARD_DEV"       envDefault:"false"`

	UnlockRate  float64 `env:"PACKBOARD_UNLOCK_RATE"  envDefault:"1"`
	UnlockBurst int     `env:"PACKBOARD_UNLOCK_BURST" envDefault:"5"`

	AllowedOrigins []string `env:"PACKBOARD_ALLOWED_ORIGINS" envSeparator:","`
}

// Load reads an optional .env file from files, then the environment. Values
// already in the environment win over the file.
func Load(files ...string) (Config, error) {
	if err := godotenv.Load(files...); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("load env file: %w", err)
	}

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	switch c.Store {
	case StoreMemory:
	case StorePostgres:
		if c.DatabaseURL == "" {
			return errors.New("config: DATABASE_URL is required with PACKBOARD_STORE=postgres")
		}
	default:
		return fmt.Errorf("config: unknown PACKBOARD_STORE %q", c.Store)
	}
	if c.DefaultTotalPacks <= 0 {
		return fmt.Errorf("config: PACKBOARD_DEFAULT_TOTAL_PACKS must be positive, got %d", c.DefaultTotalPacks)
	}
	if c.UnlockRate <= 0 || c.UnlockBurst <= 0 {
		return errors.New("config: unlock rate and burst must be positive")
	}
	return nil
}
