package config

import (
	"errors"
	"fmt"

	"github.com/caarlos0/env/v11"
)

const minSecretLen = 32

var ErrInvalid = errors.New("invalid config")

// Config contains the inventory service configuration.
type Config struct {
	LogLevel string   `env:"LOG_LEVEL" envDefault:"info"`
	HTTP     HTTP     `envPrefix:"HTTP_"`
	Store    Store    `envPrefix:"STORE_"`
	Catalog  Catalog  `envPrefix:"CATALOG_"`
	JWT      JWT      `envPrefix:"JWT_"`
	Database Database `envPrefix:"DATABASE_"`
	Metrics  Metrics  `envPrefix:"METRICS_"`
}

// HTTP serves TLS when both CertFile and KeyFile are set.
type HTTP struct {
	Port     string `env:"PORT" envDefault:"3000"`
	CertFile string `env:"CERT_FILE"`
	KeyFile  string `env:"KEY_FILE"`
}

type Store struct {
	Path            string `env:"PATH" envDefault:"data/inventory.json"`
	CreateIfMissing bool   `env:"CREATE_IF_MISSING" envDefault:"false"`
}

type Catalog struct {
	URL string `env:"URL" envDefault:"https://api.escuelajs.co/api/v1/products"`
}

type JWT struct {
	Secret string `env:"SECRET"`
}

// Database is optional; an empty DSN disables the PostgreSQL product API.
type Database struct {
	DSN string `env:"DSN"`
}

type Metrics struct {
	Enabled bool   `env:"ENABLED" envDefault:"true"`
	Token   string `env:"TOKEN"`
}

// NewConfig loads configuration from environment variables.
func NewConfig() (*Config, error) {
	cfg := Config{}
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	return &cfg, nil
}

func (c *Config) Validate() error {
	if len(c.JWT.Secret) < minSecretLen {
		return fmt.Errorf("%w: JWT_SECRET is required and must be at least %d chars", ErrInvalid, minSecretLen)
	}
	if (c.HTTP.CertFile == "") != (c.HTTP.KeyFile == "") {
		return fmt.Errorf("%w: HTTP_CERT_FILE and HTTP_KEY_FILE must be set together", ErrInvalid)
	}
	if c.Store.Path == "" {
		return fmt.Errorf("%w: STORE_PATH is required", ErrInvalid)
	}
	return nil
}

func (c *Config) TLS() bool { return c.HTTP.CertFile != "" && c.HTTP.KeyFile != "" }

func (c *Config) Addr() string { return ":" + c.HTTP.Port }
