package config

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewConfig_DefaultValues(t *testing.T) {
	cfg, err := NewConfig()
	require.NoError(t, err)

	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "3000", cfg.HTTP.Port)
	assert.Equal(t, ":3000", cfg.Addr())
	assert.False(t, cfg.TLS())
	assert.Equal(t, "data/inventory.json", cfg.Store.Path)
	assert.False(t, cfg.Store.CreateIfMissing)
	assert.Equal(t, "https://api.escuelajs.co/api/v1/products", cfg.Catalog.URL)
	assert.Empty(t, cfg.Database.DSN)
	assert.True(t, cfg.Metrics.Enabled)
}

func TestNewConfig_EnvironmentOverrides(t *testing.T) {
	tests := []struct {
		name     string
		envVars  map[string]string
		expected func(*Config)
	}{
		{
			name:    "http",
			envVars: map[string]string{"HTTP_PORT": "8443", "HTTP_CERT_FILE": "cert.pem", "HTTP_KEY_FILE": "key.pem"},
			expected: func(cfg *Config) {
				assert.Equal(t, ":8443", cfg.Addr())
				assert.True(t, cfg.TLS())
			},
		},
		{
			name:    "store",
			envVars: map[string]string{"STORE_PATH": "/var/lib/inventory/db.json", "STORE_CREATE_IF_MISSING": "true"},
			expected: func(cfg *Config) {
				assert.Equal(t, "/var/lib/inventory/db.json", cfg.Store.Path)
				assert.True(t, cfg.Store.CreateIfMissing)
			},
		},
		{
			name:    "database and metrics",
			envVars: map[string]string{"DATABASE_DSN": "postgres://u:p@db:5432/inv", "METRICS_ENABLED": "false", "METRICS_TOKEN": "t"},
			expected: func(cfg *Config) {
				assert.Equal(t, "postgres://u:p@db:5432/inv", cfg.Database.DSN)
				assert.False(t, cfg.Metrics.Enabled)
				assert.Equal(t, "t", cfg.Metrics.Token)
			},
		},
		{
			name:    "catalog and secret",
			envVars: map[string]string{"CATALOG_URL": "http://feed.local/items", "JWT_SECRET": "s3cret", "LOG_LEVEL": "debug"},
			expected: func(cfg *Config) {
				assert.Equal(t, "http://feed.local/items", cfg.Catalog.URL)
				assert.Equal(t, "s3cret", cfg.JWT.Secret)
				assert.Equal(t, "debug", cfg.LogLevel)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.envVars {
				t.Setenv(k, v)
			}

			cfg, err := NewConfig()
			require.NoError(t, err)
			tt.expected(cfg)
		})
	}
}

func TestNewConfig_BadBool(t *testing.T) {
	t.Setenv("STORE_CREATE_IF_MISSING", "maybe")

	_, err := NewConfig()
	require.Error(t, err)
}

func TestConfig_Validate(t *testing.T) {
	valid := func() Config {
		return Config{
			HTTP:  HTTP{Port: "3000"},
			Store: Store{Path: "data/inventory.json"},
			JWT:   JWT{Secret: strings.Repeat("x", 32)},
		}
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{name: "valid", mutate: func(*Config) {}},
		{name: "short secret", mutate: func(c *Config) { c.JWT.Secret = "short" }, wantErr: true},
		{name: "missing secret", mutate: func(c *Config) { c.JWT.Secret = "" }, wantErr: true},
		{name: "cert without key", mutate: func(c *Config) { c.HTTP.CertFile = "cert.pem" }, wantErr: true},
		{name: "cert and key", mutate: func(c *Config) { c.HTTP.CertFile, c.HTTP.KeyFile = "c", "k" }},
		{name: "no store path", mutate: func(c *Config) { c.Store.Path = "" }, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(&cfg)

			err := cfg.Validate()
			if tt.wantErr {
				require.ErrorIs(t, err, ErrInvalid)
				return
			}
			require.NoError(t, err)
		})
	}
}
