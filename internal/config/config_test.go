package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("PORT", "")
	t.Setenv("DATABASE_URL", "")
	t.Setenv("ENVIRONMENT", "")
	t.Setenv("BASE_URL", "")
	t.Setenv("ALLOCATION_MAX_ATTEMPTS", "")
	t.Setenv("CORS_ALLOWED_ORIGINS", "")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, "./data/links.db", cfg.Database.URL)
	assert.Equal(t, "http://localhost:8080", cfg.App.BaseURL)
	assert.Equal(t, "1.0", cfg.App.Version)
	assert.Equal(t, 20, cfg.Allocation.MaxAttempts)
	assert.Equal(t, 10*time.Second, cfg.Server.RequestTimeout)
	assert.Equal(t, []string{"*"}, cfg.Server.AllowedOrigins)
	assert.True(t, cfg.IsDevelopment())
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("DATABASE_URL", "postgres://u:p@db/links?sslmode=disable")
	t.Setenv("ENVIRONMENT", "production")
	t.Setenv("ALLOCATION_MAX_ATTEMPTS", "5")
	t.Setenv("BLOCK_PRIVATE_TARGETS", "true")
	t.Setenv("SERVER_REQUEST_TIMEOUT", "2s")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example, ,https://b.example")
	t.Setenv("BASE_URL", "")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.Server.Port)
	assert.Equal(t, "postgres://u:p@db/links?sslmode=disable", cfg.Database.URL)
	assert.Equal(t, 5, cfg.Allocation.MaxAttempts)
	assert.True(t, cfg.Allocation.BlockPrivateTargets)
	assert.Equal(t, 2*time.Second, cfg.Server.RequestTimeout)
	assert.True(t, cfg.IsProduction())
	assert.Equal(t, "production", cfg.Log.Environment)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.Server.AllowedOrigins)
	assert.Equal(t, "http://localhost:9090", cfg.App.BaseURL)
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			Server:     ServerConfig{Port: "8080"},
			Database:   DatabaseConfig{URL: ":memory:"},
			App:        AppConfig{Environment: "testing"},
			Allocation: AllocationConfig{MaxAttempts: 20, MaxURLLength: 2048},
		}
	}

	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr bool
	}{
		{"valid", func(c *Config) {}, false},
		{"bad port", func(c *Config) { c.Server.Port = "abc" }, true},
		{"port out of range", func(c *Config) { c.Server.Port = "70000" }, true},
		{"empty database", func(c *Config) { c.Database.URL = "" }, true},
		{"unknown environment", func(c *Config) { c.App.Environment = "staging" }, true},
		{"unknown log level", func(c *Config) { c.Log.Level = "trace" }, true},
		{"zero attempts", func(c *Config) { c.Allocation.MaxAttempts = 0 }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := valid()
			c.Log.Level = "info"
			tt.mutate(c)
			err := c.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
