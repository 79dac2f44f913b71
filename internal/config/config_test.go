package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaultsAndOverrides(t *testing.T) {
	t.Setenv("JWT_SECRET", "0123456789abcdef0123456789abcdef")
	t.Setenv("DATABASE_URL", "postgres://localhost/appointments")
	t.Setenv("AVAILABILITY_CACHE_TTL", "1m")
	t.Setenv("CORS_ORIGINS", "http://a.test, http://b.test")
	t.Setenv("DB_MAX_CONNS", "25")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "postgres", cfg.StoreDriver)
	assert.Equal(t, time.Minute, cfg.AvailabilityCacheTTL)
	assert.Equal(t, 15*time.Second, cfg.RequestTimeout)
	assert.Equal(t, int32(25), cfg.DBMaxConns)
	assert.Equal(t, 3, cfg.AvailabilityDays)
	assert.Equal(t, []string{"http://a.test", "http://b.test"}, cfg.CORSOrigins)
	assert.NoError(t, cfg.Validate())
}

func TestValidate(t *testing.T) {
	base := func() Config {
		return Config{
			Env:                 "production",
			StoreDriver:         "postgres",
			DatabaseURL:         "postgres://x",
			JWTSecret:           "0123456789abcdef0123456789abcdef",
			AvailabilityDays:    3,
			MaxAvailabilityDays: 31,
		}
	}

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"missing secret", func(c *Config) { c.JWTSecret = "" }},
		{"short secret", func(c *Config) { c.JWTSecret = "short" }},
		{"no database", func(c *Config) { c.DatabaseURL = "" }},
		{"unknown driver", func(c *Config) { c.StoreDriver = "sqlite" }},
		{"range inverted", func(c *Config) { c.MaxAvailabilityDays = 2 }},
		{"half admin", func(c *Config) { c.AdminEmail = "a@b.com" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := base()
			tt.mutate(&c)
			assert.Error(t, c.Validate())
		})
	}

	mem := base()
	mem.StoreDriver, mem.DatabaseURL = "memory", ""
	assert.NoError(t, mem.Validate())

	dev := base()
	dev.Env, dev.JWTSecret = "development", "dev"
	assert.NoError(t, dev.Validate())
}
