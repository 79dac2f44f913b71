package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Env         string `mapstructure:"ENV"`
	Port        string `mapstructure:"PORT"`
	GRPCPort    string `mapstructure:"GRPC_PORT"`
	LogLevel    string `mapstructure:"LOG_LEVEL"`
	StoreDriver string `mapstructure:"STORE_DRIVER"`

	DatabaseURL string `mapstructure:"DATABASE_URL"`
	DBMaxConns  int32  `mapstructure:"DB_MAX_CONNS"`
	DBMinConns  int32  `mapstructure:"DB_MIN_CONNS"`

	RedisURL             string        `mapstructure:"REDIS_URL"`
	AvailabilityCacheTTL time.Duration `mapstructure:"AVAILABILITY_CACHE_TTL"`
	AvailabilityDays     int           `mapstructure:"AVAILABILITY_DAYS"`
	MaxAvailabilityDays  int           `mapstructure:"MAX_AVAILABILITY_DAYS"`

	JWTSecret     string `mapstructure:"JWT_SECRET"`
	AdminEmail    string `mapstructure:"BOOTSTRAP_ADMIN_EMAIL"`
	AdminPassword string `mapstructure:"BOOTSTRAP_ADMIN_PASSWORD"`

	CORSOrigins    []string      `mapstructure:"-"`
	RateLimitRPS   float64       `mapstructure:"RATE_LIMIT_RPS"`
	RateLimitBurst int           `mapstructure:"RATE_LIMIT_BURST"`
	RequestTimeout time.Duration `mapstructure:"REQUEST_TIMEOUT"`
}

var keys = []string{
	"ENV", "PORT", "GRPC_PORT", "LOG_LEVEL", "STORE_DRIVER",
	"DATABASE_URL", "DB_MAX_CONNS", "DB_MIN_CONNS",
	"REDIS_URL", "AVAILABILITY_CACHE_TTL", "AVAILABILITY_DAYS", "MAX_AVAILABILITY_DAYS",
	"JWT_SECRET", "BOOTSTRAP_ADMIN_EMAIL", "BOOTSTRAP_ADMIN_PASSWORD",
	"CORS_ORIGINS", "RATE_LIMIT_RPS", "RATE_LIMIT_BURST", "REQUEST_TIMEOUT",
}

// Load reads .env (if present) and the environment.
func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.AutomaticEnv()

	v.SetDefault("ENV", "production")
	v.SetDefault("PORT", "8080")
	v.SetDefault("GRPC_PORT", "50051")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("STORE_DRIVER", "postgres")
	v.SetDefault("DB_MAX_CONNS", 10)
	v.SetDefault("DB_MIN_CONNS", 2)
	v.SetDefault("AVAILABILITY_CACHE_TTL", "30s")
	v.SetDefault("AVAILABILITY_DAYS", 3)
	v.SetDefault("MAX_AVAILABILITY_DAYS", 31)
	v.SetDefault("CORS_ORIGINS", "http://localhost:3000")
	v.SetDefault("RATE_LIMIT_RPS", 5)
	v.SetDefault("RATE_LIMIT_BURST", 10)
	v.SetDefault("REQUEST_TIMEOUT", "15s")

	// bind explicitly so Unmarshal sees env-only keys
	for _, k := range keys {
		_ = v.BindEnv(k)
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	for _, o := range strings.Split(v.GetString("CORS_ORIGINS"), ",") {
		if o = strings.TrimSpace(o); o != "" {
			cfg.CORSOrigins = append(cfg.CORSOrigins, o)
		}
	}
	return cfg, nil
}

func (c *Config) IsDev() bool { return c.Env == "development" }

// Validate checks the configuration is safe to serve with.
func (c *Config) Validate() error {
	if c.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET is required")
	}
	if !c.IsDev() && len(c.JWTSecret) < 32 {
		return fmt.Errorf("JWT_SECRET must be at least 32 bytes outside development")
	}
	switch c.StoreDriver {
	case "postgres":
		if c.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL is required for STORE_DRIVER=postgres")
		}
	case "memory":
	default:
		return fmt.Errorf("STORE_DRIVER must be postgres or memory, got %q", c.StoreDriver)
	}
	if c.AvailabilityDays < 1 || c.MaxAvailabilityDays < c.AvailabilityDays {
		return fmt.Errorf("need 1 <= AVAILABILITY_DAYS (%d) <= MAX_AVAILABILITY_DAYS (%d)",
			c.AvailabilityDays, c.MaxAvailabilityDays)
	}
	if (c.AdminEmail == "") != (c.AdminPassword == "") {
		return fmt.Errorf("BOOTSTRAP_ADMIN_EMAIL and BOOTSTRAP_ADMIN_PASSWORD must be set together")
	}
	return nil
}
