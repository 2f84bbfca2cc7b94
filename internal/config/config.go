package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// Config keeps runtime settings for the service.
type Config struct {
	Environment string `mapstructure:"ENVIRONMENT"`
	ServerPort  string `mapstructure:"SERVER_PORT"`

	// DATABASE_URL is either a postgres:// DSN or a SQLite file path.
	DatabaseURL string `mapstructure:"DATABASE_URL"`

	RedisAddr     string `mapstructure:"REDIS_ADDR"`
	RedisPassword string `mapstructure:"REDIS_PASSWORD"`
	RedisDB       int    `mapstructure:"REDIS_DB"`

	JWTSecret string `mapstructure:"JWT_SECRET"`

	LogDir string `mapstructure:"LOG_DIR"`

	// ReconcileTime is an HH:MM wall-clock time for the nightly day-aggregate
	// rebuild. Empty disables the job.
	ReconcileTime string `mapstructure:"RECONCILE_TIME"`
}

// Load reads configuration from a .env file in path (if present) and from
// environment variables, with sane defaults.
func Load(path string) (Config, error) {
	v := viper.New()
	v.AddConfigPath(path)
	v.SetConfigName(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()

	v.SetDefault("ENVIRONMENT", "development")
	v.SetDefault("SERVER_PORT", "8080")
	v.SetDefault("DATABASE_URL", "daily_charge.db")
	v.SetDefault("REDIS_ADDR", "localhost:6379")
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("LOG_DIR", "logs")
	v.SetDefault("RECONCILE_TIME", "")
	// Registering the key lets AutomaticEnv feed it through Unmarshal.
	v.SetDefault("JWT_SECRET", "")

	if err := v.ReadInConfig(); err != nil {
		// The .env file is optional; environment variables still apply.
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}

	cfg.JWTSecret = strings.TrimSpace(cfg.JWTSecret)
	if cfg.JWTSecret == "" {
		return cfg, fmt.Errorf("JWT_SECRET is required")
	}

	return cfg, nil
}
