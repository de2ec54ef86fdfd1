package config

import (
	"errors"
	"fmt"
	"io/fs"

	"github.com/spf13/viper"
)

// Environment variables recognized in addition to the config file. The
// serving knobs keep their short historical names.
var envBindings = map[string]string{
	"http.host":            "HOST",
	"http.port":            "PORT",
	"http.workers":         "WORKERS",
	"http.timeout_seconds": "TIMEOUT",
	"database.url":         "DATABASE_URL",
	"logging.level":        "LOG_LEVEL",
	"logging.format":       "LOG_FORMAT",
	"security.jwt_secret":  "JWT_SECRET",
	"uploads.dir":          "UPLOAD_DIR",
}

// Load resolves configuration from defaults, an optional YAML file at path,
// and environment variable overrides, in increasing precedence. A missing
// file is not an error; an unreadable or invalid one is.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)
	for key, env := range envBindings {
		if err := v.BindEnv(key, env); err != nil {
			return nil, fmt.Errorf("bind %s: %w", env, err)
		}
	}

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
				return nil, fmt.Errorf("read config: %w", err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("http.host", "0.0.0.0")
	v.SetDefault("http.port", 8000)
	v.SetDefault("http.workers", 2)
	v.SetDefault("http.timeout_seconds", 60)

	v.SetDefault("database.host", "db")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "inkwell")
	v.SetDefault("database.password", "password")
	v.SetDefault("database.name", "inkwell")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.max_conns", 10)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")

	v.SetDefault("security.jwt_secret", "change-me")
	v.SetDefault("security.session_ttl_hours", 72)

	v.SetDefault("uploads.dir", "uploads")
	v.SetDefault("uploads.max_mb", 10)
}
