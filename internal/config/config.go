package config

import (
	"errors"
	"net"
	"net/url"
	"strconv"
	"time"
)

// Config is resolved once at process start and treated as immutable.
type Config struct {
	BaseURL string `mapstructure:"base_url"`

	HTTP HTTPConfig `mapstructure:"http"`

	Database DatabaseConfig `mapstructure:"database"`

	Logging struct {
		Level  string `mapstructure:"level"`  // "debug" | "info" | "warn" | "error"
		Format string `mapstructure:"format"` // "text" | "json"
	} `mapstructure:"logging"`

	Security struct {
		JWTSecret       string `mapstructure:"jwt_secret"`
		SessionTTLHours int    `mapstructure:"session_ttl_hours"`
	} `mapstructure:"security"`

	Uploads UploadsConfig `mapstructure:"uploads"`
}

type UploadsConfig struct {
	Dir   string `mapstructure:"dir"`
	MaxMB int    `mapstructure:"max_mb"`
}

// MaxBytes is the per-file upload limit in bytes.
func (u UploadsConfig) MaxBytes() int64 {
	return int64(u.MaxMB) << 20
}

// HTTPConfig carries the serving knobs. Each one answers to an environment
// variable (HOST, PORT, WORKERS, TIMEOUT) when not set in the file.
type HTTPConfig struct {
	Host           string `mapstructure:"host"`
	Port           int    `mapstructure:"port"`
	Workers        int    `mapstructure:"workers"`
	TimeoutSeconds int    `mapstructure:"timeout_seconds"`
}

type DatabaseConfig struct {
	URL      string `mapstructure:"url"`
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	Name     string `mapstructure:"name"`
	SSLMode  string `mapstructure:"sslmode"` // e.g. "disable" | "require"
	MaxConns int    `mapstructure:"max_conns"`
}

// Addr returns the listen address, e.g. "0.0.0.0:8000".
func (h HTTPConfig) Addr() string {
	return net.JoinHostPort(h.Host, strconv.Itoa(h.Port))
}

// RequestTimeout is the hard per-request budget.
func (h HTTPConfig) RequestTimeout() time.Duration {
	return time.Duration(h.TimeoutSeconds) * time.Second
}

func (c *Config) Validate() error {
	var errs []string
	if c.HTTP.Host == "" {
		errs = append(errs, "http.host must not be empty")
	}
	if c.HTTP.Port < 1 || c.HTTP.Port > 65535 {
		errs = append(errs, "http.port must be in [1,65535]")
	}
	if c.HTTP.Workers < 1 {
		errs = append(errs, "http.workers must be at least 1")
	}
	if c.HTTP.TimeoutSeconds < 1 {
		errs = append(errs, "http.timeout_seconds must be at least 1")
	}
	// DB must have either URL or (Host, User, Name)
	if c.Database.URL == "" {
		if c.Database.Host == "" || c.Database.User == "" || c.Database.Name == "" {
			errs = append(errs, "database.url or database.{host,user,name} must be set")
		}
	}
	if len(errs) > 0 {
		return errors.New(joinErrs(errs))
	}
	return nil
}

func joinErrs(es []string) string {
	if len(es) == 1 {
		return es[0]
	}
	out := es[0]
	for i := 1; i < len(es); i++ {
		out += "; " + es[i]
	}
	return out
}

// AppURL returns a postgres connection URL for the application DB.
func (d *DatabaseConfig) AppURL() (string, error) {
	if d.URL != "" {
		return d.URL, nil
	}
	if d.Host == "" || d.User == "" || d.Name == "" {
		return "", errors.New("database config incomplete: need host, user, name or set url")
	}
	u := &url.URL{
		Scheme: "postgres",
		Host:   d.Host + ":" + strconv.Itoa(d.Port),
		Path:   "/" + d.Name,
	}
	if d.Password != "" {
		u.User = url.UserPassword(d.User, d.Password)
	} else {
		u.User = url.User(d.User)
	}
	q := url.Values{}
	if d.SSLMode != "" {
		q.Set("sslmode", d.SSLMode)
	}
	u.RawQuery = q.Encode()
	return u.String(), nil
}
