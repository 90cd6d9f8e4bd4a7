package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net/url"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Config holds all configuration for the application.
type Config struct {
	API     API     `envPrefix:"AUTH_"`
	Geo     Geo     `envPrefix:"GEO_"`
	Server  Server
	Session Session `envPrefix:"SESSION_"`
	Log     Log     `envPrefix:"LOG_"`

	// StateDir is where the CLI persists the authenticated session.
	StateDir string `env:"AUTHFLOW_STATE_DIR" envDefault:".authflow"`
}

// API configures the remote authentication API and the flow timings.
type API struct {
	BaseURL            string        `env:"API_BASE_URL" envDefault:"http://localhost:3000/api"`
	Timeout            time.Duration `env:"HTTP_TIMEOUT" envDefault:"15s"`
	DashboardPath      string        `env:"DASHBOARD_PATH" envDefault:"/html/page2_dashboard.html"`
	RedirectDelay      time.Duration `env:"REDIRECT_DELAY" envDefault:"1s"`
	ConfirmSwitchDelay time.Duration `env:"CONFIRM_SWITCH_DELAY" envDefault:"2s"`
}

// Geo selects where login coordinates come from.
type Geo struct {
	Provider     string        `env:"PROVIDER" envDefault:"none"`
	Latitude     float64       `env:"LATITUDE"`
	Longitude    float64       `env:"LONGITUDE"`
	Timeout      time.Duration `env:"TIMEOUT" envDefault:"5s"`
	HighAccuracy bool          `env:"HIGH_ACCURACY" envDefault:"true"`
	IPLookupURL  string        `env:"IP_LOOKUP_URL" envDefault:"http://ip-api.com/json"`
}

// Server configures the HTTP front end.
type Server struct {
	Addr               string `env:"SERVER_ADDR" envDefault:":8080"`
	RateLimitPerMinute int    `env:"RATE_LIMIT_PER_MINUTE" envDefault:"10"`
}

// Session configures the browser session cookie. TTL is the idle lifetime
// of a browser session's controller; the cookie itself lasts for the
// browser session.
type Session struct {
	Secret string        `env:"SECRET" envDefault:"authflow-dev-secret-change-me"`
	TTL    time.Duration `env:"TTL" envDefault:"30m"`
}

// Log configures the process logger.
type Log struct {
	Format string `env:"FORMAT" envDefault:"text"`
	Level  string `env:"LEVEL" envDefault:"info"`
}

// Geo provider names.
const (
	GeoNone   = "none"
	GeoStatic = "static"
	GeoIP     = "ip"
)

// New loads configuration from an optional .env file and the environment.
func New() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("failed to load .env: %w", err)
		}
		slog.Debug("No .env file found, relying on environment variables")
	}
	return Parse()
}

// Parse reads configuration from the environment only.
func Parse() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks values env cannot check on its own.
func (c *Config) Validate() error {
	if _, err := url.ParseRequestURI(c.API.BaseURL); err != nil {
		return fmt.Errorf("invalid AUTH_API_BASE_URL %q: %w", c.API.BaseURL, err)
	}
	switch c.Geo.Provider {
	case GeoNone, GeoStatic, GeoIP:
	default:
		return fmt.Errorf("invalid GEO_PROVIDER %q: want none, static or ip", c.Geo.Provider)
	}
	if c.Server.RateLimitPerMinute <= 0 {
		return fmt.Errorf("RATE_LIMIT_PER_MINUTE must be positive, got %d", c.Server.RateLimitPerMinute)
	}
	if c.Session.TTL <= 0 {
		return fmt.Errorf("SESSION_TTL must be positive, got %s", c.Session.TTL)
	}
	return nil
}
