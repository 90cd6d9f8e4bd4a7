package app

import (
	"context"
	"log/slog"
	"net/http"
	"path/filepath"

	"github.com/spf13/afero"

	"github.com/nfrund/authflow/internal/authapi"
	"github.com/nfrund/authflow/internal/authflow"
	"github.com/nfrund/authflow/internal/config"
	"github.com/nfrund/authflow/internal/domain"
	"github.com/nfrund/authflow/internal/geo"
	"github.com/nfrund/authflow/internal/pubsub"
	"github.com/nfrund/authflow/internal/storage"
)

// Dependencies holds the core services every front end builds its flow
// controllers from. It is created once per process from the configuration.
type Dependencies struct {
	API      authflow.API
	Locator  geo.Provider
	Settings authflow.Settings
	// Fs backs durable session storage. Tests swap in afero.NewMemMapFs.
	Fs       afero.Fs
	StateDir string
	// Bus carries flow events. It may be nil when nothing listens.
	Bus    *pubsub.WatermillBridge
	Logger *slog.Logger
}

// NewDependencies wires the services described by cfg.
func NewDependencies(cfg *config.Config, logger *slog.Logger) *Dependencies {
	if logger == nil {
		logger = slog.Default()
	}
	return &Dependencies{
		API: authapi.New(cfg.API.BaseURL,
			authapi.WithTimeout(cfg.API.Timeout),
			authapi.WithLogger(logger),
		),
		Locator:  NewLocator(cfg.Geo),
		Settings: NewSettings(cfg),
		Fs:       afero.NewOsFs(),
		StateDir: cfg.StateDir,
		Logger:   logger,
	}
}

// NewSettings maps configuration onto flow settings.
func NewSettings(cfg *config.Config) authflow.Settings {
	s := authflow.DefaultSettings()
	s.DashboardPath = cfg.API.DashboardPath
	s.RedirectDelay = cfg.API.RedirectDelay
	s.ConfirmSwitchDelay = cfg.API.ConfirmSwitchDelay
	s.Geo.Timeout = cfg.Geo.Timeout
	s.Geo.HighAccuracy = cfg.Geo.HighAccuracy
	return s
}

// NewLocator picks the location provider named by cfg. A nil provider means
// the device has no location support.
func NewLocator(cfg config.Geo) geo.Provider {
	switch cfg.Provider {
	case config.GeoStatic:
		return geo.Static{Coordinates: geo.Coordinates{Latitude: cfg.Latitude, Longitude: cfg.Longitude}}
	case config.GeoIP:
		return geo.IPLookup{URL: cfg.IPLookupURL, Client: &http.Client{Timeout: cfg.Timeout}}
	default:
		return nil
	}
}

// SessionStore returns durable storage for the login session. An empty
// scope uses the state directory itself, which is what a single-user front
// end wants; the HTTP front end scopes storage per browser session.
func (d *Dependencies) SessionStore(scope string) *storage.SessionStore {
	dir := d.StateDir
	if scope != "" {
		dir = filepath.Join(dir, "sessions", scope)
	}
	return storage.NewSessionStore(storage.NewAferoStore(d.Fs, dir))
}

// NewController builds a flow controller for one UI session.
func (d *Dependencies) NewController(sessionID string, sessions domain.SessionStore, opts ...authflow.Option) *authflow.Controller {
	deps := authflow.Dependencies{
		API:      d.API,
		Sessions: sessions,
		Locator:  d.Locator,
		Logger:   d.Logger,
	}
	if d.Bus != nil {
		deps.Publisher = d.Bus
	}
	if sessionID != "" {
		opts = append([]authflow.Option{authflow.WithSessionID(sessionID)}, opts...)
	}
	return authflow.New(deps, d.Settings, opts...)
}

// StartAudit logs every flow event published on the bus until ctx ends.
func StartAudit(ctx context.Context, sub pubsub.Subscriber, logger *slog.Logger) error {
	return pubsub.Subscribe(ctx, sub, authflow.FlowEvents, func(_ context.Context, sessionID string, ev authflow.FlowEvent) error {
		logger.Info("Flow event",
			"session_id", sessionID,
			"flow", ev.Flow,
			"outcome", ev.Outcome,
			"panel", ev.Panel,
			"at", ev.At,
		)
		return nil
	})
}
