package server

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/gorilla/sessions"
	"github.com/labstack/echo-contrib/session"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/nfrund/authflow/internal/app"
	"github.com/nfrund/authflow/internal/authflow"
	"github.com/nfrund/authflow/internal/config"
	"github.com/nfrund/authflow/internal/handlers"
	appmw "github.com/nfrund/authflow/internal/middleware"
	"github.com/nfrund/authflow/internal/pubsub"
	"github.com/nfrund/authflow/internal/registry"
)

// Server holds the dependencies for the HTTP front end.
type Server struct {
	E           *echo.Echo
	Cfg         *config.Config
	Deps        *app.Dependencies
	Controllers *registry.Registry
	Bus         *pubsub.WatermillBridge

	logger      *slog.Logger
	flowHandler *handlers.FlowHandler
	stopAudit   context.CancelFunc
}

// New creates a new Server instance from deps. deps.Bus is created when
// missing so flow events always reach the audit log.
func New(cfg *config.Config, deps *app.Dependencies) (*Server, error) {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	if deps.Bus == nil {
		deps.Bus = pubsub.NewWatermillBridge()
	}

	auditCtx, stopAudit := context.WithCancel(context.Background())
	if err := app.StartAudit(auditCtx, deps.Bus, logger); err != nil {
		stopAudit()
		return nil, fmt.Errorf("start flow audit: %w", err)
	}

	// Each browser session gets its own controller with its own storage. The
	// browser is the device here, so logins only carry the fix it posts; the
	// process-wide locator would report the server's position.
	controllers := registry.New(cfg.Session.TTL, func(sessionID string) *authflow.Controller {
		return deps.NewController(sessionID, deps.SessionStore(sessionID), authflow.WithLocator(nil))
	})

	e := echo.New()
	e.HideBanner = true
	e.Validator = handlers.NewValidator()
	e.Use(middleware.RequestID())
	e.Use(appmw.Logger(logger))
	e.Use(middleware.Recover())

	store := sessions.NewCookieStore([]byte(cfg.Session.Secret))
	store.Options = &sessions.Options{
		Path:     "/",
		// Expiry is left to the controller registry, which renews on use.
		MaxAge:   0,
		HttpOnly: true,
	}
	e.Use(session.Middleware(store))

	setupErrorHandling(e)

	s := &Server{
		E:           e,
		Cfg:         cfg,
		Deps:        deps,
		Controllers: controllers,
		Bus:         deps.Bus,
		logger:      logger,
		flowHandler: handlers.NewFlowHandler(controllers),
		stopAudit:   stopAudit,
	}
	s.RegisterRoutes()
	return s, nil
}

// Close releases the event bus.
func (s *Server) Close() error {
	s.stopAudit()
	return s.Bus.Close()
}
