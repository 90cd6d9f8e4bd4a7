package server

import (
	"github.com/nfrund/authflow/internal/handlers"
	"github.com/nfrund/authflow/internal/middleware"
)

// RegisterRoutes sets up all the application routes.
func (s *Server) RegisterRoutes() {
	rateLimiter := middleware.RateLimiter(s.Cfg.Server.RateLimitPerMinute)

	flows := s.E.Group("/flows")
	flows.GET("/state", s.flowHandler.State)
	flows.POST("/actions/:action", s.flowHandler.Action, rateLimiter)
	flows.POST("/panels/:panel/open", s.flowHandler.OpenPanel, rateLimiter)
	flows.POST("/panels/:panel/close", s.flowHandler.ClosePanel)

	s.E.GET("/health", handlers.Health)
}
