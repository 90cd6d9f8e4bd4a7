package server

import (
	"errors"
	"net/http"
	"runtime/debug"

	"github.com/labstack/echo/v4"

	"github.com/nfrund/authflow/internal/handlers"
	"github.com/nfrund/authflow/internal/middleware"
)

// setupErrorHandling installs the central error handler. Errors a handler
// returned on purpose arrive as *echo.HTTPError and are answered with their
// code; anything else is a bug and is logged with a stack trace.
func setupErrorHandling(e *echo.Echo) {
	e.HTTPErrorHandler = func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}
		logger := middleware.FromContext(c.Request().Context())

		var he *echo.HTTPError
		if !errors.As(err, &he) {
			logger.Error("Internal Server Error (Unhandled)",
				"error", err,
				"path", c.Request().URL.Path,
				"stack_trace", string(debug.Stack()),
			)
			he = echo.NewHTTPError(http.StatusInternalServerError)
		} else if he.Code >= http.StatusInternalServerError {
			logger.Error("Request failed", "error", err, "status", he.Code)
		}

		msg := http.StatusText(he.Code)
		if m, ok := he.Message.(string); ok && m != "" {
			msg = m
		}
		resp := handlers.ErrorResponse{Code: http.StatusText(he.Code), Message: msg}
		if c.Request().Method == http.MethodHead {
			_ = c.NoContent(he.Code)
			return
		}
		if err := c.JSON(he.Code, resp); err != nil {
			logger.Error("Failed to write error response", "error", err)
		}
	}
}
