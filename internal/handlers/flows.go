package handlers

import (
	"errors"
	"net/http"

	"github.com/gorilla/sessions"
	"github.com/labstack/echo-contrib/session"
	"github.com/labstack/echo/v4"

	"github.com/nfrund/authflow/internal/authflow"
	"github.com/nfrund/authflow/internal/domain"
	"github.com/nfrund/authflow/internal/middleware"
)

const (
	// SessionName is the cookie holding the browser's flow session id.
	SessionName  = "authflow-session"
	sessionKeyID = "sid"
)

// ControllerSource hands out the controller of a browser session.
// *registry.Registry implements it.
type ControllerSource interface {
	GetOrCreate(id string) (ctrl *authflow.Controller, sessionID string, created bool)
}

// FlowHandler exposes the authentication flows of one controller per browser
// session over HTTP.
type FlowHandler struct {
	controllers ControllerSource
}

// NewFlowHandler creates a new FlowHandler.
func NewFlowHandler(controllers ControllerSource) *FlowHandler {
	return &FlowHandler{controllers: controllers}
}

// State returns the current view (GET /flows/state).
func (h *FlowHandler) State(c echo.Context) error {
	ctrl, err := h.controller(c)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, NewFlowResponse(ctrl, nil))
}

// Action runs a flow action (POST /flows/actions/:action).
func (h *FlowHandler) Action(c echo.Context) error {
	// 1. Resolve the action before touching the session.
	action, err := authflow.ParseAction(c.Param("action"))
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	}

	// 2. Bind and validate the form.
	var req ActionRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	ctrl, err := h.controller(c)
	if err != nil {
		return err
	}

	// 3. Run it. Flow failures are part of the view, so only refusals change
	// the status code.
	err = ctrl.Dispatch(c.Request().Context(), action, req.Input())
	if err != nil {
		middleware.FromContext(c.Request().Context()).Debug("Flow action failed", "action", action, "error", err)
	}
	return c.JSON(statusFor(err), NewFlowResponse(ctrl, err))
}

// OpenPanel shows a panel (POST /flows/panels/:panel/open). Opening the
// recovery panel may request a recovery code.
func (h *FlowHandler) OpenPanel(c echo.Context) error {
	return h.panel(c, func(ctrl *authflow.Controller, p domain.Panel) error {
		return ctrl.OpenPanel(c.Request().Context(), p)
	})
}

// ClosePanel hides a panel (POST /flows/panels/:panel/close).
func (h *FlowHandler) ClosePanel(c echo.Context) error {
	return h.panel(c, func(ctrl *authflow.Controller, p domain.Panel) error {
		return ctrl.ClosePanel(p)
	})
}

func (h *FlowHandler) panel(c echo.Context, fn func(*authflow.Controller, domain.Panel) error) error {
	p, err := domain.ParsePanel(c.Param("panel"))
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	}
	ctrl, err := h.controller(c)
	if err != nil {
		return err
	}
	err = fn(ctrl, p)
	return c.JSON(statusFor(err), NewFlowResponse(ctrl, err))
}

// controller looks up the controller of the request's session, starting a
// new session when the cookie is missing or its session has expired.
func (h *FlowHandler) controller(c echo.Context) (*authflow.Controller, error) {
	sess, err := session.Get(SessionName, c)
	if err != nil {
		// A cookie signed with an old secret decodes with an error but still
		// yields a fresh session we can use.
		middleware.FromContext(c.Request().Context()).Debug("Discarding unreadable session cookie", "error", err)
	}
	if sess == nil {
		return nil, echo.NewHTTPError(http.StatusInternalServerError, "session store unavailable")
	}

	id, _ := sess.Values[sessionKeyID].(string)
	ctrl, sessionID, created := h.controllers.GetOrCreate(id)
	if created {
		sess.Values[sessionKeyID] = sessionID
		opts := sessions.Options{Path: "/"}
		if sess.Options != nil {
			opts = *sess.Options
		}
		opts.HttpOnly = true
		opts.SameSite = http.SameSiteLaxMode
		sess.Options = &opts
		if err := sess.Save(c.Request(), c.Response()); err != nil {
			return nil, err
		}
		middleware.FromContext(c.Request().Context()).Info("Started flow session", "session_id", sessionID)
	}
	return ctrl, nil
}

// statusFor maps a controller error onto a status code. Refusals are 409;
// everything else, local validation and remote failures included, is a
// completed request whose outcome is in the view.
func statusFor(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, domain.ErrActionUnavailable), errors.Is(err, domain.ErrFlowBusy):
		return http.StatusConflict
	case errors.Is(err, domain.ErrUnknownAction), errors.Is(err, domain.ErrUnknownPanel):
		return http.StatusNotFound
	default:
		return http.StatusOK
	}
}

// Health reports liveness (GET /health).
func Health(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}
