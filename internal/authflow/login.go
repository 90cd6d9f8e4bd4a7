package authflow

import (
	"context"

	"github.com/nfrund/authflow/internal/authapi"
	"github.com/nfrund/authflow/internal/domain"
	"github.com/nfrund/authflow/internal/geo"
)

// Login signs the user in. A best-effort location fix is attached when the
// configured locator can provide one within the configured bound.
//
// On success the session is persisted and, after the redirect delay, the
// View's Redirect is set to the dashboard. On a server-reported failure the
// email is remembered for the forgot-password shortcut; an unconfirmed
// account additionally swaps the login panel for the confirmation panel after
// the confirm-switch delay.
func (c *Controller) Login(ctx context.Context, email, password string) error {
	return c.LoginFrom(ctx, email, password, c.locator)
}

// LoginFrom is Login with the location taken from locator instead of the
// controller's own. Front ends whose device is remote, such as a browser
// posting its own fix, pass a per-request provider here.
func (c *Controller) LoginFrom(ctx context.Context, email, password string, locator geo.Provider) error {
	c.clearMessages()
	if email == "" || password == "" {
		return c.reject(FlowLogin, domain.PanelLogin, domain.ErrMissingCredentials)
	}
	if err := c.begin(FlowLogin, domain.PanelLogin); err != nil {
		return err
	}
	defer c.end(FlowLogin)

	req := authapi.LoginRequest{Email: email, Password: password}
	if coords, ok := geo.Locate(ctx, locator, c.settings.Geo, c.logger); ok {
		req.Latitude, req.Longitude = &coords.Latitude, &coords.Longitude
		c.logger.Debug("Login with location")
	} else {
		c.logger.Debug("Login without location")
	}

	resp, err := c.api.Login(ctx, req)
	if err != nil {
		apiErr, ok := authapi.AsAPIError(err)
		if !ok {
			return c.fail(FlowLogin, domain.PanelLogin, err, MsgLoginFailed)
		}
		c.loginRejected(email, apiErr)
		return err
	}

	sess := domain.Session{Token: resp.Token, UserID: resp.FarmerID, UserType: domain.UserType(resp.UserType)}
	if _, err := domain.ParseUserType(resp.UserType); err != nil {
		c.logger.Warn("Login returned an unexpected user type", "error", err)
	}
	if err := c.sessions.SaveSession(ctx, sess); err != nil {
		c.logger.Error("Failed to persist session", "error", err)
		c.update(func() { c.errors[domain.PanelLogin] = MsgSessionNotSaved })
		c.emit(FlowLogin, OutcomeFailed, domain.PanelLogin)
		return err
	}

	c.update(func() { c.success = MsgLoginSuccess })
	c.logger.Info("Login succeeded", "user_type", resp.UserType)
	c.emit(FlowLogin, OutcomeSucceeded, domain.PanelLogin)

	c.schedule(c.settings.RedirectDelay, func() {
		c.update(func() { c.redirect = c.settings.DashboardPath })
	})
	return nil
}

func (c *Controller) loginRejected(email string, apiErr *authapi.APIError) {
	c.update(func() {
		c.pending.FailedLoginEmail = email
		if apiErr.Attempts != "" {
			c.notices = append(c.notices, apiErr.Attempts)
		}
		if apiErr.RequiresConfirmation {
			c.pending.ConfirmationEmail = apiErr.Email
			c.errors[domain.PanelLogin] = MsgEmailNotConfirmed
			return
		}
		c.errors[domain.PanelLogin] = renderError(apiErr, MsgLoginFailed)
	})
	c.logger.Info("Login rejected", "status", apiErr.Status, "requires_confirmation", apiErr.RequiresConfirmation)
	c.emit(FlowLogin, OutcomeFailed, domain.PanelLogin)

	if apiErr.RequiresConfirmation {
		c.schedule(c.settings.ConfirmSwitchDelay, func() {
			c.update(func() { c.switchPanelLocked(domain.PanelLogin, domain.PanelConfirmEmail) })
		})
	}
}
