package authflow

import (
	"context"
	"fmt"

	"github.com/nfrund/authflow/internal/authapi"
	"github.com/nfrund/authflow/internal/domain"
)

// Signup creates an account and moves on to email confirmation.
func (c *Controller) Signup(ctx context.Context, email, password, passwordConfirm string) error {
	c.clearMessages()
	if password != passwordConfirm {
		return c.reject(FlowSignup, domain.PanelSignup, domain.ErrPasswordMismatch)
	}
	if err := c.begin(FlowSignup, domain.PanelSignup); err != nil {
		return err
	}
	defer c.end(FlowSignup)

	resp, err := c.api.Signup(ctx, authapi.SignupRequest{Email: email, Password: password})
	if err != nil {
		return c.fail(FlowSignup, domain.PanelSignup, err, MsgSignupFailed)
	}

	c.update(func() {
		c.pending.ConfirmationEmail = resp.Email
		c.notices = append(c.notices, fmt.Sprintf(signupNotice, resp.FarmerName))
		c.switchPanelLocked(domain.PanelSignup, domain.PanelConfirmEmail)
	})
	c.logger.Info("Signup succeeded")
	c.emit(FlowSignup, OutcomeSucceeded, domain.PanelSignup)
	return nil
}

// ConfirmEmail submits the confirmation code for the pending confirmation
// email.
func (c *Controller) ConfirmEmail(ctx context.Context, code string) error {
	c.clearMessages()
	var email string
	c.update(func() {
		c.setFieldLocked(domain.PanelConfirmEmail, domain.FieldConfirmationCode, code)
		email = c.pending.ConfirmationEmail
	})
	if email == "" {
		return c.reject(FlowConfirmEmail, domain.PanelConfirmEmail, domain.ErrNoPendingConfirmation)
	}
	if err := c.begin(FlowConfirmEmail, domain.PanelConfirmEmail); err != nil {
		return err
	}
	defer c.end(FlowConfirmEmail)

	if err := c.api.ConfirmEmail(ctx, email, code); err != nil {
		return c.fail(FlowConfirmEmail, domain.PanelConfirmEmail, err, MsgInvalidConfirmation)
	}

	c.update(func() {
		c.notices = append(c.notices, MsgEmailConfirmed)
		c.open[domain.PanelConfirmEmail] = false
		delete(c.fields, domain.PanelConfirmEmail)
	})
	c.emit(FlowConfirmEmail, OutcomeSucceeded, domain.PanelConfirmEmail)
	return nil
}

// ResendConfirmation asks for a new confirmation code. Without a pending
// confirmation email there is nobody to send it to, so nothing is sent.
func (c *Controller) ResendConfirmation(ctx context.Context) error {
	c.clearMessages()
	var email string
	c.update(func() { email = c.pending.ConfirmationEmail })
	if email == "" {
		return c.reject(FlowResendConfirmation, domain.PanelConfirmEmail, domain.ErrNoPendingConfirmation)
	}
	if err := c.begin(FlowResendConfirmation, domain.PanelConfirmEmail); err != nil {
		return err
	}
	defer c.end(FlowResendConfirmation)

	if err := c.api.ResendConfirmation(ctx, email); err != nil {
		return c.fail(FlowResendConfirmation, domain.PanelConfirmEmail, err, MsgResendFailed)
	}

	c.update(func() { c.notices = append(c.notices, MsgConfirmationResent) })
	c.emit(FlowResendConfirmation, OutcomeSucceeded, domain.PanelConfirmEmail)
	return nil
}
