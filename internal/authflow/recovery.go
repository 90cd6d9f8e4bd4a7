package authflow

import (
	"context"
	"strings"

	"github.com/nfrund/authflow/internal/domain"
)

// OpenRecovery opens the recovery panel. After a failed login the recovery
// code is requested for that email straight away and the panel opens on the
// verify step; if that request fails the panel opens on the request step with
// the email prefilled. Without a failed login the panel opens empty on the
// request step.
//
// A failed shortcut is not an error for the caller: the user simply lands on
// the request step.
func (c *Controller) OpenRecovery(ctx context.Context) error {
	var email string
	c.update(func() { email = c.pending.FailedLoginEmail })

	if email == "" {
		c.update(func() {
			c.step = domain.StepRequestCode
			delete(c.fields[domain.PanelRecovery], domain.FieldRecoveryEmail)
			delete(c.fields[domain.PanelRecovery], domain.FieldRecoveryCode)
			c.labels.recoveryEmail = ""
			c.open[domain.PanelRecovery] = true
		})
		return nil
	}

	if err := c.begin(FlowRecoveryRequest, domain.PanelRecovery); err != nil {
		return err
	}
	defer c.end(FlowRecoveryRequest)

	if err := c.api.RequestPasswordReset(ctx, email); err != nil {
		c.logger.Info("Recovery shortcut failed, falling back to manual entry", "error", err)
		c.update(func() {
			c.step = domain.StepRequestCode
			c.setFieldLocked(domain.PanelRecovery, domain.FieldRecoveryEmail, email)
			delete(c.fields[domain.PanelRecovery], domain.FieldRecoveryCode)
			c.labels.recoveryEmail = ""
			c.open[domain.PanelRecovery] = true
		})
		c.emit(FlowRecoveryRequest, OutcomeFailed, domain.PanelRecovery)
		return nil
	}

	c.update(func() {
		c.step = domain.StepVerifyCode
		c.labels.recoveryEmail = recoverySentLabel + email
		c.open[domain.PanelRecovery] = true
	})
	c.emit(FlowRecoveryRequest, OutcomeSucceeded, domain.PanelRecovery)
	return nil
}

// RequestRecoveryCode asks the server to email a recovery code.
func (c *Controller) RequestRecoveryCode(ctx context.Context, email string) error {
	c.clearMessages()
	email = strings.TrimSpace(email)
	c.update(func() { c.setFieldLocked(domain.PanelRecovery, domain.FieldRecoveryEmail, email) })
	if err := c.begin(FlowRecoveryRequest, domain.PanelRecovery); err != nil {
		return err
	}
	defer c.end(FlowRecoveryRequest)

	if err := c.api.ForgotPassword(ctx, email); err != nil {
		return c.fail(FlowRecoveryRequest, domain.PanelRecovery, err, MsgRecoveryRequestFail)
	}

	c.update(func() {
		c.notices = append(c.notices, MsgRecoveryCodeSent)
		c.labels.recoveryEmail = recoverySentLabel + email
		c.step = domain.StepVerifyCode
	})
	c.emit(FlowRecoveryRequest, OutcomeSucceeded, domain.PanelRecovery)
	return nil
}

// VerifyRecoveryCode checks a recovery code. The code is case-insensitive for
// the user and sent upper-cased. On success the code becomes the pending
// recovery code and the reset panel replaces the recovery panel.
func (c *Controller) VerifyRecoveryCode(ctx context.Context, code string) error {
	c.clearMessages()
	code = strings.ToUpper(code)
	c.update(func() { c.setFieldLocked(domain.PanelRecovery, domain.FieldRecoveryCode, code) })
	if err := c.begin(FlowRecoveryVerify, domain.PanelRecovery); err != nil {
		return err
	}
	defer c.end(FlowRecoveryVerify)

	resp, err := c.api.VerifyRecoveryCode(ctx, code)
	if err != nil {
		return c.fail(FlowRecoveryVerify, domain.PanelRecovery, err, MsgInvalidRecoveryCode)
	}

	c.update(func() {
		c.pending.RecoveryCode = code
		c.labels.resetEmail = resetTargetLabel + resp.Email
		c.switchPanelLocked(domain.PanelRecovery, domain.PanelResetPassword)
	})
	c.emit(FlowRecoveryVerify, OutcomeSucceeded, domain.PanelRecovery)
	return nil
}

// BackToEmail returns the recovery panel to the request step with empty fields.
func (c *Controller) BackToEmail() {
	c.clearMessages()
	c.update(func() {
		c.step = domain.StepRequestCode
		delete(c.fields[domain.PanelRecovery], domain.FieldRecoveryEmail)
		delete(c.fields[domain.PanelRecovery], domain.FieldRecoveryCode)
	})
}

// ResetPassword sets a new password using the pending recovery code. The
// code is kept on failure so the user can retry without verifying again.
func (c *Controller) ResetPassword(ctx context.Context, newPassword, passwordConfirm string) error {
	c.clearMessages()
	if newPassword != passwordConfirm {
		return c.reject(FlowResetPassword, domain.PanelResetPassword, domain.ErrPasswordMismatch)
	}
	var code string
	c.update(func() { code = c.pending.RecoveryCode })
	if code == "" {
		return c.reject(FlowResetPassword, domain.PanelResetPassword, domain.ErrNoPendingRecovery)
	}
	if err := c.begin(FlowResetPassword, domain.PanelResetPassword); err != nil {
		return err
	}
	defer c.end(FlowResetPassword)

	if err := c.api.ResetPassword(ctx, code, newPassword); err != nil {
		return c.fail(FlowResetPassword, domain.PanelResetPassword, err, MsgPasswordResetFailed)
	}

	c.update(func() {
		c.notices = append(c.notices, MsgPasswordResetSuccess)
		c.open[domain.PanelResetPassword] = false
		delete(c.fields, domain.PanelResetPassword)
		delete(c.fields[domain.PanelRecovery], domain.FieldRecoveryCode)
	})
	c.logger.Info("Password reset succeeded")
	c.emit(FlowResetPassword, OutcomeSucceeded, domain.PanelResetPassword)
	return nil
}
