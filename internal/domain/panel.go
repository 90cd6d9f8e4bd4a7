package domain

import "fmt"

// Panel identifies one modal dialog of the authentication UI.
type Panel string

const (
	PanelLogin         Panel = "login"
	PanelSignup        Panel = "signup"
	PanelConfirmEmail  Panel = "confirm-email"
	PanelRecovery      Panel = "recovery"
	PanelResetPassword Panel = "reset-password"
)

// Panels lists every panel in display order.
var Panels = []Panel{PanelLogin, PanelSignup, PanelConfirmEmail, PanelRecovery, PanelResetPassword}

// ParsePanel maps a route parameter onto a Panel.
func ParsePanel(s string) (Panel, error) {
	for _, p := range Panels {
		if string(p) == s {
			return p, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownPanel, s)
}

// RecoveryStep is the visible step of the two-step recovery panel.
type RecoveryStep string

const (
	StepRequestCode RecoveryStep = "request-code"
	StepVerifyCode  RecoveryStep = "verify-code"
)

// Form field names the controller prefills or clears.
const (
	FieldRecoveryEmail    = "recoveryEmail"
	FieldRecoveryCode     = "recoveryCode"
	FieldConfirmationCode = "confirmationCode"
	FieldNewPassword      = "newPassword"
	FieldConfirmPassword  = "confirmNewPassword"
)
