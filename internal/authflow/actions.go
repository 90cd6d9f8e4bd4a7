package authflow

import (
	"context"
	"fmt"
	"sort"

	"github.com/nfrund/authflow/internal/domain"
	"github.com/nfrund/authflow/internal/geo"
)

// Action names a user trigger on one of the panels.
type Action string

const (
	ActionLogin               Action = "login"
	ActionSignup              Action = "signup"
	ActionConfirmEmail        Action = "confirm-email"
	ActionResendConfirmation  Action = "resend-confirmation"
	ActionOpenRecovery        Action = "open-recovery"
	ActionRequestRecoveryCode Action = "request-recovery-code"
	ActionVerifyRecoveryCode  Action = "verify-recovery-code"
	ActionBackToEmail         Action = "back-to-email"
	ActionResetPassword       Action = "reset-password"
)

// Input carries the form values of an action. Each action reads only the
// fields it needs.
type Input struct {
	Email           string
	Password        string
	PasswordConfirm string
	Code            string
	// Location is a fix the client already has. When set, login uses it
	// instead of asking the controller's locator.
	Location *geo.Coordinates
}

// locator returns the provider login should use for this input.
func (in Input) locator(fallback geo.Provider) geo.Provider {
	if in.Location != nil {
		return geo.Static{Coordinates: *in.Location}
	}
	return fallback
}

// binding ties an action to the panel and recovery step in which it may be
// triggered. An empty panel means the action is always available; an empty
// step means any step.
type binding struct {
	panel domain.Panel
	step  domain.RecoveryStep
	run   func(c *Controller, ctx context.Context, in Input) error
}

var actionTable = map[Action]binding{
	ActionLogin: {
		panel: domain.PanelLogin,
		run: func(c *Controller, ctx context.Context, in Input) error {
			return c.Login(ctx, in.Email, in.Password)
		},
	},
	ActionSignup: {
		panel: domain.PanelSignup,
		run: func(c *Controller, ctx context.Context, in Input) error {
			return c.Signup(ctx, in.Email, in.Password, in.PasswordConfirm)
		},
	},
	ActionConfirmEmail: {
		panel: domain.PanelConfirmEmail,
		run: func(c *Controller, ctx context.Context, in Input) error {
			return c.ConfirmEmail(ctx, in.Code)
		},
	},
	ActionResendConfirmation: {
		panel: domain.PanelConfirmEmail,
		run: func(c *Controller, ctx context.Context, _ Input) error {
			return c.ResendConfirmation(ctx)
		},
	},
	ActionOpenRecovery: {
		run: func(c *Controller, ctx context.Context, _ Input) error {
			return c.OpenRecovery(ctx)
		},
	},
	ActionRequestRecoveryCode: {
		panel: domain.PanelRecovery,
		step:  domain.StepRequestCode,
		run: func(c *Controller, ctx context.Context, in Input) error {
			return c.RequestRecoveryCode(ctx, in.Email)
		},
	},
	ActionVerifyRecoveryCode: {
		panel: domain.PanelRecovery,
		step:  domain.StepVerifyCode,
		run: func(c *Controller, ctx context.Context, in Input) error {
			return c.VerifyRecoveryCode(ctx, in.Code)
		},
	},
	ActionBackToEmail: {
		panel: domain.PanelRecovery,
		step:  domain.StepVerifyCode,
		run: func(c *Controller, _ context.Context, _ Input) error {
			c.BackToEmail()
			return nil
		},
	},
	ActionResetPassword: {
		panel: domain.PanelResetPassword,
		run: func(c *Controller, ctx context.Context, in Input) error {
			return c.ResetPassword(ctx, in.Password, in.PasswordConfirm)
		},
	},
}

// ParseAction maps a route parameter onto an Action.
func ParseAction(s string) (Action, error) {
	a := Action(s)
	if _, ok := actionTable[a]; !ok {
		return "", fmt.Errorf("%w: %q", domain.ErrUnknownAction, s)
	}
	return a, nil
}

// Dispatch runs action if the current state allows it. An action whose panel
// is closed, or whose recovery step is not the current one, fails with
// domain.ErrActionUnavailable and sends nothing.
func (c *Controller) Dispatch(ctx context.Context, action Action, in Input) error {
	b, ok := actionTable[action]
	if !ok {
		return fmt.Errorf("%w: %q", domain.ErrUnknownAction, action)
	}

	c.mu.Lock()
	allowed := c.allowedLocked(b)
	c.mu.Unlock()
	if !allowed {
		return fmt.Errorf("%w: %s", domain.ErrActionUnavailable, action)
	}

	return b.run(c, ctx, in)
}

// Available lists the actions Dispatch would accept right now, sorted by name.
func (c *Controller) Available() []Action {
	c.mu.Lock()
	defer c.mu.Unlock()

	var out []Action
	for a, b := range actionTable {
		if c.allowedLocked(b) {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func (c *Controller) allowedLocked(b binding) bool {
	if b.panel == "" {
		return true
	}
	if !c.open[b.panel] {
		return false
	}
	return b.step == "" || b.step == c.step
}
