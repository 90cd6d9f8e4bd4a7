package authflow

import (
	"maps"

	"github.com/nfrund/authflow/internal/domain"
)

// Pending holds the identifiers carried from one flow step to a later one.
type Pending struct {
	// ConfirmationEmail is the address awaiting a confirmation code.
	ConfirmationEmail string `json:"confirmationEmail,omitempty"`
	// RecoveryCode is the verified code a password reset is authorized by.
	RecoveryCode string `json:"-"`
	// FailedLoginEmail is the address of the most recent failed login.
	FailedLoginEmail string `json:"failedLoginEmail,omitempty"`
}

// View is an immutable snapshot of a Controller's state.
type View struct {
	Open         []domain.Panel      `json:"open"`
	RecoveryStep domain.RecoveryStep `json:"recoveryStep"`
	// Errors holds the rendered error text, scoped to the panel it belongs to.
	Errors  map[domain.Panel]string `json:"errors,omitempty"`
	Success string                  `json:"success,omitempty"`
	// Notices are acknowledgements the user has to dismiss.
	Notices []string `json:"notices,omitempty"`
	// Fields are form values the controller prefilled or kept.
	Fields             map[domain.Panel]map[string]string `json:"fields,omitempty"`
	RecoveryEmailLabel string                             `json:"recoveryEmailLabel,omitempty"`
	ResetEmailLabel    string                             `json:"resetEmailLabel,omitempty"`
	// Redirect is set once the session is established and the UI should navigate.
	Redirect string  `json:"redirect,omitempty"`
	Pending  Pending `json:"pending"`
	InFlight []Flow  `json:"inFlight,omitempty"`
}

// IsOpen reports whether p is visible.
func (v View) IsOpen(p domain.Panel) bool {
	for _, o := range v.Open {
		if o == p {
			return true
		}
	}
	return false
}

// Field returns the value of a form field of p.
func (v View) Field(p domain.Panel, name string) string {
	return v.Fields[p][name]
}

func (c *Controller) snapshotLocked() View {
	v := View{
		RecoveryStep:       c.step,
		Errors:             maps.Clone(c.errors),
		Success:            c.success,
		Notices:            append([]string(nil), c.notices...),
		Fields:             make(map[domain.Panel]map[string]string, len(c.fields)),
		RecoveryEmailLabel: c.labels.recoveryEmail,
		ResetEmailLabel:    c.labels.resetEmail,
		Redirect:           c.redirect,
		Pending:            c.pending,
	}
	for _, p := range domain.Panels {
		if c.open[p] {
			v.Open = append(v.Open, p)
		}
	}
	for p, f := range c.fields {
		if len(f) > 0 {
			v.Fields[p] = maps.Clone(f)
		}
	}
	for _, f := range allFlows {
		if c.inFlight[f] {
			v.InFlight = append(v.InFlight, f)
		}
	}
	return v
}
