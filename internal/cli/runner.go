// Package cli drives the authentication flows from a terminal. It asks for
// the same inputs the web panels collect, dispatches them to a flow
// controller and prints what the controller renders.
package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/nfrund/authflow/internal/authflow"
	"github.com/nfrund/authflow/internal/domain"
)

// maxAttempts bounds how often a code is asked for before giving up.
const maxAttempts = 3

// ErrNotCompleted is returned when a flow ended without reaching its goal.
var ErrNotCompleted = errors.New("flow not completed")

// Immediate is the scheduler the CLI runs its controller with. A terminal
// has nothing to animate, so delayed transitions happen right away.
func Immediate(_ time.Duration, f func()) { f() }

// Runner runs interactive flows against one controller.
type Runner struct {
	ctrl *authflow.Controller
	in   *bufio.Reader
	out  io.Writer
}

// NewRunner creates a Runner reading answers from in and writing to out.
func NewRunner(ctrl *authflow.Controller, in io.Reader, out io.Writer) *Runner {
	return &Runner{ctrl: ctrl, in: bufio.NewReader(in), out: out}
}

// Login signs in. An unconfirmed account continues with email confirmation;
// a rejected login offers password recovery.
func (r *Runner) Login(ctx context.Context) error {
	email, err := r.ask("Email")
	if err != nil {
		return err
	}
	password, err := r.ask("Password")
	if err != nil {
		return err
	}

	v := r.dispatch(ctx, authflow.ActionLogin, authflow.Input{Email: email, Password: password})
	switch {
	case v.Success != "":
		fmt.Fprintln(r.out, "Session saved.")
		return nil
	case v.IsOpen(domain.PanelConfirmEmail):
		if err := r.Confirm(ctx); err != nil {
			return err
		}
		fmt.Fprintln(r.out, "Run login again to sign in.")
		return nil
	case v.Pending.FailedLoginEmail != "":
		yes, err := r.confirm("Forgot your password?")
		if err != nil || !yes {
			return errors.Join(ErrNotCompleted, err)
		}
		return r.Recover(ctx)
	default:
		return ErrNotCompleted
	}
}

// Signup creates an account and continues with email confirmation.
func (r *Runner) Signup(ctx context.Context) error {
	if err := r.ctrl.OpenPanel(ctx, domain.PanelSignup); err != nil {
		return err
	}
	email, err := r.ask("Email")
	if err != nil {
		return err
	}
	password, err := r.ask("Password")
	if err != nil {
		return err
	}
	passwordConfirm, err := r.ask("Confirm password")
	if err != nil {
		return err
	}

	v := r.dispatch(ctx, authflow.ActionSignup, authflow.Input{Email: email, Password: password, PasswordConfirm: passwordConfirm})
	if !v.IsOpen(domain.PanelConfirmEmail) {
		return ErrNotCompleted
	}
	return r.Confirm(ctx)
}

// Confirm asks for the email confirmation code. Answering "resend" requests
// a new code.
func (r *Runner) Confirm(ctx context.Context) error {
	for attempt := 0; attempt < maxAttempts; {
		code, err := r.ask(`Confirmation code (or "resend")`)
		if err != nil {
			return err
		}
		if strings.EqualFold(code, "resend") {
			r.dispatch(ctx, authflow.ActionResendConfirmation, authflow.Input{})
			continue
		}
		attempt++
		v := r.dispatch(ctx, authflow.ActionConfirmEmail, authflow.Input{Code: code})
		if !v.IsOpen(domain.PanelConfirmEmail) {
			return nil
		}
	}
	return ErrNotCompleted
}

// Recover runs password recovery through to the password reset.
func (r *Runner) Recover(ctx context.Context) error {
	v := r.dispatch(ctx, authflow.ActionOpenRecovery, authflow.Input{})

	if v.RecoveryStep == domain.StepRequestCode {
		prefill := v.Field(domain.PanelRecovery, domain.FieldRecoveryEmail)
		email, err := r.askDefault("Email", prefill)
		if err != nil {
			return err
		}
		v = r.dispatch(ctx, authflow.ActionRequestRecoveryCode, authflow.Input{Email: email})
		if v.RecoveryStep != domain.StepVerifyCode {
			return ErrNotCompleted
		}
	} else if v.RecoveryEmailLabel != "" {
		fmt.Fprintln(r.out, v.RecoveryEmailLabel)
	}

	for attempt := 0; !v.IsOpen(domain.PanelResetPassword); attempt++ {
		if attempt == maxAttempts {
			return ErrNotCompleted
		}
		code, err := r.ask("Recovery code")
		if err != nil {
			return err
		}
		v = r.dispatch(ctx, authflow.ActionVerifyRecoveryCode, authflow.Input{Code: code})
	}
	fmt.Fprintln(r.out, v.ResetEmailLabel)

	for attempt := 0; v.IsOpen(domain.PanelResetPassword); attempt++ {
		if attempt == maxAttempts {
			return ErrNotCompleted
		}
		password, err := r.ask("New password")
		if err != nil {
			return err
		}
		passwordConfirm, err := r.ask("Confirm new password")
		if err != nil {
			return err
		}
		v = r.dispatch(ctx, authflow.ActionResetPassword, authflow.Input{Password: password, PasswordConfirm: passwordConfirm})
	}
	return nil
}

// dispatch runs an action and prints the outcome. Flow failures are already
// rendered in the view, so only refusals are printed from the error.
func (r *Runner) dispatch(ctx context.Context, action authflow.Action, in authflow.Input) authflow.View {
	err := r.ctrl.Dispatch(ctx, action, in)
	if errors.Is(err, domain.ErrActionUnavailable) || errors.Is(err, domain.ErrUnknownAction) {
		fmt.Fprintf(r.out, "Error: %v\n", err)
	}
	v := r.ctrl.Consume()
	r.render(v)
	return v
}

func (r *Runner) render(v authflow.View) {
	for _, p := range domain.Panels {
		if msg := v.Errors[p]; msg != "" {
			fmt.Fprintf(r.out, "Error: %s\n", msg)
		}
	}
	for _, n := range v.Notices {
		fmt.Fprintf(r.out, "\n%s\n\n", n)
	}
	if v.Success != "" {
		fmt.Fprintln(r.out, v.Success)
	}
}

func (r *Runner) ask(label string) (string, error) {
	fmt.Fprintf(r.out, "%s: ", label)
	line, err := r.in.ReadString('\n')
	if err != nil && (!errors.Is(err, io.EOF) || line == "") {
		return "", fmt.Errorf("read %s: %w", strings.ToLower(label), err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}

func (r *Runner) askDefault(label, def string) (string, error) {
	if def == "" {
		return r.ask(label)
	}
	answer, err := r.ask(fmt.Sprintf("%s [%s]", label, def))
	if err != nil {
		return "", err
	}
	if answer == "" {
		return def, nil
	}
	return answer, nil
}

func (r *Runner) confirm(question string) (bool, error) {
	answer, err := r.ask(question + " [y/N]")
	if err != nil {
		return false, err
	}
	answer = strings.ToLower(strings.TrimSpace(answer))
	return answer == "y" || answer == "yes", nil
}
