// Package authflow implements the authentication flow controller: the state
// machine behind the login, signup, email confirmation, password recovery and
// password reset dialogs.
//
// The controller owns all transient state of one UI session (pending
// identifiers, open panels, the recovery step, rendered messages) and exposes
// it as an immutable View. Front ends feed it user actions and render the
// View; they never change state themselves.
package authflow

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/nfrund/authflow/internal/authapi"
	"github.com/nfrund/authflow/internal/domain"
	"github.com/nfrund/authflow/internal/geo"
	"github.com/nfrund/authflow/internal/pubsub"
)

// API is the subset of the remote authentication API the controller uses.
// *authapi.Client implements it.
type API interface {
	Login(ctx context.Context, req authapi.LoginRequest) (*authapi.LoginResponse, error)
	Signup(ctx context.Context, req authapi.SignupRequest) (*authapi.SignupResponse, error)
	ConfirmEmail(ctx context.Context, email, code string) error
	ResendConfirmation(ctx context.Context, email string) error
	ForgotPassword(ctx context.Context, email string) error
	RequestPasswordReset(ctx context.Context, email string) error
	VerifyRecoveryCode(ctx context.Context, code string) (*authapi.VerifyRecoveryCodeResponse, error)
	ResetPassword(ctx context.Context, code, newPassword string) error
}

// Scheduler runs f after d. It is how the controller performs its cosmetic
// delayed transitions.
type Scheduler func(d time.Duration, f func())

// AfterFunc schedules on a timer. Non-positive delays run f immediately.
func AfterFunc(d time.Duration, f func()) {
	if d <= 0 {
		f()
		return
	}
	time.AfterFunc(d, f)
}

// Settings holds the tunables of the flows.
type Settings struct {
	// DashboardPath is the redirect target after a successful login.
	DashboardPath string
	// RedirectDelay lets the success message render before navigating.
	RedirectDelay time.Duration
	// ConfirmSwitchDelay lets the "email not confirmed" error render before
	// the login panel is swapped for the confirmation panel.
	ConfirmSwitchDelay time.Duration
	// Geo controls the device location lookup done before login.
	Geo geo.Options
}

// DefaultSettings returns the settings of the reference UI.
func DefaultSettings() Settings {
	return Settings{
		DashboardPath:      "/html/page2_dashboard.html",
		RedirectDelay:      1000 * time.Millisecond,
		ConfirmSwitchDelay: 2000 * time.Millisecond,
		Geo:                geo.DefaultOptions(),
	}
}

// Dependencies holds the collaborators of a Controller.
type Dependencies struct {
	API      API
	Sessions domain.SessionStore
	// Locator may be nil when the device has no location support.
	Locator geo.Provider
	// Publisher may be nil; flow events are then dropped.
	Publisher pubsub.Publisher
	Logger    *slog.Logger
}

// Option configures a Controller.
type Option func(*Controller)

// WithScheduler replaces the timer used for delayed transitions.
func WithScheduler(s Scheduler) Option {
	return func(c *Controller) { c.schedule = s }
}

// WithLocator replaces the location provider from Dependencies. A nil
// provider disables location lookups.
func WithLocator(p geo.Provider) Option {
	return func(c *Controller) { c.locator = p }
}

// WithSessionID tags published events with the owning UI session.
func WithSessionID(id string) Option {
	return func(c *Controller) { c.sessionID = id }
}

// Controller is the AuthFlowController of one UI session. It is safe for
// concurrent use; its lock is never held across a network call.
type Controller struct {
	api       API
	sessions  domain.SessionStore
	locator   geo.Provider
	publisher pubsub.Publisher
	logger    *slog.Logger
	settings  Settings
	schedule  Scheduler
	sessionID string

	mu       sync.Mutex
	pending  Pending
	open     map[domain.Panel]bool
	step     domain.RecoveryStep
	errors   map[domain.Panel]string
	success  string
	notices  []string
	fields   map[domain.Panel]map[string]string
	labels   labels
	redirect string
	inFlight map[Flow]bool
}

type labels struct {
	recoveryEmail string
	resetEmail    string
}

// New creates a Controller with the login panel open.
func New(deps Dependencies, settings Settings, opts ...Option) *Controller {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	c := &Controller{
		api:       deps.API,
		sessions:  deps.Sessions,
		locator:   deps.Locator,
		publisher: deps.Publisher,
		logger:    logger,
		settings:  settings,
		schedule:  AfterFunc,
		open:      map[domain.Panel]bool{domain.PanelLogin: true},
		step:      domain.StepRequestCode,
		errors:    make(map[domain.Panel]string),
		fields:    make(map[domain.Panel]map[string]string),
		inFlight:  make(map[Flow]bool),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.sessionID != "" {
		c.logger = c.logger.With("session_id", c.sessionID)
	}
	return c
}

// View returns a snapshot of the current state.
func (c *Controller) View() View {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

// Consume returns a snapshot and drains the pending acknowledgement notices,
// the way a dialog is dismissed once it has been shown.
func (c *Controller) Consume() View {
	c.mu.Lock()
	defer c.mu.Unlock()
	v := c.snapshotLocked()
	c.notices = nil
	return v
}

// OpenPanel shows a panel. Opening the recovery panel runs the recovery
// entry logic, which may issue a request.
func (c *Controller) OpenPanel(ctx context.Context, p domain.Panel) error {
	if _, err := domain.ParsePanel(string(p)); err != nil {
		return err
	}
	if p == domain.PanelRecovery {
		return c.OpenRecovery(ctx)
	}
	c.update(func() { c.open[p] = true })
	return nil
}

// ClosePanel hides a panel. Closing the recovery panel always returns it to
// the request-code step so a stale verify step never reappears.
func (c *Controller) ClosePanel(p domain.Panel) error {
	if _, err := domain.ParsePanel(string(p)); err != nil {
		return err
	}
	c.update(func() {
		c.open[p] = false
		if p == domain.PanelRecovery {
			c.step = domain.StepRequestCode
		}
	})
	return nil
}

// update runs fn under the state lock.
func (c *Controller) update(fn func()) {
	c.mu.Lock()
	defer c.mu.Unlock()
	fn()
}

// clearMessages drops every rendered error and success message.
func (c *Controller) clearMessages() {
	c.update(func() {
		c.errors = make(map[domain.Panel]string)
		c.success = ""
	})
}

func (c *Controller) setFieldLocked(p domain.Panel, name, value string) {
	if c.fields[p] == nil {
		c.fields[p] = make(map[string]string)
	}
	c.fields[p][name] = value
}

func (c *Controller) switchPanelLocked(from, to domain.Panel) {
	c.open[from] = false
	c.open[to] = true
}

// begin marks flow as in flight. A flow that already has a request
// outstanding is rejected locally.
func (c *Controller) begin(flow Flow, p domain.Panel) error {
	c.mu.Lock()
	busy := c.inFlight[flow]
	if !busy {
		c.inFlight[flow] = true
	}
	c.mu.Unlock()

	if busy {
		return c.reject(flow, p, domain.ErrFlowBusy)
	}
	return nil
}

func (c *Controller) end(flow Flow) {
	c.update(func() { delete(c.inFlight, flow) })
}

// reject renders a local validation failure on p.
func (c *Controller) reject(flow Flow, p domain.Panel, err error) error {
	msg, _ := domain.Message(err)
	c.update(func() { c.errors[p] = msg })
	c.emit(flow, OutcomeRejected, p)
	return err
}

// fail renders a server or transport failure on p.
func (c *Controller) fail(flow Flow, p domain.Panel, err error, fallback string) error {
	msg := renderError(err, fallback)
	if authapi.IsTransport(err) {
		c.logger.Error("Auth request failed", "flow", flow, "error", err)
	} else {
		c.logger.Info("Auth request rejected", "flow", flow, "error", err)
	}
	c.update(func() { c.errors[p] = msg })
	c.emit(flow, OutcomeFailed, p)
	return err
}

// renderError picks the text shown for err.
func renderError(err error, fallback string) string {
	if msg, ok := domain.Message(err); ok {
		return msg
	}
	if apiErr, ok := authapi.AsAPIError(err); ok {
		if apiErr.Message != "" {
			return apiErr.Message
		}
		return fallback
	}
	return MsgNetworkError
}
