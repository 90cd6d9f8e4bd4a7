package authflow_test

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/nfrund/authflow/internal/authapi"
	"github.com/nfrund/authflow/internal/authflow"
	"github.com/nfrund/authflow/internal/domain"
	"github.com/nfrund/authflow/internal/geo"
)

// call records one request the controller issued.
type call struct {
	Endpoint string
	Args     []string
}

// fakeAPI is an in-memory stand-in for the remote API. Each endpoint returns
// whatever its response function says; unset functions succeed.
type fakeAPI struct {
	mu    sync.Mutex
	calls []call

	login        func(authapi.LoginRequest) (*authapi.LoginResponse, error)
	signup       func(authapi.SignupRequest) (*authapi.SignupResponse, error)
	confirm      func(email, code string) error
	resend       func(email string) error
	forgot       func(email string) error
	requestReset func(email string) error
	verify       func(code string) (*authapi.VerifyRecoveryCodeResponse, error)
	reset        func(code, password string) error

	lastLogin authapi.LoginRequest
}

func (f *fakeAPI) record(endpoint string, args ...string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, call{Endpoint: endpoint, Args: args})
}

func (f *fakeAPI) Calls() []call {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]call(nil), f.calls...)
}

func (f *fakeAPI) Login(_ context.Context, req authapi.LoginRequest) (*authapi.LoginResponse, error) {
	f.record(authapi.PathLogin, req.Email)
	f.mu.Lock()
	f.lastLogin = req
	f.mu.Unlock()
	if f.login != nil {
		return f.login(req)
	}
	return &authapi.LoginResponse{Token: "jwt", FarmerID: req.Email, UserType: "farmer"}, nil
}

func (f *fakeAPI) Signup(_ context.Context, req authapi.SignupRequest) (*authapi.SignupResponse, error) {
	f.record(authapi.PathSignup, req.Email)
	if f.signup != nil {
		return f.signup(req)
	}
	return &authapi.SignupResponse{Email: req.Email, FarmerName: "user"}, nil
}

func (f *fakeAPI) ConfirmEmail(_ context.Context, email, code string) error {
	f.record(authapi.PathConfirmEmail, email, code)
	if f.confirm != nil {
		return f.confirm(email, code)
	}
	return nil
}

func (f *fakeAPI) ResendConfirmation(_ context.Context, email string) error {
	f.record(authapi.PathResendConfirmation, email)
	if f.resend != nil {
		return f.resend(email)
	}
	return nil
}

func (f *fakeAPI) ForgotPassword(_ context.Context, email string) error {
	f.record(authapi.PathForgotPassword, email)
	if f.forgot != nil {
		return f.forgot(email)
	}
	return nil
}

func (f *fakeAPI) RequestPasswordReset(_ context.Context, email string) error {
	f.record(authapi.PathRequestPasswordReset, email)
	if f.requestReset != nil {
		return f.requestReset(email)
	}
	return nil
}

func (f *fakeAPI) VerifyRecoveryCode(_ context.Context, code string) (*authapi.VerifyRecoveryCodeResponse, error) {
	f.record(authapi.PathVerifyRecoveryCode, code)
	if f.verify != nil {
		return f.verify(code)
	}
	return &authapi.VerifyRecoveryCodeResponse{Email: "a@x.com"}, nil
}

func (f *fakeAPI) ResetPassword(_ context.Context, code, password string) error {
	f.record(authapi.PathResetPassword, code)
	if f.reset != nil {
		return f.reset(code, password)
	}
	return nil
}

// memSessions records saved sessions.
type memSessions struct {
	mu    sync.Mutex
	saved []domain.Session
	err   error
}

func (m *memSessions) SaveSession(_ context.Context, s domain.Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.saved = append(m.saved, s)
	return nil
}

// manualScheduler holds delayed transitions until the test fires them.
type manualScheduler struct {
	mu      sync.Mutex
	pending []scheduled
}

type scheduled struct {
	delay time.Duration
	fn    func()
}

func (s *manualScheduler) Schedule(d time.Duration, f func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pending = append(s.pending, scheduled{delay: d, fn: f})
}

func (s *manualScheduler) FireAll() []time.Duration {
	s.mu.Lock()
	pending := s.pending
	s.pending = nil
	s.mu.Unlock()

	var delays []time.Duration
	for _, p := range pending {
		delays = append(delays, p.delay)
		p.fn()
	}
	return delays
}

func apiError(status int, msg string) error {
	return &authapi.APIError{Status: status, Message: msg}
}

func transportError() error {
	return fmt.Errorf("%w: POST /auth/x: %w", authapi.ErrTransport, errors.New("connection refused"))
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))
}

type harness struct {
	api       *fakeAPI
	sessions  *memSessions
	scheduler *manualScheduler
	ctrl      *authflow.Controller
}

// newHarness builds a controller whose delayed transitions wait for
// scheduler.FireAll.
func newHarness(api *fakeAPI, locator geo.Provider) *harness {
	h := &harness{api: api, sessions: &memSessions{}, scheduler: &manualScheduler{}}
	h.ctrl = authflow.New(authflow.Dependencies{
		API:      api,
		Sessions: h.sessions,
		Locator:  locator,
		Logger:   quietLogger(),
	}, authflow.DefaultSettings(), authflow.WithScheduler(h.scheduler.Schedule))
	return h
}
