package authapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"
)

// Endpoint paths, relative to the API base URL.
const (
	PathLogin                = "/auth/login"
	PathSignup               = "/auth/signup"
	PathConfirmEmail         = "/auth/confirm-email"
	PathResendConfirmation   = "/auth/resend-confirmation"
	PathForgotPassword       = "/auth/forgot-password"
	PathVerifyRecoveryCode   = "/auth/verify-recovery-code"
	PathResetPassword        = "/auth/reset-password"
	PathRequestPasswordReset = "/auth/request-password-reset"
)

// maxBodySize caps how much of a response body is read.
const maxBodySize = 1 << 20

// Client talks to the remote authentication API. Every call is a JSON POST.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithTimeout sets the per-request timeout of the default HTTP client.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.httpClient.Timeout = d }
}

// WithLogger sets the logger used for request tracing.
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// New creates a Client for the API rooted at baseURL.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 15 * time.Second},
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Login submits credentials and optional coordinates.
func (c *Client) Login(ctx context.Context, req LoginRequest) (*LoginResponse, error) {
	var out LoginResponse
	if err := c.post(ctx, PathLogin, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Signup creates an account. The server emails a confirmation code and a
// recovery code to the new address.
func (c *Client) Signup(ctx context.Context, req SignupRequest) (*SignupResponse, error) {
	var out SignupResponse
	if err := c.post(ctx, PathSignup, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ConfirmEmail submits the confirmation code for email.
func (c *Client) ConfirmEmail(ctx context.Context, email, code string) error {
	return c.post(ctx, PathConfirmEmail, confirmEmailRequest{Email: email, ConfirmationCode: code}, nil)
}

// ResendConfirmation asks for a fresh confirmation code.
func (c *Client) ResendConfirmation(ctx context.Context, email string) error {
	return c.post(ctx, PathResendConfirmation, emailRequest{Email: email}, nil)
}

// ForgotPassword asks the server to email a recovery code.
func (c *Client) ForgotPassword(ctx context.Context, email string) error {
	return c.post(ctx, PathForgotPassword, emailRequest{Email: email}, nil)
}

// RequestPasswordReset has the same contract as ForgotPassword. It is the
// endpoint used after a failed login.
func (c *Client) RequestPasswordReset(ctx context.Context, email string) error {
	return c.post(ctx, PathRequestPasswordReset, emailRequest{Email: email}, nil)
}

// VerifyRecoveryCode resolves a recovery code to the account it belongs to.
func (c *Client) VerifyRecoveryCode(ctx context.Context, code string) (*VerifyRecoveryCodeResponse, error) {
	var out VerifyRecoveryCodeResponse
	if err := c.post(ctx, PathVerifyRecoveryCode, verifyRecoveryCodeRequest{RecoveryCode: code}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ResetPassword sets a new password for the account owning code.
func (c *Client) ResetPassword(ctx context.Context, code, newPassword string) error {
	return c.post(ctx, PathResetPassword, resetPasswordRequest{RecoveryCode: code, NewPassword: newPassword}, nil)
}

func (c *Client) post(ctx context.Context, path string, in, out any) error {
	body, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("marshal %s request: %w", path, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build %s request: %w", path, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Warn("Auth API request failed", "path", path, "error", err)
		return fmt.Errorf("%w: POST %s: %w", ErrTransport, path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return fmt.Errorf("%w: read %s response: %w", ErrTransport, path, err)
	}
	c.logger.Debug("Auth API request", "path", path, "status", resp.StatusCode, "duration", time.Since(start))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var payload errorPayload
		// A body that is not JSON still counts as a server failure, just
		// without a message.
		_ = json.Unmarshal(raw, &payload)
		return &APIError{
			Status:               resp.StatusCode,
			Message:              payload.Error,
			RequiresConfirmation: payload.RequiresConfirmation,
			Email:                payload.Email,
			Attempts:             payload.Attempts,
		}
	}

	if out == nil || len(bytes.TrimSpace(raw)) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("%w: decode %s response: %w", ErrTransport, path, err)
	}
	return nil
}
