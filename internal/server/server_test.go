package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nfrund/authflow/internal/app"
	"github.com/nfrund/authflow/internal/authapi"
	"github.com/nfrund/authflow/internal/config"
	"github.com/nfrund/authflow/internal/domain"
	"github.com/nfrund/authflow/internal/handlers"
	"github.com/nfrund/authflow/internal/storage"
)

func TestHTTPErrorHandler_WithStackTrace(t *testing.T) {
	e := echo.New()

	// Capture log output through the default logger.
	var logBuffer bytes.Buffer
	handler := slog.NewTextHandler(&logBuffer, &slog.HandlerOptions{
		AddSource: true,
	})
	prevLogger := slog.Default()
	slog.SetDefault(slog.New(handler))
	defer slog.SetDefault(prevLogger)

	setupErrorHandling(e)

	e.GET("/test-unhandled-error", func(c echo.Context) error {
		return errors.New("a deliberate unhandled error occurred")
	})

	req := httptest.NewRequest(http.MethodGet, "/test-unhandled-error", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	require.Equal(t, http.StatusInternalServerError, rec.Code, "Expected a 500 Internal Server Error response")

	logOutput := logBuffer.String()
	assert.Contains(t, logOutput, "Internal Server Error (Unhandled)")
	assert.Contains(t, logOutput, "error=\"a deliberate unhandled error occurred\"")
	assert.Contains(t, logOutput, "stack_trace=")
	assert.Contains(t, logOutput, "runtime/debug/stack.go", "Stack trace should originate from the debug package")
	assert.Contains(t, logOutput, "internal/server/server_test.go", "Stack trace should point back to this test file")

	var body handlers.ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "Internal Server Error", body.Message)
}

func TestHTTPErrorHandler_HTTPError(t *testing.T) {
	e := echo.New()
	setupErrorHandling(e)
	e.GET("/missing", func(c echo.Context) error {
		return echo.NewHTTPError(http.StatusNotFound, "unknown panel: \"kitchen\"")
	})

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/missing", nil))

	assert.Equal(t, http.StatusNotFound, rec.Code)
	var body handlers.ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "Not Found", body.Code)
	assert.Equal(t, "unknown panel: \"kitchen\"", body.Message)
}

// newTestServer builds the full server against a fake remote API, with
// in-memory storage and no artificial delays.
func newTestServer(t *testing.T, apiHandler http.HandlerFunc) (*Server, afero.Fs) {
	t.Helper()
	api := httptest.NewServer(apiHandler)
	t.Cleanup(api.Close)

	t.Setenv("AUTH_API_BASE_URL", api.URL)
	t.Setenv("AUTH_REDIRECT_DELAY", "0s")
	t.Setenv("AUTH_CONFIRM_SWITCH_DELAY", "0s")
	t.Setenv("RATE_LIMIT_PER_MINUTE", "100")
	t.Setenv("AUTHFLOW_STATE_DIR", "/state")
	cfg, err := config.Parse()
	require.NoError(t, err)

	logger := slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))
	deps := app.NewDependencies(cfg, logger)
	fs := afero.NewMemMapFs()
	deps.Fs = fs

	srv, err := New(cfg, deps)
	require.NoError(t, err)
	t.Cleanup(func() { _ = srv.Close() })
	return srv, fs
}

func TestServer_LoginEndToEnd(t *testing.T) {
	srv, _ := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/auth/login", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"token":"jwt-9","farmer_id":"u@e.com","farmer_name":"u","email":"u@e.com","userType":"farmer"}`))
	})

	req := httptest.NewRequest(http.MethodPost, "/flows/actions/login", strings.NewReader(`{"email":"u@e.com","password":"pw"}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	srv.E.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.NotEmpty(t, rec.Header().Get(echo.HeaderXRequestID))

	var resp handlers.FlowResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "Login successful! Redirecting...", resp.View.Success)

	// The zero redirect delay fires right away, so the next poll sees it.
	cookies := rec.Result().Cookies()
	require.NotEmpty(t, cookies)
	req = httptest.NewRequest(http.MethodGet, "/flows/state", nil)
	req.AddCookie(cookies[0])
	rec = httptest.NewRecorder()
	srv.E.ServeHTTP(rec, req)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "/html/page2_dashboard.html", resp.View.Redirect)
	assert.Equal(t, 1, srv.Controllers.Len())
}

func TestServer_SessionPersistedPerBrowserSession(t *testing.T) {
	srv, fs := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"token":"jwt-9","farmer_id":"u@e.com","userType":"developer"}`))
	})

	req := httptest.NewRequest(http.MethodPost, "/flows/actions/login", strings.NewReader(`{"email":"u@e.com","password":"pw"}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	srv.E.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	dirs, err := afero.ReadDir(fs, "/state/sessions")
	require.NoError(t, err)
	require.Len(t, dirs, 1)

	d := &app.Dependencies{Fs: fs, StateDir: "/state"}
	sess, err := d.SessionStore(dirs[0].Name()).LoadSession(context.Background())
	require.NoError(t, err)
	assert.Equal(t, domain.Session{Token: "jwt-9", UserID: "u@e.com", UserType: domain.UserTypeDeveloper}, sess)

	_, err = storage.NewAferoStore(fs, "/state").Get(context.Background(), storage.KeyAuthToken)
	assert.ErrorIs(t, err, storage.ErrNotFound, "browser sessions never share the unscoped store")
}

func TestServer_SessionCookieLastsForTheBrowserSession(t *testing.T) {
	srv, _ := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {})

	rec := httptest.NewRecorder()
	srv.E.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/flows/state", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Zero(t, cookies[0].MaxAge, "idle expiry belongs to the controller registry")
	assert.True(t, cookies[0].Expires.IsZero())
	assert.True(t, cookies[0].HttpOnly)
}

func TestServer_LoginCarriesTheBrowserLocation(t *testing.T) {
	// The process-wide fix must never stand in for the browser's.
	t.Setenv("GEO_PROVIDER", "static")
	t.Setenv("GEO_LATITUDE", "1.5")
	t.Setenv("GEO_LONGITUDE", "2.5")

	var got []authapi.LoginRequest
	srv, _ := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		var req authapi.LoginRequest
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		got = append(got, req)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"token":"jwt","farmer_id":"u@e.com","userType":"farmer"}`))
	})

	for _, body := range []string{
		`{"email":"u@e.com","password":"pw","latitude":45.5,"longitude":-73.6}`,
		`{"email":"u@e.com","password":"pw"}`,
	} {
		req := httptest.NewRequest(http.MethodPost, "/flows/actions/login", strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
		rec := httptest.NewRecorder()
		srv.E.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	}

	require.Len(t, got, 2)
	require.NotNil(t, got[0].Latitude)
	require.NotNil(t, got[0].Longitude)
	assert.Equal(t, 45.5, *got[0].Latitude)
	assert.Equal(t, -73.6, *got[0].Longitude)
	assert.Nil(t, got[1].Latitude)
	assert.Nil(t, got[1].Longitude)
}

func TestServer_ServerErrorRendersInView(t *testing.T) {
	srv, _ := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":"Invalid credentials"}`))
	})

	req := httptest.NewRequest(http.MethodPost, "/flows/actions/login", strings.NewReader(`{"email":"u@e.com","password":"wrong"}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	srv.E.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp handlers.FlowResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "Invalid credentials", resp.View.Errors[domain.PanelLogin])
	assert.Equal(t, "u@e.com", resp.View.Pending.FailedLoginEmail)
}

func TestServer_Health(t *testing.T) {
	srv, _ := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {})

	rec := httptest.NewRecorder()
	srv.E.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestServer_RateLimitsSubmits(t *testing.T) {
	srv, _ := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{}`))
	})

	var last int
	for i := 0; i < 110; i++ {
		req := httptest.NewRequest(http.MethodPost, "/flows/actions/resend-confirmation", nil)
		req.RemoteAddr = "198.51.100.7:5555"
		rec := httptest.NewRecorder()
		srv.E.ServeHTTP(rec, req)
		last = rec.Code
	}
	assert.Equal(t, http.StatusTooManyRequests, last)
}

func TestServer_StartStops(t *testing.T) {
	srv, _ := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {})
	srv.Cfg.Server.Addr = "127.0.0.1:0"

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Start(ctx) }()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}
}
