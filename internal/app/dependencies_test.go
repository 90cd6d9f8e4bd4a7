package app

import (
	"bytes"
	"context"
	"log/slog"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nfrund/authflow/internal/config"
	"github.com/nfrund/authflow/internal/domain"
	"github.com/nfrund/authflow/internal/geo"
	"github.com/nfrund/authflow/internal/pubsub"
)

func TestNewLocator(t *testing.T) {
	assert.Nil(t, NewLocator(config.Geo{Provider: config.GeoNone}))

	static := NewLocator(config.Geo{Provider: config.GeoStatic, Latitude: 1.5, Longitude: 2.5})
	assert.Equal(t, geo.Static{Coordinates: geo.Coordinates{Latitude: 1.5, Longitude: 2.5}}, static)

	ip, ok := NewLocator(config.Geo{Provider: config.GeoIP, IPLookupURL: "http://geo.test/json", Timeout: time.Second}).(geo.IPLookup)
	require.True(t, ok)
	assert.Equal(t, "http://geo.test/json", ip.URL)
	assert.Equal(t, time.Second, ip.Client.Timeout)
}

func TestNewSettings(t *testing.T) {
	cfg := &config.Config{
		API: config.API{DashboardPath: "/home", RedirectDelay: 5 * time.Millisecond, ConfirmSwitchDelay: 7 * time.Millisecond},
		Geo: config.Geo{Timeout: 3 * time.Second, HighAccuracy: false},
	}
	s := NewSettings(cfg)
	assert.Equal(t, "/home", s.DashboardPath)
	assert.Equal(t, 5*time.Millisecond, s.RedirectDelay)
	assert.Equal(t, 7*time.Millisecond, s.ConfirmSwitchDelay)
	assert.Equal(t, 3*time.Second, s.Geo.Timeout)
	assert.False(t, s.Geo.HighAccuracy)
}

func TestSessionStoreScopes(t *testing.T) {
	fs := afero.NewMemMapFs()
	d := &Dependencies{Fs: fs, StateDir: "/state"}
	ctx := context.Background()

	require.NoError(t, d.SessionStore("").SaveSession(ctx, domain.Session{Token: "cli", UserID: "a", UserType: domain.UserTypeFarmer}))
	require.NoError(t, d.SessionStore("abc").SaveSession(ctx, domain.Session{Token: "web", UserID: "b", UserType: domain.UserTypeDeveloper}))

	token, err := afero.ReadFile(fs, filepath.Join("/state", "authToken"))
	require.NoError(t, err)
	assert.Equal(t, "cli", string(token))

	got, err := d.SessionStore("abc").LoadSession(ctx)
	require.NoError(t, err)
	assert.Equal(t, "web", got.Token)
}

func TestAuditLogsFlowEvents(t *testing.T) {
	bus := pubsub.NewWatermillBridge()
	defer bus.Close()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var (
		mu  sync.Mutex
		buf bytes.Buffer
	)
	logger := slog.New(slog.NewTextHandler(&lockedWriter{mu: &mu, w: &buf}, nil))
	require.NoError(t, StartAudit(ctx, bus, logger))

	d := &Dependencies{Bus: bus, Logger: logger, Settings: NewSettings(&config.Config{})}
	ctrl := d.NewController("sess-1", nil)
	_ = ctrl.ResendConfirmation(ctx)

	assert.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return strings.Contains(buf.String(), `msg="Flow event" session_id=sess-1 flow=resend-confirmation outcome=rejected`)
	}, 2*time.Second, 10*time.Millisecond)
}

type lockedWriter struct {
	mu *sync.Mutex
	w  *bytes.Buffer
}

func (l *lockedWriter) Write(p []byte) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.w.Write(p)
}
