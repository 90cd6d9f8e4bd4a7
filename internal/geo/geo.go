// Package geo provides the best-effort device location used by the login flow.
//
// A Provider may fail in any way it likes; Locate turns every failure into
// "no coordinates" so callers never have to handle an error.
package geo

import (
	"context"
	"errors"
	"log/slog"
	"time"
)

// ErrUnsupported is returned by providers that cannot locate the device.
var ErrUnsupported = errors.New("geolocation is not supported")

// Coordinates is a position fix in decimal degrees.
type Coordinates struct {
	Latitude  float64
	Longitude float64
}

// Options mirror the request parameters of a device position lookup.
type Options struct {
	HighAccuracy bool
	// Timeout bounds the whole lookup. Zero means no bound.
	Timeout time.Duration
	// MaximumAge is the oldest cached fix a provider may return. Zero forces
	// a fresh fix.
	MaximumAge time.Duration
}

// DefaultOptions are the options the login flow uses.
func DefaultOptions() Options {
	return Options{HighAccuracy: true, Timeout: 5 * time.Second, MaximumAge: 0}
}

// Provider resolves the current device position.
type Provider interface {
	CurrentPosition(ctx context.Context, opts Options) (Coordinates, error)
}

// ProviderFunc adapts a function to the Provider interface.
type ProviderFunc func(ctx context.Context, opts Options) (Coordinates, error)

// CurrentPosition calls f.
func (f ProviderFunc) CurrentPosition(ctx context.Context, opts Options) (Coordinates, error) {
	return f(ctx, opts)
}

// Locate asks p for a fix within opts.Timeout. It never fails: when the
// provider is missing, errors, times out, or returns a zero coordinate, the
// boolean is false and the cause is logged.
func Locate(ctx context.Context, p Provider, opts Options, logger *slog.Logger) (Coordinates, bool) {
	if logger == nil {
		logger = slog.Default()
	}
	if p == nil {
		logger.Info("Geolocation is not supported on this device")
		return Coordinates{}, false
	}

	if opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.Timeout)
		defer cancel()
	}

	type result struct {
		coords Coordinates
		err    error
	}
	// Buffered so a provider that ignores ctx can still finish after we gave up.
	done := make(chan result, 1)
	go func() {
		c, err := p.CurrentPosition(ctx, opts)
		done <- result{coords: c, err: err}
	}()

	select {
	case <-ctx.Done():
		logger.Info("Geolocation error", "error", ctx.Err())
		return Coordinates{}, false
	case r := <-done:
		if r.err != nil {
			logger.Info("Geolocation error", "error", r.err)
			return Coordinates{}, false
		}
		if r.coords.Latitude == 0 || r.coords.Longitude == 0 {
			logger.Info("Geolocation returned no usable fix")
			return Coordinates{}, false
		}
		return r.coords, true
	}
}
