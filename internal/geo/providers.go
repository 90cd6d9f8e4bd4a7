package geo

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
)

// Unsupported is a Provider for devices without any location source.
type Unsupported struct{}

// CurrentPosition always fails with ErrUnsupported.
func (Unsupported) CurrentPosition(context.Context, Options) (Coordinates, error) {
	return Coordinates{}, ErrUnsupported
}

// Static returns a fixed, configured position.
type Static struct {
	Coordinates Coordinates
}

// CurrentPosition returns the configured coordinates.
func (s Static) CurrentPosition(ctx context.Context, _ Options) (Coordinates, error) {
	if err := ctx.Err(); err != nil {
		return Coordinates{}, err
	}
	return s.Coordinates, nil
}

// IPLookup approximates the device position from its public IP address using
// an ip-api.com compatible JSON endpoint. It is always low accuracy and is
// only used when nothing better is configured.
type IPLookup struct {
	URL    string
	Client *http.Client
}

type ipLookupResponse struct {
	Status  string  `json:"status"`
	Message string  `json:"message"`
	Lat     float64 `json:"lat"`
	Lon     float64 `json:"lon"`
}

// CurrentPosition queries the lookup endpoint.
func (l IPLookup) CurrentPosition(ctx context.Context, _ Options) (Coordinates, error) {
	client := l.Client
	if client == nil {
		client = http.DefaultClient
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, l.URL, nil)
	if err != nil {
		return Coordinates{}, fmt.Errorf("build ip lookup request: %w", err)
	}
	resp, err := client.Do(req)
	if err != nil {
		return Coordinates{}, fmt.Errorf("ip lookup: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Coordinates{}, fmt.Errorf("ip lookup: status %d", resp.StatusCode)
	}

	var body ipLookupResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return Coordinates{}, fmt.Errorf("decode ip lookup: %w", err)
	}
	if body.Status != "" && body.Status != "success" {
		return Coordinates{}, fmt.Errorf("ip lookup failed: %s", body.Message)
	}
	return Coordinates{Latitude: body.Lat, Longitude: body.Lon}, nil
}
