// Package weather implements the HTTP client for the external weather
// provider. The provider exposes two endpoints: a geoposition lookup that
// resolves coordinates to a location key, and an hourly-data endpoint keyed
// by that location. Both are called with an explicit per-call timeout and
// their failures are mapped into the domain error taxonomy — this package
// never retries (retry policy, if any, belongs to the caller).
package weather

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/mhalme/fishlog/backend/internal/domain"
)

// Config holds the provider connection settings.
type Config struct {
	// BaseURL is the provider API root, without trailing slash.
	BaseURL string
	// APIKey authenticates every request. An empty key is a deployment
	// configuration problem and surfaces as bad_gateway, not validation.
	APIKey string
	// Timeout bounds each of the two provider calls individually.
	Timeout time.Duration
}

// Client is the weather provider HTTP client.
type Client struct {
	http    *http.Client
	baseURL string
	apiKey  string
	timeout time.Duration
}

// NewClient constructs a Client from config. The zero timeout defaults to 10s.
func NewClient(cfg Config) *Client {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		// The http.Client itself carries no timeout; each call gets a
		// context deadline so cancellation propagates properly.
		http:    &http.Client{},
		baseURL: cfg.BaseURL,
		apiKey:  cfg.APIKey,
		timeout: timeout,
	}
}

// locationResponse is the provider's geoposition lookup payload.
type locationResponse struct {
	Key string `json:"key"`
}

// hourResponse is one hourly observation in the provider's payload.
// Every field except the timestamp may be omitted, so everything is a
// pointer: an absent field must stay null, never collapse to zero.
type hourResponse struct {
	Time             time.Time `json:"time"`
	TemperatureC     *float64  `json:"temp_c"`
	FeelsLikeC       *float64  `json:"feels_like_c"`
	WindSpeedMS      *float64  `json:"wind_ms"`
	WindGustMS       *float64  `json:"gust_ms"`
	WindDirectionDeg *int      `json:"wind_deg"`
	PressureHPa      *float64  `json:"pressure_hpa"`
	HumidityPct      *float64  `json:"humidity_pct"`
	PrecipitationMM  *float64  `json:"precip_mm"`
	CloudCoverPct    *int      `json:"cloud_pct"`
	ConditionText    *string   `json:"condition"`
	IsDaylight       *bool     `json:"daylight"`
}

// hourlyResponse is the provider's hourly-data payload.
type hourlyResponse struct {
	Hours []hourResponse `json:"hours"`
}

// LocationKey resolves coordinates to the provider's opaque location key.
func (c *Client) LocationKey(ctx context.Context, lat, lon float64) (string, error) {
	if c.apiKey == "" {
		return "", fmt.Errorf("%w: weather provider configuration", domain.ErrBadGateway)
	}

	u := fmt.Sprintf("%s/locations/geoposition?apikey=%s&q=%s", c.baseURL,
		url.QueryEscape(c.apiKey),
		url.QueryEscape(fmt.Sprintf("%.4f,%.4f", lat, lon)))

	var loc locationResponse
	if err := c.getJSON(ctx, u, &loc); err != nil {
		return "", fmt.Errorf("weather.Client.LocationKey: %w", err)
	}
	if loc.Key == "" {
		return "", fmt.Errorf("weather.Client.LocationKey: %w: empty location key", domain.ErrBadGateway)
	}
	return loc.Key, nil
}

// Hourly fetches the hourly observations for a location key inside [from, to].
// Hours come back mapped into the internal shape, ordered by observation time
// as the provider returns them.
func (c *Client) Hourly(ctx context.Context, key string, from, to time.Time) ([]domain.WeatherHour, error) {
	if c.apiKey == "" {
		return nil, fmt.Errorf("%w: weather provider configuration", domain.ErrBadGateway)
	}

	u := fmt.Sprintf("%s/hourly/%s?apikey=%s&from=%s&to=%s", c.baseURL,
		url.PathEscape(key),
		url.QueryEscape(c.apiKey),
		url.QueryEscape(from.UTC().Format(time.RFC3339)),
		url.QueryEscape(to.UTC().Format(time.RFC3339)))

	var payload hourlyResponse
	if err := c.getJSON(ctx, u, &payload); err != nil {
		return nil, fmt.Errorf("weather.Client.Hourly: %w", err)
	}

	hours := make([]domain.WeatherHour, len(payload.Hours))
	for i, h := range payload.Hours {
		hours[i] = domain.WeatherHour{
			ObservedAt:       h.Time,
			TemperatureC:     h.TemperatureC,
			FeelsLikeC:       h.FeelsLikeC,
			WindSpeedMS:      h.WindSpeedMS,
			WindGustMS:       h.WindGustMS,
			WindDirectionDeg: h.WindDirectionDeg,
			PressureHPa:      h.PressureHPa,
			HumidityPct:      h.HumidityPct,
			PrecipitationMM:  h.PrecipitationMM,
			CloudCoverPct:    h.CloudCoverPct,
			ConditionText:    h.ConditionText,
			IsDaylight:       h.IsDaylight,
		}
	}
	return hours, nil
}

// getJSON performs one GET under the client timeout and decodes the body.
// Provider failures map to the error taxonomy here so callers only ever see
// domain sentinels:
//
//	429                  → ErrRateLimited
//	401/403              → ErrBadGateway (configuration)
//	other non-200, network, timeout → ErrBadGateway
func (c *Client) getJSON(ctx context.Context, url string, dst any) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("%w: build request", domain.ErrBadGateway)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		// Covers DNS failures, refused connections, and context deadline.
		return fmt.Errorf("%w: weather provider unreachable", domain.ErrBadGateway)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK:
	case resp.StatusCode == http.StatusTooManyRequests:
		return fmt.Errorf("%w: weather provider quota exceeded", domain.ErrRateLimited)
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return fmt.Errorf("%w: weather provider configuration", domain.ErrBadGateway)
	default:
		return fmt.Errorf("%w: weather provider returned status %d", domain.ErrBadGateway, resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(dst); err != nil {
		return fmt.Errorf("%w: malformed weather provider response", domain.ErrBadGateway)
	}
	return nil
}
