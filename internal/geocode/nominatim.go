package geocode

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"

	"github.com/foodlytics/oppscore/internal/config"
)

// Provider resolves a coordinate pair to a postal code.
type Provider interface {
	Reverse(ctx context.Context, lat, lon float64) (string, error)
}

// Nominatim calls a Nominatim-compatible reverse geocoding endpoint. Requests
// are rate limited (the public instance allows one request per second) and
// wrapped in a circuit breaker so a dead endpoint fails fast instead of
// costing one full timeout per row.
type Nominatim struct {
	config  config.GeocoderConfig
	client  *http.Client
	limiter *rate.Limiter
	breaker *gobreaker.CircuitBreaker
}

// nominatimResponse is the subset of the reverse geocoding payload the
// pipeline cares about.
type nominatimResponse struct {
	DisplayName string `json:"display_name"`
	Address     struct {
		Suburb   string `json:"suburb"`
		City     string `json:"city"`
		State    string `json:"state"`
		Postcode string `json:"postcode"`
		Country  string `json:"country"`
	} `json:"address"`
}

// NewNominatim creates a provider from config, filling in defaults for any
// zero-valued fields.
func NewNominatim(cfg config.GeocoderConfig) *Nominatim {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://nominatim.openstreetmap.org"
	}

	if cfg.RequestTimeout == 0 {
		cfg.RequestTimeout = config.Duration(10 * time.Second)
	}

	if cfg.RateLimitRPS == 0 {
		cfg.RateLimitRPS = 1.0
	}

	if cfg.UserAgent == "" {
		cfg.UserAgent = "oppscore/1.0 (locality-scoring)"
	}

	settings := gobreaker.Settings{Name: "nominatim"}
	settings.Interval = 60 * time.Second
	settings.Timeout = 60 * time.Second
	settings.ReadyToTrip = func(counts gobreaker.Counts) bool {
		return counts.ConsecutiveFailures >= 5
	}

	return &Nominatim{
		config:  cfg,
		client:  &http.Client{Timeout: cfg.RequestTimeout.Std()},
		limiter: rate.NewLimiter(rate.Limit(cfg.RateLimitRPS), 1),
		breaker: gobreaker.NewCircuitBreaker(settings),
	}
}

// Reverse resolves (lat, lon) to a postal code. An empty string with a nil
// error means the service answered but knows no postcode for the location.
func (n *Nominatim) Reverse(ctx context.Context, lat, lon float64) (string, error) {
	if err := n.limiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("rate limiter: %w", err)
	}

	result, err := n.breaker.Execute(func() (interface{}, error) {
		return n.reverse(ctx, lat, lon)
	})
	if err != nil {
		return "", err
	}

	return result.(string), nil
}

func (n *Nominatim) reverse(ctx context.Context, lat, lon float64) (string, error) {
	params := url.Values{}
	params.Set("lat", strconv.FormatFloat(lat, 'f', -1, 64))
	params.Set("lon", strconv.FormatFloat(lon, 'f', -1, 64))
	params.Set("format", "json")

	reqURL := n.config.BaseURL + "/reverse?" + params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("User-Agent", n.config.UserAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := n.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("reverse geocode request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", fmt.Errorf("reverse geocode returned status %d: %s", resp.StatusCode, string(body))
	}

	var payload nominatimResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return "", fmt.Errorf("failed to decode reverse geocode response: %w", err)
	}

	return payload.Address.Postcode, nil
}
