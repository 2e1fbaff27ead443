package geocode

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/cenkalti/backoff/v4"
)

const defaultBaseURL = "https://maps.googleapis.com/maps/api/geocode/json"

// ErrNoResults marks an address the geocoding service cannot resolve.
// It is permanent: retrying the same query will not help.
var ErrNoResults = errors.New("geocode: no results for address")

// Result is a resolved coordinate pair.
type Result struct {
	Lat  float64
	Long float64
}

// Client calls a Google-style geocoding JSON endpoint. Transient
// failures (timeouts, 5xx, rate limits) are retried with exponential
// backoff; permanent ones surface immediately.
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	userAgent  string
	maxRetries uint64
}

func NewClient(baseURL, apiKey, userAgent string, httpClient *http.Client) *Client {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 20 * time.Second}
	}
	return &Client{
		httpClient: httpClient,
		baseURL:    baseURL,
		apiKey:     apiKey,
		userAgent:  userAgent,
		maxRetries: 3,
	}
}

type geocodeResponse struct {
	Status  string `json:"status"`
	Results []struct {
		Geometry struct {
			Location struct {
				Lat float64 `json:"lat"`
				Lng float64 `json:"lng"`
			} `json:"location"`
		} `json:"geometry"`
	} `json:"results"`
}

// Geocode resolves an address to coordinates. A nil error always
// carries a result. Errors wrapped by the backoff policy keep their
// permanent/transient classification for the caller's accounting.
func (c *Client) Geocode(ctx context.Context, address string) (*Result, error) {
	var result *Result

	operation := func() error {
		res, err := c.fetch(ctx, address)
		if err != nil {
			return err
		}
		result = res
		return nil
	}

	policy := backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewExponentialBackOff(), c.maxRetries), ctx)

	notify := func(err error, delay time.Duration) {
		slog.Warn("Geocode attempt failed, retrying", "address", address, "delay", delay.String(), "error", err)
	}

	if err := backoff.RetryNotify(operation, policy, notify); err != nil {
		return nil, err
	}
	return result, nil
}

func (c *Client) fetch(ctx context.Context, address string) (*Result, error) {
	query := url.Values{}
	query.Set("address", address)
	if c.apiKey != "" {
		query.Set("key", c.apiKey)
	}

	req, err := http.NewRequestWithContext(ctx, "GET", c.baseURL+"?"+query.Encode(), nil)
	if err != nil {
		return nil, backoff.Permanent(fmt.Errorf("failed to create request: %w", err))
	}
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		// Network errors and timeouts are worth retrying.
		return nil, fmt.Errorf("geocode request failed: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK:
	case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
		return nil, fmt.Errorf("geocode HTTP error: %d %s", resp.StatusCode, resp.Status)
	default:
		return nil, backoff.Permanent(fmt.Errorf("geocode HTTP error: %d %s", resp.StatusCode, resp.Status))
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read geocode response: %w", err)
	}

	var parsed geocodeResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, backoff.Permanent(fmt.Errorf("failed to parse geocode response: %w", err))
	}

	switch parsed.Status {
	case "OK":
	case "ZERO_RESULTS":
		return nil, backoff.Permanent(ErrNoResults)
	case "OVER_QUERY_LIMIT", "UNKNOWN_ERROR":
		return nil, fmt.Errorf("geocode service unavailable: %s", parsed.Status)
	default:
		return nil, backoff.Permanent(fmt.Errorf("geocode request rejected: %s", parsed.Status))
	}

	if len(parsed.Results) == 0 {
		return nil, backoff.Permanent(ErrNoResults)
	}

	loc := parsed.Results[0].Geometry.Location
	return &Result{Lat: loc.Lat, Long: loc.Lng}, nil
}
