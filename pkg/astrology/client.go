// Package astrology is the client for the upstream astrology data provider.
// It is consumed as an opaque fact source: callers get text fields back and
// never depend on the provider's exact payload nesting (see extract.go).
package astrology

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"resty.dev/v3"

	"github.com/coachastral/astro-daily/pkg/upstream"
)

const (
	providerName = "astrologyapi"

	// quotaMarker is the provider's trial-plan exhaustion signal. It arrives
	// with varying status codes, so the body is checked as well.
	quotaMarker = "TRIAL_REQUEST_LIMIT_EXCEEDED"

	defaultBaseURL = "https://json.astrologyapi.com/v1"
	defaultTimeout = 20 * time.Second
)

// Config holds the provider credentials and endpoint settings.
type Config struct {
	BaseURL string
	UserID  string
	APIKey  string
	Timeout time.Duration
}

// Client calls the astrology provider over HTTP with basic auth. All
// failures are classified into the upstream error taxonomy.
type Client struct {
	httpClient *resty.Client
	logger     zerolog.Logger
}

// NewClient validates the credential pair and builds the HTTP client.
// Missing credentials are a configuration fault, reported before any
// network call is attempted.
func NewClient(cfg *Config, logger zerolog.Logger) (*Client, error) {
	if cfg.UserID == "" || cfg.APIKey == "" {
		return nil, upstream.NewError(upstream.KindConfiguration, providerName, "init",
			errors.New("astrology user id and api key are required"))
	}

	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	auth := base64.StdEncoding.EncodeToString([]byte(cfg.UserID + ":" + cfg.APIKey))

	httpClient := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(timeout).
		SetHeader("Authorization", "Basic "+auth).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept-Language", "en")

	return &Client{
		httpClient: httpClient,
		logger:     logger.With().Str("component", "AstrologyClient").Logger(),
	}, nil
}

// Close releases the underlying HTTP client resources.
func (c *Client) Close() error {
	return c.httpClient.Close()
}

// post sends one provider call and returns the raw JSON body. Transport
// faults, rejected credentials, quota exhaustion and unparsable bodies are
// mapped onto the shared taxonomy here so every endpoint method inherits
// the same classification.
func (c *Client) post(ctx context.Context, endpoint string, payload any) (json.RawMessage, error) {
	if payload == nil {
		payload = map[string]any{}
	}

	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetBody(payload).
		SetDoNotParseResponse(true).
		Post(endpoint)
	if err != nil {
		c.logger.Warn().Err(err).Str("endpoint", endpoint).Msg("Provider call failed to complete.")
		return nil, upstream.NewError(upstream.KindConnectivity, providerName, endpoint, err)
	}
	defer func() {
		_ = resp.RawResponse.Body.Close()
	}()

	body, readErr := io.ReadAll(resp.RawResponse.Body)
	if readErr != nil {
		return nil, upstream.NewError(upstream.KindConnectivity, providerName, endpoint, readErr)
	}

	if kind, ok := classifyStatus(resp.StatusCode(), string(body)); ok {
		c.logger.Warn().
			Int("status", resp.StatusCode()).
			Str("endpoint", endpoint).
			Str("kind", kind.String()).
			Msg("Provider returned an error response.")
		return nil, upstream.NewError(kind, providerName, endpoint,
			fmt.Errorf("status %d: %s", resp.StatusCode(), truncate(string(body), 300)))
	}

	if !json.Valid(body) {
		return nil, upstream.NewError(upstream.KindMalformedResponse, providerName, endpoint,
			fmt.Errorf("response is not valid JSON: %s", truncate(string(body), 120)))
	}
	return json.RawMessage(body), nil
}

// classifyStatus maps an HTTP status (plus body sniff for the quota marker)
// to an error kind. ok is false for success statuses.
func classifyStatus(status int, body string) (upstream.Kind, bool) {
	if strings.Contains(body, quotaMarker) {
		return upstream.KindQuotaExceeded, true
	}
	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return upstream.KindAuth, true
	case status == http.StatusTooManyRequests:
		return upstream.KindQuotaExceeded, true
	case status >= 400:
		return upstream.KindUnknown, true
	}
	return upstream.KindUnknown, false
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
