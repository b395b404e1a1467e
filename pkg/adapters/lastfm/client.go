// Package lastfm is the similarity source backed by the Last.fm web API.
package lastfm

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/goccy/go-json"
	"golang.org/x/time/rate"

	"github.com/aretw0/tastewalk/pkg/core"
)

const (
	// DefaultBaseURL is the Last.fm API root.
	DefaultBaseURL = "https://ws.audioscrobbler.com/2.0/"

	// maxErrorBodySize limits the response body read for error reporting.
	maxErrorBodySize = 64 * 1024
)

// API error codes, see https://www.last.fm/api/errorcodes.
const (
	codeInvalidParameters = 6
	codeOperationFailed   = 8
	codeServiceOffline    = 11
	codeTemporaryError    = 16
	codeRateLimitExceeded = 29
)

// Config holds the client settings.
type Config struct {
	APIKey  string
	BaseURL string
	Timeout time.Duration
	// RateLimit is the sustained number of requests per second. Zero disables pacing.
	RateLimit float64
	Burst     int
	// MaxRetries bounds the retries of rate limited (HTTP 429) requests.
	MaxRetries     int
	RetryBaseDelay time.Duration
	HTTPClient     *http.Client
	Logger         *slog.Logger
}

// Client talks to the Last.fm API. Safe for concurrent use.
type Client struct {
	baseURL        string
	apiKey         string
	client         *http.Client
	limiter        *rate.Limiter
	maxRetries     int
	retryBaseDelay time.Duration
	logger         *slog.Logger
}

// NewClient creates a client. Requests are paced by a token bucket and
// retried with exponential backoff when the service answers 429.
func NewClient(cfg Config) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}
	if cfg.RetryBaseDelay <= 0 {
		cfg.RetryBaseDelay = time.Second
	}
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = &http.Client{Timeout: cfg.Timeout}
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	limiter := rate.NewLimiter(rate.Inf, 0)
	if cfg.RateLimit > 0 {
		burst := cfg.Burst
		if burst < 1 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(cfg.RateLimit), burst)
	}

	return &Client{
		baseURL:        cfg.BaseURL,
		apiKey:         cfg.APIKey,
		client:         cfg.HTTPClient,
		limiter:        limiter,
		maxRetries:     cfg.MaxRetries,
		retryBaseDelay: cfg.RetryBaseDelay,
		logger:         cfg.Logger,
	}
}

// bodyForError returns at most maxErrorBodySize bytes of body for diagnostics.
func bodyForError(body []byte) []byte {
	if len(body) <= maxErrorBodySize {
		return body
	}
	return append(body[:maxErrorBodySize:maxErrorBodySize], []byte("\n... (truncated)")...)
}

// doRequest performs a GET, backing off on HTTP 429 (1s, 2s, 4s, ...) or
// for as long as Retry-After asks.
func (c *Client) doRequest(ctx context.Context, reqURL string) (*http.Response, error) {
	for attempt := 0; ; attempt++ {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, err
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, http.NoBody)
		if err != nil {
			return nil, fmt.Errorf("failed to create request: %w", err)
		}
		resp, err := c.client.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			return nil, fmt.Errorf("%w: %v", core.ErrSourceUnavailable, err)
		}
		if resp.StatusCode != http.StatusTooManyRequests {
			return resp, nil
		}
		_ = resp.Body.Close()

		if attempt == c.maxRetries {
			return nil, fmt.Errorf("%w: rate limit exceeded after %d retries (HTTP 429)", core.ErrSourceUnavailable, c.maxRetries)
		}

		delay := c.retryBaseDelay * time.Duration(1<<uint(attempt))
		if s, err := strconv.Atoi(resp.Header.Get("Retry-After")); err == nil && s >= 0 {
			delay = time.Duration(s) * time.Second
		}
		c.logger.Warn("rate limited by last.fm", "attempt", attempt+1, "delay", delay)

		timer := time.NewTimer(delay)
		select {
		case <-timer.C:
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		}
	}
}

// call invokes an API method and decodes its JSON answer into result.
func (c *Client) call(ctx context.Context, method string, params url.Values, result any) error {
	if params == nil {
		params = url.Values{}
	}
	params.Set("method", method)
	params.Set("api_key", c.apiKey)
	params.Set("format", "json")

	resp, err := c.doRequest(ctx, c.baseURL+"?"+params.Encode())
	if err != nil {
		return fmt.Errorf("%s: %w", method, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%s: %w: read body: %v", method, core.ErrSourceUnavailable, err)
	}

	// Errors come as {"error": N, "message": "..."} with 200 or 4xx statuses.
	var apiErr apiError
	if json.Unmarshal(body, &apiErr) == nil && apiErr.Code != 0 {
		return fmt.Errorf("%s: %w", method, classify(apiErr))
	}
	if resp.StatusCode >= http.StatusInternalServerError {
		return fmt.Errorf("%s: %w: HTTP %d: %s", method, core.ErrSourceUnavailable, resp.StatusCode, bodyForError(body))
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%s: HTTP %d: %s", method, resp.StatusCode, bodyForError(body))
	}

	if err := json.Unmarshal(body, result); err != nil {
		return fmt.Errorf("%s: %w: decode: %v", method, core.ErrSourceUnavailable, err)
	}
	return nil
}

func classify(e apiError) error {
	switch e.Code {
	case codeInvalidParameters:
		return fmt.Errorf("%w: %s", core.ErrArtistNotFound, e.Message)
	case codeOperationFailed, codeServiceOffline, codeTemporaryError, codeRateLimitExceeded:
		return fmt.Errorf("%w: last.fm error %d: %s", core.ErrSourceUnavailable, e.Code, e.Message)
	}
	return fmt.Errorf("last.fm error %d: %s", e.Code, e.Message)
}

// IsNotFound reports whether err means the artist is unknown to the service.
func IsNotFound(err error) bool {
	return errors.Is(err, core.ErrArtistNotFound)
}

func artistParams(a core.Artist, limit int) url.Values {
	params := url.Values{}
	if a.Name != "" {
		params.Set("artist", a.Name)
	} else {
		params.Set("mbid", a.MBID)
	}
	if limit > 0 {
		params.Set("limit", strconv.Itoa(limit))
	}
	return params
}
