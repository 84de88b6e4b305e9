package tmdb

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"golang.org/x/time/rate"
)

// DefaultBaseURL is the TMDB v3 API root.
const DefaultBaseURL = "https://api.themoviedb.org/3"

// fallbackMessage is shown when a failure carries no message of its own.
const fallbackMessage = "Something went wrong"

// maxBodyBytes caps how much of a response body is read.
const maxBodyBytes = 10 << 20

// ErrMalformedResponse is returned when a 2xx body is not a listing envelope.
var ErrMalformedResponse = errors.New("tmdb: malformed response")

// APIError is a failure reported by the API itself rather than the transport.
// Error() returns only the message so it can be shown to the user verbatim.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fallbackMessage
	}
	return e.Message
}

// envelope is the listing response. Response/Error are the legacy
// OMDb-style failure marker; StatusMessage/Success are TMDB's own.
type envelope struct {
	Results       *[]Movie `json:"results"`
	Response      string   `json:"Response,omitempty"`
	Error         string   `json:"Error,omitempty"`
	StatusCode    int      `json:"status_code,omitempty"`
	StatusMessage string   `json:"status_message,omitempty"`
	Success       *bool    `json:"success,omitempty"`
}

// Options configures a Client. Zero values pick the defaults.
type Options struct {
	BaseURL string
	// Timeout of 0 means no client-side timeout.
	Timeout time.Duration
	// RequestsPerSecond of 0 disables pacing.
	RequestsPerSecond float64
}

// Client calls the TMDB listing endpoints with a bearer token.
type Client struct {
	token   string
	baseURL string
	client  *http.Client
	limiter *rate.Limiter
}

// NewClient creates a Client authenticated with the given read access token.
func NewClient(token string, opts Options) *Client {
	base := opts.BaseURL
	if base == "" {
		base = DefaultBaseURL
	}
	limiter := rate.NewLimiter(rate.Inf, 1)
	if opts.RequestsPerSecond > 0 {
		limiter = rate.NewLimiter(rate.Limit(opts.RequestsPerSecond), 1)
	}
	return &Client{
		token:   token,
		baseURL: base,
		client:  &http.Client{Timeout: opts.Timeout},
		limiter: limiter,
	}
}

// Movies dispatches on the query: discovery listing when empty, search otherwise.
func (c *Client) Movies(ctx context.Context, query string) ([]Movie, error) {
	if query == "" {
		return c.Discover(ctx)
	}
	return c.Search(ctx, query)
}

// Search returns movies matching query.
func (c *Client) Search(ctx context.Context, query string) ([]Movie, error) {
	return c.list(ctx, "/search/movie?query="+url.QueryEscape(query))
}

// Discover returns the default listing sorted by descending popularity.
func (c *Client) Discover(ctx context.Context) ([]Movie, error) {
	return c.list(ctx, "/discover/movie?sort_by=popularity.desc")
}

func (c *Client) list(ctx context.Context, path string) ([]Movie, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("tmdb: rate limiter wait failed: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return nil, fmt.Errorf("tmdb: failed to create request: %w", err)
	}
	req.Header.Set("accept", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.token)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("tmdb: request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("tmdb: failed to read response: %w", err)
	}

	return decodeListing(resp.StatusCode, body)
}

// decodeListing classifies a response. HTTP status and payload shape are
// authoritative; the legacy Response:"False" marker is honored as well.
func decodeListing(status int, body []byte) ([]Movie, error) {
	var env envelope
	parseErr := json.Unmarshal(body, &env)

	if status < 200 || status > 299 {
		apiErr := &APIError{StatusCode: status, Message: http.StatusText(status)}
		if parseErr == nil {
			if env.StatusMessage != "" {
				apiErr.Message = env.StatusMessage
			} else if env.Error != "" {
				apiErr.Message = env.Error
			}
		}
		return nil, apiErr
	}

	if parseErr != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, parseErr)
	}

	if env.Response == "False" {
		return nil, &APIError{StatusCode: status, Message: env.Error}
	}
	if env.Success != nil && !*env.Success {
		return nil, &APIError{StatusCode: status, Message: env.StatusMessage}
	}

	if env.Results == nil {
		return []Movie{}, nil
	}
	return *env.Results, nil
}
