package github

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"sync"
	"time"

	"github.com/google/go-github/v68/github"
	"golang.org/x/oauth2"
)

const (
	// DefaultBaseURL is the default GitHub API base URL
	DefaultBaseURL = "https://api.github.com"

	// TokenEnv is the environment variable for GitHub token
	TokenEnv = "GITHUB_TOKEN"

	// DrafterTokenEnv overrides TokenEnv when both are set
	DrafterTokenEnv = "DRAFTER_GITHUB_TOKEN"

	// DefaultTimeout is the default HTTP timeout
	DefaultTimeout = 30 * time.Second
)

// ClientOption configures a Client
type ClientOption func(*Client)

// WithBaseURL sets a custom base URL for the GitHub API
func WithBaseURL(baseURL string) ClientOption {
	return func(c *Client) {
		c.baseURL = baseURL
	}
}

// WithTimeout sets a custom HTTP timeout
func WithTimeout(timeout time.Duration) ClientOption {
	return func(c *Client) {
		c.timeout = timeout
	}
}

// WithHTTPClient sets a custom HTTP client
func WithHTTPClient(client *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = client
	}
}

// WithRateLimitTracking enables rate limit tracking
func WithRateLimitTracking(enabled bool) ClientOption {
	return func(c *Client) {
		if enabled && c.rateLimitTracker == nil {
			c.rateLimitTracker = NewRateLimitTracker()
		}
	}
}

// WithRetryConfig configures retry behavior
func WithRetryConfig(config *RetryConfig) ClientOption {
	return func(c *Client) {
		c.retryConfig = config
	}
}

// Client is a GitHub API client for the operations the drafter needs.
//
// The client provides:
// - Direct HTTP access via NewRequest/Do methods
// - Lazy-loaded go-github client via GitHubClient() for typed operations
// - Automatic rate limit tracking (when enabled via WithRateLimitTracking)
// - Retry logic with exponential backoff (when configured via WithRetryConfig)
//
// Rate limiting and retries live in the HTTP transport, so both the raw and
// the go-github paths use them.
//
// Example:
//
//	client := github.NewClient(token,
//	    github.WithRateLimitTracking(true),
//	    github.WithRetryConfig(github.DefaultRetryConfig()),
//	)
type Client struct {
	token            string
	baseURL          string
	httpClient       *http.Client
	timeout          time.Duration
	mu               sync.Mutex
	githubClient     *github.Client // Lazy-loaded go-github client
	rateLimitTracker *RateLimitTracker
	retryConfig      *RetryConfig
}

// NewClient creates a new GitHub API client with the given token
func NewClient(token string, opts ...ClientOption) *Client {
	c := &Client{
		token:   token,
		baseURL: DefaultBaseURL,
		timeout: DefaultTimeout,
		httpClient: &http.Client{
			Timeout: DefaultTimeout,
		},
	}

	for _, opt := range opts {
		opt(c)
	}

	// Work on a copy so a client passed through WithHTTPClient is left alone
	hc := *c.httpClient
	hc.Timeout = c.timeout
	if c.retryConfig != nil || c.rateLimitTracker != nil {
		base := hc.Transport
		if base == nil {
			base = http.DefaultTransport
		}
		hc.Transport = &retryTransport{
			base:    base,
			retry:   c.retryConfig,
			tracker: c.rateLimitTracker,
		}
	}
	c.httpClient = &hc

	return c
}

// TokenFromEnv returns the first token found in DrafterTokenEnv or TokenEnv.
func TokenFromEnv() string {
	if token := os.Getenv(DrafterTokenEnv); token != "" {
		return token
	}
	return os.Getenv(TokenEnv)
}

// NewClientFromEnv creates a new client using token from environment variables
func NewClientFromEnv(opts ...ClientOption) (*Client, error) {
	token := TokenFromEnv()
	if token == "" {
		return nil, fmt.Errorf("%s or %s environment variable is required", DrafterTokenEnv, TokenEnv)
	}

	return NewClient(token, opts...), nil
}

// BaseURL returns the API base URL the client talks to
func (c *Client) BaseURL() string {
	return c.baseURL
}

// GetRateLimitStatus returns the current rate limit status
func (c *Client) GetRateLimitStatus() (RateLimitStatus, error) {
	if c.rateLimitTracker == nil {
		return RateLimitStatus{}, nil
	}
	return c.rateLimitTracker.GetStatus(), nil
}

// GitHubClient returns the underlying go-github client (lazy-loaded)
func (c *Client) GitHubClient() *github.Client {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.githubClient == nil {
		// oauth2 wraps the transport of c.httpClient so test recorders and
		// custom transports also see go-github traffic
		ctx := context.WithValue(context.Background(), oauth2.HTTPClient, c.httpClient)
		var hc *http.Client
		if c.token != "" {
			ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: c.token})
			hc = oauth2.NewClient(ctx, ts)
			hc.Timeout = c.timeout
		} else {
			hc = c.httpClient
		}
		c.githubClient = github.NewClient(hc)

		if c.baseURL != DefaultBaseURL && c.baseURL != "" {
			baseURL := c.baseURL
			// go-github requires a trailing slash
			if baseURL[len(baseURL)-1] != '/' {
				baseURL += "/"
			}
			if parsedURL, err := url.Parse(baseURL); err == nil {
				c.githubClient.BaseURL = parsedURL
			}
		}
	}
	return c.githubClient
}

// NewRequest creates a new HTTP request with proper authentication
func (c *Client) NewRequest(ctx context.Context, method, url string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	c.setHeaders(req)
	return req, nil
}

// Do sends an HTTP request and returns the response. Retries and rate limit
// waiting happen in the client's transport.
func (c *Client) Do(req *http.Request, result interface{}) (*ClientResponse, error) {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(resp.Body)
		resp.Body.Close()

		apiErr := parseErrorResponse(resp.StatusCode, body)

		if resp.StatusCode == http.StatusForbidden && resp.Header.Get("X-RateLimit-Remaining") == "0" {
			if reset := resp.Header.Get("X-RateLimit-Reset"); reset != "" {
				if resetInt, err := strconv.ParseInt(reset, 10, 64); err == nil {
					limit := 0
					if c.rateLimitTracker != nil {
						limit = c.rateLimitTracker.GetStatus().Limit
					}
					apiErr.RateLimit = &RateLimitInfo{
						Limit:     limit,
						Remaining: 0,
						Reset:     resetInt,
					}
				}
			}
		}
		return nil, apiErr
	}

	clientResp := &ClientResponse{
		Response: resp,
		client:   c,
	}

	if result != nil {
		if err := clientResp.DecodeJSON(result); err != nil {
			return nil, fmt.Errorf("failed to decode response: %w", err)
		}
	}

	return clientResp, nil
}

// setHeaders sets common headers for GitHub API requests
func (c *Client) setHeaders(req *http.Request) {
	if req.Header.Get("Accept") == "" {
		req.Header.Set("Accept", "application/vnd.github.v3+json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "token "+c.token)
	}
}

// ClientResponse wraps an HTTP response with additional methods
type ClientResponse struct {
	*http.Response
	client    *Client
	closeOnce sync.Once
}

// DecodeJSON decodes the response body as JSON
func (r *ClientResponse) DecodeJSON(v interface{}) error {
	defer r.Close()
	return json.NewDecoder(r.Response.Body).Decode(v)
}

// ReadAll reads the entire response body
func (r *ClientResponse) ReadAll() ([]byte, error) {
	defer r.Close()
	return io.ReadAll(r.Response.Body)
}

// Close closes the response body (idempotent)
func (r *ClientResponse) Close() error {
	var err error
	r.closeOnce.Do(func() {
		if r.Response != nil && r.Response.Body != nil {
			err = r.Response.Body.Close()
		}
	})
	return err
}
