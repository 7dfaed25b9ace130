package exchange

import (
	"log/slog"
	"net/http"
	"time"

	"golang.org/x/time/rate"
)

const (
	// DefaultTimeout is the hard per-request deadline. A call either
	// completes or fails with ErrTimeout; it never hangs.
	DefaultTimeout = 5 * time.Second

	// defaultFetchRate bounds snapshot/book fetches per second. Order
	// submission is not rate limited: a user action must not queue
	// behind background refreshes.
	defaultFetchRate  = 20
	defaultFetchBurst = 10
)

// Client provides access to the exchange REST API.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	logger     *slog.Logger

	timeout      time.Duration
	fetchLimiter *rate.Limiter
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// NewClient creates a new exchange API client.
func NewClient(baseURL, apiKey string, opts ...ClientOption) *Client {
	c := &Client{
		baseURL:      baseURL,
		apiKey:       apiKey,
		httpClient:   &http.Client{},
		logger:       slog.Default(),
		timeout:      DefaultTimeout,
		fetchLimiter: rate.NewLimiter(defaultFetchRate, defaultFetchBurst),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) ClientOption {
	return func(c *Client) {
		c.timeout = d
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) ClientOption {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithFetchRate sets the snapshot fetch rate limit.
func WithFetchRate(perSecond float64, burst int) ClientOption {
	return func(c *Client) {
		c.fetchLimiter = rate.NewLimiter(rate.Limit(perSecond), burst)
	}
}

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = hc
	}
}
