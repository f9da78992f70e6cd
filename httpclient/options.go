package httpclient

import (
	"maps"
	"net/http"
	"time"

	"golang.org/x/time/rate"
)

const (
	DefaultTimeout      = 30 * time.Second
	HeaderContentType   = "Content-Type"
	HeaderAccept        = "Accept"
	HeaderUserAgent     = "User-Agent"
	HeaderXRequestID    = "X-Request-ID"
	HeaderAuthorization = "Authorization"
	HeaderRetryAfter    = "Retry-After"
	ContentTypeJSON     = "application/json"
)

type Option func(*Client)

// WithTimeout bounds every attempt, not the whole call including retries.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		c.timeout = timeout
	}
}

func WithHTTPClient(httpClient Doer) Option {
	return func(c *Client) {
		if httpClient != nil {
			c.httpClient = httpClient
		}
	}
}

func WithDefaultHeaders(headers map[string]string) Option {
	return func(c *Client) {
		maps.Copy(c.defaultHeaders, headers)
	}
}

func WithUserAgent(userAgent string) Option {
	return func(c *Client) {
		c.defaultHeaders[HeaderUserAgent] = userAgent
	}
}

func WithTokenProvider(provider TokenProvider) Option {
	return func(c *Client) {
		c.tokenProvider = provider
	}
}

func WithMaxResponseSize(size int64) Option {
	return func(c *Client) {
		c.maxResponseSize = size
	}
}

func WithRetry(cfg RetryConfig) Option {
	return func(c *Client) {
		c.retry = cfg.normalize()
	}
}

// WithRateLimit caps outbound attempts per second. A non-positive value disables limiting.
func WithRateLimit(perSecond float64) Option {
	return func(c *Client) {
		if perSecond <= 0 {
			c.limiter = nil

			return
		}

		c.limiter = rate.NewLimiter(rate.Limit(perSecond), 1)
	}
}

type RequestOption func(*requestConfig)

type requestConfig struct {
	headers     map[string]string
	query       map[string]string
	timeout     time.Duration
	requestID   string
	skipAuth    bool
	rawResponse bool
}

func WithRequestHeader(key, value string) RequestOption {
	return func(rc *requestConfig) {
		if rc.headers == nil {
			rc.headers = make(map[string]string)
		}

		rc.headers[key] = value
	}
}

func WithRequestTimeout(timeout time.Duration) RequestOption {
	return func(rc *requestConfig) {
		rc.timeout = timeout
	}
}

func WithRequestID(requestID string) RequestOption {
	return func(rc *requestConfig) {
		rc.requestID = requestID
	}
}

func WithQuery(key, value string) RequestOption {
	return func(rc *requestConfig) {
		if rc.query == nil {
			rc.query = make(map[string]string)
		}

		rc.query[key] = value
	}
}

func WithQueryParams(params map[string]string) RequestOption {
	return func(rc *requestConfig) {
		if rc.query == nil {
			rc.query = make(map[string]string)
		}

		maps.Copy(rc.query, params)
	}
}

// WithoutAuth skips the token provider for endpoints that are public.
func WithoutAuth() RequestOption {
	return func(rc *requestConfig) {
		rc.skipAuth = true
	}
}

// WithRawResponse returns 2xx bodies untouched instead of requiring JSON.
func WithRawResponse() RequestOption {
	return func(rc *requestConfig) {
		rc.rawResponse = true
	}
}

var _ Doer = (*http.Client)(nil)
