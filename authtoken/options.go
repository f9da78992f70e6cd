package authtoken

import (
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog/log"
)

type Option func(*Client)

func WithRestyClient(restyClient *resty.Client) Option {
	return func(c *Client) {
		if restyClient != nil {
			c.restyClient = restyClient
		}
	}
}

func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		if timeout > 0 {
			c.restyClient.SetTimeout(timeout)
		}
	}
}

func WithUserAgent(userAgent string) Option {
	return func(c *Client) {
		c.restyClient.SetHeader("User-Agent", userAgent)
	}
}

// WithRetry sets the attempt budget (first attempt included) and the wait bounds
// between attempts.
func WithRetry(maxAttempts int, wait, maxWait time.Duration) Option {
	return func(c *Client) {
		c.restyClient.
			SetRetryCount(max(maxAttempts-1, 0)).
			SetRetryWaitTime(wait).
			SetRetryMaxWaitTime(maxWait)
	}
}

type restyLogger struct{}

func (restyLogger) Errorf(format string, v ...any) {
	log.Error().Str("component", "authtoken").Msg(fmt.Sprintf(format, v...))
}

func (restyLogger) Warnf(format string, v ...any) {
	log.Warn().Str("component", "authtoken").Msg(fmt.Sprintf(format, v...))
}

func (restyLogger) Debugf(format string, v ...any) {
	log.Debug().Str("component", "authtoken").Msg(fmt.Sprintf(format, v...))
}
