package transport

import (
	"net/http"
	"time"

	"github.com/marcelsud/posthook/metrics"
	"github.com/rs/zerolog"
)

type Option func(*Client)

func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		if baseURL != "" {
			c.baseURL = baseURL
		}
	}
}

func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		if timeout > 0 {
			c.timeout = timeout
		}
	}
}

// WithHTTPClient makes the transport use hc as-is; Close never releases it
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

func WithLogger(logger zerolog.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

func WithInstruments(i *metrics.Instruments) Option {
	return func(c *Client) {
		c.instruments = i
	}
}
