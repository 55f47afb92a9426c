package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"runtime"
	"strings"
	"sync"
	"time"

	"github.com/marcelsud/posthook/apierror"
	"github.com/marcelsud/posthook/internal/version"
	"github.com/marcelsud/posthook/metrics"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

const (
	DefaultBaseURL = "https://api.posthook.io"
	DefaultTimeout = 30 * time.Second

	HeaderAPIKey = "X-API-Key"
)

/* Client sends authenticated JSON requests to the Posthook API
 * Uses pointer semantics; it owns (or borrows) an *http.Client
 */
type Client struct {
	baseURL     string
	apiKey      string
	timeout     time.Duration
	userAgent   string
	httpClient  *http.Client
	owned       *http.Transport
	logger      zerolog.Logger
	instruments *metrics.Instruments

	closeOnce sync.Once
}

// New builds a transport; without WithHTTPClient it owns an instrumented client released by Close
func New(apiKey string, opts ...Option) *Client {
	c := &Client{
		baseURL:   DefaultBaseURL,
		apiKey:    apiKey,
		timeout:   DefaultTimeout,
		userAgent: fmt.Sprintf("posthook-go/%s (%s/%s; %s)", version.Version, runtime.GOOS, runtime.GOARCH, runtime.Version()),
		logger:    zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.baseURL = strings.TrimRight(c.baseURL, "/")

	if c.httpClient == nil {
		base := http.DefaultTransport.(*http.Transport).Clone()
		c.owned = base
		c.httpClient = &http.Client{Transport: otelhttp.NewTransport(base)}
	}
	return c
}

func (c *Client) BaseURL() string {
	return c.baseURL
}

func (c *Client) Instruments() *metrics.Instruments {
	return c.instruments
}

type envelope struct {
	Data json.RawMessage `json:"data"`
}

type errorBody struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

/* Request performs one call and returns the unwrapped "data" member of the response
 * Errors are always *apierror.Error for HTTP and connection failures
 * No retries are attempted
 */
func (c *Client) Request(ctx context.Context, method, path string, query url.Values, body any) (json.RawMessage, http.Header, error) {
	req, err := c.newRequest(ctx, method, path, query, body)
	if err != nil {
		return nil, nil, err
	}

	ctx, cancel := context.WithTimeout(req.Context(), c.timeout)
	defer cancel()
	req = req.WithContext(ctx)

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	elapsed := time.Since(start)
	if err != nil {
		c.instruments.RecordRequest(ctx, method, 0, elapsed)
		c.logger.Debug().
			Str("method", method).
			Str("path", path).
			Dur("elapsed", elapsed).
			Err(err).
			Msg("posthook request failed")
		return nil, nil, connectionError(err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		c.instruments.RecordRequest(ctx, method, 0, elapsed)
		return nil, nil, connectionError(err)
	}

	c.instruments.RecordRequest(ctx, method, resp.StatusCode, elapsed)
	c.logger.Debug().
		Str("method", method).
		Str("path", path).
		Int("status", resp.StatusCode).
		Dur("elapsed", elapsed).
		Msg("posthook request")

	if q := ParseQuota(resp.Header); q != nil {
		c.instruments.RecordQuota(q.snapshot())
	}

	if resp.StatusCode >= http.StatusBadRequest {
		var eb errorBody
		_ = json.Unmarshal(raw, &eb)
		return nil, resp.Header, apierror.FromResponse(resp.StatusCode, eb.Error, eb.Code, resp.Header)
	}

	if len(bytes.TrimSpace(raw)) == 0 {
		return nil, resp.Header, nil
	}

	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, resp.Header, fmt.Errorf("decoding response: %w", err)
	}
	if env.Data == nil {
		return raw, resp.Header, nil
	}
	return env.Data, resp.Header, nil
}

func (c *Client) newRequest(ctx context.Context, method, path string, query url.Values, body any) (*http.Request, error) {
	u := c.baseURL + path
	if q := encodeQuery(query); q != "" {
		u += "?" + q
	}

	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("encoding request body: %w", err)
		}
		reader = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, reader)
	if err != nil {
		return nil, fmt.Errorf("building request: %w", err)
	}
	req.Header.Set(HeaderAPIKey, c.apiKey)
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	return req, nil
}

// encodeQuery drops keys whose values are all empty
func encodeQuery(query url.Values) string {
	if len(query) == 0 {
		return ""
	}
	cleaned := url.Values{}
	for key, values := range query {
		for _, v := range values {
			if v != "" {
				cleaned.Add(key, v)
			}
		}
	}
	return cleaned.Encode()
}

func connectionError(err error) error {
	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
		return apierror.NewConnection("request timed out", err)
	}
	return apierror.NewConnection(fmt.Sprintf("connection failed: %v", err), err)
}

// Close releases idle connections of an owned client; later calls are no-ops
func (c *Client) Close() error {
	c.closeOnce.Do(func() {
		if c.owned != nil {
			c.owned.CloseIdleConnections()
		}
	})
	return nil
}
