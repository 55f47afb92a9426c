package posthook

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/marcelsud/posthook/apierror"
	"github.com/marcelsud/posthook/config"
	"github.com/marcelsud/posthook/hook"
	"github.com/marcelsud/posthook/hook/signature"
	"github.com/marcelsud/posthook/metrics"
	"github.com/marcelsud/posthook/transport"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/metric"
)

// ErrNoSigningKey is returned by NewSignatures when no key can be resolved
var ErrNoSigningKey = errors.New("posthook: no signing key provided; pass one to NewSignatures or set " + config.KeySigningKey)

type options struct {
	overrides     config.Overrides
	httpClient    *http.Client
	logger        zerolog.Logger
	meterProvider metric.MeterProvider
}

type Option func(*options)

// WithAPIKey takes precedence over POSTHOOK_API_KEY
func WithAPIKey(key string) Option {
	return func(o *options) { o.overrides.APIKey = key }
}

func WithBaseURL(url string) Option {
	return func(o *options) { o.overrides.BaseURL = url }
}

func WithTimeout(d time.Duration) Option {
	return func(o *options) { o.overrides.Timeout = d }
}

// WithSigningKey takes precedence over POSTHOOK_SIGNING_KEY
func WithSigningKey(key string) Option {
	return func(o *options) { o.overrides.SigningKey = key }
}

// WithConfigFile adds a TOML, YAML or .env file below the environment
func WithConfigFile(path string) Option {
	return func(o *options) { o.overrides.ConfigFile = path }
}

// WithHTTPClient uses hc for every request; the caller keeps ownership and Close leaves it open
func WithHTTPClient(hc *http.Client) Option {
	return func(o *options) { o.httpClient = hc }
}

// WithLogger receives request and verification logs at debug level
func WithLogger(logger zerolog.Logger) Option {
	return func(o *options) { o.logger = logger }
}

// WithMeterProvider records client metrics on mp instead of the global provider
func WithMeterProvider(mp metric.MeterProvider) Option {
	return func(o *options) { o.meterProvider = mp }
}

// core is shared by Client and AsyncClient
type core struct {
	config      *config.Config
	transport   *transport.Client
	instruments *metrics.Instruments
	signatures  *signature.Verifier
}

func newCore(opts []Option) (*core, error) {
	o := options{logger: zerolog.Nop()}
	for _, opt := range opts {
		opt(&o)
	}

	cfg, err := config.Resolve(o.overrides)
	if err != nil {
		return nil, fmt.Errorf("resolving config: %w", err)
	}
	if cfg.APIKey == "" {
		return nil, apierror.NewAuthentication("no API key provided; pass WithAPIKey or set " + config.KeyAPIKey)
	}

	instruments, err := metrics.NewInstruments(o.meterProvider)
	if err != nil {
		return nil, fmt.Errorf("creating instruments: %w", err)
	}

	tr := transport.New(cfg.APIKey,
		transport.WithBaseURL(cfg.BaseURL),
		transport.WithTimeout(cfg.Timeout),
		transport.WithHTTPClient(o.httpClient),
		transport.WithLogger(o.logger),
		transport.WithInstruments(instruments),
	)

	return &core{
		config:      cfg,
		transport:   tr,
		instruments: instruments,
		signatures:  signature.NewVerifier(cfg.SigningKey, signature.WithLogger(o.logger)),
	}, nil
}

// Quota returns the hook quota last reported by the API
func (c *core) Quota(ctx context.Context) (metrics.QuotaSnapshot, bool) {
	return c.instruments.Quota(ctx)
}

// BaseURL returns the resolved API base URL
func (c *core) BaseURL() string {
	return c.transport.BaseURL()
}

// Close releases the connection pool of an owned HTTP client; later calls are no-ops
func (c *core) Close() error {
	return c.transport.Close()
}

/* Client is the blocking Posthook client
 * Methods block the calling goroutine until the response arrives
 */
type Client struct {
	*core

	Hooks      *hook.Service
	Signatures *signature.Verifier
}

func NewClient(opts ...Option) (*Client, error) {
	c, err := newCore(opts)
	if err != nil {
		return nil, err
	}
	return &Client{
		core:       c,
		Hooks:      hook.NewService(c.transport),
		Signatures: c.signatures,
	}, nil
}

/* AsyncClient mirrors Client; every call returns immediately with a hook.Future
 * Signature verification does no network I/O and stays synchronous
 */
type AsyncClient struct {
	*core

	Hooks      *hook.AsyncService
	Signatures *signature.Verifier
}

func NewAsyncClient(opts ...Option) (*AsyncClient, error) {
	c, err := newCore(opts)
	if err != nil {
		return nil, err
	}
	return &AsyncClient{
		core:       c,
		Hooks:      hook.NewAsyncService(c.transport),
		Signatures: c.signatures,
	}, nil
}

/* NewSignatures builds a standalone verifier, falling back to POSTHOOK_SIGNING_KEY
 * It fails immediately when no key is available rather than on the first delivery
 */
func NewSignatures(key string, opts ...signature.Option) (*signature.Verifier, error) {
	cfg, err := config.Resolve(config.Overrides{SigningKey: key})
	if err != nil {
		return nil, fmt.Errorf("resolving config: %w", err)
	}
	if cfg.SigningKey == "" {
		return nil, ErrNoSigningKey
	}
	return signature.NewVerifier(cfg.SigningKey, opts...), nil
}
