package chi

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httplog"
	"github.com/marcelsud/posthook/hook/signature"
	"github.com/marcelsud/posthook/metrics"
	"github.com/rs/zerolog"
)

const (
	DefaultTimeout      = 30 * time.Second
	DefaultMaxBodyBytes = 1 << 20
)

// Options configures the delivery receiver
type Options struct {
	// ServiceName tags request logs
	ServiceName string
	// Metrics is mounted on GET /metrics when set
	Metrics      http.Handler
	Timeout      time.Duration
	MaxBodyBytes int64
	// Logger receives dispatch failures
	Logger zerolog.Logger
	// Instruments counts deliveries by outcome; nil records nothing
	Instruments *metrics.Instruments
	// HealthCheck reports a dependency failure on GET /health, e.g. the replay guard's Redis
	HealthCheck func(ctx context.Context) error
}

func (o Options) withDefaults() Options {
	if o.ServiceName == "" {
		o.ServiceName = "posthook-receiver"
	}
	if o.Timeout <= 0 {
		o.Timeout = DefaultTimeout
	}
	if o.MaxBodyBytes <= 0 {
		o.MaxBodyBytes = DefaultMaxBodyBytes
	}
	return o
}

// DeliveryHandlers sets up the routes that receive Posthook deliveries
func DeliveryHandlers(verifier *signature.Verifier, dispatcher Dispatcher, opts Options) *chi.Mux {
	opts = opts.withDefaults()
	logger := httplog.NewLogger(opts.ServiceName, httplog.Options{
		JSON: true,
	})

	r := chi.NewRouter()
	r.Use(httplog.RequestLogger(logger))
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(opts.Timeout))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if opts.HealthCheck != nil {
			if err := opts.HealthCheck(r.Context()); err != nil {
				opts.Logger.Error().Err(err).Msg("health check failed")
				w.WriteHeader(http.StatusServiceUnavailable)
				w.Write([]byte(`{"status":"unhealthy"}`))
				return
			}
		}
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"healthy"}`))
	})
	if opts.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", opts.Metrics)
	}

	// Posthook posts to the project's endpoint plus the hook path
	r.Method(http.MethodPost, "/*", postDelivery(verifier, dispatcher, opts))

	return r
}
