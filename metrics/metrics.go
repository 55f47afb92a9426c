package metrics

import (
	"context"
	"strconv"
	"sync"
	"time"

	"github.com/marcelsud/posthook/internal/version"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const instrumentationName = "github.com/marcelsud/posthook"

// QuotaSnapshot is the hook quota last reported by the API
type QuotaSnapshot struct {
	Limit     int64     `json:"limit"`
	Usage     int64     `json:"usage"`
	Remaining int64     `json:"remaining"`
	ResetsAt  time.Time `json:"resets_at"`
}

/* Instruments records client-side request metrics through the OpenTelemetry API
 * A nil *Instruments is valid and records nothing
 */
type Instruments struct {
	requests   metric.Int64Counter
	duration   metric.Float64Histogram
	deliveries metric.Int64Counter

	mu       sync.RWMutex
	quota    QuotaSnapshot
	hasQuota bool
}

// NewInstruments registers the instruments on provider, or on the global provider when nil
func NewInstruments(provider metric.MeterProvider) (*Instruments, error) {
	if provider == nil {
		provider = otel.GetMeterProvider()
	}
	meter := provider.Meter(instrumentationName, metric.WithInstrumentationVersion(version.Version))

	i := &Instruments{}
	var err error

	i.requests, err = meter.Int64Counter(
		"posthook.client.requests",
		metric.WithDescription("Number of requests sent to the Posthook API"),
		metric.WithUnit("{requests}"),
	)
	if err != nil {
		return nil, err
	}

	i.duration, err = meter.Float64Histogram(
		"posthook.client.request.duration",
		metric.WithDescription("Latency of requests sent to the Posthook API"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}

	i.deliveries, err = meter.Int64Counter(
		"posthook.receiver.deliveries",
		metric.WithDescription("Deliveries received, by outcome"),
		metric.WithUnit("{deliveries}"),
	)
	if err != nil {
		return nil, err
	}

	_, err = meter.Int64ObservableGauge(
		"posthook.quota.remaining",
		metric.WithDescription("Hooks remaining in the current quota window"),
		metric.WithUnit("{hooks}"),
		metric.WithInt64Callback(i.observeRemaining),
	)
	if err != nil {
		return nil, err
	}

	_, err = meter.Int64ObservableGauge(
		"posthook.quota.limit",
		metric.WithDescription("Hook quota for the current window"),
		metric.WithUnit("{hooks}"),
		metric.WithInt64Callback(i.observeLimit),
	)
	if err != nil {
		return nil, err
	}

	return i, nil
}

// RecordRequest counts one request; status is 0 when no response was received
func (i *Instruments) RecordRequest(ctx context.Context, method string, status int, elapsed time.Duration) {
	if i == nil {
		return
	}
	attrs := metric.WithAttributes(
		attribute.String("http.request.method", method),
		attribute.String("http.response.status_class", statusClass(status)),
	)
	i.requests.Add(ctx, 1, attrs)
	i.duration.Record(ctx, elapsed.Seconds(), attrs)
}

// Delivery outcomes recorded by the receiver
const (
	DeliveryAccepted = "accepted"
	DeliveryRejected = "rejected"
	DeliveryUnrouted = "unrouted"
	DeliveryFailed   = "failed"
)

func (i *Instruments) RecordDelivery(ctx context.Context, outcome string) {
	if i == nil {
		return
	}
	i.deliveries.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", outcome)))
}

func (i *Instruments) RecordQuota(q QuotaSnapshot) {
	if i == nil {
		return
	}
	i.mu.Lock()
	defer i.mu.Unlock()
	i.quota = q
	i.hasQuota = true
}

// Quota returns the latest snapshot and whether one has been seen
func (i *Instruments) Quota(_ context.Context) (QuotaSnapshot, bool) {
	if i == nil {
		return QuotaSnapshot{}, false
	}
	i.mu.RLock()
	defer i.mu.RUnlock()
	return i.quota, i.hasQuota
}

func (i *Instruments) observeRemaining(ctx context.Context, observer metric.Int64Observer) error {
	if q, ok := i.Quota(ctx); ok {
		observer.Observe(q.Remaining)
	}
	return nil
}

func (i *Instruments) observeLimit(ctx context.Context, observer metric.Int64Observer) error {
	if q, ok := i.Quota(ctx); ok {
		observer.Observe(q.Limit)
	}
	return nil
}

func statusClass(status int) string {
	if status <= 0 {
		return "error"
	}
	return strconv.Itoa(status/100) + "xx"
}
