package signature

import (
	"bytes"
	"context"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/marcelsud/posthook/apierror"
	"github.com/marcelsud/posthook/hook/payload"
	"github.com/rs/zerolog"
)

// Delivery is an inbound hook call whose signature has been verified
type Delivery struct {
	// HookID comes from the Posthook-Id header and may be empty
	HookID    string
	Timestamp int64
	Path      string
	Data      json.RawMessage
	// Body is the raw request body the signature was computed over
	Body      []byte
	PostAt    time.Time
	PostedAt  time.Time
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Decode unmarshals the hook data into v
func (d Delivery) Decode(v any) error {
	if len(d.Data) == 0 {
		return fmt.Errorf("delivery has no data")
	}
	if err := json.Unmarshal(d.Data, v); err != nil {
		return fmt.Errorf("decoding delivery data: %w", err)
	}
	return nil
}

type settings struct {
	key       string
	tolerance time.Duration
	clock     func() time.Time
	guard     ReplayGuard
	logger    zerolog.Logger
}

// Option configures a Verifier, or a single ParseDelivery call
type Option func(*settings)

// WithSigningKey overrides the verifier's key
func WithSigningKey(key string) Option {
	return func(s *settings) {
		if key != "" {
			s.key = key
		}
	}
}

func WithTolerance(d time.Duration) Option {
	return func(s *settings) {
		if d > 0 {
			s.tolerance = d
		}
	}
}

func WithClock(clock func() time.Time) Option {
	return func(s *settings) {
		if clock != nil {
			s.clock = clock
		}
	}
}

// WithReplayGuard rejects a delivery seen before within twice the tolerance
func WithReplayGuard(g ReplayGuard) Option {
	return func(s *settings) {
		s.guard = g
	}
}

func WithLogger(logger zerolog.Logger) Option {
	return func(s *settings) {
		s.logger = logger
	}
}

/* Verifier checks Posthook delivery signatures
 * It does no I/O of its own apart from the optional replay guard and is safe for concurrent use
 */
type Verifier struct {
	settings settings
}

func NewVerifier(key string, opts ...Option) *Verifier {
	s := settings{
		key:       key,
		tolerance: DefaultTolerance,
		clock:     time.Now,
		logger:    zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(&s)
	}
	return &Verifier{settings: s}
}

/* ParseDelivery verifies body against the Posthook headers and decodes it
 * body must be the exact bytes received; re-encoded JSON will not verify
 * Every failure is the same *apierror.Error; the reason is logged at debug level
 */
func (v *Verifier) ParseDelivery(ctx context.Context, body []byte, header http.Header, opts ...Option) (Delivery, error) {
	s := v.settings
	for _, opt := range opts {
		opt(&s)
	}

	hookID := headerValue(header, HeaderID)
	fail := func(reason string, err error) (Delivery, error) {
		s.logger.Debug().
			Str("hook_id", hookID).
			Str("reason", reason).
			AnErr("cause", err).
			Msg("signature verification failed")
		return Delivery{}, apierror.NewSignatureVerification()
	}

	if s.key == "" {
		return fail("no signing key configured", nil)
	}

	tsHeader := headerValue(header, HeaderTimestamp)
	if tsHeader == "" {
		return fail("missing "+HeaderTimestamp+" header", nil)
	}
	sigHeader := headerValue(header, HeaderSignature)
	if sigHeader == "" {
		return fail("missing "+HeaderSignature+" header", nil)
	}

	ts, err := strconv.ParseInt(strings.TrimSpace(tsHeader), 10, 64)
	if err != nil {
		return fail("invalid "+HeaderTimestamp+" header", err)
	}

	diff := s.clock().Unix() - ts
	if diff < 0 {
		diff = -diff
	}
	if diff > int64(s.tolerance/time.Second) {
		return fail(fmt.Sprintf("timestamp outside tolerance: %ds difference exceeds %s", diff, s.tolerance), nil)
	}

	signatures, err := ParseSignatureHeader(sigHeader)
	if err != nil {
		return fail("malformed "+HeaderSignature+" header", err)
	}
	if !Verify(s.key, ts, body, signatures) {
		return fail("no matching signature", nil)
	}

	parsed, err := payload.Parse(body)
	if err != nil {
		return fail("unparseable body", err)
	}

	if s.guard != nil {
		key := replayKey(hookID, ts, s.key, body)
		ok, err := s.guard.Claim(ctx, key, 2*s.tolerance)
		if err != nil {
			return fail("replay guard unavailable", err)
		}
		if !ok {
			return fail("delivery already accepted", nil)
		}
	}

	return Delivery{
		HookID:    hookID,
		Timestamp: ts,
		Path:      parsed.Path,
		Data:      parsed.Data,
		Body:      body,
		PostAt:    parsed.PostAt,
		PostedAt:  parsed.PostedAt,
		CreatedAt: parsed.CreatedAt,
		UpdatedAt: parsed.UpdatedAt,
	}, nil
}

/* ParseRequest reads and verifies r's body
 * The body is restored on r so later handlers can read it again
 */
func (v *Verifier) ParseRequest(r *http.Request, opts ...Option) (Delivery, error) {
	if r.Body == nil {
		return v.ParseDelivery(r.Context(), nil, r.Header, opts...)
	}
	body, err := io.ReadAll(r.Body)
	if err != nil {
		return Delivery{}, fmt.Errorf("reading request body: %w", err)
	}
	r.Body.Close()
	r.Body = io.NopCloser(bytes.NewReader(body))

	return v.ParseDelivery(r.Context(), body, r.Header, opts...)
}

// replayKey identifies one delivery attempt; the digest keeps keys distinct when the id header is absent
func replayKey(hookID string, ts int64, key string, body []byte) string {
	return fmt.Sprintf("%s:%d:%s", hookID, ts, hex.EncodeToString(digest(key, ts, body)[:16]))
}

// headerValue looks name up case-insensitively, including non-canonical keys
func headerValue(h http.Header, name string) string {
	if v := h.Get(name); v != "" {
		return v
	}
	for k, values := range h {
		if strings.EqualFold(k, name) && len(values) > 0 {
			return values[0]
		}
	}
	return ""
}

// HeaderFromMap converts a plain map of headers, as some frameworks expose them
func HeaderFromMap(m map[string]string) http.Header {
	h := make(http.Header, len(m))
	for k, v := range m {
		h[k] = []string{v}
	}
	return h
}
