package chi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/marcelsud/posthook/hook/signature"
	"github.com/marcelsud/posthook/internal/http/chi/mocks"
	"github.com/marcelsud/posthook/metrics"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const testKey = "ph_sk_test"

func signedRequest(t *testing.T, key, target string, body []byte) (*http.Request, string) {
	t.Helper()
	hookID := uuid.NewString()
	ts := time.Now().Unix()

	req, err := http.NewRequest(http.MethodPost, target, bytes.NewReader(body))
	require.NoError(t, err)
	req.Header.Set(signature.HeaderID, hookID)
	req.Header.Set(signature.HeaderTimestamp, strconv.FormatInt(ts, 10))
	req.Header.Set(signature.HeaderSignature, signature.Sign(key, ts, body).String())
	return req, hookID
}

func matchDelivery(path string) interface{} {
	return mock.MatchedBy(func(d signature.Delivery) bool {
		return d.Path == path
	})
}

func TestPostDelivery(t *testing.T) {
	body := []byte(`{"path":"/webhooks/reminder","data":{"userId":42},"postAt":"2026-03-01T09:00:00Z"}`)
	verifier := signature.NewVerifier(testKey)

	t.Run("success - verified delivery is dispatched", func(t *testing.T) {
		d := mocks.NewDispatcher(t)
		d.On("Dispatch", mock.Anything, matchDelivery("/webhooks/reminder")).Return(nil).Once()
		h := DeliveryHandlers(verifier, d, Options{})

		req, hookID := signedRequest(t, testKey, "/webhooks/reminder", body)
		w := httptest.NewRecorder()
		h.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		var res deliveryResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))
		assert.Equal(t, hookID, res.HookID)
		assert.Equal(t, "/webhooks/reminder", res.Path)
	})

	t.Run("success - any URL path reaches the dispatcher", func(t *testing.T) {
		d := mocks.NewDispatcher(t)
		d.On("Dispatch", mock.Anything, mock.Anything).Return(nil).Once()
		h := DeliveryHandlers(verifier, d, Options{})

		req, _ := signedRequest(t, testKey, "/deeply/nested/endpoint", body)
		w := httptest.NewRecorder()
		h.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("error - wrong key is rejected before dispatch", func(t *testing.T) {
		d := mocks.NewDispatcher(t)
		h := DeliveryHandlers(verifier, d, Options{})

		req, _ := signedRequest(t, "ph_sk_other", "/webhooks/reminder", body)
		w := httptest.NewRecorder()
		h.ServeHTTP(w, req)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Equal(t, msgInvalidSignature, strings.TrimSpace(w.Body.String()))
		d.AssertNotCalled(t, "Dispatch", mock.Anything, mock.Anything)
	})

	t.Run("error - tampered body", func(t *testing.T) {
		d := mocks.NewDispatcher(t)
		h := DeliveryHandlers(verifier, d, Options{})

		req, _ := signedRequest(t, testKey, "/webhooks/reminder", body)
		req.Body = io.NopCloser(bytes.NewReader(bytes.Replace(body, []byte("42"), []byte("43"), 1)))
		w := httptest.NewRecorder()
		h.ServeHTTP(w, req)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("error - unsigned request", func(t *testing.T) {
		d := mocks.NewDispatcher(t)
		h := DeliveryHandlers(verifier, d, Options{})

		req := httptest.NewRequest(http.MethodPost, "/webhooks/reminder", bytes.NewReader(body))
		w := httptest.NewRecorder()
		h.ServeHTTP(w, req)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("error - dispatcher failure", func(t *testing.T) {
		d := mocks.NewDispatcher(t)
		d.On("Dispatch", mock.Anything, mock.Anything).Return(errors.New("db down")).Once()
		h := DeliveryHandlers(verifier, d, Options{})

		req, _ := signedRequest(t, testKey, "/webhooks/reminder", body)
		w := httptest.NewRecorder()
		h.ServeHTTP(w, req)

		assert.Equal(t, http.StatusInternalServerError, w.Code)
		assert.NotContains(t, w.Body.String(), "db down")
	})

	t.Run("error - body too large", func(t *testing.T) {
		d := mocks.NewDispatcher(t)
		h := DeliveryHandlers(verifier, d, Options{MaxBodyBytes: 16})

		req, _ := signedRequest(t, testKey, "/webhooks/reminder", body)
		w := httptest.NewRecorder()
		h.ServeHTTP(w, req)

		assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
	})

	t.Run("error - replayed delivery", func(t *testing.T) {
		guarded := signature.NewVerifier(testKey, signature.WithReplayGuard(signature.NewMemoryReplayGuard(16, time.Hour)))
		d := mocks.NewDispatcher(t)
		d.On("Dispatch", mock.Anything, mock.Anything).Return(nil).Once()
		h := DeliveryHandlers(guarded, d, Options{})

		req, _ := signedRequest(t, testKey, "/webhooks/reminder", body)
		replay := req.Clone(context.Background())
		replay.Body = io.NopCloser(bytes.NewReader(body))

		first := httptest.NewRecorder()
		h.ServeHTTP(first, req)
		assert.Equal(t, http.StatusOK, first.Code)

		second := httptest.NewRecorder()
		h.ServeHTTP(second, replay)
		assert.Equal(t, http.StatusUnauthorized, second.Code)
	})
}

func TestDeliveryHandlers(t *testing.T) {
	verifier := signature.NewVerifier(testKey)

	t.Run("health", func(t *testing.T) {
		h := DeliveryHandlers(verifier, mocks.NewDispatcher(t), Options{})
		w := httptest.NewRecorder()
		h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))

		assert.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{"status":"healthy"}`, w.Body.String())
	})

	t.Run("health reports a failing dependency", func(t *testing.T) {
		check := func(context.Context) error { return errors.New("redis: connection refused") }
		h := DeliveryHandlers(verifier, mocks.NewDispatcher(t), Options{HealthCheck: check})
		w := httptest.NewRecorder()
		h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))

		assert.Equal(t, http.StatusServiceUnavailable, w.Code)
		assert.JSONEq(t, `{"status":"unhealthy"}`, w.Body.String())
	})

	t.Run("health with a passing dependency", func(t *testing.T) {
		check := func(context.Context) error { return nil }
		h := DeliveryHandlers(verifier, mocks.NewDispatcher(t), Options{HealthCheck: check})
		w := httptest.NewRecorder()
		h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))

		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("metrics mounted when given", func(t *testing.T) {
		handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte("posthook_client_requests_total 1\n"))
		})
		h := DeliveryHandlers(verifier, mocks.NewDispatcher(t), Options{Metrics: handler})
		w := httptest.NewRecorder()
		h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), "posthook_client_requests_total")
	})

	t.Run("deliveries are counted by outcome", func(t *testing.T) {
		exporter, err := metrics.NewOTelExporter()
		require.NoError(t, err)
		defer exporter.Shutdown(context.Background())
		instruments, err := metrics.NewInstruments(exporter.MeterProvider())
		require.NoError(t, err)

		d := mocks.NewDispatcher(t)
		d.On("Dispatch", mock.Anything, mock.Anything).Return(nil).Once()
		h := DeliveryHandlers(verifier, d, Options{Metrics: exporter.Handler(), Instruments: instruments})

		body := []byte(`{"path":"/a","data":{}}`)
		ok, _ := signedRequest(t, testKey, "/a", body)
		h.ServeHTTP(httptest.NewRecorder(), ok)
		bad, _ := signedRequest(t, "ph_sk_other", "/a", body)
		h.ServeHTTP(httptest.NewRecorder(), bad)

		w := httptest.NewRecorder()
		h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
		assert.Regexp(t, `outcome="accepted"`, w.Body.String())
		assert.Regexp(t, `outcome="rejected"`, w.Body.String())
	})

	t.Run("metrics absent by default", func(t *testing.T) {
		h := DeliveryHandlers(verifier, mocks.NewDispatcher(t), Options{})
		w := httptest.NewRecorder()
		h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))

		assert.NotEqual(t, http.StatusOK, w.Code)
	})
}
