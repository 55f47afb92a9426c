package hook_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"testing"
	"time"

	"github.com/marcelsud/posthook/apierror"
	"github.com/marcelsud/posthook/hook"
	"github.com/marcelsud/posthook/hook/mocks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestBulk(t *testing.T) {
	ctx := context.Background()
	start := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	end := start.Add(24 * time.Hour)

	byIDs := map[string]func(*hook.BulkService) (hook.BulkResult, error){
		"retry": func(b *hook.BulkService) (hook.BulkResult, error) {
			return b.Retry(ctx, []string{"h1", "h2"})
		},
		"replay": func(b *hook.BulkService) (hook.BulkResult, error) {
			return b.Replay(ctx, []string{"h1", "h2"})
		},
		"cancel": func(b *hook.BulkService) (hook.BulkResult, error) {
			return b.Cancel(ctx, []string{"h1", "h2"})
		},
	}
	for action, call := range byIDs {
		t.Run("success - "+action+" by ids", func(t *testing.T) {
			req := mocks.NewRequester(t)
			service := hook.NewService(req)

			req.On("Request", ctx, http.MethodPost, "/v1/hooks/bulk/"+action, url.Values(nil), hook.MatchBody(func(body map[string]any) bool {
				ids, ok := body["hookIDs"].([]any)
				return ok && len(ids) == 2 && ids[0] == "h1" && ids[1] == "h2"
			})).Return(json.RawMessage(`{"affected":2}`), http.Header{}, nil)

			res, err := call(service.Bulk)
			require.NoError(t, err)
			assert.Equal(t, 2, res.Affected)
		})
	}

	filter := hook.Filter{Start: start, End: end, Limit: 500, EndpointKey: "/webhooks/reminder"}
	byFilter := map[string]func(*hook.BulkService) (hook.BulkResult, error){
		"retry": func(b *hook.BulkService) (hook.BulkResult, error) {
			return b.RetryByFilter(ctx, filter)
		},
		"replay": func(b *hook.BulkService) (hook.BulkResult, error) {
			return b.ReplayByFilter(ctx, filter)
		},
		"cancel": func(b *hook.BulkService) (hook.BulkResult, error) {
			return b.CancelByFilter(ctx, filter)
		},
	}
	for action, call := range byFilter {
		t.Run("success - "+action+" by filter with zero matches", func(t *testing.T) {
			req := mocks.NewRequester(t)
			service := hook.NewService(req)

			req.On("Request", ctx, http.MethodPost, "/v1/hooks/bulk/"+action, url.Values(nil), hook.MatchBody(func(body map[string]any) bool {
				_, hasSequence := body["sequenceID"]
				return body["startTime"] == "2026-03-01T00:00:00Z" &&
					body["endTime"] == "2026-03-02T00:00:00Z" &&
					body["limit"] == float64(500) &&
					body["endpointKey"] == "/webhooks/reminder" &&
					!hasSequence
			})).Return(json.RawMessage(`{"affected":0}`), http.Header{}, nil)

			res, err := call(service.Bulk)
			require.NoError(t, err)
			assert.Equal(t, 0, res.Affected)
		})
	}

	invalid := []struct {
		name string
		call func(*hook.BulkService) (hook.BulkResult, error)
	}{
		{"no ids", func(b *hook.BulkService) (hook.BulkResult, error) { return b.Retry(ctx, nil) }},
		{"empty id", func(b *hook.BulkService) (hook.BulkResult, error) { return b.Cancel(ctx, []string{"h1", ""}) }},
		{"missing start", func(b *hook.BulkService) (hook.BulkResult, error) {
			return b.ReplayByFilter(ctx, hook.Filter{End: end})
		}},
		{"end before start", func(b *hook.BulkService) (hook.BulkResult, error) {
			return b.CancelByFilter(ctx, hook.Filter{Start: end, End: start})
		}},
		{"unknown action", func(b *hook.BulkService) (hook.BulkResult, error) {
			return b.ByIDs(ctx, hook.Action("purge"), []string{"h1"})
		}},
	}
	for _, tt := range invalid {
		t.Run("error - "+tt.name, func(t *testing.T) {
			req := mocks.NewRequester(t)
			service := hook.NewService(req)

			_, err := tt.call(service.Bulk)
			require.Error(t, err)
			assert.True(t, errors.Is(err, hook.ErrInvalidRequest))
			req.AssertNotCalled(t, "Request", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
		})
	}

	t.Run("error - rate limited", func(t *testing.T) {
		req := mocks.NewRequester(t)
		service := hook.NewService(req)

		req.On("Request", ctx, http.MethodPost, "/v1/hooks/bulk/retry", url.Values(nil), mock.Anything).
			Return(nil, nil, apierror.FromResponse(http.StatusTooManyRequests, "slow down", "", nil))

		_, err := service.Bulk.Retry(ctx, []string{"h1"})
		require.Error(t, err)
		assert.True(t, apierror.IsRateLimit(err))
		assert.Contains(t, err.Error(), "bulk retry")
	})
}
