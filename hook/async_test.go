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

func TestAsyncService(t *testing.T) {
	ctx := context.Background()

	t.Run("success - schedule resolves", func(t *testing.T) {
		req := mocks.NewRequester(t)
		service := hook.NewAsyncService(req)

		req.On("Request", ctx, http.MethodPost, "/v1/hooks", url.Values(nil), mock.Anything).
			Return(json.RawMessage(hookJSON), http.Header{}, nil)

		f := service.Schedule(ctx, hook.ScheduleRequest{Path: "/webhooks/reminder", PostIn: "1d"})
		h, err := f.Await(ctx)
		require.NoError(t, err)
		assert.Equal(t, "hook-123", h.ID)

		select {
		case <-f.Done():
		default:
			t.Fatal("future should be done after Await")
		}

		again, err := f.Await(ctx)
		require.NoError(t, err)
		assert.Equal(t, h.ID, again.ID)
	})

	t.Run("success - delete swallows not found", func(t *testing.T) {
		req := mocks.NewRequester(t)
		service := hook.NewAsyncService(req)

		req.On("Request", ctx, http.MethodDelete, "/v1/hooks/gone", url.Values(nil), nil).
			Return(nil, nil, apierror.FromResponse(http.StatusNotFound, "", "", nil))

		_, err := service.Delete(ctx, "gone").Await(ctx)
		require.NoError(t, err)
	})

	t.Run("success - bulk by filter", func(t *testing.T) {
		req := mocks.NewRequester(t)
		service := hook.NewAsyncService(req)

		req.On("Request", ctx, http.MethodPost, "/v1/hooks/bulk/cancel", url.Values(nil), mock.Anything).
			Return(json.RawMessage(`{"affected":0}`), http.Header{}, nil)

		start := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
		res, err := service.Bulk.CancelByFilter(ctx, hook.Filter{Start: start, End: start.Add(time.Hour)}).Await(ctx)
		require.NoError(t, err)
		assert.Zero(t, res.Affected)
	})

	t.Run("error - validation shared with blocking service", func(t *testing.T) {
		service := hook.NewAsyncService(mocks.NewRequester(t))

		_, err := service.Schedule(ctx, hook.ScheduleRequest{Path: "/a"}).Await(ctx)
		assert.True(t, errors.Is(err, hook.ErrInvalidRequest))

		_, err = service.Bulk.Replay(ctx, nil).Await(ctx)
		assert.True(t, errors.Is(err, hook.ErrInvalidRequest))
	})

	t.Run("error - await honours its own context", func(t *testing.T) {
		req := mocks.NewRequester(t)
		service := hook.NewAsyncService(req)

		release := make(chan struct{})
		req.On("Request", mock.Anything, http.MethodGet, "/v1/hooks/slow", url.Values(nil), nil).
			Run(func(mock.Arguments) { <-release }).
			Return(json.RawMessage(hookJSON), http.Header{}, nil)

		f := service.Get(ctx, "slow")

		actx, cancel := context.WithTimeout(ctx, 10*time.Millisecond)
		defer cancel()
		_, err := f.Await(actx)
		assert.ErrorIs(t, err, context.DeadlineExceeded)

		close(release)
		h, err := f.Await(ctx)
		require.NoError(t, err)
		assert.Equal(t, "hook-123", h.ID)
	})
}
