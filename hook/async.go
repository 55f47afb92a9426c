package hook

import (
	"context"
	"slices"
)

/* Future is the pending outcome of a call running on its own goroutine
 * It is resolved exactly once; Await may be called any number of times
 */
type Future[T any] struct {
	done  chan struct{}
	value T
	err   error
}

func goFuture[T any](fn func() (T, error)) *Future[T] {
	f := &Future[T]{done: make(chan struct{})}
	go func() {
		defer close(f.done)
		f.value, f.err = fn()
	}()
	return f
}

// Done is closed once the result is available
func (f *Future[T]) Done() <-chan struct{} {
	return f.done
}

// Await blocks until the result is available or ctx is done
func (f *Future[T]) Await(ctx context.Context) (T, error) {
	select {
	case <-f.done:
		return f.value, f.err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}

// Result is one element of an asynchronous stream
type Result[T any] struct {
	Value T
	Err   error
}

/* AsyncService mirrors Service with non-blocking calls
 * Validation, encoding and decoding are shared with Service
 */
type AsyncService struct {
	sync *Service
	Bulk *AsyncBulkService
}

func NewAsyncService(r Requester) *AsyncService {
	s := NewService(r)
	return &AsyncService{
		sync: s,
		Bulk: &AsyncBulkService{sync: s.Bulk},
	}
}

func (a *AsyncService) Schedule(ctx context.Context, req ScheduleRequest) *Future[Hook] {
	return goFuture(func() (Hook, error) { return a.sync.Schedule(ctx, req) })
}

func (a *AsyncService) Get(ctx context.Context, id string) *Future[Hook] {
	return goFuture(func() (Hook, error) { return a.sync.Get(ctx, id) })
}

func (a *AsyncService) List(ctx context.Context, params ListParams) *Future[[]Hook] {
	return goFuture(func() ([]Hook, error) { return a.sync.List(ctx, params) })
}

func (a *AsyncService) Delete(ctx context.Context, id string) *Future[struct{}] {
	return goFuture(func() (struct{}, error) { return struct{}{}, a.sync.Delete(ctx, id) })
}

/* ListAll streams every hook over the returned channel
 * A single producer fetches pages strictly in sequence; the next page is only
 * requested once the previous one has been fully received
 * The channel is closed after the last hook, after an error, or when ctx is done
 */
func (a *AsyncService) ListAll(ctx context.Context, params ListParams) <-chan Result[Hook] {
	out := make(chan Result[Hook])
	go func() {
		defer close(out)
		for h, err := range a.sync.ListAll(ctx, params) {
			select {
			case out <- Result[Hook]{Value: h, Err: err}:
			case <-ctx.Done():
				return
			}
			if err != nil {
				return
			}
		}
	}()
	return out
}

type AsyncBulkService struct {
	sync *BulkService
}

func (a *AsyncBulkService) Retry(ctx context.Context, ids []string) *Future[BulkResult] {
	return a.byIDs(ctx, ActionRetry, ids)
}

func (a *AsyncBulkService) Replay(ctx context.Context, ids []string) *Future[BulkResult] {
	return a.byIDs(ctx, ActionReplay, ids)
}

func (a *AsyncBulkService) Cancel(ctx context.Context, ids []string) *Future[BulkResult] {
	return a.byIDs(ctx, ActionCancel, ids)
}

func (a *AsyncBulkService) RetryByFilter(ctx context.Context, f Filter) *Future[BulkResult] {
	return a.byFilter(ctx, ActionRetry, f)
}

func (a *AsyncBulkService) ReplayByFilter(ctx context.Context, f Filter) *Future[BulkResult] {
	return a.byFilter(ctx, ActionReplay, f)
}

func (a *AsyncBulkService) CancelByFilter(ctx context.Context, f Filter) *Future[BulkResult] {
	return a.byFilter(ctx, ActionCancel, f)
}

func (a *AsyncBulkService) byIDs(ctx context.Context, action Action, ids []string) *Future[BulkResult] {
	ids = slices.Clone(ids)
	return goFuture(func() (BulkResult, error) { return a.sync.ByIDs(ctx, action, ids) })
}

func (a *AsyncBulkService) byFilter(ctx context.Context, action Action, f Filter) *Future[BulkResult] {
	return goFuture(func() (BulkResult, error) { return a.sync.ByFilter(ctx, action, f) })
}
