package hook

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"iter"
	"net/http"
	"net/url"
	"time"

	"github.com/marcelsud/posthook/apierror"
	"github.com/marcelsud/posthook/transport"
)

/* Service is the hooks resource
 * Uses pointer semantics as it's an API, not data
 */

// UseCase defines the operations available on hooks
type UseCase interface {
	Schedule(ctx context.Context, req ScheduleRequest) (Hook, error)
	Get(ctx context.Context, id string) (Hook, error)
	List(ctx context.Context, params ListParams) ([]Hook, error)
	ListAll(ctx context.Context, params ListParams) iter.Seq2[Hook, error]
	Delete(ctx context.Context, id string) error
}

type Service struct {
	Requester Requester
	Bulk      *BulkService
}

// NewService creates the hooks resource over a transport
func NewService(r Requester) *Service {
	return &Service{
		Requester: r,
		Bulk:      NewBulkService(r),
	}
}

const hooksPath = "/v1/hooks"

// ErrCursorStalled is yielded by ListAll when a full page does not move the postAt cursor forward
var ErrCursorStalled = errors.New("pagination cursor did not advance")

func hookPath(id string) string {
	return hooksPath + "/" + url.PathEscape(id)
}

// Schedule creates a hook; the returned Hook carries the quota reported by the API
func (s *Service) Schedule(ctx context.Context, req ScheduleRequest) (Hook, error) {
	if err := req.Validate(); err != nil {
		return Hook{}, err
	}

	data, header, err := s.Requester.Request(ctx, http.MethodPost, hooksPath, nil, req.body())
	if err != nil {
		return Hook{}, fmt.Errorf("scheduling hook: %w", err)
	}

	h, err := decodeHook(data)
	if err != nil {
		return Hook{}, err
	}
	h.Quota = transport.ParseQuota(header)
	return h, nil
}

func (s *Service) Get(ctx context.Context, id string) (Hook, error) {
	if id == "" {
		return Hook{}, invalid("hook id is required")
	}

	data, _, err := s.Requester.Request(ctx, http.MethodGet, hookPath(id), nil, nil)
	if err != nil {
		return Hook{}, fmt.Errorf("getting hook: %w", err)
	}
	return decodeHook(data)
}

// List returns a single page
func (s *Service) List(ctx context.Context, params ListParams) ([]Hook, error) {
	if err := params.validate(); err != nil {
		return nil, err
	}

	data, _, err := s.Requester.Request(ctx, http.MethodGet, hooksPath, params.Query(), nil)
	if err != nil {
		return nil, fmt.Errorf("listing hooks: %w", err)
	}

	var hooks []Hook
	if len(data) == 0 {
		return hooks, nil
	}
	if err := json.Unmarshal(data, &hooks); err != nil {
		return nil, fmt.Errorf("decoding hooks: %w", err)
	}
	return hooks, nil
}

/* ListAll walks every page ordered by postAt ascending
 * Pages are fetched lazily, one at a time, as the caller ranges over the sequence
 * Iteration stops after the first page shorter than the page size, or on the first error
 * A full page whose last postAt is missing or not after the cursor yields ErrCursorStalled
 */
func (s *Service) ListAll(ctx context.Context, params ListParams) iter.Seq2[Hook, error] {
	return func(yield func(Hook, error) bool) {
		p := pageParams(params)
		for {
			hooks, err := s.List(ctx, p)
			if err != nil {
				yield(Hook{}, err)
				return
			}
			for _, h := range hooks {
				if !yield(h, nil) {
					return
				}
			}
			if len(hooks) < p.Limit {
				return
			}
			next := hooks[len(hooks)-1].PostAt
			if next.IsZero() || !next.After(p.PostAtAfter) {
				yield(Hook{}, fmt.Errorf("listing hooks: %w at %s", ErrCursorStalled, p.PostAtAfter.Format(time.RFC3339Nano)))
				return
			}
			p.PostAtAfter = next
		}
	}
}

// pageParams forces the ordering the cursor relies on
func pageParams(params ListParams) ListParams {
	p := params
	if p.Limit <= 0 {
		p.Limit = DefaultPageSize
	}
	p.Offset = 0
	p.SortBy = SortByPostAt
	p.SortOrder = SortOrderAsc
	return p
}

// Delete is idempotent: a hook that no longer exists is not an error
func (s *Service) Delete(ctx context.Context, id string) error {
	if id == "" {
		return invalid("hook id is required")
	}

	_, _, err := s.Requester.Request(ctx, http.MethodDelete, hookPath(id), nil, nil)
	if err != nil {
		if apierror.IsNotFound(err) {
			return nil
		}
		return fmt.Errorf("deleting hook: %w", err)
	}
	return nil
}

func decodeHook(data json.RawMessage) (Hook, error) {
	var h Hook
	if err := json.Unmarshal(data, &h); err != nil {
		return Hook{}, fmt.Errorf("decoding hook: %w", err)
	}
	return h, nil
}
