package hook

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// Action is one of the three bulk operations
type Action string

const (
	ActionRetry  Action = "retry"
	ActionReplay Action = "replay"
	ActionCancel Action = "cancel"
)

func (a Action) Validate() error {
	switch a {
	case ActionRetry, ActionReplay, ActionCancel:
		return nil
	}
	return fmt.Errorf("invalid bulk action: %q", string(a))
}

func (a Action) path() string {
	return hooksPath + "/bulk/" + string(a)
}

// Filter selects hooks by time range for the *ByFilter operations
type Filter struct {
	Start time.Time
	End   time.Time
	// Limit caps the number of hooks affected; zero leaves it to the server
	Limit       int
	EndpointKey string
	SequenceID  string
}

func (f Filter) Validate() error {
	if f.Start.IsZero() || f.End.IsZero() {
		return invalid("filter start and end are required")
	}
	if !f.End.After(f.Start) {
		return invalid("filter end must be after start")
	}
	if f.Limit < 0 {
		return invalid("filter limit must not be negative")
	}
	return nil
}

type filterBody struct {
	StartTime   string `json:"startTime"`
	EndTime     string `json:"endTime"`
	Limit       int    `json:"limit,omitempty"`
	EndpointKey string `json:"endpointKey,omitempty"`
	SequenceID  string `json:"sequenceID,omitempty"`
}

func (f Filter) body() filterBody {
	return filterBody{
		StartTime:   f.Start.UTC().Format(time.RFC3339),
		EndTime:     f.End.UTC().Format(time.RFC3339),
		Limit:       f.Limit,
		EndpointKey: f.EndpointKey,
		SequenceID:  f.SequenceID,
	}
}

type idsBody struct {
	HookIDs []string `json:"hookIDs"`
}

/* BulkService acts on many hooks at once
 * Retry targets failed hooks, Replay completed ones, Cancel pending ones
 * The server decides which hooks match; zero affected is not an error
 */
type BulkService struct {
	Requester Requester
}

func NewBulkService(r Requester) *BulkService {
	return &BulkService{Requester: r}
}

func (b *BulkService) Retry(ctx context.Context, ids []string) (BulkResult, error) {
	return b.ByIDs(ctx, ActionRetry, ids)
}

func (b *BulkService) Replay(ctx context.Context, ids []string) (BulkResult, error) {
	return b.ByIDs(ctx, ActionReplay, ids)
}

func (b *BulkService) Cancel(ctx context.Context, ids []string) (BulkResult, error) {
	return b.ByIDs(ctx, ActionCancel, ids)
}

func (b *BulkService) RetryByFilter(ctx context.Context, f Filter) (BulkResult, error) {
	return b.ByFilter(ctx, ActionRetry, f)
}

func (b *BulkService) ReplayByFilter(ctx context.Context, f Filter) (BulkResult, error) {
	return b.ByFilter(ctx, ActionReplay, f)
}

func (b *BulkService) CancelByFilter(ctx context.Context, f Filter) (BulkResult, error) {
	return b.ByFilter(ctx, ActionCancel, f)
}

// ByIDs runs action against the given hooks, in order
func (b *BulkService) ByIDs(ctx context.Context, action Action, ids []string) (BulkResult, error) {
	if err := action.Validate(); err != nil {
		return BulkResult{}, invalid(err.Error())
	}
	if len(ids) == 0 {
		return BulkResult{}, invalid("at least one hook id is required")
	}
	for i, id := range ids {
		if id == "" {
			return BulkResult{}, invalid(fmt.Sprintf("hook id at index %d is empty", i))
		}
	}
	return b.do(ctx, action, idsBody{HookIDs: ids})
}

func (b *BulkService) ByFilter(ctx context.Context, action Action, f Filter) (BulkResult, error) {
	if err := action.Validate(); err != nil {
		return BulkResult{}, invalid(err.Error())
	}
	if err := f.Validate(); err != nil {
		return BulkResult{}, err
	}
	return b.do(ctx, action, f.body())
}

func (b *BulkService) do(ctx context.Context, action Action, body any) (BulkResult, error) {
	data, _, err := b.Requester.Request(ctx, http.MethodPost, action.path(), nil, body)
	if err != nil {
		return BulkResult{}, fmt.Errorf("bulk %s: %w", action, err)
	}

	var result BulkResult
	if len(data) == 0 {
		return result, nil
	}
	if err := json.Unmarshal(data, &result); err != nil {
		return BulkResult{}, fmt.Errorf("decoding bulk result: %w", err)
	}
	return result, nil
}
