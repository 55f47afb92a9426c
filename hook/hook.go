package hook

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/marcelsud/posthook/transport"
)

// Quota is attached to hooks returned by Schedule
type Quota = transport.Quota

/* Hook is a snapshot of a scheduled callback as reported by the API
 * Uses value semantics as it represents data, not behavior
 */
type Hook struct {
	ID                  string          `json:"id"`
	Path                string          `json:"path"`
	Data                json.RawMessage `json:"data,omitempty"`
	PostAt              time.Time       `json:"postAt"`
	Status              Status          `json:"status"`
	PostDurationSeconds float64         `json:"postDurationSeconds"`
	CreatedAt           time.Time       `json:"createdAt"`
	UpdatedAt           time.Time       `json:"updatedAt"`
	Domain              string          `json:"domain,omitempty"`
	Attempts            int             `json:"attempts"`
	FailureError        string          `json:"failureError,omitempty"`
	SequenceData        *SequenceData   `json:"sequenceData,omitempty"`
	RetryOverride       *RetryOverride  `json:"retryOverride,omitempty"`

	// Quota is only set by Schedule, from response headers
	Quota *Quota `json:"-"`
}

// SequenceData is present when the hook was created by a sequence
type SequenceData struct {
	SequenceID        string `json:"sequenceID"`
	StepName          string `json:"stepName"`
	SequenceLastRunAt string `json:"sequenceLastRunAt"`
}

// BulkResult is the number of hooks a bulk action touched
type BulkResult struct {
	Affected int `json:"affected"`
}

// UnmarshalJSON tolerates empty or missing timestamps
func (h *Hook) UnmarshalJSON(data []byte) error {
	type Alias Hook
	aux := &struct {
		PostAt    string `json:"postAt"`
		CreatedAt string `json:"createdAt"`
		UpdatedAt string `json:"updatedAt"`
		*Alias
	}{
		Alias: (*Alias)(h),
	}

	if err := json.Unmarshal(data, &aux); err != nil {
		return fmt.Errorf("unmarshaling hook: %w", err)
	}

	var err error
	if h.PostAt, err = parseTime(aux.PostAt); err != nil {
		return fmt.Errorf("parsing postAt: %w", err)
	}
	if h.CreatedAt, err = parseTime(aux.CreatedAt); err != nil {
		return fmt.Errorf("parsing createdAt: %w", err)
	}
	if h.UpdatedAt, err = parseTime(aux.UpdatedAt); err != nil {
		return fmt.Errorf("parsing updatedAt: %w", err)
	}
	return nil
}

func parseTime(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, err
	}
	return t.UTC(), nil
}
