package hook

import (
	"encoding/json"
	"fmt"
)

/* Status represents the server-side lifecycle of a hook
 * Follows: Pending -> Completed, or Pending -> Retry -> Completed/Failed
 */
type Status int

const (
	Pending Status = iota + 1
	Retry
	Completed
	Failed
)

// String returns the wire representation of the status
func (s Status) String() string {
	switch s {
	case Pending:
		return "pending"
	case Retry:
		return "retry"
	case Completed:
		return "completed"
	case Failed:
		return "failed"
	default:
		return "unknown"
	}
}

// NewStatus creates a Status from its wire representation; unknown values yield 0
func NewStatus(str string) Status {
	switch str {
	case "pending":
		return Pending
	case "retry":
		return Retry
	case "completed":
		return Completed
	case "failed":
		return Failed
	default:
		return 0
	}
}

// Validate checks if the status is valid
func (s Status) Validate() error {
	if s < Pending || s > Failed {
		return fmt.Errorf("invalid status: %d", s)
	}
	return nil
}

// IsFinal returns true if the server will not attempt the hook again
func (s Status) IsFinal() bool {
	return s == Completed || s == Failed
}

func (s Status) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

func (s *Status) UnmarshalJSON(data []byte) error {
	var str string
	if err := json.Unmarshal(data, &str); err != nil {
		return fmt.Errorf("unmarshaling status: %w", err)
	}
	*s = NewStatus(str)
	return nil
}
