package hook

import (
	"encoding/json"
	"fmt"
)

/* Strategy controls how the server spaces out delivery retries
 * Fixed waits DelaySecs between attempts, Exponential multiplies it by BackoffFactor
 */
type Strategy int

const (
	Fixed Strategy = iota + 1
	Exponential
)

func (s Strategy) String() string {
	switch s {
	case Fixed:
		return "fixed"
	case Exponential:
		return "exponential"
	default:
		return "unknown"
	}
}

func NewStrategy(str string) Strategy {
	switch str {
	case "fixed":
		return Fixed
	case "exponential":
		return Exponential
	default:
		return 0
	}
}

func (s Strategy) Validate() error {
	if s != Fixed && s != Exponential {
		return fmt.Errorf("invalid retry strategy: %d", s)
	}
	return nil
}

func (s Strategy) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

func (s *Strategy) UnmarshalJSON(data []byte) error {
	var str string
	if err := json.Unmarshal(data, &str); err != nil {
		return fmt.Errorf("unmarshaling strategy: %w", err)
	}
	*s = NewStrategy(str)
	return nil
}

// RetryOverride replaces the project retry policy for a single hook
type RetryOverride struct {
	MinRetries int      `json:"minRetries"`
	DelaySecs  int      `json:"delaySecs"`
	Strategy   Strategy `json:"strategy"`
	// BackoffFactor only applies to Exponential
	BackoffFactor *float64 `json:"backoffFactor,omitempty"`
	MaxDelaySecs  *int     `json:"maxDelaySecs,omitempty"`
	Jitter        bool     `json:"jitter"`
}

func (r RetryOverride) Validate() error {
	if r.MinRetries < 0 {
		return fmt.Errorf("min retries must not be negative: %d", r.MinRetries)
	}
	if r.DelaySecs < 0 {
		return fmt.Errorf("delay seconds must not be negative: %d", r.DelaySecs)
	}
	if err := r.Strategy.Validate(); err != nil {
		return err
	}
	if r.BackoffFactor != nil {
		if r.Strategy != Exponential {
			return fmt.Errorf("backoff factor requires the exponential strategy")
		}
		if *r.BackoffFactor <= 0 {
			return fmt.Errorf("backoff factor must be positive: %g", *r.BackoffFactor)
		}
	}
	if r.MaxDelaySecs != nil && *r.MaxDelaySecs < r.DelaySecs {
		return fmt.Errorf("max delay seconds %d is below delay seconds %d", *r.MaxDelaySecs, r.DelaySecs)
	}
	return nil
}
