package manifest

import (
	"encoding/json"
	"fmt"

	"github.com/marcelsud/posthook/hook"
)

/* Entry is one hook to schedule, as written in a manifest file
 * Exactly one of PostIn, PostAt or PostAtLocal is expected
 */
type Entry struct {
	Name        string       `yaml:"name"`
	Path        string       `yaml:"path"`
	Data        any          `yaml:"data"`
	PostIn      string       `yaml:"post_in"`
	PostAt      string       `yaml:"post_at"`
	PostAtLocal string       `yaml:"post_at_local"`
	Timezone    string       `yaml:"timezone"`
	Retry       *RetryConfig `yaml:"retry"`
}

// RetryConfig mirrors hook.RetryOverride with snake_case keys
type RetryConfig struct {
	MinRetries    int      `yaml:"min_retries"`
	DelaySecs     int      `yaml:"delay_secs"`
	Strategy      string   `yaml:"strategy"`
	BackoffFactor *float64 `yaml:"backoff_factor"`
	MaxDelaySecs  *int     `yaml:"max_delay_secs"`
	Jitter        bool     `yaml:"jitter"`
}

func (r *RetryConfig) override() *hook.RetryOverride {
	if r == nil {
		return nil
	}
	return &hook.RetryOverride{
		MinRetries:    r.MinRetries,
		DelaySecs:     r.DelaySecs,
		Strategy:      hook.NewStrategy(r.Strategy),
		BackoffFactor: r.BackoffFactor,
		MaxDelaySecs:  r.MaxDelaySecs,
		Jitter:        r.Jitter,
	}
}

// Request converts and validates the entry
func (e Entry) Request() (hook.ScheduleRequest, error) {
	req := hook.ScheduleRequest{
		Path:          e.Path,
		Data:          e.Data,
		PostIn:        e.PostIn,
		PostAtLocal:   e.PostAtLocal,
		Timezone:      e.Timezone,
		RetryOverride: e.Retry.override(),
	}

	if e.PostAt != "" {
		postAt, err := hook.ParsePostAt(e.PostAt)
		if err != nil {
			return hook.ScheduleRequest{}, err
		}
		req.PostAt = postAt
	}
	if e.Retry != nil && hook.NewStrategy(e.Retry.Strategy) == 0 {
		return hook.ScheduleRequest{}, fmt.Errorf("%w: retry strategy must be fixed or exponential, got %q", hook.ErrInvalidRequest, e.Retry.Strategy)
	}

	// yaml.v3 decodes mappings with non-string keys into types JSON cannot encode
	if e.Data != nil {
		if _, err := json.Marshal(e.Data); err != nil {
			return hook.ScheduleRequest{}, fmt.Errorf("%w: data cannot be encoded as JSON: %v", hook.ErrInvalidRequest, err)
		}
	}

	if err := req.Validate(); err != nil {
		return hook.ScheduleRequest{}, err
	}
	return req, nil
}

// label identifies the entry in error messages
func (e Entry) label(index int) string {
	if e.Name != "" {
		return fmt.Sprintf("hook %d (%s)", index, e.Name)
	}
	return fmt.Sprintf("hook %d", index)
}
