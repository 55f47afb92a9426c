package hook

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"time"
)

// ErrInvalidRequest wraps every local validation failure; no request is sent
var ErrInvalidRequest = errors.New("invalid request")

// postInPattern is an integer magnitude followed by one of s, m, h, d
var postInPattern = regexp.MustCompile(`^([1-9][0-9]*)([smhd])$`)

// PostAtLayout is the UTC wire format of postAt
const PostAtLayout = "2006-01-02T15:04:05Z"

/* ScheduleRequest describes one hook to create
 * Exactly one of PostIn, PostAt or PostAtLocal must be set
 */
type ScheduleRequest struct {
	Path string
	// Data is encoded as JSON; json.RawMessage is sent verbatim
	Data any

	// PostIn is a relative delay such as "30s", "5m", "2h" or "1d"
	PostIn string
	PostAt time.Time
	// PostAtLocal is a wall-clock time in Timezone, resolved by the server
	PostAtLocal string
	Timezone    string

	RetryOverride *RetryOverride
}

// Validate checks the request without touching the network
func (r ScheduleRequest) Validate() error {
	if r.Path == "" {
		return invalid("path is required")
	}

	modes := 0
	if r.PostIn != "" {
		modes++
	}
	if !r.PostAt.IsZero() {
		modes++
	}
	if r.PostAtLocal != "" {
		modes++
	}
	switch {
	case modes == 0:
		return invalid("exactly one scheduling mode is required: post_in, post_at or post_at_local")
	case modes > 1:
		return invalid("only one scheduling mode allowed: post_in, post_at or post_at_local")
	}

	if r.PostIn != "" {
		if _, err := ParsePostIn(r.PostIn); err != nil {
			return err
		}
	}
	if r.Timezone != "" && r.PostAtLocal == "" {
		return invalid("timezone is only valid with post_at_local")
	}
	if r.PostAtLocal != "" && r.Timezone == "" {
		return invalid("post_at_local requires a timezone")
	}
	if r.RetryOverride != nil {
		if err := r.RetryOverride.Validate(); err != nil {
			return fmt.Errorf("%w: retry override: %v", ErrInvalidRequest, err)
		}
	}
	return nil
}

type scheduleBody struct {
	Path          string         `json:"path"`
	Data          any            `json:"data,omitempty"`
	PostAt        string         `json:"postAt,omitempty"`
	PostAtLocal   string         `json:"postAtLocal,omitempty"`
	Timezone      string         `json:"timezone,omitempty"`
	PostIn        string         `json:"postIn,omitempty"`
	RetryOverride *RetryOverride `json:"retryOverride,omitempty"`
}

func (r ScheduleRequest) body() scheduleBody {
	b := scheduleBody{
		Path:          r.Path,
		Data:          r.Data,
		PostIn:        r.PostIn,
		PostAtLocal:   r.PostAtLocal,
		Timezone:      r.Timezone,
		RetryOverride: r.RetryOverride,
	}
	if !r.PostAt.IsZero() {
		b.PostAt = r.PostAt.UTC().Format(PostAtLayout)
	}
	return b
}

// MarshalJSON returns the body sent to the API
func (r ScheduleRequest) MarshalJSON() ([]byte, error) {
	return json.Marshal(r.body())
}

// ParsePostIn converts a relative delay such as "30m" into a duration
func ParsePostIn(s string) (time.Duration, error) {
	m := postInPattern.FindStringSubmatch(s)
	if m == nil {
		return 0, invalid(fmt.Sprintf("post_in %q must be a positive integer followed by s, m, h or d", s))
	}
	n, err := strconv.ParseInt(m[1], 10, 64)
	if err != nil {
		return 0, invalid(fmt.Sprintf("post_in %q: %v", s, err))
	}

	var unit time.Duration
	switch m[2] {
	case "s":
		unit = time.Second
	case "m":
		unit = time.Minute
	case "h":
		unit = time.Hour
	case "d":
		unit = 24 * time.Hour
	}
	if n > int64(1<<63-1)/int64(unit) {
		return 0, invalid(fmt.Sprintf("post_in %q is too large", s))
	}
	return time.Duration(n) * unit, nil
}

// ParsePostAt accepts ISO-8601 timestamps with an explicit offset and returns them in UTC
func ParsePostAt(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, invalid(fmt.Sprintf("post_at %q must be an ISO-8601 timestamp with a timezone offset", s))
	}
	return t.UTC(), nil
}

func invalid(msg string) error {
	return fmt.Errorf("%w: %s", ErrInvalidRequest, msg)
}
