package payload

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// Body is the JSON document Posthook POSTs to the hook's endpoint
type Body struct {
	// Path is the hook path the delivery was scheduled for, e.g. "/webhooks/reminder"
	Path string `json:"path"`

	// Data is the payload given at schedule time, verbatim
	Data json.RawMessage `json:"data,omitempty"`

	PostAt    time.Time `json:"postAt"`
	PostedAt  time.Time `json:"postedAt"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// MarshalJSON emits RFC 3339 timestamps and omits unset ones
func (b Body) MarshalJSON() ([]byte, error) {
	type Alias Body
	return json.Marshal(&struct {
		PostAt    string `json:"postAt,omitempty"`
		PostedAt  string `json:"postedAt,omitempty"`
		CreatedAt string `json:"createdAt,omitempty"`
		UpdatedAt string `json:"updatedAt,omitempty"`
		*Alias
	}{
		PostAt:    formatTime(b.PostAt),
		PostedAt:  formatTime(b.PostedAt),
		CreatedAt: formatTime(b.CreatedAt),
		UpdatedAt: formatTime(b.UpdatedAt),
		Alias:     (*Alias)(&b),
	})
}

// UnmarshalJSON leaves missing or empty timestamps at their zero value
func (b *Body) UnmarshalJSON(data []byte) error {
	type Alias Body
	aux := &struct {
		PostAt    string `json:"postAt"`
		PostedAt  string `json:"postedAt"`
		CreatedAt string `json:"createdAt"`
		UpdatedAt string `json:"updatedAt"`
		*Alias
	}{
		Alias: (*Alias)(b),
	}

	if err := json.Unmarshal(data, &aux); err != nil {
		return fmt.Errorf("unmarshaling body: %w", err)
	}

	fields := []struct {
		name string
		raw  string
		dst  *time.Time
	}{
		{"postAt", aux.PostAt, &b.PostAt},
		{"postedAt", aux.PostedAt, &b.PostedAt},
		{"createdAt", aux.CreatedAt, &b.CreatedAt},
		{"updatedAt", aux.UpdatedAt, &b.UpdatedAt},
	}
	for _, f := range fields {
		t, err := parseTime(f.raw)
		if err != nil {
			return fmt.Errorf("parsing %s: %w", f.name, err)
		}
		*f.dst = t
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

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339Nano)
}

// New builds a body as Posthook would send it at postAt; used for local tooling and tests
func New(path string, data any, postAt time.Time) (Body, error) {
	if path == "" {
		return Body{}, fmt.Errorf("path is required")
	}
	raw, err := json.Marshal(data)
	if err != nil {
		return Body{}, fmt.Errorf("marshaling data: %w", err)
	}
	now := time.Now().UTC()
	return Body{
		Path:      path,
		Data:      raw,
		PostAt:    postAt.UTC(),
		PostedAt:  now,
		CreatedAt: postAt.UTC(),
		UpdatedAt: now,
	}, nil
}

// Bytes returns the minified JSON encoding
func (b Body) Bytes() ([]byte, error) {
	return json.Marshal(b)
}

// Parse decodes a delivery body; it must be a JSON object
func Parse(data []byte) (Body, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return Body{}, fmt.Errorf("body must be a JSON object")
	}

	var body Body
	if err := json.Unmarshal(trimmed, &body); err != nil {
		return Body{}, err
	}
	return body, nil
}

// Decode unmarshals Data into v
func (b Body) Decode(v any) error {
	if len(b.Data) == 0 {
		return fmt.Errorf("body has no data")
	}
	if err := json.Unmarshal(b.Data, v); err != nil {
		return fmt.Errorf("decoding data: %w", err)
	}
	return nil
}

/* MatchPath matches a single pattern against path
 * Supports exact matching and prefix matching ("/billing/*" matches "/billing/invoice")
 */
func MatchPath(pattern, path string) bool {
	if pattern == path {
		return true
	}
	if prefix, ok := strings.CutSuffix(pattern, "/*"); ok {
		return strings.HasPrefix(path, prefix+"/") && len(path) > len(prefix)+1
	}
	return false
}

// ValidatePattern checks a path pattern used for routing deliveries
func ValidatePattern(pattern string) error {
	if pattern == "" {
		return fmt.Errorf("path pattern cannot be empty")
	}
	if !strings.HasPrefix(pattern, "/") {
		return fmt.Errorf("path pattern must start with '/': %s", pattern)
	}
	if strings.Contains(strings.TrimSuffix(pattern, "/*"), "*") {
		return fmt.Errorf("wildcard is only allowed as a trailing '/*': %s", pattern)
	}
	return nil
}
