package payload

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	postAt := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

	t.Run("success - builds body", func(t *testing.T) {
		body, err := New("/webhooks/reminder", map[string]any{"userId": 42}, postAt)
		require.NoError(t, err)
		assert.Equal(t, "/webhooks/reminder", body.Path)
		assert.Equal(t, postAt, body.PostAt)
		assert.False(t, body.PostedAt.IsZero())
		assert.JSONEq(t, `{"userId":42}`, string(body.Data))
	})

	t.Run("error - empty path", func(t *testing.T) {
		_, err := New("", nil, postAt)
		require.Error(t, err)
	})

	t.Run("error - data cannot be marshaled", func(t *testing.T) {
		// channels cannot be marshaled to JSON
		_, err := New("/p", make(chan int), postAt)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "marshaling data")
	})
}

func TestParse(t *testing.T) {
	t.Run("success - full body", func(t *testing.T) {
		data := []byte(`{
			"path": "/webhooks/reminder",
			"data": {"userId": 42},
			"postAt": "2026-03-01T09:00:00Z",
			"postedAt": "2026-03-01T09:00:00.412Z",
			"createdAt": "2026-02-28T09:00:00Z",
			"updatedAt": "2026-03-01T09:00:00.412+00:00"
		}`)

		body, err := Parse(data)
		require.NoError(t, err)
		assert.Equal(t, "/webhooks/reminder", body.Path)
		assert.Equal(t, 2026, body.PostAt.Year())
		assert.NotZero(t, body.PostedAt.Nanosecond())

		var decoded struct {
			UserID int `json:"userId"`
		}
		require.NoError(t, body.Decode(&decoded))
		assert.Equal(t, 42, decoded.UserID)
	})

	t.Run("success - missing fields stay zero", func(t *testing.T) {
		body, err := Parse([]byte(`{"path":"/p"}`))
		require.NoError(t, err)
		assert.True(t, body.PostAt.IsZero())
		assert.Empty(t, body.Data)
		assert.Error(t, body.Decode(&struct{}{}))
	})

	t.Run("error - invalid JSON", func(t *testing.T) {
		_, err := Parse([]byte(`{invalid json}`))
		require.Error(t, err)
	})

	t.Run("error - not an object", func(t *testing.T) {
		_, err := Parse([]byte(`[1,2,3]`))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "JSON object")
	})

	t.Run("error - bad timestamp", func(t *testing.T) {
		_, err := Parse([]byte(`{"path":"/p","postedAt":"2026-03-01 09:00"}`))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "parsing postedAt")
	})
}

func TestMarshal(t *testing.T) {
	body := Body{Path: "/p", Data: json.RawMessage(`{"a":1}`), PostAt: time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)}

	b, err := body.Bytes()
	require.NoError(t, err)
	assert.JSONEq(t, `{"path":"/p","data":{"a":1},"postAt":"2026-03-01T09:00:00Z"}`, string(b))

	parsed, err := Parse(b)
	require.NoError(t, err)
	assert.Equal(t, body.PostAt, parsed.PostAt)
}

func TestMatchPath(t *testing.T) {
	assert.True(t, MatchPath("/billing/invoice", "/billing/invoice"))
	assert.True(t, MatchPath("/billing/*", "/billing/invoice"))
	assert.False(t, MatchPath("/bill/*", "/billing/invoice"))
	assert.False(t, MatchPath("/billing/*", "/billing"))
	assert.False(t, MatchPath("/billing/*", "/billing/"))
}

func TestValidatePattern(t *testing.T) {
	assert.NoError(t, ValidatePattern("/billing/*"))
	assert.NoError(t, ValidatePattern("/billing/invoice"))
	assert.Error(t, ValidatePattern(""))
	assert.Error(t, ValidatePattern("billing"))
	assert.Error(t, ValidatePattern("/bill*/x"))
}
