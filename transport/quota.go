package transport

import (
	"net/http"
	"strconv"
	"time"

	"github.com/marcelsud/posthook/metrics"
)

const (
	HeaderQuotaLimit     = "Posthook-Hookquota-Limit"
	HeaderQuotaUsage     = "Posthook-Hookquota-Usage"
	HeaderQuotaRemaining = "Posthook-Hookquota-Remaining"
	HeaderQuotaResetsAt  = "Posthook-Hookquota-Resets-At"
)

// Quota is the hook quota reported alongside a scheduled hook
type Quota struct {
	Limit     int64     `json:"limit"`
	Usage     int64     `json:"usage"`
	Remaining int64     `json:"remaining"`
	ResetsAt  time.Time `json:"resetsAt"`
}

// ParseQuota returns nil when the response carries no quota headers
func ParseQuota(h http.Header) *Quota {
	limit := h.Get(HeaderQuotaLimit)
	if limit == "" {
		return nil
	}

	q := &Quota{
		Limit:     parseInt(limit),
		Usage:     parseInt(h.Get(HeaderQuotaUsage)),
		Remaining: parseInt(h.Get(HeaderQuotaRemaining)),
	}
	if resets := h.Get(HeaderQuotaResetsAt); resets != "" {
		if t, err := time.Parse(time.RFC3339, resets); err == nil {
			q.ResetsAt = t.UTC()
		}
	}
	return q
}

func (q Quota) snapshot() metrics.QuotaSnapshot {
	return metrics.QuotaSnapshot{
		Limit:     q.Limit,
		Usage:     q.Usage,
		Remaining: q.Remaining,
		ResetsAt:  q.ResetsAt,
	}
}

func parseInt(s string) int64 {
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0
	}
	return n
}
