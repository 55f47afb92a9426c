package hook

import (
	"net/url"
	"strconv"
	"time"
)

const (
	SortByPostAt    = "postAt"
	SortByCreatedAt = "createdAt"

	SortOrderAsc  = "ASC"
	SortOrderDesc = "DESC"

	// DefaultPageSize is used by ListAll when ListParams.Limit is zero
	DefaultPageSize = 100
)

// ListParams filters List; zero values are not sent
type ListParams struct {
	Status    Status
	Limit     int
	Offset    int
	SortBy    string
	SortOrder string

	// PostAtAfter doubles as the pagination cursor
	PostAtAfter     time.Time
	PostAtBefore    time.Time
	CreatedAtAfter  time.Time
	CreatedAtBefore time.Time
}

func (p ListParams) validate() error {
	if p.Status != 0 {
		if err := p.Status.Validate(); err != nil {
			return invalid(err.Error())
		}
	}
	if p.Limit < 0 {
		return invalid("limit must not be negative")
	}
	if p.Offset < 0 {
		return invalid("offset must not be negative")
	}
	switch p.SortBy {
	case "", SortByPostAt, SortByCreatedAt:
	default:
		return invalid("sort by must be postAt or createdAt")
	}
	switch p.SortOrder {
	case "", SortOrderAsc, SortOrderDesc:
	default:
		return invalid("sort order must be ASC or DESC")
	}
	return nil
}

// Query encodes the parameters as URL query values
func (p ListParams) Query() url.Values {
	q := url.Values{}
	if p.Status != 0 {
		q.Set("status", p.Status.String())
	}
	if p.Limit > 0 {
		q.Set("limit", strconv.Itoa(p.Limit))
	}
	if p.Offset > 0 {
		q.Set("offset", strconv.Itoa(p.Offset))
	}
	if p.SortBy != "" {
		q.Set("sortBy", p.SortBy)
	}
	if p.SortOrder != "" {
		q.Set("sortOrder", p.SortOrder)
	}
	setTime(q, "postAtAfter", p.PostAtAfter)
	setTime(q, "postAtBefore", p.PostAtBefore)
	setTime(q, "createdAtAfter", p.CreatedAtAfter)
	setTime(q, "createdAtBefore", p.CreatedAtBefore)
	return q
}

func setTime(q url.Values, key string, t time.Time) {
	if !t.IsZero() {
		q.Set(key, t.UTC().Format(time.RFC3339Nano))
	}
}
