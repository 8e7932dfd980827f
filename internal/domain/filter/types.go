// Package filter holds the paging and period options shared by list queries.
package filter

import (
	"time"
)

const (
	DefaultLimit = 25
	MaxLimit     = 100
)

// Page selects one page of a listing. Page numbers start at 1.
type Page struct {
	Page  int
	Limit int
}

// Normalize clamps page to >= 1 and limit to 1..MaxLimit.
func (p Page) Normalize() Page {
	if p.Page < 1 {
		p.Page = 1
	}
	if p.Limit <= 0 {
		p.Limit = DefaultLimit
	}
	if p.Limit > MaxLimit {
		p.Limit = MaxLimit
	}
	return p
}

// Offset returns the number of rows to skip.
func (p Page) Offset() int {
	n := p.Normalize()
	return (n.Page - 1) * n.Limit
}

// Period is an inclusive time range.
type Period struct {
	From time.Time
	To   time.Time
}

// Contains reports whether t is inside the period. A zero bound is open.
func (p Period) Contains(t time.Time) bool {
	if !p.From.IsZero() && t.Before(p.From) {
		return false
	}
	return p.To.IsZero() || !t.After(p.To)
}

// Days builds a period from the start of from's day to the end of to's day.
// Zero values default to today.
func Days(from, to, now time.Time) Period {
	if from.IsZero() {
		from = now
	}
	if to.IsZero() {
		to = now
	}
	y, m, d := from.Date()
	start := time.Date(y, m, d, 0, 0, 0, 0, from.Location())
	y, m, d = to.Date()
	end := time.Date(y, m, d, 23, 59, 59, int(time.Second-time.Nanosecond), to.Location())
	return Period{From: start, To: end}
}

// State selects active or soft-deleted documents.
type State string

const (
	StateActive  State = "active"
	StateDeleted State = "deleted"
)

// ParseState accepts "active", "deleted" or empty (active).
func ParseState(s string) (State, bool) {
	switch State(s) {
	case "", StateActive:
		return StateActive, true
	case StateDeleted:
		return StateDeleted, true
	}
	return "", false
}

// Documents filters purchase and sale listings.
type Documents struct {
	State  State
	Period Period
	Page   Page
}

// ListResult contains paginated results.
type ListResult[T any] struct {
	Items      []T   `json:"items"`
	Total      int64 `json:"total"`
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	TotalPages int   `json:"totalPages"`
}

// NewListResult assembles a result for page p.
func NewListResult[T any](items []T, total int64, p Page) ListResult[T] {
	p = p.Normalize()
	if items == nil {
		items = []T{}
	}
	pages := int((total + int64(p.Limit) - 1) / int64(p.Limit))
	return ListResult[T]{Items: items, Total: total, Page: p.Page, Limit: p.Limit, TotalPages: pages}
}

// Slice returns the page of items from an in-memory, already-sorted slice.
func Slice[T any](all []T, p Page) []T {
	p = p.Normalize()
	start := p.Offset()
	if start >= len(all) {
		return []T{}
	}
	end := min(start+p.Limit, len(all))
	return all[start:end]
}
