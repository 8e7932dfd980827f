package filter

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestPageNormalize(t *testing.T) {
	assert.Equal(t, Page{Page: 1, Limit: DefaultLimit}, Page{}.Normalize())
	assert.Equal(t, Page{Page: 3, Limit: MaxLimit}, Page{Page: 3, Limit: 500}.Normalize())
	assert.Equal(t, 50, Page{Page: 3, Limit: 25}.Offset())
}

func TestDays(t *testing.T) {
	now := time.Date(2026, 5, 10, 15, 4, 5, 0, time.UTC)
	p := Days(time.Time{}, time.Time{}, now)

	assert.Equal(t, time.Date(2026, 5, 10, 0, 0, 0, 0, time.UTC), p.From)
	assert.True(t, p.Contains(now))
	assert.True(t, p.Contains(time.Date(2026, 5, 10, 23, 59, 59, 0, time.UTC)))
	assert.False(t, p.Contains(time.Date(2026, 5, 11, 0, 0, 0, 0, time.UTC)))
}

func TestNewListResultAndSlice(t *testing.T) {
	all := []int{1, 2, 3, 4, 5}
	p := Page{Page: 2, Limit: 2}

	res := NewListResult(Slice(all, p), int64(len(all)), p)
	assert.Equal(t, []int{3, 4}, res.Items)
	assert.Equal(t, 3, res.TotalPages)

	assert.Empty(t, Slice(all, Page{Page: 9, Limit: 2}))
}

func TestParseState(t *testing.T) {
	s, ok := ParseState("")
	assert.True(t, ok)
	assert.Equal(t, StateActive, s)

	_, ok = ParseState("archived")
	assert.False(t, ok)
}
