// Package dto provides Data Transfer Objects for API requests/responses.
package dto

import (
	"time"

	"stockledger/internal/core/id"
	"stockledger/internal/domain/filter"
)

// --- Pagination ---

// PageQuery contains pagination parameters.
type PageQuery struct {
	Page  int `form:"page" binding:"omitempty,min=1"`
	Limit int `form:"limit" binding:"omitempty,min=1,max=100"`
}

// ToPage converts to a normalized filter page.
func (p PageQuery) ToPage() filter.Page {
	return filter.Page{Page: p.Page, Limit: p.Limit}.Normalize()
}

// --- Period ---

// PeriodQuery is a whole-day date range. Missing bounds mean today.
type PeriodQuery struct {
	From time.Time `form:"from" time_format:"2006-01-02" time_utc:"1"`
	To   time.Time `form:"to" time_format:"2006-01-02" time_utc:"1"`
}

// DocumentListQuery filters purchase and sale listings.
type DocumentListQuery struct {
	PageQuery
	PeriodQuery
	State string `form:"state" binding:"omitempty,oneof=active deleted"`
}

// --- ID Response ---

// IDResponse for create operations.
type IDResponse struct {
	ID string `json:"id"`
}

// NewIDResponse creates ID response.
func NewIDResponse(i id.ID) IDResponse {
	return IDResponse{ID: i.String()}
}

// --- Error Response ---

// ErrorResponse for error details.
type ErrorResponse struct {
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
}
