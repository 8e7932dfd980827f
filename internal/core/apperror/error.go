// Package apperror provides structured error handling for the stock ledger.
// Every failure that crosses a service boundary is an AppError so the HTTP layer
// can render a consistent problem body.
package apperror

import (
	"errors"
	"fmt"
	"net/http"
	"slices"
)

// Error codes.
const (
	CodeInternal = "INTERNAL_ERROR"

	CodeValidation        = "VALIDATION_ERROR"
	CodeInsufficientStock = "INSUFFICIENT_STOCK"

	CodeUnauthorized = "UNAUTHORIZED"
	CodeForbidden    = "FORBIDDEN"
	CodeNotFound     = "NOT_FOUND"

	CodeConflict               = "CONFLICT"
	CodeDuplicate              = "DUPLICATE_ENTRY"
	CodeConcurrentModification = "CONCURRENT_MODIFICATION"
	CodeIdempotency            = "IDEMPOTENCY_CONFLICT"

	// Ledger and inventory disagree. Never expected under correct operation.
	CodeConsistency = "LEDGER_INCONSISTENCY"
)

var statusByCode = map[string]int{
	CodeInternal:               http.StatusInternalServerError,
	CodeValidation:             http.StatusBadRequest,
	CodeInsufficientStock:      http.StatusUnprocessableEntity,
	CodeUnauthorized:           http.StatusUnauthorized,
	CodeForbidden:              http.StatusForbidden,
	CodeNotFound:               http.StatusNotFound,
	CodeConflict:               http.StatusConflict,
	CodeDuplicate:              http.StatusConflict,
	CodeConcurrentModification: http.StatusConflict,
	CodeIdempotency:            http.StatusConflict,
	CodeConsistency:            http.StatusConflict,
}

// conflictCodes are the codes IsConflict accepts.
var conflictCodes = []string{CodeConflict, CodeDuplicate, CodeConcurrentModification, CodeConsistency}

// AppError is the standard error type. Code and Message are what the client
// sees; Err stays in the logs.
type AppError struct {
	Code       string         `json:"code"`
	Message    string         `json:"message"`
	Details    map[string]any `json:"details,omitempty"`
	HTTPStatus int            `json:"-"`
	Err        error          `json:"-"`
}

// New builds an error whose status follows from code. Unknown codes map to 500.
func New(code, message string) *AppError {
	status, ok := statusByCode[code]
	if !ok {
		status = http.StatusInternalServerError
	}
	return &AppError{Code: code, Message: message, HTTPStatus: status}
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Code, e.Message, e.Err)
	}
	return e.Code + ": " + e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// WithDetail adds a key-value pair to error details
func (e *AppError) WithDetail(key string, value any) *AppError {
	if e.Details == nil {
		e.Details = make(map[string]any)
	}
	e.Details[key] = value
	return e
}

// WithDetails merges kv into the details.
func (e *AppError) WithDetails(kv map[string]any) *AppError {
	for k, v := range kv {
		e.WithDetail(k, v)
	}
	return e
}

// WithField records a per-field validation message under details.fields.
func (e *AppError) WithField(field, message string) *AppError {
	fields, _ := e.Details["fields"].(map[string]string)
	if fields == nil {
		fields = make(map[string]string)
		e.WithDetail("fields", fields)
	}
	fields[field] = message
	return e
}

func (e *AppError) WithCause(err error) *AppError {
	e.Err = err
	return e
}

// WithStatus overrides the status derived from the code.
func (e *AppError) WithStatus(status int) *AppError {
	e.HTTPStatus = status
	return e
}

// --- Constructors ---

func NewValidation(message string) *AppError {
	return New(CodeValidation, message)
}

// NewNotFound is also returned for cross-tenant lookups so existence never leaks.
func NewNotFound(entity string, id any) *AppError {
	return New(CodeNotFound, entity+" not found").
		WithDetails(map[string]any{"entity": entity, "id": id})
}

// NewInsufficientStock names the offending item with what was asked and what is on hand.
func NewInsufficientStock(inventoryID, name string, requested, available int64) *AppError {
	return New(CodeInsufficientStock, "Insufficient stock for "+name).
		WithDetails(map[string]any{
			"inventory_id": inventoryID,
			"name":         name,
			"requested":    requested,
			"available":    available,
		})
}

func NewConflict(message string) *AppError {
	return New(CodeConflict, message)
}

func NewDuplicate(entity, field, value string) *AppError {
	return New(CodeDuplicate, fmt.Sprintf("%s with this %s already exists", entity, field)).
		WithDetails(map[string]any{"entity": entity, "field": field, "value": value})
}

// NewConcurrentModification is returned when the store aborts a transaction
// because a concurrent writer got there first. Callers may retry after re-reading.
func NewConcurrentModification(entity string) *AppError {
	return New(CodeConcurrentModification, "Record was modified concurrently. Please retry.").
		WithDetail("entity", entity)
}

// NewConsistency reports a ledger/aggregate desync.
func NewConsistency(message string) *AppError {
	return New(CodeConsistency, message)
}

// NewInternal hides err from the client behind a generic message.
func NewInternal(err error) *AppError {
	return New(CodeInternal, "Internal server error").WithCause(err)
}

func NewUnauthorized(message string) *AppError {
	return New(CodeUnauthorized, message)
}

func NewForbidden(message string) *AppError {
	return New(CodeForbidden, message)
}

// NewIdempotencyConflict is returned when a key is reused for a different request.
func NewIdempotencyConflict(key string) *AppError {
	return New(CodeIdempotency, "Idempotency key was already used for a different request").
		WithDetail("idempotency_key", key)
}

// --- Inspection ---

// AsAppError extracts AppError from error chain
func AsAppError(err error) (*AppError, bool) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

func IsAppError(err error) bool {
	_, ok := AsAppError(err)
	return ok
}

// GetHTTPStatus returns the status for any error; plain errors are 500.
func GetHTTPStatus(err error) int {
	if appErr, ok := AsAppError(err); ok {
		return appErr.HTTPStatus
	}
	return http.StatusInternalServerError
}

func hasCode(err error, codes ...string) bool {
	appErr, ok := AsAppError(err)
	return ok && slices.Contains(codes, appErr.Code)
}

func IsNotFound(err error) bool          { return hasCode(err, CodeNotFound) }
func IsValidation(err error) bool        { return hasCode(err, CodeValidation) }
func IsInsufficientStock(err error) bool { return hasCode(err, CodeInsufficientStock) }
func IsConsistency(err error) bool       { return hasCode(err, CodeConsistency) }

// IsConflict reports conflict-class errors. A consistency failure is a conflict too.
func IsConflict(err error) bool { return hasCode(err, conflictCodes...) }
