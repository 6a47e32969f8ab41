package models

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gofiber/fiber/v2"
)

// Error codes carried in API error responses.
const (
	CodeNotFound     = "NOT_FOUND"
	CodeValidation   = "VALIDATION_ERROR"
	CodeUnauthorized = "UNAUTHORIZED"
	CodeForbidden    = "FORBIDDEN"
	CodeConflict     = "CONFLICT"
	CodeRateLimited  = "RATE_LIMITED"
	CodeInternal     = "INTERNAL_ERROR"
)

var statusByCode = map[string]int{
	CodeNotFound:     http.StatusNotFound,
	CodeValidation:   http.StatusBadRequest,
	CodeUnauthorized: http.StatusUnauthorized,
	CodeForbidden:    http.StatusForbidden,
	CodeConflict:     http.StatusConflict,
	CodeRateLimited:  http.StatusTooManyRequests,
	CodeInternal:     http.StatusInternalServerError,
}

// ErrorResponse is the body of every non-2xx API response. Tier and Limit
// are set only on a download quota refusal.
type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Details string `json:"details,omitempty"`
	Tier    string `json:"tier,omitempty"`
	Limit   int    `json:"limit,omitempty"`
}

// AppError is a failure with a client-facing message. Err, when set, is
// the underlying cause.
type AppError struct {
	Code    string
	Message string
	Err     error
}

func (e *AppError) Error() string {
	if e.Err == nil {
		return e.Message
	}
	return e.Message + ": " + e.Err.Error()
}

func (e *AppError) Unwrap() error { return e.Err }

// RateLimitError means a tier's daily download quota is spent. Clients use
// Tier and Limit to show the upgrade prompt.
type RateLimitError struct {
	Tier  Tier
	Limit int
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("daily download limit of %d reached for %s tier", e.Limit, e.Tier)
}

func appError(code, message string) *AppError {
	return &AppError{Code: code, Message: message}
}

func NewNotFoundError(resource string, id interface{}) *AppError {
	return appError(CodeNotFound, fmt.Sprintf("%s with ID %v not found", resource, id))
}

func NewValidationError(message string) *AppError   { return appError(CodeValidation, message) }
func NewUnauthorizedError(message string) *AppError { return appError(CodeUnauthorized, message) }
func NewForbiddenError(message string) *AppError    { return appError(CodeForbidden, message) }
func NewConflictError(message string) *AppError     { return appError(CodeConflict, message) }
func NewRateLimitedError(message string) *AppError  { return appError(CodeRateLimited, message) }

// NewInternalError hides err from the client behind a generic message.
func NewInternalError(err error) *AppError {
	return &AppError{Code: CodeInternal, Message: "Internal server error", Err: err}
}

// HTTPStatus maps an error to its response status. Anything that is not an
// AppError or RateLimitError is a 500.
func HTTPStatus(err error) int {
	var quota *RateLimitError
	if errors.As(err, &quota) {
		return http.StatusTooManyRequests
	}
	var appErr *AppError
	if errors.As(err, &appErr) {
		if status, ok := statusByCode[appErr.Code]; ok {
			return status
		}
	}
	return http.StatusInternalServerError
}

// Response builds the body for err.
func Response(err error) ErrorResponse {
	var quota *RateLimitError
	if errors.As(err, &quota) {
		return ErrorResponse{
			Error: quota.Error(),
			Code:  CodeRateLimited,
			Tier:  string(quota.Tier),
			Limit: quota.Limit,
		}
	}
	var appErr *AppError
	if !errors.As(err, &appErr) {
		return ErrorResponse{Error: err.Error()}
	}
	resp := ErrorResponse{Error: appErr.Message, Code: appErr.Code}
	// internal causes stay in logs
	if appErr.Err != nil && appErr.Code != CodeInternal {
		resp.Details = appErr.Err.Error()
	}
	return resp
}

// RespondWithError writes err as an ErrorResponse with status.
func RespondWithError(c *fiber.Ctx, status int, err error) error {
	return c.Status(status).JSON(Response(err))
}
