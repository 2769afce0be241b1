package utils

import (
	"fmt"
	"net/http"
)

type ErrorCode string

const (
	ErrorCodeValidationError   ErrorCode = "VALIDATION_ERROR"
	ErrorCodeProbeFailed       ErrorCode = "PROBE_FAILED"
	ErrorCodeProcessFailed     ErrorCode = "PROCESS_FAILED"
	ErrorCodeArtifactNotFound  ErrorCode = "ARTIFACT_NOT_FOUND"
	ErrorCodeRateLimitExceeded ErrorCode = "RATE_LIMIT_EXCEEDED"
	ErrorCodeInternalError     ErrorCode = "INTERNAL_ERROR"
)

type AppError struct {
	Code       ErrorCode              `json:"code"`
	Message    string                 `json:"message"`
	Details    map[string]interface{} `json:"details,omitempty"`
	StatusCode int                    `json:"-"`
}

func (e *AppError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

func NewError(code ErrorCode, message string, statusCode int) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		StatusCode: statusCode,
		Details:    make(map[string]interface{}),
	}
}

func NewErrorWithDetails(code ErrorCode, message string, statusCode int, details map[string]interface{}) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		StatusCode: statusCode,
		Details:    details,
	}
}

// Common error constructors
func NewValidationError(message string, details map[string]interface{}) *AppError {
	return NewErrorWithDetails(ErrorCodeValidationError, message, http.StatusBadRequest, details)
}

// NewProbeError returns the client-facing shape for a failed metadata probe.
// The underlying error is logged at the call site, never sent to the client.
func NewProbeError(err error) *AppError {
	return NewError(
		ErrorCodeProbeFailed,
		"Failed to fetch video information. Make sure the URL is valid and the video is available",
		http.StatusInternalServerError,
	)
}

func NewProcessError(err error) *AppError {
	return NewError(
		ErrorCodeProcessFailed,
		"Failed to process the video",
		http.StatusInternalServerError,
	)
}

func NewArtifactNotFoundError(token string) *AppError {
	return NewError(
		ErrorCodeArtifactNotFound,
		fmt.Sprintf("File %s not found or already deleted", token),
		http.StatusNotFound,
	)
}

func NewRateLimitError() *AppError {
	return NewError(
		ErrorCodeRateLimitExceeded,
		"Too many requests",
		http.StatusTooManyRequests,
	)
}

func NewInternalError() *AppError {
	return NewError(
		ErrorCodeInternalError,
		"An unexpected error occurred",
		http.StatusInternalServerError,
	)
}
