package dto

import (
	"net/http"

	"github.com/labelbridge/backend/internal/domain/shared"
)

// Transport error codes. Domain failures surface with their shared.DomainError code.
const (
	// ErrCodeInternal is used for internal server errors
	ErrCodeInternal = "INTERNAL_ERROR"
	// ErrCodeValidation is used when request binding or validation fails
	ErrCodeValidation = "VALIDATION_ERROR"
	// ErrCodeBadRequest is used for malformed requests
	ErrCodeBadRequest = "BAD_REQUEST"
	// ErrCodeUnauthorized is used when a bearer token is missing or invalid
	ErrCodeUnauthorized = "UNAUTHORIZED"
	// ErrCodeTokenExpired is used when the bearer token has expired
	ErrCodeTokenExpired = "TOKEN_EXPIRED"
	// ErrCodeRequestTooLarge is used when the body exceeds the configured limit
	ErrCodeRequestTooLarge = "REQUEST_TOO_LARGE"
)

// ErrorCodeHTTPStatus maps error codes to HTTP status codes
var ErrorCodeHTTPStatus = map[string]int{
	ErrCodeInternal:        http.StatusInternalServerError,
	ErrCodeValidation:      http.StatusBadRequest,
	ErrCodeBadRequest:      http.StatusBadRequest,
	ErrCodeUnauthorized:    http.StatusUnauthorized,
	ErrCodeTokenExpired:    http.StatusUnauthorized,
	ErrCodeRequestTooLarge: http.StatusRequestEntityTooLarge,

	shared.CodeNotFound:     http.StatusNotFound,
	shared.CodeInvalidInput: http.StatusBadRequest,
	shared.CodeInvalidState: http.StatusConflict,

	// Preparation failures are about the input artifact, not the request
	shared.CodeAttachmentMissing:       http.StatusUnprocessableEntity,
	shared.CodeTransformFailed:         http.StatusUnprocessableEntity,
	shared.CodeClassificationAmbiguous: http.StatusUnprocessableEntity,
	shared.CodeLabelFileMissing:        http.StatusGone,

	shared.CodeQuotaDenied:          http.StatusTooManyRequests,
	shared.CodeRenderingUnavailable: http.StatusServiceUnavailable,
	shared.CodePrinterUnavailable:   http.StatusServiceUnavailable,
	shared.CodeSubmissionFailed:     http.StatusBadGateway,
}

// GetHTTPStatus returns the HTTP status code for an error code
// Returns 500 Internal Server Error if the error code is not found
func GetHTTPStatus(code string) int {
	if status, ok := ErrorCodeHTTPStatus[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}
