package dto

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/labelbridge/backend/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetHTTPStatus(t *testing.T) {
	tests := []struct {
		code     string
		expected int
	}{
		{ErrCodeInternal, http.StatusInternalServerError},
		{ErrCodeValidation, http.StatusBadRequest},
		{ErrCodeUnauthorized, http.StatusUnauthorized},
		{ErrCodeTokenExpired, http.StatusUnauthorized},
		{ErrCodeRequestTooLarge, http.StatusRequestEntityTooLarge},
		{shared.CodeNotFound, http.StatusNotFound},
		{shared.CodeInvalidInput, http.StatusBadRequest},
		{shared.CodeInvalidState, http.StatusConflict},
		{shared.CodeAttachmentMissing, http.StatusUnprocessableEntity},
		{shared.CodeTransformFailed, http.StatusUnprocessableEntity},
		{shared.CodeLabelFileMissing, http.StatusGone},
		{shared.CodeQuotaDenied, http.StatusTooManyRequests},
		{shared.CodeRenderingUnavailable, http.StatusServiceUnavailable},
		{shared.CodePrinterUnavailable, http.StatusServiceUnavailable},
		{shared.CodeSubmissionFailed, http.StatusBadGateway},
		// Unknown code should return 500
		{"UNKNOWN_CODE", http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			assert.Equal(t, tt.expected, GetHTTPStatus(tt.code))
		})
	}
}

func TestNewErrorResponseWithRequestID(t *testing.T) {
	resp := NewErrorResponseWithRequestID(shared.CodeNotFound, "Label not found", "req-123")

	assert.False(t, resp.Success)
	require.NotNil(t, resp.Error)
	assert.Equal(t, shared.CodeNotFound, resp.Error.Code)
	assert.Equal(t, "Label not found", resp.Error.Message)
	assert.Equal(t, "req-123", resp.Error.RequestID)
	assert.Nil(t, resp.Data)
}

func TestErrorResponse_JSON(t *testing.T) {
	data, err := json.Marshal(NewErrorResponseWithRequestID(shared.CodeQuotaDenied, "monthly limit reached", "req-9"))
	require.NoError(t, err)

	assert.JSONEq(t, `{
		"success": false,
		"error": {"code": "QUOTA_DENIED", "message": "monthly limit reached", "request_id": "req-9"}
	}`, string(data))
}

func TestErrorResponse_OmitsEmptyRequestID(t *testing.T) {
	data, err := json.Marshal(NewErrorResponse(ErrCodeBadRequest, "bad"))
	require.NoError(t, err)
	assert.NotContains(t, string(data), "request_id")
}

func TestNewValidationErrorResponse(t *testing.T) {
	details := []ValidationDetail{{Field: "record_ids", Message: "This field is required"}}
	resp := NewValidationErrorResponse("Request validation failed", "req-1", details)

	assert.False(t, resp.Success)
	assert.Equal(t, ErrCodeValidation, resp.Error.Code)
	assert.Equal(t, details, resp.Error.Details)
	assert.Equal(t, http.StatusBadRequest, GetHTTPStatus(resp.Error.Code))
}

func TestNewSuccessResponse(t *testing.T) {
	data, err := json.Marshal(NewSuccessResponse(map[string]int{"count": 2}))
	require.NoError(t, err)
	assert.JSONEq(t, `{"success": true, "data": {"count": 2}}`, string(data))
}
