package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/labelbridge/backend/internal/interfaces/http/dto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetupValidator(t *testing.T) {
	SetupValidator()

	v, ok := binding.Validator.Engine().(*validator.Validate)
	assert.True(t, ok)
	assert.NotNil(t, v)
}

type validationTestRequest struct {
	RecordIDs []string `json:"record_ids" binding:"required,min=1,max=2"`
	Printer   string   `json:"printer" binding:"max=5"`
	Width     int      `json:"width" binding:"omitempty,min=16"`
}

func newValidationRouter() *gin.Engine {
	SetupValidator()
	router := gin.New()
	router.Use(RequestID())
	router.POST("/test", func(c *gin.Context) {
		var req validationTestRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			HandleValidationError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"success": true})
	})
	return router
}

func postValidation(t *testing.T, body string) (*httptest.ResponseRecorder, dto.Response) {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/test", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	newValidationRouter().ServeHTTP(rec, req)

	var resp dto.Response
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return rec, resp
}

func TestHandleValidationError_FieldDetails(t *testing.T) {
	rec, resp := postValidation(t, `{"record_ids": ["a", "b", "c"], "printer": "too-long-name", "width": 3}`)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	require.NotNil(t, resp.Error)
	assert.Equal(t, dto.ErrCodeValidation, resp.Error.Code)
	assert.Equal(t, "Request validation failed", resp.Error.Message)
	assert.NotEmpty(t, resp.Error.RequestID)
	assert.ElementsMatch(t, []dto.ValidationDetail{
		{Field: "record_ids", Message: "Must contain at most 2 items"},
		{Field: "printer", Message: "Must be at most 5 characters"},
		{Field: "width", Message: "Must be at least 16"},
	}, resp.Error.Details)
}

func TestHandleValidationError_Required(t *testing.T) {
	_, resp := postValidation(t, `{}`)

	require.Len(t, resp.Error.Details, 1)
	assert.Equal(t, dto.ValidationDetail{Field: "record_ids", Message: "This field is required"}, resp.Error.Details[0])
}

func TestHandleValidationError_MalformedJSON(t *testing.T) {
	rec, resp := postValidation(t, `{"record_ids": `)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, dto.ErrCodeValidation, resp.Error.Code)
	assert.True(t, strings.HasPrefix(resp.Error.Message, "Malformed request"))
	assert.Empty(t, resp.Error.Details)
}

func TestHandleValidationError_ValidInput(t *testing.T) {
	rec, resp := postValidation(t, `{"record_ids": ["a"], "printer": "Zebra"}`)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, resp.Success)
}
