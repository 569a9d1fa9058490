package shared

import "errors"

// DomainError represents a domain-level error
type DomainError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Cause   error  `json:"-"`
}

// Error implements the error interface
func (e *DomainError) Error() string {
	if e.Cause != nil {
		return e.Message + ": " + e.Cause.Error()
	}
	return e.Message
}

// Unwrap returns the underlying cause
func (e *DomainError) Unwrap() error {
	return e.Cause
}

// Is matches domain errors by code so sentinel values work with errors.Is
func (e *DomainError) Is(target error) bool {
	var other *DomainError
	if errors.As(target, &other) {
		return other.Code == e.Code
	}
	return false
}

// NewDomainError creates a new domain error
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
	}
}

// WrapDomainError creates a domain error carrying the underlying cause
func WrapDomainError(code, message string, cause error) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

// Error codes shared across the label and printing contexts
const (
	CodeNotFound                = "NOT_FOUND"
	CodeInvalidInput            = "INVALID_INPUT"
	CodeInvalidState            = "INVALID_STATE"
	CodeClassificationAmbiguous = "CLASSIFICATION_AMBIGUOUS"
	CodeRenderingUnavailable    = "RENDERING_UNAVAILABLE"
	CodeTransformFailed         = "TRANSFORM_FAILED"
	CodePrinterUnavailable      = "PRINTER_UNAVAILABLE"
	CodeSubmissionFailed        = "SUBMISSION_FAILED"
	CodeQuotaDenied             = "QUOTA_DENIED"
	CodeLabelFileMissing        = "LABEL_FILE_MISSING"
	CodeAttachmentMissing       = "ATTACHMENT_MISSING"
)

// Common domain errors
var (
	ErrNotFound             = NewDomainError(CodeNotFound, "Resource not found")
	ErrInvalidInput         = NewDomainError(CodeInvalidInput, "Invalid input provided")
	ErrInvalidState         = NewDomainError(CodeInvalidState, "Operation not allowed in current state")
	ErrRenderingUnavailable = NewDomainError(CodeRenderingUnavailable, "No rendering backend could rasterize the document")
	ErrTransformFailed      = NewDomainError(CodeTransformFailed, "Label transform failed")
	ErrPrinterUnavailable   = NewDomainError(CodePrinterUnavailable, "Printer is not available")
	ErrSubmissionFailed     = NewDomainError(CodeSubmissionFailed, "Print submission failed")
	ErrQuotaDenied          = NewDomainError(CodeQuotaDenied, "Print quota denied")
)

// HasCode reports whether err is a DomainError with the given code
func HasCode(err error, code string) bool {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Code == code
	}
	return false
}
