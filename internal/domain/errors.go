package domain

import "fmt"

// DomainError is an error with a stable machine-readable code.
type DomainError struct {
	Code    string
	Message string
	Err     error
}

// Error renders the code, message, and cause when present.
func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap exposes the cause to errors.Is and errors.As.
func (e *DomainError) Unwrap() error {
	return e.Err
}

// NewDomainError builds a DomainError without a cause.
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
		Err:     nil,
	}
}

// NewDomainErrorWithCause wraps err under a coded error.
func NewDomainErrorWithCause(code, message string, err error) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// Common domain error codes
const (
	ErrCodeValidation        = "VALIDATION_ERROR"
	ErrCodeNotFound          = "NOT_FOUND"
	ErrCodeUnauthorized      = "UNAUTHORIZED"
	ErrCodeInternalError     = "INTERNAL_ERROR"
	ErrCodeInvalidOperation  = "INVALID_OPERATION"
	ErrCodeUnsupportedFormat = "UNSUPPORTED_FORMAT"
	ErrCodeExtraction        = "EXTRACTION_ERROR"
	ErrCodeEmbeddingService  = "EMBEDDING_SERVICE_ERROR"
	ErrCodeGenerationService = "GENERATION_SERVICE_ERROR"
	ErrCodeIndex             = "INDEX_ERROR"
	ErrCodeMalformedOutput   = "MALFORMED_MODEL_OUTPUT"
)

// Validation errors
var (
	ErrInvalidDocumentType = NewDomainError(ErrCodeValidation, "invalid document type")
	ErrInvalidRAGStatus    = NewDomainError(ErrCodeValidation, "invalid rag status")
	ErrMissingDocumentID   = NewDomainError(ErrCodeValidation, "document ID is required")
	ErrEmptyQuestion       = NewDomainError(ErrCodeValidation, "question is required")
)

// Not found errors
var (
	ErrDocumentNotFound    = NewDomainError(ErrCodeNotFound, "document not found")
	ErrMetricNotFound      = NewDomainError(ErrCodeNotFound, "metric not found")
	ErrInteractionNotFound = NewDomainError(ErrCodeNotFound, "qa interaction not found")
	ErrAPIKeyNotFound      = NewDomainError(ErrCodeNotFound, "api key not found")
)

// Authorization errors
var (
	ErrAPIKeyRevoked = NewDomainError(ErrCodeUnauthorized, "api key has been revoked")
	ErrInvalidAPIKey = NewDomainError(ErrCodeUnauthorized, "invalid api key")
)

// Operation errors
var (
	ErrAlreadyValidated = NewDomainError(ErrCodeInvalidOperation, "qa interaction has already been validated")
)

// Pipeline errors
var (
	ErrUnsupportedFormat = NewDomainError(ErrCodeUnsupportedFormat, "only pdf and docx documents are supported")
)
