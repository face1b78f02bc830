package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/verdantiq/esgpilot/internal/domain"
)

// SuccessResponse is the {"data": ...} envelope for 2xx responses.
type SuccessResponse struct {
	Data interface{} `json:"data"`
}

// ErrorResponse is the {"error": ...} envelope for failures.
type ErrorResponse struct {
	Error string `json:"error"`
}

// JSON writes data as JSON with the given status code.
func JSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		json.NewEncoder(w).Encode(data)
	}
}

// Success wraps data in the success envelope.
func Success(w http.ResponseWriter, status int, data interface{}) {
	JSON(w, status, SuccessResponse{Data: data})
}

// Error wraps message in the error envelope.
func Error(w http.ResponseWriter, status int, message string) {
	JSON(w, status, ErrorResponse{Error: message})
}

// DomainErrorToHTTP maps a domain error code to an HTTP status.
// Upstream provider failures surface as 502 so clients can retry;
// extraction problems are 422 because the document itself is at fault.
func DomainErrorToHTTP(err error) int {
	if err == nil {
		return http.StatusOK
	}

	var domainErr *domain.DomainError
	if !errors.As(err, &domainErr) {
		return http.StatusInternalServerError
	}

	switch domainErr.Code {
	case domain.ErrCodeValidation, domain.ErrCodeUnsupportedFormat, domain.ErrCodeInvalidOperation:
		return http.StatusBadRequest
	case domain.ErrCodeNotFound:
		return http.StatusNotFound
	case domain.ErrCodeUnauthorized:
		return http.StatusUnauthorized
	case domain.ErrCodeExtraction, domain.ErrCodeMalformedOutput:
		return http.StatusUnprocessableEntity
	case domain.ErrCodeEmbeddingService, domain.ErrCodeGenerationService, domain.ErrCodeIndex:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// HandleError writes err with the status DomainErrorToHTTP assigns.
func HandleError(w http.ResponseWriter, err error) {
	Error(w, DomainErrorToHTTP(err), err.Error())
}
