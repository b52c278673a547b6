package api

import (
	"errors"
	"net/http"

	"costledger/pkg/costledger"
)

// ErrorResponse is the body returned for every failed request.
type ErrorResponse struct {
	Code      int    `json:"code"`
	Message   string `json:"message"`
	ErrorCode string `json:"error_code,omitempty"`
}

// writeErrorResponse writes an error response. For structured errors the
// HTTP status is derived from the business error code rather than the
// caller's fallback status.
func writeErrorResponse(w http.ResponseWriter, httpStatus int, err error) {
	response := ErrorResponse{
		Code:    httpStatus,
		Message: err.Error(),
	}

	var clErr *costledger.Error
	if errors.As(err, &clErr) {
		response.ErrorCode = string(clErr.Code)
		httpStatus = mapErrorCodeToHTTPStatus(clErr.Code)
		response.Code = httpStatus
	}

	if recorder, ok := w.(interface{ SetErrorMessage(string) }); ok {
		recorder.SetErrorMessage(response.Message)
	}
	writeJSON(w, httpStatus, response)
}

// mapErrorCodeToHTTPStatus maps business error codes to HTTP status codes.
func mapErrorCodeToHTTPStatus(code costledger.ErrorCode) int {
	switch code {
	case costledger.ErrCodeInvalidInput, costledger.ErrCodeValidation:
		return http.StatusBadRequest
	case costledger.ErrCodeSchema:
		return http.StatusUnprocessableEntity
	case costledger.ErrCodeNotFound:
		return http.StatusNotFound
	case costledger.ErrCodeUnsupported:
		return http.StatusNotImplemented
	case costledger.ErrCodeDatabase, costledger.ErrCodeInternal:
		return http.StatusInternalServerError
	default:
		return http.StatusInternalServerError
	}
}
