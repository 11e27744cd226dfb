package dto

import (
	"net/http"

	"github.com/boutique/backend/internal/domain/shared"
)

// Codes produced by the HTTP layer itself. Domain errors keep their own
// codes (shared.Code*) in the envelope.
const (
	ErrCodeValidation       = "VALIDATION_ERROR"
	ErrCodeBadRequest       = "BAD_REQUEST"
	ErrCodeInternal         = "INTERNAL_ERROR"
	ErrCodeTokenExpired     = "TOKEN_EXPIRED"
	ErrCodeTokenInvalid     = "TOKEN_INVALID"
	ErrCodeRateLimited      = "RATE_LIMITED"
	ErrCodePayloadTooLarge  = "PAYLOAD_TOO_LARGE"
	ErrCodeInvalidSignature = "INVALID_SIGNATURE"
	ErrCodeFileTooLarge     = "FILE_TOO_LARGE"
	ErrCodeUnsupportedFile  = "UNSUPPORTED_FILE_TYPE"
)

// ErrorCodeHTTPStatus maps envelope codes to HTTP status codes
var ErrorCodeHTTPStatus = map[string]int{
	shared.CodeNotFound:                 http.StatusNotFound,
	shared.CodeInvalidQuantity:          http.StatusUnprocessableEntity,
	shared.CodeInvalidStateTransition:   http.StatusUnprocessableEntity,
	shared.CodeDuplicatePayment:         http.StatusConflict,
	shared.CodeStockUnavailable:         http.StatusUnprocessableEntity,
	shared.CodeUpstreamUnavailable:      http.StatusServiceUnavailable,
	shared.CodeInvalidInput:             http.StatusBadRequest,
	shared.CodeAlreadyExists:            http.StatusConflict,
	shared.CodeConcurrencyConflict:      http.StatusConflict,
	shared.CodeUnauthorized:             http.StatusUnauthorized,
	shared.CodeForbidden:                http.StatusForbidden,
	shared.CodeEmptyCart:                http.StatusUnprocessableEntity,
	shared.CodeInvalidAmount:            http.StatusUnprocessableEntity,
	shared.CodeInvalidCredentials:       http.StatusUnauthorized,
	shared.CodeUnsupportedPaymentMethod: http.StatusUnprocessableEntity,

	ErrCodeValidation:       http.StatusBadRequest,
	ErrCodeBadRequest:       http.StatusBadRequest,
	ErrCodeInternal:         http.StatusInternalServerError,
	ErrCodeTokenExpired:     http.StatusUnauthorized,
	ErrCodeTokenInvalid:     http.StatusUnauthorized,
	ErrCodeRateLimited:      http.StatusTooManyRequests,
	ErrCodePayloadTooLarge:  http.StatusRequestEntityTooLarge,
	ErrCodeInvalidSignature: http.StatusBadRequest,
	ErrCodeFileTooLarge:     http.StatusRequestEntityTooLarge,
	ErrCodeUnsupportedFile:  http.StatusUnsupportedMediaType,
}

// GetHTTPStatus returns the status for code, 500 when unknown
func GetHTTPStatus(code string) int {
	if status, ok := ErrorCodeHTTPStatus[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}
