package shared

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// DomainError represents a domain-level error
type DomainError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

// Error implements the error interface
func (e *DomainError) Error() string {
	return e.Message
}

// Is reports whether target carries the same error code, so that
// errors.Is(err, ErrNotFound) matches any NOT_FOUND error regardless of message.
func (e *DomainError) Is(target error) bool {
	var other *DomainError
	if !errors.As(target, &other) {
		return false
	}
	return other.Code == e.Code
}

// WithDetails returns a copy of the error carrying the given details
func (e *DomainError) WithDetails(details any) *DomainError {
	return &DomainError{Code: e.Code, Message: e.Message, Details: details}
}

// NewDomainError creates a new domain error
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
	}
}

// Error codes
const (
	CodeNotFound                 = "NOT_FOUND"
	CodeInvalidQuantity          = "INVALID_QUANTITY"
	CodeInvalidStateTransition   = "INVALID_STATE_TRANSITION"
	CodeDuplicatePayment         = "DUPLICATE_PAYMENT"
	CodeStockUnavailable         = "STOCK_UNAVAILABLE"
	CodeUpstreamUnavailable      = "UPSTREAM_UNAVAILABLE"
	CodeInvalidInput             = "INVALID_INPUT"
	CodeAlreadyExists            = "ALREADY_EXISTS"
	CodeConcurrencyConflict      = "CONCURRENCY_CONFLICT"
	CodeUnauthorized             = "UNAUTHORIZED"
	CodeForbidden                = "FORBIDDEN"
	CodeEmptyCart                = "EMPTY_CART"
	CodeInvalidAmount            = "INVALID_AMOUNT"
	CodeInvalidCredentials       = "INVALID_CREDENTIALS"
	CodeUnsupportedPaymentMethod = "UNSUPPORTED_PAYMENT_METHOD"
)

// Common domain errors
var (
	ErrNotFound               = NewDomainError(CodeNotFound, "Resource not found")
	ErrInvalidQuantity        = NewDomainError(CodeInvalidQuantity, "Quantity must be at least 1")
	ErrInvalidStateTransition = NewDomainError(CodeInvalidStateTransition, "Transition not allowed from the current state")
	ErrDuplicatePayment       = NewDomainError(CodeDuplicatePayment, "Order already has a pending or completed payment")
	ErrStockUnavailable       = NewDomainError(CodeStockUnavailable, "Requested quantity is not available")
	ErrUpstreamUnavailable    = NewDomainError(CodeUpstreamUnavailable, "Upstream service did not respond usably")
	ErrInvalidInput           = NewDomainError(CodeInvalidInput, "Invalid input provided")
	ErrAlreadyExists          = NewDomainError(CodeAlreadyExists, "Resource already exists")
	ErrConcurrencyConflict    = NewDomainError(CodeConcurrencyConflict, "Resource was modified by another process")
	ErrUnauthorized           = NewDomainError(CodeUnauthorized, "Not authorized to perform this action")
	ErrForbidden              = NewDomainError(CodeForbidden, "Access to this resource is forbidden")
)

// NotFoundError returns a NOT_FOUND error naming the missing resource
func NotFoundError(resource string) *DomainError {
	return NewDomainError(CodeNotFound, fmt.Sprintf("%s not found", resource))
}

// TransitionError returns an INVALID_STATE_TRANSITION error for from -> to
func TransitionError(entity string, from, to fmt.Stringer) *DomainError {
	return NewDomainError(CodeInvalidStateTransition,
		fmt.Sprintf("%s cannot transition from %s to %s", entity, from, to))
}

// Shortage reasons
const (
	ShortageInsufficientStock = "INSUFFICIENT_STOCK"
	ShortageVariantInactive   = "VARIANT_INACTIVE"
)

// LineShortage describes one cart or order line that cannot be fulfilled
type LineShortage struct {
	VariantID uuid.UUID `json:"variant_id"`
	SKU       string    `json:"sku"`
	Requested int       `json:"requested"`
	Available int       `json:"available"`
	Reason    string    `json:"reason"`
}

// NewStockUnavailableError builds a STOCK_UNAVAILABLE error carrying every
// affected line, so callers can surface the problem per line.
func NewStockUnavailableError(lines ...LineShortage) *DomainError {
	msg := "Requested quantity is not available"
	if len(lines) == 1 {
		msg = fmt.Sprintf("Only %d unit(s) of %s available, %d requested",
			lines[0].Available, lines[0].SKU, lines[0].Requested)
		if lines[0].Reason == ShortageVariantInactive {
			msg = fmt.Sprintf("Variant %s is no longer available", lines[0].SKU)
		}
	} else if len(lines) > 1 {
		msg = fmt.Sprintf("%d lines cannot be fulfilled", len(lines))
	}
	return &DomainError{Code: CodeStockUnavailable, Message: msg, Details: lines}
}

// Shortages extracts line shortages from a STOCK_UNAVAILABLE error
func Shortages(err error) []LineShortage {
	var de *DomainError
	if !errors.As(err, &de) || de.Code != CodeStockUnavailable {
		return nil
	}
	lines, _ := de.Details.([]LineShortage)
	return lines
}
