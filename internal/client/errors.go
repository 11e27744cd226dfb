package client

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/boutique/backend/internal/domain/shared"
)

// APIError is an error envelope returned by the server
type APIError struct {
	Status    int             `json:"-"`
	Code      string          `json:"code"`
	Message   string          `json:"message"`
	Details   json.RawMessage `json:"details,omitempty"`
	RequestID string          `json:"request_id,omitempty"`
}

func (e *APIError) Error() string {
	if e.RequestID != "" {
		return fmt.Sprintf("%s: %s (request %s)", e.Code, e.Message, e.RequestID)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Is matches domain sentinels by code, so errors.Is(err, shared.ErrNotFound)
// holds for a NOT_FOUND envelope
func (e *APIError) Is(target error) bool {
	var domainErr *shared.DomainError
	if errors.As(target, &domainErr) {
		return domainErr.Code == e.Code
	}
	var apiErr *APIError
	if errors.As(target, &apiErr) {
		return apiErr.Code == e.Code
	}
	return false
}

// Shortages decodes the per-line details of a STOCK_UNAVAILABLE error
func (e *APIError) Shortages() ([]shared.LineShortage, error) {
	if e.Code != shared.CodeStockUnavailable || len(e.Details) == 0 {
		return nil, nil
	}
	var lines []shared.LineShortage
	if err := json.Unmarshal(e.Details, &lines); err != nil {
		return nil, fmt.Errorf("decoding shortage details: %w", err)
	}
	return lines, nil
}
