// Package errors provides structured application errors for the enrichment
// service. Every error carries a machine-readable code, a human message and a
// context map so failures can be diagnosed without a stack trace.
package errors

import (
	"fmt"
	"strings"
)

// ErrorType represents the type of error
type ErrorType string

const (
	// ErrTypeValidation represents malformed caller input
	ErrTypeValidation ErrorType = "validation"
	// ErrTypeProviderAPI represents a transport or remote-API failure after retries
	ErrTypeProviderAPI ErrorType = "provider_api"
	// ErrTypeEnrichment represents an orchestration-level failure
	ErrTypeEnrichment ErrorType = "enrichment"
	// ErrTypeRateLimit represents rate limit errors (reserved for throttling)
	ErrTypeRateLimit ErrorType = "rate_limit"
	// ErrTypeCache represents cache operation failures (reserved)
	ErrTypeCache ErrorType = "cache"
	// ErrTypeConfig represents configuration errors
	ErrTypeConfig ErrorType = "config"
	// ErrTypeTimeout represents timeout errors
	ErrTypeTimeout ErrorType = "timeout"
	// ErrTypeInternal represents unexpected internal errors
	ErrTypeInternal ErrorType = "internal"
)

// AppError represents a structured application error
type AppError struct {
	Type    ErrorType              `json:"type"`
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
	Cause   error                  `json:"-"`
	Context map[string]interface{} `json:"context,omitempty"`
}

// Error implements the error interface
func (e *AppError) Error() string {
	parts := []string{string(e.Type), e.Message}

	if e.Code != "" {
		parts = append(parts, fmt.Sprintf("code=%s", e.Code))
	}

	if e.Cause != nil {
		parts = append(parts, fmt.Sprintf("cause=%v", e.Cause))
	}

	if len(e.Context) > 0 {
		contextParts := make([]string, 0, len(e.Context))
		for k, v := range e.Context {
			contextParts = append(contextParts, fmt.Sprintf("%s=%v", k, v))
		}
		parts = append(parts, fmt.Sprintf("context={%s}", strings.Join(contextParts, ", ")))
	}

	return strings.Join(parts, ": ")
}

// Unwrap returns the underlying cause
func (e *AppError) Unwrap() error {
	return e.Cause
}

// WithContext adds context to the error
func (e *AppError) WithContext(key string, value interface{}) *AppError {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value
	return e
}

// ValidationError creates a new validation error
func ValidationError(msg string) *AppError {
	return &AppError{
		Type:    ErrTypeValidation,
		Code:    "VALIDATION_ERROR",
		Message: msg,
	}
}

// ProviderAPIError creates an error for a failed provider API call. The
// product name is attached as context so batch failures stay attributable.
func ProviderAPIError(provider, productName string, cause error) *AppError {
	return &AppError{
		Type:    ErrTypeProviderAPI,
		Code:    strings.ToUpper(provider) + "_API_ERROR",
		Message: fmt.Sprintf("%s API request failed", provider),
		Cause:   cause,
		Context: map[string]interface{}{
			"provider":     provider,
			"product_name": productName,
		},
	}
}

// EnrichmentError creates an orchestration-level error wrapping a provider or
// cache fault, tagged with the failing stage.
func EnrichmentError(productName, stage string, cause error) *AppError {
	return &AppError{
		Type:    ErrTypeEnrichment,
		Code:    "ENRICHMENT_ERROR",
		Message: fmt.Sprintf("failed to enrich product: %v", cause),
		Cause:   cause,
		Context: map[string]interface{}{
			"product_name": productName,
			"stage":        stage,
		},
	}
}

// RateLimitError creates a new rate limit error
func RateLimitError(msg string) *AppError {
	return &AppError{
		Type:    ErrTypeRateLimit,
		Code:    "RATE_LIMIT_EXCEEDED",
		Message: msg,
	}
}

// CacheError creates a new cache error
func CacheError(operation string, cause error) *AppError {
	return &AppError{
		Type:    ErrTypeCache,
		Code:    "CACHE_ERROR",
		Message: fmt.Sprintf("cache %s failed", operation),
		Cause:   cause,
		Context: map[string]interface{}{"operation": operation},
	}
}

// ConfigError creates a new configuration error
func ConfigError(msg string) *AppError {
	return &AppError{
		Type:    ErrTypeConfig,
		Code:    "CONFIGURATION_ERROR",
		Message: msg,
	}
}

// TimeoutError creates a new timeout error
func TimeoutError(operation string) *AppError {
	return &AppError{
		Type:    ErrTypeTimeout,
		Code:    "TIMEOUT",
		Message: fmt.Sprintf("timeout during %s", operation),
	}
}

// InternalError creates a new internal error
func InternalError(msg string, cause error) *AppError {
	return &AppError{
		Type:    ErrTypeInternal,
		Code:    "INTERNAL_ERROR",
		Message: msg,
		Cause:   cause,
	}
}

// IsType checks if an error is of a specific type
func IsType(err error, errType ErrorType) bool {
	if err == nil {
		return false
	}

	appErr, ok := err.(*AppError)
	if !ok {
		return false
	}

	return appErr.Type == errType
}

// GetType returns the error type if it's an AppError, otherwise ErrTypeInternal
func GetType(err error) ErrorType {
	if err == nil {
		return ""
	}

	appErr, ok := err.(*AppError)
	if !ok {
		return ErrTypeInternal
	}

	return appErr.Type
}
