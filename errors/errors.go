package errors

import "fmt"

// Application error types organized by category for better error handling

type ErrorType string

// Domain/Business Logic Errors - errors related to request validation
const (
	ValidationError ErrorType = "VALIDATION_ERROR"
)

// Infrastructure Errors - errors related to external systems and services
const (
	ExternalAPIError ErrorType = "EXTERNAL_API_ERROR"
	GeoLookupError   ErrorType = "GEO_LOOKUP_ERROR"
	PersistenceError ErrorType = "PERSISTENCE_ERROR"
)

// System/Configuration Errors - errors related to system setup and configuration
const (
	ConfigurationError ErrorType = "CONFIGURATION_ERROR"
)

type AppError struct {
	Type    ErrorType
	Message string
	Cause   error
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Type, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

func New(errorType ErrorType, message string) *AppError {
	return &AppError{
		Type:    errorType,
		Message: message,
	}
}

func Wrap(errorType ErrorType, message string, cause error) *AppError {
	return &AppError{
		Type:    errorType,
		Message: message,
		Cause:   cause,
	}
}

func NewValidationError(message string) *AppError {
	return New(ValidationError, message)
}

// Infrastructure Error Constructors
func NewExternalAPIError(message string, cause error) *AppError {
	return Wrap(ExternalAPIError, message, cause)
}

// NewGeoLookupError marks the one upstream failure that is propagated to the
// HTTP layer: every configured geolocation provider was tried and failed.
func NewGeoLookupError(message string, cause error) *AppError {
	return Wrap(GeoLookupError, message, cause)
}

func NewPersistenceError(message string, cause error) *AppError {
	return Wrap(PersistenceError, message, cause)
}

// System/Configuration Error Constructors
func NewConfigurationError(message string, cause error) *AppError {
	return Wrap(ConfigurationError, message, cause)
}
