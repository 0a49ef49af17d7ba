package errors

import (
	stderrors "errors"
	"fmt"

	"serialvault/internal/envelope"
)

// NewValidationError creates a validation error with field context
func NewValidationError(field, value, message string) *AppError {
	return New(ErrCodeValidationFailed, message).
		WithContext("field", field).
		WithContext("value", value).
		WithUserMessage(fmt.Sprintf("Invalid %s: %s", field, message))
}

// NewConfigError creates a configuration error
func NewConfigError(key, message string) *AppError {
	return New(ErrCodeInvalidConfig, message).
		WithContext("config_key", key).
		WithUserMessage("Configuration error")
}

// NewDatabaseError creates a database error with operation context
func NewDatabaseError(operation string, err error) *AppError {
	return Wrap(err, ErrCodeDatabaseQuery, fmt.Sprintf("database %s failed", operation)).
		WithContext("operation", operation).
		WithUserMessage("Database operation failed")
}

// NewConnectionError creates a database connection error
func NewConnectionError(driver string, err error) *AppError {
	return Wrap(err, ErrCodeDatabaseConnection, "failed to connect to database").
		WithContext("driver", driver).
		WithUserMessage("Could not reach the database")
}

// NewCryptoError classifies an envelope failure. Missing or invalid cipher
// settings become MISSING_CONFIG / INVALID_CONFIG so callers can tell a bad
// deployment from a bad value. Envelope errors are never retryable.
func NewCryptoError(operation string, err error) *AppError {
	code := ErrCodeEncryption
	if operation == "decrypt" {
		code = ErrCodeDecryption
	}

	userMessage := fmt.Sprintf("Could not %s value", operation)
	switch {
	case stderrors.Is(err, envelope.ErrMissingSecret):
		code = ErrCodeMissingConfig
		userMessage = "Encryption key is not configured"
	case envelope.IsConfigError(err):
		code = ErrCodeInvalidConfig
		userMessage = "Encryption settings are invalid"
	}

	return Wrap(err, code, fmt.Sprintf("%s failed", operation)).
		WithContext("operation", operation).
		WithUserMessage(userMessage)
}

// NewNotFoundError creates a not found error with resource context
func NewNotFoundError(resource, identifier string) *AppError {
	return New(ErrCodeNotFound, fmt.Sprintf("%s not found", resource)).
		WithContext("resource", resource).
		WithContext("identifier", identifier).
		WithUserMessage(fmt.Sprintf("%s not found", resource))
}

// Exit codes used by the command line tools
const (
	ExitOK          = 0
	ExitFailure     = 1
	ExitUsage       = 2
	ExitConfig      = 3
	ExitCrypto      = 4
	ExitUnavailable = 5
	ExitNotFound    = 6
)

// ExitCode maps error codes to process exit codes
func ExitCode(err error) int {
	if err == nil {
		return ExitOK
	}

	switch GetCode(err) {
	case ErrCodeInvalidInput, ErrCodeValidationFailed:
		return ExitUsage
	case ErrCodeInvalidConfig, ErrCodeMissingConfig:
		return ExitConfig
	case ErrCodeEncryption, ErrCodeDecryption:
		return ExitCrypto
	case ErrCodeDatabaseConnection, ErrCodeDatabaseQuery, ErrCodeDatabaseMigration:
		return ExitUnavailable
	case ErrCodeNotFound:
		return ExitNotFound
	default:
		return ExitFailure
	}
}
