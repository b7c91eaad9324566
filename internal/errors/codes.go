// Package errors provides structured error handling for searchsync.
//
// Error codes follow the pattern ERR_XXX_DESCRIPTION where:
//   - 1XX: Configuration errors
//   - 2XX: Database errors (SQLite, queue)
//   - 3XX: Index errors (bleve, Meilisearch)
//   - 4XX: Validation errors
//   - 5XX: Internal errors
package errors

// Category defines error categories for classification.
type Category string

const (
	// CategoryConfig indicates configuration-related errors.
	CategoryConfig Category = "CONFIG"
	// CategoryDatabase indicates SQLite and queue errors.
	CategoryDatabase Category = "DATABASE"
	// CategoryIndex indicates search backend errors.
	CategoryIndex Category = "INDEX"
	// CategoryValidation indicates input validation errors.
	CategoryValidation Category = "VALIDATION"
	// CategoryInternal indicates unexpected internal errors.
	CategoryInternal Category = "INTERNAL"
)

// Severity defines error severity levels.
type Severity string

const (
	// SeverityFatal indicates unrecoverable error, must abort.
	SeverityFatal Severity = "FATAL"
	// SeverityError indicates operation failed but can continue.
	SeverityError Severity = "ERROR"
	// SeverityWarning indicates degraded operation, continuing.
	SeverityWarning Severity = "WARNING"
)

// Error codes organized by category.
const (
	// Config errors (100-199)
	ErrCodeConfigNotFound = "ERR_101_CONFIG_NOT_FOUND"
	ErrCodeConfigInvalid  = "ERR_102_CONFIG_INVALID"

	// Database errors (200-299)
	ErrCodeDatabaseOpen    = "ERR_201_DATABASE_OPEN"
	ErrCodeDatabaseMigrate = "ERR_202_DATABASE_MIGRATE"
	ErrCodeDatabaseLocked  = "ERR_203_DATABASE_LOCKED"
	ErrCodeQueueDrain      = "ERR_204_QUEUE_DRAIN"

	// Index errors (300-399)
	ErrCodeIndexOpen        = "ERR_301_INDEX_OPEN"
	ErrCodeIndexUnavailable = "ERR_302_INDEX_UNAVAILABLE"
	ErrCodeIndexWrite       = "ERR_303_INDEX_WRITE"
	ErrCodeIndexCorrupt     = "ERR_304_INDEX_CORRUPT"

	// Validation errors (400-499)
	ErrCodeInvalidInput = "ERR_401_INVALID_INPUT"
	ErrCodeUnknownKind  = "ERR_402_UNKNOWN_KIND"

	// Internal errors (500-599)
	ErrCodeInternal        = "ERR_501_INTERNAL"
	ErrCodeLockUnavailable = "ERR_502_LOCK_UNAVAILABLE"
)

// categoryFromCode extracts category from error code.
func categoryFromCode(code string) Category {
	if len(code) < 7 {
		return CategoryInternal
	}

	switch code[4] {
	case '1':
		return CategoryConfig
	case '2':
		return CategoryDatabase
	case '3':
		return CategoryIndex
	case '4':
		return CategoryValidation
	default:
		return CategoryInternal
	}
}

// severityFromCode determines severity based on error code.
func severityFromCode(code string) Severity {
	switch code {
	case ErrCodeIndexCorrupt:
		return SeverityFatal
	}
	if isRetryableCode(code) {
		return SeverityWarning
	}
	return SeverityError
}

// isRetryableCode reports whether the next drain cycle is likely to
// succeed where this one failed. The queue keeps the work, so a
// retryable failure costs only time.
func isRetryableCode(code string) bool {
	switch code {
	case ErrCodeIndexUnavailable, ErrCodeDatabaseLocked, ErrCodeLockUnavailable:
		return true
	default:
		return false
	}
}
