package core

import (
	"errors"
	"fmt"
)

// Domain errors - centralized error definitions
var (
	ErrNotFound = errors.New("resource not found")

	// Write-back errors
	ErrTargetMissing = errors.New("write-back target missing")
	ErrStaleIndex    = errors.New("array entry moved since ingestion")
	ErrNotConfirmed  = errors.New("operation not confirmed")

	// Import errors
	ErrImportFormat = errors.New("unsupported import file format")
	ErrNoUsableRows = errors.New("import file contains no usable rows")
	ErrNoDepartment = errors.New("import requires a department")
)

// NewNotFoundError builds a not-found error with context
func NewNotFoundError(resource string, id string) error {
	return fmt.Errorf("%w: %s with id %s", ErrNotFound, resource, id)
}

// NewTargetMissingError reports a write-back target that no longer exists
func NewTargetMissingError(collection, document string, index *int) error {
	if index != nil {
		return fmt.Errorf("%w: %s/%s[%d]", ErrTargetMissing, collection, document, *index)
	}
	return fmt.Errorf("%w: %s/%s", ErrTargetMissing, collection, document)
}

// IsNotFoundError checks for not-found errors
func IsNotFoundError(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsWriteBackError reports whether err came from a write-back target problem
func IsWriteBackError(err error) bool {
	return errors.Is(err, ErrTargetMissing) || errors.Is(err, ErrStaleIndex)
}

// IsImportError reports whether err rejects an import up front
func IsImportError(err error) bool {
	return errors.Is(err, ErrImportFormat) ||
		errors.Is(err, ErrNoUsableRows) ||
		errors.Is(err, ErrNoDepartment)
}
