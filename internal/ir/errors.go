package ir

import (
	"errors"
	"fmt"
)

// ErrorCode categorises mining errors.
type ErrorCode string

const (
	// ErrCodeInvalidInput indicates a malformed matrix or an out-of-range threshold.
	ErrCodeInvalidInput ErrorCode = "INVALID_INPUT"

	// ErrCodeMissingSupport indicates a support lookup failed during rule generation.
	ErrCodeMissingSupport ErrorCode = "MISSING_SUPPORT"
)

// InvalidInputError reports a precondition violation: a malformed matrix
// (non-boolean cell, zero transactions, duplicate keys) or a threshold
// outside its range. No partial result accompanies it.
type InvalidInputError struct {
	// Field names the offending input ("matrix", "min_support", ...).
	Field string

	// Message is a human-readable description.
	Message string
}

// Error implements the error interface.
func (e *InvalidInputError) Error() string {
	return fmt.Sprintf("%s: %s: %s", ErrCodeInvalidInput, e.Field, e.Message)
}

// Code returns ErrCodeInvalidInput.
func (e *InvalidInputError) Code() ErrorCode { return ErrCodeInvalidInput }

// NewInvalidInput creates an InvalidInputError with a formatted message.
func NewInvalidInput(field, format string, args ...any) *InvalidInputError {
	return &InvalidInputError{Field: field, Message: fmt.Sprintf(format, args...)}
}

// MissingSupportError reports that rule generation needed the support of
// an itemset absent from the input collection.
type MissingSupportError struct {
	// Missing is the itemset whose support was needed.
	Missing Itemset

	// Parent is the frequent itemset being expanded into rules.
	Parent Itemset
}

// Error implements the error interface.
func (e *MissingSupportError) Error() string {
	return fmt.Sprintf("%s: no support for %s (needed to expand %s)", ErrCodeMissingSupport, e.Missing, e.Parent)
}

// Code returns ErrCodeMissingSupport.
func (e *MissingSupportError) Code() ErrorCode { return ErrCodeMissingSupport }

// IsInvalidInput returns true if err is or wraps an InvalidInputError.
func IsInvalidInput(err error) bool {
	var ie *InvalidInputError
	return errors.As(err, &ie)
}

// IsMissingSupport returns true if err is or wraps a MissingSupportError.
func IsMissingSupport(err error) bool {
	var me *MissingSupportError
	return errors.As(err, &me)
}

// CodeOf extracts the ErrorCode from err, or "" when err carries none.
func CodeOf(err error) ErrorCode {
	var coded interface{ Code() ErrorCode }
	if errors.As(err, &coded) {
		return coded.Code()
	}
	return ""
}
