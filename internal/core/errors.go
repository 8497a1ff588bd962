package core

import (
	"errors"
	"fmt"
)

// ErrorCode identifies a rejected precondition. Every code maps 1:1 to a
// machine-checkable value in the API error envelope; nothing is reported as
// a bare string.
type ErrorCode string

const (
	ErrInvalidQuantity     ErrorCode = "INVALID_QUANTITY"
	ErrInvalidPayload      ErrorCode = "INVALID_PAYLOAD"
	ErrMissingProduct      ErrorCode = "MISSING_PRODUCT"
	ErrLocationRequired    ErrorCode = "LOCATION_REQUIRED"
	ErrLocationNotFound    ErrorCode = "LOCATION_NOT_FOUND"
	ErrInsufficientStock   ErrorCode = "INSUFFICIENT_STOCK"
	ErrConcurrencyConflict ErrorCode = "CONCURRENCY_CONFLICT"
	ErrAlreadyOpen         ErrorCode = "ALREADY_OPEN"
	ErrNoStock             ErrorCode = "NO_STOCK"
	ErrOpenNotTracked      ErrorCode = "OPEN_NOT_TRACKED"
	ErrBatchDepleted       ErrorCode = "BATCH_DEPLETED"
	ErrDuplicateName       ErrorCode = "DUPLICATE_NAME"
	ErrLocationInUse       ErrorCode = "LOCATION_IN_USE"
)

// DomainError is a rejected domain precondition. It is recovered at the
// operation boundary and rendered as a structured result, never as an
// unchecked fault. Meta carries machine-readable context such as
// available/requested counts.
type DomainError struct {
	Code    ErrorCode
	Message string
	Meta    map[string]string
}

func (e *DomainError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Errf builds a DomainError with a formatted message.
func Errf(code ErrorCode, format string, args ...any) *DomainError {
	return &DomainError{Code: code, Message: fmt.Sprintf(format, args...)}
}

// WithMeta attaches one metadata key, returning the error for chaining.
func (e *DomainError) WithMeta(key, value string) *DomainError {
	if e.Meta == nil {
		e.Meta = make(map[string]string, 2)
	}
	e.Meta[key] = value
	return e
}

// AsDomain unwraps err into a DomainError if one is anywhere in the chain.
func AsDomain(err error) (*DomainError, bool) {
	var de *DomainError
	if errors.As(err, &de) {
		return de, true
	}
	return nil, false
}
