// Package exception provides custom error types and error handling utilities
// for the bulk operations service. It standardizes errors raised during
// pipeline processing so callers can classify them for retry and skip
// decisions.
package exception

import (
	"errors"
	"fmt"
	"runtime"
	"strings"
)

// ErrOptimisticLockingFailure is the sentinel error wrapped by errors raised
// when a versioned aggregate update affects no rows.
var ErrOptimisticLockingFailure = errors.New("optimistic locking failure")

// ErrFormat is the sentinel error wrapped by compound-field decode failures.
// A format error is always fatal to the decode of the field that raised it.
var ErrFormat = errors.New("invalid compound field format")

// BatchError is a custom error type for failures during bulk operation
// processing. It holds the module where the error occurred, a message, the
// wrapped original error, and flags indicating whether it is retryable or
// skippable.
type BatchError struct {
	// Module indicates the module where the error occurred (e.g., "codec", "orchestrator", "ledger").
	Module string
	// Message is a concise description of the error.
	Message string
	// OriginalErr is the wrapped original error.
	OriginalErr error
	// isRetryable indicates whether this error is retryable.
	isRetryable bool
	// isSkippable indicates whether this error is skippable.
	isSkippable bool
	// StackTrace is the stack trace at the time of the error (for debugging).
	StackTrace string
}

// NewBatchError creates a new BatchError instance.
// module: The module where the error occurred.
// message: The error message.
// originalErr: The original error to wrap.
// isSkippable: Whether this error is skippable.
// isRetryable: Whether this error is retryable.
func NewBatchError(module, message string, originalErr error, isSkippable, isRetryable bool) *BatchError {
	buf := make([]byte, 2048)
	n := runtime.Stack(buf, false)

	return &BatchError{
		Module:      module,
		Message:     message,
		OriginalErr: originalErr,
		isRetryable: isRetryable,
		isSkippable: isSkippable,
		StackTrace:  string(buf[:n]),
	}
}

// NewBatchErrorf creates a new BatchError instance using a format string.
// Optional flags and an error are extracted from the end of the variadic
// arguments in the order: [isSkippable bool], [isRetryable bool],
// [originalErr error]. The remaining arguments are used for fmt.Sprintf.
func NewBatchErrorf(module, format string, a ...interface{}) *BatchError {
	var originalErr error
	isRetryable := false
	isSkippable := false
	args := a

	if len(args) > 0 {
		if err, ok := args[len(args)-1].(error); ok {
			originalErr = err
			args = args[:len(args)-1]
		}
	}
	if len(args) > 0 {
		if b, ok := args[len(args)-1].(bool); ok {
			isRetryable = b
			args = args[:len(args)-1]
		}
	}
	if len(args) > 0 {
		if b, ok := args[len(args)-1].(bool); ok {
			isSkippable = b
			args = args[:len(args)-1]
		}
	}

	message := fmt.Sprintf(format, args...)

	buf := make([]byte, 2048)
	n := runtime.Stack(buf, false)

	return &BatchError{
		Module:      module,
		Message:     message,
		OriginalErr: originalErr,
		isRetryable: isRetryable,
		isSkippable: isSkippable,
		StackTrace:  string(buf[:n]),
	}
}

// NewOptimisticLockingFailureException creates a BatchError indicating an
// optimistic locking failure. This error is neither retryable nor skippable.
func NewOptimisticLockingFailureException(module, message string, originalErr error) *BatchError {
	var errToWrap error
	if originalErr != nil {
		errToWrap = errors.Join(ErrOptimisticLockingFailure, originalErr)
	} else {
		errToWrap = ErrOptimisticLockingFailure
	}
	return NewBatchError(module, message, errToWrap, false, false)
}

// NewFormatError creates a BatchError for a compound field whose encoded
// string splits into an unexpected number of tokens. It wraps ErrFormat and
// carries the actual vs expected token counts in its message.
func NewFormatError(module, fieldName string, actual, expected int) *BatchError {
	return NewBatchError(module,
		fmt.Sprintf("invalid number of tokens in %s field: %d, expected %d", fieldName, actual, expected),
		ErrFormat, false, false)
}

// Error implements the error interface.
func (e *BatchError) Error() string {
	if e.OriginalErr != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Module, e.Message, e.OriginalErr)
	}
	return fmt.Sprintf("[%s] %s", e.Module, e.Message)
}

// Unwrap returns the original error for errors.Unwrap.
func (e *BatchError) Unwrap() error {
	return e.OriginalErr
}

// IsRetryable returns whether this error is retryable.
func (e *BatchError) IsRetryable() bool {
	return e.isRetryable
}

// IsSkippable returns whether this error is skippable.
func (e *BatchError) IsSkippable() bool {
	return e.isSkippable
}

// IsBatchError determines if the given error is of type BatchError.
func IsBatchError(err error) bool {
	if err == nil {
		return false
	}
	var be *BatchError
	return errors.As(err, &be)
}

// IsTemporary determines if an error is temporary (e.g., network error,
// transient DB connection issue). If it is a BatchError, its IsRetryable
// flag takes precedence.
func IsTemporary(err error) bool {
	if err == nil {
		return false
	}
	var be *BatchError
	if errors.As(err, &be) {
		return be.IsRetryable()
	}
	errStr := err.Error()
	return strings.Contains(errStr, "timeout") ||
		strings.Contains(errStr, "connection refused") ||
		strings.Contains(errStr, "EOF")
}
