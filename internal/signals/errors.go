package signals

import (
	"errors"
	"fmt"
)

// InsufficientSignalError indicates the user has not rated enough books to
// personalize recommendations. User-correctable: rate more books.
type InsufficientSignalError struct {
	Count   int
	Minimum int
}

func (e *InsufficientSignalError) Error() string {
	return fmt.Sprintf("insufficient rating signal: %d rated books, need at least %d", e.Count, e.Minimum)
}

// IsInsufficientSignal reports whether err is (or wraps) an InsufficientSignalError.
func IsInsufficientSignal(err error) bool {
	var target *InsufficientSignalError
	return errors.As(err, &target)
}

// StoreError wraps a library store failure during aggregation.
type StoreError struct {
	Op    string
	Cause error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("library store failed during %s: %v", e.Op, e.Cause)
}

func (e *StoreError) Unwrap() error {
	return e.Cause
}
