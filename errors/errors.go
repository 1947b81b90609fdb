// Package errors defines the sentinel errors shared by the store, the
// retrieval engine and the graph explorer. Callers wrap them with %w and the
// HTTP layer maps them onto status codes with errors.Is.
package errors

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound means a letter or other lookup target does not exist.
	ErrNotFound = errors.New("resource not found")

	// ErrSeedNotFound means an island or timeline seed matched no graph
	// node, not even a dangling reference. It is also an ErrNotFound.
	ErrSeedNotFound = fmt.Errorf("seed identifier not in graph: %w", ErrNotFound)

	// ErrInvalidInput covers malformed filters, dates, modes and limits.
	ErrInvalidInput = errors.New("invalid input")

	// ErrServiceUnavailable means every retrieval stage failed.
	ErrServiceUnavailable = errors.New("service unavailable")

	// ErrDatabaseOperation wraps failures of the document store.
	ErrDatabaseOperation = errors.New("database operation failed")

	// ErrEmbedding means the embedding API gave no usable vector. The
	// provider absorbs it by falling back to synthetic vectors.
	ErrEmbedding = errors.New("embedding request failed")
)

// WrapError prefixes err with message. A nil err stays nil.
func WrapError(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// InvalidInputf builds an ErrInvalidInput carrying a formatted reason.
func InvalidInputf(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, fmt.Sprintf(format, args...))
}

// IsNotFound reports whether err means the letter or seed does not exist.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsInvalidInput reports whether err was caused by the request itself.
func IsInvalidInput(err error) bool {
	return errors.Is(err, ErrInvalidInput)
}

// IsServiceUnavailable reports whether the retrieval chain had no working stage.
func IsServiceUnavailable(err error) bool {
	return errors.Is(err, ErrServiceUnavailable)
}
