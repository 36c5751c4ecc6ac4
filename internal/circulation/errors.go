package circulation

import (
	"errors"
	"fmt"
)

// The closed set of errors the engine reports. Callers dispatch with
// errors.Is; none of these are ever swallowed into a success.
var (
	// ErrNotFound means the referenced book or loan does not exist. Terminal.
	ErrNotFound = errors.New("not found")

	// ErrUnavailable means no copies are on the shelf. A business
	// rejection, not a conflict: the engine never retries it.
	ErrUnavailable = errors.New("book not available")

	// ErrAlreadyReturned means a second return was attempted on a loan
	// whose return date is already set. Terminal caller error.
	ErrAlreadyReturned = errors.New("book already returned")

	// ErrConflict means a concurrent writer invalidated the operation's
	// read (version mismatch). The caller should reload and retry.
	ErrConflict = errors.New("record modified concurrently, reload and retry")

	// ErrTransient means an infrastructure failure aborted the unit of
	// work mid-flight. The whole operation may be retried with backoff.
	ErrTransient = errors.New("transient storage failure")
)

// transient wraps an infrastructure error so that errors.Is(err, ErrTransient)
// holds while the underlying cause stays inspectable.
func transient(err error) error {
	return fmt.Errorf("%w: %w", ErrTransient, err)
}
