package circulation

import (
	"context"
	"time"
)

// Store opens atomic units of work against the circulation tables.
// Everything executed inside the callback either commits as a whole or
// rolls back as a whole.
type Store interface {
	WithinTx(ctx context.Context, fn func(tx Tx) error) error
}

// Tx groups the primitives available inside one unit of work. The two
// embedded interfaces carry deliberately different consistency
// guarantees: loans are guarded optimistically (version CAS, cheap,
// low contention), the inventory counter pessimistically (row lock,
// hot, increments must serialize).
type Tx interface {
	VersionedLoans
	LockableInventory
}

// VersionedLoans is the loan-record side of a unit of work.
type VersionedLoans interface {
	// CreateLoan inserts a new outstanding loan (version 1, no return
	// date) and fills in its generated ID.
	CreateLoan(ctx context.Context, loan *Loan) error

	// FindLoan loads a loan by ID, or ErrNotFound.
	FindLoan(ctx context.Context, id int64) (*Loan, error)

	// MarkReturned sets the return date and bumps the version, but only
	// if the stored version still equals expectedVersion. It reports
	// the number of rows matched: zero means a concurrent writer
	// advanced the version first.
	MarkReturned(ctx context.Context, id int64, expectedVersion int, returnedAt time.Time) (int64, error)
}

// LockableInventory is the book-counter side of a unit of work.
type LockableInventory interface {
	// BookInventory reads a book's quantity and version without locking,
	// or ErrNotFound.
	BookInventory(ctx context.Context, bookID int64) (*BookInventory, error)

	// DecrementAvailable decrements the quantity by one and bumps the
	// version, guarded by both the expected version and quantity >= 1.
	// It refuses rather than clamps: false means the guarded update
	// matched no row (version moved or the last copy was taken).
	DecrementAvailable(ctx context.Context, bookID int64, expectedVersion int) (bool, error)

	// IncrementLocked acquires the book row under a write lock, held
	// until the surrounding unit of work commits, and increments the
	// quantity by one. ErrNotFound if the book is gone.
	IncrementLocked(ctx context.Context, bookID int64) error
}
