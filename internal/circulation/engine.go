package circulation

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// engine implements the Service interface. It orchestrates checkout and
// return as atomic units of work spanning the loan table and the book
// inventory counter, and performs no internal retries: Conflict and
// Unavailable are surfaced so the caller decides between reload-and-retry
// and giving up.
type engine struct {
	store  Store
	reader LoanReader
	tracer trace.Tracer
}

// NewService creates a new circulation service instance.
func NewService(store Store, reader LoanReader) Service {
	return &engine{
		store:  store,
		reader: reader,
		tracer: otel.Tracer("libris/circulation"),
	}
}

// Checkout lends one copy of a book to a borrower: it creates an
// outstanding loan and decrements the book's available quantity by
// exactly one, both inside a single transaction. The decrement is
// guarded by the book's version token, so a concurrent writer turns
// into ErrConflict rather than a lost update or a negative counter.
func (e *engine) Checkout(ctx context.Context, bookID, borrowerID int64, dueDate time.Time) (*Loan, error) {
	ctx, span := e.tracer.Start(ctx, "circulation.checkout",
		trace.WithAttributes(
			attribute.Int64("book.id", bookID),
			attribute.Int64("borrower.id", borrowerID),
		),
	)
	defer span.End()

	var loan *Loan
	err := e.store.WithinTx(ctx, func(tx Tx) error {
		book, err := tx.BookInventory(ctx, bookID)
		if err != nil {
			return fmt.Errorf("read book %d: %w", bookID, err)
		}
		if book.Quantity < 1 {
			return ErrUnavailable
		}

		loan = &Loan{
			BookID:       bookID,
			BorrowerID:   borrowerID,
			CheckoutDate: time.Now().UTC(),
			DueDate:      dueDate,
		}
		if err := tx.CreateLoan(ctx, loan); err != nil {
			return fmt.Errorf("create loan: %w", err)
		}

		ok, err := tx.DecrementAvailable(ctx, bookID, book.Version)
		if err != nil {
			return fmt.Errorf("decrement book %d: %w", bookID, err)
		}
		if !ok {
			// Another writer touched the row between our read and the
			// guarded update. The caller retries with a fresh read; if
			// the race exhausted the inventory, the retry observes
			// Unavailable instead.
			return ErrConflict
		}
		return nil
	})
	if err != nil {
		span.SetAttributes(attribute.String("checkout.outcome", outcome(err)))
		return nil, err
	}

	span.SetAttributes(attribute.Int64("loan.id", loan.ID))
	return loan, nil
}

// Return closes an outstanding loan and puts the copy back on the
// shelf. The loan side uses optimistic concurrency (a version CAS:
// each loan is returned once, contention is rare) while the book side
// takes a row-level write lock (the counter is hot and increments must
// serialize exactly). A second return of the same loan fails with
// ErrAlreadyReturned; it is never absorbed as a no-op.
func (e *engine) Return(ctx context.Context, loanID int64) (*Receipt, error) {
	ctx, span := e.tracer.Start(ctx, "circulation.return",
		trace.WithAttributes(attribute.Int64("loan.id", loanID)),
	)
	defer span.End()

	var receipt *Receipt
	err := e.store.WithinTx(ctx, func(tx Tx) error {
		loan, err := tx.FindLoan(ctx, loanID)
		if err != nil {
			return fmt.Errorf("read loan %d: %w", loanID, err)
		}
		if !loan.Outstanding() {
			return ErrAlreadyReturned
		}

		returnedAt := time.Now().UTC()
		matched, err := tx.MarkReturned(ctx, loanID, loan.Version, returnedAt)
		if err != nil {
			return fmt.Errorf("mark loan %d returned: %w", loanID, err)
		}
		if matched == 0 {
			span.SetAttributes(attribute.Int("expected.version", loan.Version))
			return ErrConflict
		}

		// Only after the CAS succeeded do we touch the counter, under a
		// write lock held until commit. The increment is paired 1:1
		// with the state transition above; aborting here rolls back both.
		if err := tx.IncrementLocked(ctx, loan.BookID); err != nil {
			return fmt.Errorf("increment book %d: %w", loan.BookID, err)
		}

		receipt = &Receipt{LoanID: loanID, ReturnDate: returnedAt}
		return nil
	})
	if err != nil {
		span.SetAttributes(attribute.String("return.outcome", outcome(err)))
		return nil, err
	}

	return receipt, nil
}

// OutstandingByBorrower lists a borrower's open loans, newest first.
func (e *engine) OutstandingByBorrower(ctx context.Context, borrowerID int64, page, pageSize int) (*LoanPage, error) {
	return e.reader.OutstandingByBorrower(ctx, borrowerID, page, pageSize)
}

// Overdue lists all loans that are outstanding and past due as of the
// given instant.
func (e *engine) Overdue(ctx context.Context, asOf time.Time) ([]LoanDetail, error) {
	return e.reader.Overdue(ctx, asOf)
}

func outcome(err error) string {
	switch {
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrUnavailable):
		return "unavailable"
	case errors.Is(err, ErrAlreadyReturned):
		return "already_returned"
	case errors.Is(err, ErrConflict):
		return "conflict"
	default:
		return "transient"
	}
}
