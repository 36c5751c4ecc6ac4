package circulation

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

// PostgresStore implements Store and LoanReader on top of a shared
// sqlx handle. The handle is constructed at startup and injected; the
// store never owns its lifecycle.
type PostgresStore struct {
	db *sqlx.DB
}

// NewPostgresStore creates a circulation store bound to db.
func NewPostgresStore(db *sqlx.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// WithinTx runs fn inside a single database transaction. Read
// committed is sufficient here: the guarded updates themselves carry
// the concurrency protection. Any error aborts the whole unit of work.
func (s *PostgresStore) WithinTx(ctx context.Context, fn func(tx Tx) error) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return transient(fmt.Errorf("begin transaction: %w", err))
	}

	if err := fn(&pgTx{tx: tx}); err != nil {
		_ = tx.Rollback()
		return classify(err)
	}

	if err := tx.Commit(); err != nil {
		return transient(fmt.Errorf("commit transaction: %w", err))
	}
	return nil
}

// classify keeps the engine's closed error set intact and folds
// everything else into ErrTransient. Serialization failures and
// deadlocks are transient by definition; a unique violation means two
// writers raced, which surfaces as a conflict.
func classify(err error) error {
	switch {
	case errors.Is(err, ErrNotFound),
		errors.Is(err, ErrUnavailable),
		errors.Is(err, ErrAlreadyReturned),
		errors.Is(err, ErrConflict),
		errors.Is(err, ErrTransient):
		return err
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Code {
		case "40001", "40P01": // serialization_failure, deadlock_detected
			return transient(err)
		case "23505": // unique_violation
			return fmt.Errorf("%w: %v", ErrConflict, err)
		}
	}
	return transient(err)
}

// pgTx implements Tx for the duration of one transaction.
type pgTx struct {
	tx *sqlx.Tx
}

func (t *pgTx) CreateLoan(ctx context.Context, loan *Loan) error {
	const query = `
		INSERT INTO loans (book_id, borrower_id, checkout_date, due_date, version)
		VALUES ($1, $2, $3, $4, 1)
		RETURNING id
	`
	err := t.tx.QueryRowContext(ctx, query,
		loan.BookID, loan.BorrowerID, loan.CheckoutDate, loan.DueDate,
	).Scan(&loan.ID)
	if err != nil {
		return fmt.Errorf("insert loan: %w", err)
	}
	loan.Version = 1
	return nil
}

func (t *pgTx) FindLoan(ctx context.Context, id int64) (*Loan, error) {
	const query = `
		SELECT id, book_id, borrower_id, checkout_date, due_date, return_date, version
		FROM loans
		WHERE id = $1
	`
	loan := &Loan{}
	if err := t.tx.GetContext(ctx, loan, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("query loan: %w", err)
	}
	return loan, nil
}

func (t *pgTx) MarkReturned(ctx context.Context, id int64, expectedVersion int, returnedAt time.Time) (int64, error) {
	const query = `
		UPDATE loans
		SET return_date = $1, version = version + 1, updated_at = NOW()
		WHERE id = $2 AND version = $3 AND return_date IS NULL
	`
	res, err := t.tx.ExecContext(ctx, query, returnedAt, id, expectedVersion)
	if err != nil {
		return 0, fmt.Errorf("conditional update loan: %w", err)
	}
	matched, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected: %w", err)
	}
	return matched, nil
}

func (t *pgTx) BookInventory(ctx context.Context, bookID int64) (*BookInventory, error) {
	const query = `SELECT id, quantity, version FROM books WHERE id = $1`
	book := &BookInventory{}
	if err := t.tx.GetContext(ctx, book, query, bookID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("query book: %w", err)
	}
	return book, nil
}

func (t *pgTx) DecrementAvailable(ctx context.Context, bookID int64, expectedVersion int) (bool, error) {
	// Guarded by both the version token and quantity >= 1, so the
	// counter can never be driven negative even if two writers read
	// the same snapshot.
	const query = `
		UPDATE books
		SET quantity = quantity - 1, version = version + 1, updated_at = NOW()
		WHERE id = $1 AND version = $2 AND quantity >= 1
	`
	res, err := t.tx.ExecContext(ctx, query, bookID, expectedVersion)
	if err != nil {
		return false, fmt.Errorf("guarded decrement: %w", err)
	}
	matched, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return matched > 0, nil
}

func (t *pgTx) IncrementLocked(ctx context.Context, bookID int64) error {
	// FOR UPDATE serializes concurrent increments on the same book row
	// until this transaction commits. Lost increments would permanently
	// under-count the shelf.
	var id int64
	err := t.tx.QueryRowContext(ctx, `SELECT id FROM books WHERE id = $1 FOR UPDATE`, bookID).Scan(&id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound
		}
		return fmt.Errorf("lock book row: %w", err)
	}

	const query = `
		UPDATE books
		SET quantity = quantity + 1, version = version + 1, updated_at = NOW()
		WHERE id = $1
	`
	if _, err := t.tx.ExecContext(ctx, query, bookID); err != nil {
		return fmt.Errorf("increment quantity: %w", err)
	}
	return nil
}
