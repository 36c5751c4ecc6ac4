package circulation

import (
	"context"
	"time"
)

// Service defines the interface for the circulation service.
type Service interface {
	Checkout(ctx context.Context, bookID, borrowerID int64, dueDate time.Time) (*Loan, error)
	Return(ctx context.Context, loanID int64) (*Receipt, error)
	OutstandingByBorrower(ctx context.Context, borrowerID int64, page, pageSize int) (*LoanPage, error)
	Overdue(ctx context.Context, asOf time.Time) ([]LoanDetail, error)
}

// LoanReader is the read-only query surface consumed by reporting and
// the API. Plain read-committed reads, no locking.
type LoanReader interface {
	OutstandingByBorrower(ctx context.Context, borrowerID int64, page, pageSize int) (*LoanPage, error)
	Overdue(ctx context.Context, asOf time.Time) ([]LoanDetail, error)
}
