// Package reports renders borrow-activity exports for administrators.
// It consumes the same joined loan/book/borrower projection the query
// surface guarantees; the file formats are its own concern.
package reports

import (
	"context"
	"errors"
	"time"
)

var (
	ErrNoRecords    = errors.New("no records found")
	ErrInvalidRange = errors.New("start date must be before end date")
)

// Row is one exported borrow record.
type Row struct {
	BorrowID      int64      `db:"borrow_id"`
	BorrowerName  string     `db:"borrower_name"`
	BorrowerEmail string     `db:"borrower_email"`
	BookTitle     string     `db:"book_title"`
	BookISBN      string     `db:"book_isbn"`
	BorrowDate    time.Time  `db:"borrow_date"`
	DueDate       time.Time  `db:"due_date"`
	ReturnDate    *time.Time `db:"return_date"`
}

// Export is a rendered report ready to send.
type Export struct {
	Filename    string
	ContentType string
	Data        []byte
}

// Service defines the interface for the reports service.
type Service interface {
	BorrowsBetweenCSV(ctx context.Context, start, end time.Time) (*Export, error)
	BorrowsBetweenXLSX(ctx context.Context, start, end time.Time) (*Export, error)
	OverdueLastMonthCSV(ctx context.Context) (*Export, error)
	BorrowsLastMonthCSV(ctx context.Context) (*Export, error)
}
