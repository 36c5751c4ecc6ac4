package circulation

import (
	"time"
)

// Loan represents a single checkout of a book copy by a borrower.
// ReturnDate is nil while the loan is outstanding. Version is the
// optimistic concurrency token; it is bumped on every write and only
// ever mutated through the conditional-update primitive.
type Loan struct {
	ID           int64      `json:"id" db:"id"`
	BookID       int64      `json:"book_id" db:"book_id"`
	BorrowerID   int64      `json:"borrower_id" db:"borrower_id"`
	CheckoutDate time.Time  `json:"checkout_date" db:"checkout_date"`
	DueDate      time.Time  `json:"due_date" db:"due_date"`
	ReturnDate   *time.Time `json:"return_date,omitempty" db:"return_date"`
	Version      int        `json:"version" db:"version"`
}

// Outstanding reports whether the loan has not been returned yet.
func (l *Loan) Outstanding() bool {
	return l.ReturnDate == nil
}

// BookInventory is the slice of a book row the engine cares about:
// the available-quantity counter and its concurrency token.
type BookInventory struct {
	ID       int64 `db:"id"`
	Quantity int   `db:"quantity"`
	Version  int   `db:"version"`
}

// Receipt is returned to the caller after a successful return.
type Receipt struct {
	LoanID     int64     `json:"id"`
	ReturnDate time.Time `json:"return_date"`
}

// LoanDetail joins a loan with the display fields of its book.
type LoanDetail struct {
	Loan
	BookTitle     string `json:"book_title" db:"book_title"`
	BookAuthor    string `json:"book_author" db:"book_author"`
	BookISBN      string `json:"book_isbn" db:"book_isbn"`
	ShelfLocation string `json:"shelf_location" db:"shelf_location"`
}

// LoanPage is a page of loan details.
type LoanPage struct {
	TotalItems  int          `json:"total_items"`
	TotalPages  int          `json:"total_pages"`
	CurrentPage int          `json:"current_page"`
	Loans       []LoanDetail `json:"loans"`
}
