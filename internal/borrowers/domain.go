package borrowers

import (
	"regexp"
	"time"
)

// Borrower is a library member. Credentials are stored alongside but
// never serialized.
type Borrower struct {
	ID           int64     `json:"id" db:"id"`
	Name         string    `json:"name" db:"name"`
	Email        string    `json:"email" db:"email"`
	PasswordHash string    `json:"-" db:"password_hash"`
	Salt         string    `json:"-" db:"salt"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time `json:"updated_at" db:"updated_at"`
}

// BorrowerPage is a page of borrowers.
type BorrowerPage struct {
	TotalItems  int        `json:"total_items"`
	TotalPages  int        `json:"total_pages"`
	CurrentPage int        `json:"current_page"`
	Borrowers   []Borrower `json:"borrowers"`
}

// UpdateInput updates contact fields; nil means keep.
type UpdateInput struct {
	Name  *string `json:"name"`
	Email *string `json:"email"`
}

var unsafeChars = regexp.MustCompile(`[<>$;]`)

func sanitize(value string) string {
	return unsafeChars.ReplaceAllString(value, "")
}
