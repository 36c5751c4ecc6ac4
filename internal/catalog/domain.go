package catalog

import (
	"regexp"
	"time"
)

// Book is a catalog title. Quantity is the number of copies currently
// on the shelf; it is owned by the circulation engine and never
// written by catalog updates, so catalog edits can't race checkouts.
type Book struct {
	ID            int64     `json:"id" db:"id"`
	Title         string    `json:"title" db:"title"`
	Author        string    `json:"author" db:"author"`
	ISBN          string    `json:"isbn" db:"isbn"`
	Quantity      int       `json:"quantity" db:"quantity"`
	ShelfLocation string    `json:"shelf_location" db:"shelf_location"`
	Version       int       `json:"version" db:"version"`
	CreatedAt     time.Time `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time `json:"updated_at" db:"updated_at"`
}

// BookPage is a page of books.
type BookPage struct {
	TotalItems  int    `json:"total_items"`
	TotalPages  int    `json:"total_pages"`
	CurrentPage int    `json:"current_page"`
	Books       []Book `json:"books"`
}

// AddBookInput carries the fields of a new title. Quantity here is the
// initial stock; afterwards only the circulation engine moves it.
type AddBookInput struct {
	Title         string `json:"title"`
	Author        string `json:"author"`
	ISBN          string `json:"isbn"`
	Quantity      int    `json:"quantity"`
	ShelfLocation string `json:"shelf_location"`
}

// UpdateBookInput updates descriptive fields only; nil means keep.
type UpdateBookInput struct {
	Title         *string `json:"title"`
	Author        *string `json:"author"`
	ISBN          *string `json:"isbn"`
	ShelfLocation *string `json:"shelf_location"`
}

var unsafeChars = regexp.MustCompile(`[<>$;]`)

// sanitize strips the characters the original API never allowed into
// descriptive fields.
func sanitize(value string) string {
	return unsafeChars.ReplaceAllString(value, "")
}
