package catalog

import (
	"context"
	"errors"
)

var (
	ErrNotFound      = errors.New("book not found")
	ErrDuplicateISBN = errors.New("a book with this ISBN already exists")
)

// Service defines the interface for the catalog service.
type Service interface {
	AddBook(ctx context.Context, input AddBookInput) (*Book, error)
	UpdateBook(ctx context.Context, id int64, input UpdateBookInput) (*Book, error)
	DeleteBook(ctx context.Context, id int64) error
	GetBook(ctx context.Context, id int64) (*Book, error)
	ListBooks(ctx context.Context, page, pageSize int) (*BookPage, error)
	SearchBooks(ctx context.Context, query string) ([]Book, error)
}
