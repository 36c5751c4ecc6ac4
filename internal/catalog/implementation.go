package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres" // dialect registration
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

var pgDialect = goqu.Dialect("postgres")

const (
	defaultPageSize = 10
	maxPageSize     = 100
	searchLimit     = 50
)

// service implements the Service interface.
type service struct {
	db *sqlx.DB
}

// NewService creates a new catalog service instance.
func NewService(db *sqlx.DB) Service {
	return &service{db: db}
}

// AddBook creates a new title in the catalog.
func (s *service) AddBook(ctx context.Context, input AddBookInput) (*Book, error) {
	quantity := input.Quantity
	if quantity < 0 {
		quantity = 0
	}

	const query = `
		INSERT INTO books (title, author, isbn, quantity, shelf_location)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, title, author, isbn, quantity, shelf_location, version, created_at, updated_at
	`
	book := &Book{}
	err := s.db.GetContext(ctx, book, query,
		sanitize(input.Title), sanitize(input.Author), sanitize(input.ISBN),
		quantity, sanitize(input.ShelfLocation),
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return nil, ErrDuplicateISBN
		}
		return nil, fmt.Errorf("insert book: %w", err)
	}
	return book, nil
}

// UpdateBook updates a title's descriptive fields. The quantity and
// version columns belong to the circulation engine and are left alone.
func (s *service) UpdateBook(ctx context.Context, id int64, input UpdateBookInput) (*Book, error) {
	book, err := s.GetBook(ctx, id)
	if err != nil {
		return nil, err
	}

	if input.Title != nil {
		book.Title = sanitize(*input.Title)
	}
	if input.Author != nil {
		book.Author = sanitize(*input.Author)
	}
	if input.ISBN != nil {
		book.ISBN = sanitize(*input.ISBN)
	}
	if input.ShelfLocation != nil {
		book.ShelfLocation = sanitize(*input.ShelfLocation)
	}

	const query = `
		UPDATE books
		SET title = $1, author = $2, isbn = $3, shelf_location = $4, updated_at = NOW()
		WHERE id = $5
		RETURNING id, title, author, isbn, quantity, shelf_location, version, created_at, updated_at
	`
	updated := &Book{}
	err = s.db.GetContext(ctx, updated, query,
		book.Title, book.Author, book.ISBN, book.ShelfLocation, id,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return nil, ErrDuplicateISBN
		}
		return nil, fmt.Errorf("update book: %w", err)
	}
	return updated, nil
}

// DeleteBook removes a title from the catalog.
func (s *service) DeleteBook(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM books WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete book: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

// GetBook retrieves a title by its ID.
func (s *service) GetBook(ctx context.Context, id int64) (*Book, error) {
	const query = `
		SELECT id, title, author, isbn, quantity, shelf_location, version, created_at, updated_at
		FROM books
		WHERE id = $1
	`
	book := &Book{}
	if err := s.db.GetContext(ctx, book, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("query book: %w", err)
	}
	return book, nil
}

// ListBooks returns one page of the catalog, newest first.
func (s *service) ListBooks(ctx context.Context, page, pageSize int) (*BookPage, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = defaultPageSize
	}
	if pageSize > maxPageSize {
		pageSize = maxPageSize
	}

	var total int
	if err := s.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM books`); err != nil {
		return nil, fmt.Errorf("count books: %w", err)
	}

	const query = `
		SELECT id, title, author, isbn, quantity, shelf_location, version, created_at, updated_at
		FROM books
		ORDER BY created_at DESC
		LIMIT $1 OFFSET $2
	`
	books := []Book{}
	if err := s.db.SelectContext(ctx, &books, query, pageSize, (page-1)*pageSize); err != nil {
		return nil, fmt.Errorf("list books: %w", err)
	}

	totalPages := 0
	if total > 0 {
		totalPages = (total + pageSize - 1) / pageSize
	}

	return &BookPage{
		TotalItems:  total,
		TotalPages:  totalPages,
		CurrentPage: page,
		Books:       books,
	}, nil
}

// SearchBooks finds titles by substring match on title, author or ISBN.
func (s *service) SearchBooks(ctx context.Context, query string) ([]Book, error) {
	pattern := "%" + sanitize(query) + "%"

	querySQL, args, err := pgDialect.
		From("books").
		Select("id", "title", "author", "isbn", "quantity", "shelf_location", "version", "created_at", "updated_at").
		Where(goqu.Or(
			goqu.C("title").ILike(pattern),
			goqu.C("author").ILike(pattern),
			goqu.C("isbn").ILike(pattern),
		)).
		Order(goqu.C("title").Asc()).
		Limit(searchLimit).
		Prepared(true).ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build search query: %w", err)
	}

	books := []Book{}
	if err := s.db.SelectContext(ctx, &books, querySQL, args...); err != nil {
		return nil, fmt.Errorf("search books: %w", err)
	}
	return books, nil
}
