package borrowers

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"libris/internal/auth"
)

const (
	defaultPageSize = 10
	maxPageSize     = 100
)

// service implements the Service interface.
type service struct {
	db     *sqlx.DB
	tokens *auth.TokenIssuer
}

// NewService creates a new borrowers service instance.
func NewService(db *sqlx.DB, tokens *auth.TokenIssuer) Service {
	return &service{db: db, tokens: tokens}
}

// Register creates a new borrower account.
func (s *service) Register(ctx context.Context, name, email, password string) (*Borrower, error) {
	passwordHash, salt, err := auth.HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	const query = `
		INSERT INTO borrowers (name, email, password_hash, salt)
		VALUES ($1, $2, $3, $4)
		RETURNING id, name, email, password_hash, salt, created_at, updated_at
	`
	borrower := &Borrower{}
	err = s.db.GetContext(ctx, borrower, query, sanitize(name), sanitize(email), passwordHash, salt)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return nil, ErrDuplicateEmail
		}
		return nil, fmt.Errorf("insert borrower: %w", err)
	}
	return borrower, nil
}

// Login verifies credentials and issues a borrower session token. The
// same error covers unknown email and wrong password so the endpoint
// does not leak which accounts exist.
func (s *service) Login(ctx context.Context, email, password string) (string, error) {
	const query = `
		SELECT id, name, email, password_hash, salt, created_at, updated_at
		FROM borrowers
		WHERE email = $1
	`
	borrower := &Borrower{}
	if err := s.db.GetContext(ctx, borrower, query, email); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", ErrInvalidCredentials
		}
		return "", fmt.Errorf("query borrower: %w", err)
	}

	ok, err := auth.VerifyPassword(password, borrower.Salt, borrower.PasswordHash)
	if err != nil {
		return "", fmt.Errorf("verify password: %w", err)
	}
	if !ok {
		return "", ErrInvalidCredentials
	}

	token, err := s.tokens.Issue(borrower.ID, borrower.Email, auth.RoleBorrower)
	if err != nil {
		return "", fmt.Errorf("issue token: %w", err)
	}
	return token, nil
}

// Update changes a borrower's contact fields.
func (s *service) Update(ctx context.Context, id int64, input UpdateInput) (*Borrower, error) {
	borrower, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}

	if input.Name != nil {
		borrower.Name = sanitize(*input.Name)
	}
	if input.Email != nil {
		borrower.Email = sanitize(*input.Email)
	}

	const query = `
		UPDATE borrowers
		SET name = $1, email = $2, updated_at = NOW()
		WHERE id = $3
		RETURNING id, name, email, password_hash, salt, created_at, updated_at
	`
	updated := &Borrower{}
	err = s.db.GetContext(ctx, updated, query, borrower.Name, borrower.Email, id)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return nil, ErrDuplicateEmail
		}
		return nil, fmt.Errorf("update borrower: %w", err)
	}
	return updated, nil
}

// Delete removes a borrower account.
func (s *service) Delete(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM borrowers WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete borrower: %w", err)
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

// List returns one page of borrowers, newest first.
func (s *service) List(ctx context.Context, page, pageSize int) (*BorrowerPage, error) {
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
	if err := s.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM borrowers`); err != nil {
		return nil, fmt.Errorf("count borrowers: %w", err)
	}

	const query = `
		SELECT id, name, email, password_hash, salt, created_at, updated_at
		FROM borrowers
		ORDER BY created_at DESC
		LIMIT $1 OFFSET $2
	`
	list := []Borrower{}
	if err := s.db.SelectContext(ctx, &list, query, pageSize, (page-1)*pageSize); err != nil {
		return nil, fmt.Errorf("list borrowers: %w", err)
	}

	totalPages := 0
	if total > 0 {
		totalPages = (total + pageSize - 1) / pageSize
	}

	return &BorrowerPage{
		TotalItems:  total,
		TotalPages:  totalPages,
		CurrentPage: page,
		Borrowers:   list,
	}, nil
}

func (s *service) find(ctx context.Context, id int64) (*Borrower, error) {
	const query = `
		SELECT id, name, email, password_hash, salt, created_at, updated_at
		FROM borrowers
		WHERE id = $1
	`
	borrower := &Borrower{}
	if err := s.db.GetContext(ctx, borrower, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("query borrower: %w", err)
	}
	return borrower, nil
}
