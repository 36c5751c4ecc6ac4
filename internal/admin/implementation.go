package admin

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"libris/internal/auth"
)

// service implements the Service interface.
type service struct {
	db     *sqlx.DB
	tokens *auth.TokenIssuer
}

// NewService creates a new admin service instance.
func NewService(db *sqlx.DB, tokens *auth.TokenIssuer) Service {
	return &service{db: db, tokens: tokens}
}

// Create adds a new staff account.
func (s *service) Create(ctx context.Context, username, email, password string) (*Admin, error) {
	passwordHash, salt, err := auth.HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	const query = `
		INSERT INTO admins (username, email, password_hash, salt)
		VALUES ($1, $2, $3, $4)
		RETURNING id, username, email, password_hash, salt, created_at
	`
	admin := &Admin{}
	err = s.db.GetContext(ctx, admin, query, username, email, passwordHash, salt)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return nil, ErrDuplicate
		}
		return nil, fmt.Errorf("insert admin: %w", err)
	}
	return admin, nil
}

// Login verifies credentials and issues an admin session token.
func (s *service) Login(ctx context.Context, username, password string) (string, error) {
	const query = `
		SELECT id, username, email, password_hash, salt, created_at
		FROM admins
		WHERE username = $1
	`
	admin := &Admin{}
	if err := s.db.GetContext(ctx, admin, query, username); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", ErrInvalidCredentials
		}
		return "", fmt.Errorf("query admin: %w", err)
	}

	ok, err := auth.VerifyPassword(password, admin.Salt, admin.PasswordHash)
	if err != nil {
		return "", fmt.Errorf("verify password: %w", err)
	}
	if !ok {
		return "", ErrInvalidCredentials
	}

	token, err := s.tokens.Issue(admin.ID, admin.Email, auth.RoleAdmin)
	if err != nil {
		return "", fmt.Errorf("issue token: %w", err)
	}
	return token, nil
}

// Bootstrap creates the initial account on an empty admins table so a
// fresh deployment is reachable. No-op when admins already exist or no
// bootstrap password is configured.
func (s *service) Bootstrap(ctx context.Context, username, email, password string) error {
	if password == "" {
		return nil
	}

	var count int
	if err := s.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM admins`); err != nil {
		return fmt.Errorf("count admins: %w", err)
	}
	if count > 0 {
		return nil
	}

	if _, err := s.Create(ctx, username, email, password); err != nil {
		// A concurrent replica may have won the race.
		if errors.Is(err, ErrDuplicate) {
			return nil
		}
		return err
	}
	return nil
}
