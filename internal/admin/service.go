// Package admin manages staff accounts and their sessions.
package admin

import (
	"context"
	"errors"
	"time"
)

var (
	ErrDuplicate          = errors.New("an admin with this username or email already exists")
	ErrInvalidCredentials = errors.New("invalid credentials")
)

// Admin is a staff account.
type Admin struct {
	ID           int64     `json:"id" db:"id"`
	Username     string    `json:"username" db:"username"`
	Email        string    `json:"email" db:"email"`
	PasswordHash string    `json:"-" db:"password_hash"`
	Salt         string    `json:"-" db:"salt"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
}

// Service defines the interface for the admin service.
type Service interface {
	Create(ctx context.Context, username, email, password string) (*Admin, error)
	Login(ctx context.Context, username, password string) (token string, err error)

	// Bootstrap creates the initial admin account if none exists yet.
	Bootstrap(ctx context.Context, username, email, password string) error
}
