package borrowers

import (
	"context"
	"errors"
)

var (
	ErrNotFound           = errors.New("borrower not found")
	ErrDuplicateEmail     = errors.New("a borrower with this email already exists")
	ErrInvalidCredentials = errors.New("invalid credentials")
)

// Service defines the interface for the borrowers service.
type Service interface {
	Register(ctx context.Context, name, email, password string) (*Borrower, error)
	Login(ctx context.Context, email, password string) (token string, err error)
	Update(ctx context.Context, id int64, input UpdateInput) (*Borrower, error)
	Delete(ctx context.Context, id int64) error
	List(ctx context.Context, page, pageSize int) (*BorrowerPage, error)
}
