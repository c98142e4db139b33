package auth

import (
	"context"
	"fmt"

	"golang.org/x/crypto/bcrypt"

	"github.com/printdesk/printdesk/internal/shared"
)

// Service wraps authentication business rules.
type Service struct {
	directory    *Directory
	passwordHash []byte
}

// NewService constructs a Service. Every identity in the directory shares the
// single password whose bcrypt hash is given.
func NewService(directory *Directory, passwordHash []byte) *Service {
	return &Service{directory: directory, passwordHash: passwordHash}
}

// NewServiceWithPassword hashes the shared password and constructs a Service.
func NewServiceWithPassword(directory *Directory, password string) (*Service, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("auth: hash password: %w", err)
	}
	return NewService(directory, hash), nil
}

// Authenticate validates email/password credentials.
func (s *Service) Authenticate(ctx context.Context, email, password string) (*User, error) {
	user, err := s.directory.FindByEmail(ctx, email)
	if err != nil {
		return nil, shared.ErrInvalidCredentials
	}
	if !user.IsActive {
		return nil, shared.ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword(s.passwordHash, []byte(password)); err != nil {
		return nil, shared.ErrInvalidCredentials
	}
	return user, nil
}

// Users lists the directory.
func (s *Service) Users() []User {
	return s.directory.List()
}
