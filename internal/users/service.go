package users

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/dulces-mila/mila-backend/internal/shared"
)

// Service handles user business logic.
type Service struct {
	repo RepositoryPort
}

// NewService builds Service instance.
func NewService(repo RepositoryPort) *Service {
	return &Service{repo: repo}
}

// RegisterInput carries the fields needed to create an account.
type RegisterInput struct {
	Name     string
	Email    string
	Password string
}

// Register creates a new customer account with a bcrypt password hash.
func (s *Service) Register(ctx context.Context, input RegisterInput) (*User, error) {
	email := strings.ToLower(strings.TrimSpace(input.Email))
	if input.Name == "" || email == "" || len(input.Password) < 8 {
		return nil, fmt.Errorf("users: name, email and password (min 8) required: %w", shared.ErrInvalidArgument)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("users: hash password: %w", err)
	}
	user := User{
		Name:         input.Name,
		Email:        email,
		PasswordHash: string(hash),
		Role:         RoleCustomer,
		Status:       StatusActive,
	}
	id, err := s.repo.Create(ctx, user)
	if err != nil {
		return nil, err
	}
	return s.repo.Get(ctx, id)
}

// Authenticate validates email/password credentials. Disabled accounts are
// rejected the same way as wrong passwords.
func (s *Service) Authenticate(ctx context.Context, email, password string) (*User, error) {
	user, err := s.repo.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		return nil, shared.ErrInvalidCredentials
	}
	if !user.IsActive() {
		return nil, shared.ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, shared.ErrInvalidCredentials
	}
	return user, nil
}

// Get returns the user with the given id.
func (s *Service) Get(ctx context.Context, id int64) (*User, error) {
	return s.repo.Get(ctx, id)
}

// List returns accounts, optionally only active ones.
func (s *Service) List(ctx context.Context, activeOnly bool) ([]User, error) {
	return s.repo.List(ctx, activeOnly)
}

// UpdateInput carries the account fields an admin may change. Empty fields
// keep their current value.
type UpdateInput struct {
	Name   string
	Email  string
	Role   Role
	Status Status
}

// Update applies the non-empty fields of input to an existing account.
func (s *Service) Update(ctx context.Context, id int64, input UpdateInput) (*User, error) {
	user, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if input.Name != "" {
		user.Name = input.Name
	}
	if input.Email != "" {
		user.Email = strings.ToLower(strings.TrimSpace(input.Email))
	}
	if input.Role != "" {
		if input.Role != RoleAdmin && input.Role != RoleCustomer {
			return nil, fmt.Errorf("users: unknown role %q: %w", input.Role, shared.ErrInvalidArgument)
		}
		user.Role = input.Role
	}
	if input.Status != "" {
		if input.Status != StatusActive && input.Status != StatusInactive {
			return nil, fmt.Errorf("users: unknown status %q: %w", input.Status, shared.ErrInvalidArgument)
		}
		user.Status = input.Status
	}
	if err := s.repo.Update(ctx, *user); err != nil {
		return nil, err
	}
	return s.repo.Get(ctx, id)
}

// Deactivate disables an account.
func (s *Service) Deactivate(ctx context.Context, id int64) error {
	return s.repo.UpdateStatus(ctx, id, StatusInactive)
}
