package users

import (
	"context"
	"fmt"
	"strings"

	"github.com/accessd/accessd/internal/platform/httpx"
)

// RepositoryPort defines data access methods for user profiles.
type RepositoryPort interface {
	GetUser(ctx context.Context, id int64) (*User, error)
	UpdateProfile(ctx context.Context, id int64, update ProfileUpdate) (*User, error)
	Deactivate(ctx context.Context, id int64) (*User, error)
}

// Service handles profile business logic.
type Service struct {
	repo RepositoryPort
}

// NewService builds a Service instance.
func NewService(repo RepositoryPort) *Service {
	return &Service{repo: repo}
}

// GetProfile returns the caller's profile.
func (s *Service) GetProfile(ctx context.Context, userID int64) (*User, error) {
	return s.repo.GetUser(ctx, userID)
}

// UpdateProfile changes full name and/or email. Emails are normalised
// to lower case; an explicitly empty email is rejected.
func (s *Service) UpdateProfile(ctx context.Context, userID int64, update ProfileUpdate) (*User, error) {
	if update.Email != nil {
		email := strings.ToLower(strings.TrimSpace(*update.Email))
		if email == "" {
			return nil, fmt.Errorf("%w: email must not be empty", httpx.ErrValidation)
		}
		update.Email = &email
	}
	return s.repo.UpdateProfile(ctx, userID, update)
}

// Deactivate soft-deletes the caller's account. Existing tokens stop
// working on the next request since authentication re-checks is_active.
func (s *Service) Deactivate(ctx context.Context, userID int64) (*User, error) {
	return s.repo.Deactivate(ctx, userID)
}
