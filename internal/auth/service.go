package auth

import (
	"context"
	"fmt"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/accessd/accessd/internal/platform/httpx"
)

// Service wraps authentication business rules.
type Service struct {
	repo   Repository
	tokens *TokenStore
}

// NewService constructs a new Service.
func NewService(repo Repository, tokens *TokenStore) *Service {
	return &Service{repo: repo, tokens: tokens}
}

// Register creates a new active account. The email is normalised to
// lower case before the uniqueness check.
func (s *Service) Register(ctx context.Context, email string, fullName *string, password, passwordConfirm string) (*User, error) {
	if password != passwordConfirm {
		return nil, fmt.Errorf("%w: passwords do not match", httpx.ErrValidation)
	}
	email = strings.ToLower(strings.TrimSpace(email))
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	user, err := s.repo.CreateUser(ctx, email, fullName, string(hash))
	if err != nil {
		return nil, err
	}
	return user, nil
}

// Login validates credentials and issues a bearer token. Unknown email,
// wrong password and inactive accounts are indistinguishable to the caller.
func (s *Service) Login(ctx context.Context, email, password, ip, ua string) (string, *User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	user, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		return "", nil, fmt.Errorf("%w: invalid credentials", httpx.ErrUnauthorized)
	}
	if !user.IsActive {
		return "", nil, fmt.Errorf("%w: invalid credentials", httpx.ErrUnauthorized)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return "", nil, fmt.Errorf("%w: invalid credentials", httpx.ErrUnauthorized)
	}
	token, err := s.tokens.Issue(ctx, user.ID)
	if err != nil {
		return "", nil, err
	}
	expiresAt := time.Now().Add(s.tokens.TTL())
	if err := s.repo.CreateSession(ctx, token, user.ID, expiresAt, ip, ua); err != nil {
		// The session row is an audit trail; a failed insert must not
		// leave a live token behind.
		_ = s.tokens.Revoke(ctx, token)
		return "", nil, err
	}
	return token, user, nil
}

// Logout revokes the presented token.
func (s *Service) Logout(ctx context.Context, token string) error {
	if err := s.tokens.Revoke(ctx, token); err != nil {
		return err
	}
	return s.repo.DeleteSession(ctx, token)
}

// CurrentUser resolves a bearer token to an active user.
func (s *Service) CurrentUser(ctx context.Context, token string) (*User, error) {
	userID, err := s.tokens.Resolve(ctx, token)
	if err != nil {
		return nil, err
	}
	user, err := s.repo.FindByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("%w: not authenticated", httpx.ErrUnauthorized)
	}
	if !user.IsActive {
		return nil, fmt.Errorf("%w: not authenticated", httpx.ErrUnauthorized)
	}
	return user, nil
}
