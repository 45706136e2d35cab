package rbac

import (
	"context"
	"fmt"
	"strings"

	"github.com/accessd/accessd/internal/platform/httpx"
)

// Service orchestrates RBAC administration: role, element, rule and
// membership management. Conflicts are surfaced from the storage
// layer's constraints rather than pre-checked.
type Service struct {
	repo RepositoryPort
}

// NewService constructs a Service.
func NewService(repo RepositoryPort) *Service {
	return &Service{repo: repo}
}

// ListRoles returns all roles.
func (s *Service) ListRoles(ctx context.Context) ([]Role, error) {
	return s.repo.ListRoles(ctx)
}

// GetRole fetches a role by id.
func (s *Service) GetRole(ctx context.Context, id int64) (Role, error) {
	return s.repo.GetRole(ctx, id)
}

// CreateRole inserts a new role with a trimmed, non-empty name.
func (s *Service) CreateRole(ctx context.Context, name string) (Role, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return Role{}, fmt.Errorf("%w: role name required", httpx.ErrValidation)
	}
	return s.repo.CreateRole(ctx, name)
}

// RenameRole updates an existing role's name, preserving uniqueness.
func (s *Service) RenameRole(ctx context.Context, id int64, name string) (Role, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return Role{}, fmt.Errorf("%w: role name required", httpx.ErrValidation)
	}
	return s.repo.RenameRole(ctx, id, name)
}

// DeleteRole removes a role; Conflict while rules reference it.
func (s *Service) DeleteRole(ctx context.Context, id int64) error {
	return s.repo.DeleteRole(ctx, id)
}

// ListElements returns all business elements.
func (s *Service) ListElements(ctx context.Context) ([]BusinessElement, error) {
	return s.repo.ListElements(ctx)
}

// GetElement fetches an element by id.
func (s *Service) GetElement(ctx context.Context, id int64) (BusinessElement, error) {
	return s.repo.GetElement(ctx, id)
}

// CreateElement registers a protected resource under a trimmed code.
func (s *Service) CreateElement(ctx context.Context, code string, title *string) (BusinessElement, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return BusinessElement{}, fmt.Errorf("%w: element code required", httpx.ErrValidation)
	}
	return s.repo.CreateElement(ctx, code, title)
}

// UpdateElement changes the display title of an element.
func (s *Service) UpdateElement(ctx context.Context, id int64, title *string) (BusinessElement, error) {
	if title == nil {
		return s.repo.GetElement(ctx, id)
	}
	return s.repo.UpdateElementTitle(ctx, id, title)
}

// DeleteElement removes an element; Conflict while rules reference it.
func (s *Service) DeleteElement(ctx context.Context, id int64) error {
	return s.repo.DeleteElement(ctx, id)
}

// ListRules returns rules, optionally filtered by role or element.
func (s *Service) ListRules(ctx context.Context, filter RuleFilter) ([]AccessRule, error) {
	return s.repo.ListRules(ctx, filter)
}

// GetRule fetches a rule by id.
func (s *Service) GetRule(ctx context.Context, id int64) (AccessRule, error) {
	return s.repo.GetRule(ctx, id)
}

// UpsertRule creates or overwrites the single rule for a (role,
// element) pair. Idempotent: retrying the same payload leaves one row
// with the same flags.
func (s *Service) UpsertRule(ctx context.Context, roleID, elementID int64, flags RuleFlags) (AccessRule, error) {
	return s.repo.UpsertRule(ctx, roleID, elementID, flags)
}

// ListUserRoles returns the roles held by a user; 404 when the user
// does not exist.
func (s *Service) ListUserRoles(ctx context.Context, userID int64) ([]Role, error) {
	exists, err := s.repo.UserExists(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, fmt.Errorf("%w: user", httpx.ErrNotFound)
	}
	return s.repo.ListRolesForUser(ctx, userID)
}

// AssignRole grants a role to a user. Both must exist; assigning a
// role the user already holds is a no-op.
func (s *Service) AssignRole(ctx context.Context, userID, roleID int64) error {
	exists, err := s.repo.UserExists(ctx, userID)
	if err != nil {
		return err
	}
	if !exists {
		return fmt.Errorf("%w: user", httpx.ErrNotFound)
	}
	if _, err := s.repo.GetRole(ctx, roleID); err != nil {
		return err
	}
	return s.repo.AssignRole(ctx, userID, roleID)
}

// UnassignRole removes a role from a user. Removing a membership that
// does not exist is a no-op.
func (s *Service) UnassignRole(ctx context.Context, userID, roleID int64) error {
	return s.repo.UnassignRole(ctx, userID, roleID)
}
