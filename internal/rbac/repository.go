package rbac

import "context"

// RepositoryPort defines data access methods for the RBAC aggregate:
// roles, business elements, access rules and role membership.
type RepositoryPort interface {
	ListRoles(ctx context.Context) ([]Role, error)
	GetRole(ctx context.Context, id int64) (Role, error)
	CreateRole(ctx context.Context, name string) (Role, error)
	RenameRole(ctx context.Context, id int64, name string) (Role, error)
	DeleteRole(ctx context.Context, id int64) error

	ListElements(ctx context.Context) ([]BusinessElement, error)
	GetElement(ctx context.Context, id int64) (BusinessElement, error)
	FindElementByCode(ctx context.Context, code string) (BusinessElement, error)
	CreateElement(ctx context.Context, code string, title *string) (BusinessElement, error)
	UpdateElementTitle(ctx context.Context, id int64, title *string) (BusinessElement, error)
	DeleteElement(ctx context.Context, id int64) error

	ListRules(ctx context.Context, filter RuleFilter) ([]AccessRule, error)
	GetRule(ctx context.Context, id int64) (AccessRule, error)
	UpsertRule(ctx context.Context, roleID, elementID int64, flags RuleFlags) (AccessRule, error)
	ListRulesFor(ctx context.Context, roleIDs []int64, elementID int64) ([]AccessRule, error)

	ListRoleIDsForUser(ctx context.Context, userID int64) ([]int64, error)
	ListRolesForUser(ctx context.Context, userID int64) ([]Role, error)
	UserExists(ctx context.Context, userID int64) (bool, error)
	AssignRole(ctx context.Context, userID, roleID int64) error
	UnassignRole(ctx context.Context, userID, roleID int64) error
}
