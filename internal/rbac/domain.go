package rbac

import (
	"fmt"
	"time"
)

// Resource codes protecting the RBAC administration API itself.
// Changing the authorization matrix is an authorized action like any other.
const (
	ResourceRoles     = "rbac_roles"
	ResourceRules     = "rbac_rules"
	ResourceUserRoles = "rbac_user_roles"
)

// Action is one of the four capabilities a rule can grant.
type Action string

// Supported actions.
const (
	ActionRead   Action = "read"
	ActionCreate Action = "create"
	ActionUpdate Action = "update"
	ActionDelete Action = "delete"
)

// ParseAction validates an action string.
func ParseAction(raw string) (Action, error) {
	switch Action(raw) {
	case ActionRead, ActionCreate, ActionUpdate, ActionDelete:
		return Action(raw), nil
	}
	return "", fmt.Errorf("rbac: unknown action %q", raw)
}

// Role is a named grant bundle assigned to users.
type Role struct {
	ID        int64
	Name      string
	CreatedAt time.Time
}

// BusinessElement is a protected resource category identified by a
// stable code, e.g. "products".
type BusinessElement struct {
	ID        int64
	Code      string
	Title     *string
	CreatedAt time.Time
}

// RuleFlags carries the seven capability booleans of a rule. The
// plain fields grant the action on resources owned by the caller; the
// All variants grant it unconditionally.
type RuleFlags struct {
	Read      bool
	ReadAll   bool
	Create    bool
	Update    bool
	UpdateAll bool
	Delete    bool
	DeleteAll bool
}

// AccessRule is the authorization record for one (role, element) pair.
type AccessRule struct {
	ID        int64
	RoleID    int64
	ElementID int64
	RuleFlags
	CreatedAt time.Time
}

// Allows reports whether this rule grants the action, given whether the
// caller owns the target resource. Ownership never widens an All grant;
// it only activates the own-scope flags.
func (r AccessRule) Allows(action Action, isOwner bool) bool {
	switch action {
	case ActionCreate:
		return r.Create
	case ActionRead:
		return r.ReadAll || (isOwner && r.Read)
	case ActionUpdate:
		return r.UpdateAll || (isOwner && r.Update)
	case ActionDelete:
		return r.DeleteAll || (isOwner && r.Delete)
	}
	return false
}

// RuleFilter narrows ListRules.
type RuleFilter struct {
	RoleID    *int64
	ElementID *int64
}
