package rbac

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/accessd/accessd/internal/platform/httpx"
)

func TestCreateRoleValidatesName(t *testing.T) {
	svc := NewService(newMockRepository())

	_, err := svc.CreateRole(context.Background(), "   ")
	require.ErrorIs(t, err, httpx.ErrValidation)

	role, err := svc.CreateRole(context.Background(), "  auditor  ")
	require.NoError(t, err)
	assert.Equal(t, "auditor", role.Name, "names are stored trimmed")
}

func TestCreateRoleDuplicateConflicts(t *testing.T) {
	svc := NewService(newMockRepository())

	_, err := svc.CreateRole(context.Background(), "admin")
	require.NoError(t, err)

	_, err = svc.CreateRole(context.Background(), "admin")
	require.ErrorIs(t, err, httpx.ErrDuplicate)
}

func TestRenameRole(t *testing.T) {
	repo := newMockRepository()
	svc := NewService(repo)

	first, err := svc.CreateRole(context.Background(), "first")
	require.NoError(t, err)
	_, err = svc.CreateRole(context.Background(), "second")
	require.NoError(t, err)

	_, err = svc.RenameRole(context.Background(), first.ID, "second")
	require.ErrorIs(t, err, httpx.ErrDuplicate)

	_, err = svc.RenameRole(context.Background(), 404, "third")
	require.ErrorIs(t, err, httpx.ErrNotFound)

	renamed, err := svc.RenameRole(context.Background(), first.ID, "primary")
	require.NoError(t, err)
	assert.Equal(t, "primary", renamed.Name)
}

func TestDeleteRoleReferencedByRule(t *testing.T) {
	repo := newMockRepository()
	svc := NewService(repo)

	role := mustRole(t, repo, "user")
	element := mustElement(t, repo, "products")
	rule := mustRule(t, repo, role.ID, element.ID, RuleFlags{Read: true})

	err := svc.DeleteRole(context.Background(), role.ID)
	require.ErrorIs(t, err, httpx.ErrDuplicate, "referenced roles cannot be deleted")

	// Dropping the referencing rule unblocks the delete.
	delete(repo.rules, rule.ID)
	require.NoError(t, svc.DeleteRole(context.Background(), role.ID))

	_, err = svc.GetRole(context.Background(), role.ID)
	require.ErrorIs(t, err, httpx.ErrNotFound)
}

func TestCreateElementValidatesCode(t *testing.T) {
	svc := NewService(newMockRepository())

	_, err := svc.CreateElement(context.Background(), "  ", nil)
	require.ErrorIs(t, err, httpx.ErrValidation)

	element, err := svc.CreateElement(context.Background(), " products ", strPtr("Products"))
	require.NoError(t, err)
	assert.Equal(t, "products", element.Code)

	_, err = svc.CreateElement(context.Background(), "products", nil)
	require.ErrorIs(t, err, httpx.ErrDuplicate)
}

func TestUpdateElementKeepsTitleWhenOmitted(t *testing.T) {
	repo := newMockRepository()
	svc := NewService(repo)

	element, err := svc.CreateElement(context.Background(), "orders", strPtr("Orders"))
	require.NoError(t, err)

	unchanged, err := svc.UpdateElement(context.Background(), element.ID, nil)
	require.NoError(t, err)
	require.NotNil(t, unchanged.Title)
	assert.Equal(t, "Orders", *unchanged.Title)

	updated, err := svc.UpdateElement(context.Background(), element.ID, strPtr("Sales Orders"))
	require.NoError(t, err)
	require.NotNil(t, updated.Title)
	assert.Equal(t, "Sales Orders", *updated.Title)
}

func TestDeleteElementReferencedByRule(t *testing.T) {
	repo := newMockRepository()
	svc := NewService(repo)

	role := mustRole(t, repo, "user")
	element := mustElement(t, repo, "products")
	rule := mustRule(t, repo, role.ID, element.ID, RuleFlags{Read: true})

	err := svc.DeleteElement(context.Background(), element.ID)
	require.ErrorIs(t, err, httpx.ErrDuplicate)

	delete(repo.rules, rule.ID)
	require.NoError(t, svc.DeleteElement(context.Background(), element.ID))
}

func TestUpsertRuleRequiresRoleAndElement(t *testing.T) {
	repo := newMockRepository()
	svc := NewService(repo)

	role := mustRole(t, repo, "user")
	element := mustElement(t, repo, "products")

	_, err := svc.UpsertRule(context.Background(), 999, element.ID, RuleFlags{Read: true})
	require.ErrorIs(t, err, httpx.ErrNotFound)

	_, err = svc.UpsertRule(context.Background(), role.ID, 999, RuleFlags{Read: true})
	require.ErrorIs(t, err, httpx.ErrNotFound)
}

func TestUpsertRuleIsIdempotent(t *testing.T) {
	repo := newMockRepository()
	svc := NewService(repo)

	role := mustRole(t, repo, "user")
	element := mustElement(t, repo, "products")

	flags := RuleFlags{Read: true, Create: true}
	first, err := svc.UpsertRule(context.Background(), role.ID, element.ID, flags)
	require.NoError(t, err)

	retry, err := svc.UpsertRule(context.Background(), role.ID, element.ID, flags)
	require.NoError(t, err)
	assert.Equal(t, first.ID, retry.ID, "retry touches the same row")
	assert.Equal(t, first.RuleFlags, retry.RuleFlags)

	rules, err := svc.ListRules(context.Background(), RuleFilter{RoleID: &role.ID})
	require.NoError(t, err)
	assert.Len(t, rules, 1, "one row per (role, element) pair")
}

func TestUpsertRuleOverwritesAllFlags(t *testing.T) {
	repo := newMockRepository()
	svc := NewService(repo)

	role := mustRole(t, repo, "user")
	element := mustElement(t, repo, "products")

	_, err := svc.UpsertRule(context.Background(), role.ID, element.ID, RuleFlags{ReadAll: true, DeleteAll: true})
	require.NoError(t, err)

	updated, err := svc.UpsertRule(context.Background(), role.ID, element.ID, RuleFlags{Read: true})
	require.NoError(t, err)
	assert.True(t, updated.Read)
	assert.False(t, updated.ReadAll, "flags absent from the payload reset to false")
	assert.False(t, updated.DeleteAll)
}

func TestListRulesFilters(t *testing.T) {
	repo := newMockRepository()
	svc := NewService(repo)

	roleA := mustRole(t, repo, "a")
	roleB := mustRole(t, repo, "b")
	products := mustElement(t, repo, "products")
	orders := mustElement(t, repo, "orders")
	mustRule(t, repo, roleA.ID, products.ID, RuleFlags{Read: true})
	mustRule(t, repo, roleA.ID, orders.ID, RuleFlags{Read: true})
	mustRule(t, repo, roleB.ID, products.ID, RuleFlags{Read: true})

	all, err := svc.ListRules(context.Background(), RuleFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 3)

	byRole, err := svc.ListRules(context.Background(), RuleFilter{RoleID: &roleA.ID})
	require.NoError(t, err)
	assert.Len(t, byRole, 2)

	byBoth, err := svc.ListRules(context.Background(), RuleFilter{RoleID: &roleB.ID, ElementID: &products.ID})
	require.NoError(t, err)
	require.Len(t, byBoth, 1)
	assert.Equal(t, roleB.ID, byBoth[0].RoleID)
}

func TestAssignRoleChecksExistence(t *testing.T) {
	repo := newMockRepository()
	svc := NewService(repo)

	role := mustRole(t, repo, "user")

	err := svc.AssignRole(context.Background(), 42, role.ID)
	require.ErrorIs(t, err, httpx.ErrNotFound, "unknown user")

	repo.addUser(42)
	err = svc.AssignRole(context.Background(), 42, 999)
	require.ErrorIs(t, err, httpx.ErrNotFound, "unknown role")

	require.NoError(t, svc.AssignRole(context.Background(), 42, role.ID))
	// Re-assigning the same pair is a no-op, not a conflict.
	require.NoError(t, svc.AssignRole(context.Background(), 42, role.ID))

	roles, err := svc.ListUserRoles(context.Background(), 42)
	require.NoError(t, err)
	assert.Len(t, roles, 1)
}

func TestUnassignRoleMissingPairIsNoop(t *testing.T) {
	repo := newMockRepository()
	svc := NewService(repo)

	role := mustRole(t, repo, "user")
	repo.addUser(42)

	require.NoError(t, svc.UnassignRole(context.Background(), 42, role.ID))
}

func TestListUserRolesUnknownUser(t *testing.T) {
	svc := NewService(newMockRepository())

	_, err := svc.ListUserRoles(context.Background(), 1)
	require.ErrorIs(t, err, httpx.ErrNotFound)
}
