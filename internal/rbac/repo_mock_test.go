package rbac

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/accessd/accessd/internal/platform/httpx"
)

// mockRepository is an in-memory RepositoryPort with the same conflict
// semantics as the PostgreSQL implementation.
type mockRepository struct {
	roles         map[int64]*Role
	elements      map[int64]*BusinessElement
	rules         map[int64]*AccessRule
	memberships   map[int64]map[int64]bool // userID -> roleID set
	users         map[int64]bool
	nextRoleID    int64
	nextElementID int64
	nextRuleID    int64

	// Error injection
	listRulesErr error
}

func newMockRepository() *mockRepository {
	return &mockRepository{
		roles:         make(map[int64]*Role),
		elements:      make(map[int64]*BusinessElement),
		rules:         make(map[int64]*AccessRule),
		memberships:   make(map[int64]map[int64]bool),
		users:         make(map[int64]bool),
		nextRoleID:    1,
		nextElementID: 1,
		nextRuleID:    1,
	}
}

func (m *mockRepository) addUser(id int64) {
	m.users[id] = true
}

func (m *mockRepository) ListRoles(ctx context.Context) ([]Role, error) {
	var roles []Role
	for id := int64(1); id < m.nextRoleID; id++ {
		if role, ok := m.roles[id]; ok {
			roles = append(roles, *role)
		}
	}
	return roles, nil
}

func (m *mockRepository) GetRole(ctx context.Context, id int64) (Role, error) {
	role, ok := m.roles[id]
	if !ok {
		return Role{}, fmt.Errorf("%w: role", httpx.ErrNotFound)
	}
	return *role, nil
}

func (m *mockRepository) CreateRole(ctx context.Context, name string) (Role, error) {
	for _, role := range m.roles {
		if role.Name == name {
			return Role{}, fmt.Errorf("%w: role already exists", httpx.ErrDuplicate)
		}
	}
	role := &Role{ID: m.nextRoleID, Name: name, CreatedAt: time.Now()}
	m.roles[role.ID] = role
	m.nextRoleID++
	return *role, nil
}

func (m *mockRepository) RenameRole(ctx context.Context, id int64, name string) (Role, error) {
	role, ok := m.roles[id]
	if !ok {
		return Role{}, fmt.Errorf("%w: role", httpx.ErrNotFound)
	}
	for _, other := range m.roles {
		if other.ID != id && other.Name == name {
			return Role{}, fmt.Errorf("%w: role already exists", httpx.ErrDuplicate)
		}
	}
	role.Name = name
	return *role, nil
}

func (m *mockRepository) DeleteRole(ctx context.Context, id int64) error {
	if _, ok := m.roles[id]; !ok {
		return fmt.Errorf("%w: role", httpx.ErrNotFound)
	}
	for _, rule := range m.rules {
		if rule.RoleID == id {
			return fmt.Errorf("%w: role is used", httpx.ErrDuplicate)
		}
	}
	delete(m.roles, id)
	for _, held := range m.memberships {
		delete(held, id)
	}
	return nil
}

func (m *mockRepository) ListElements(ctx context.Context) ([]BusinessElement, error) {
	var elements []BusinessElement
	for id := int64(1); id < m.nextElementID; id++ {
		if element, ok := m.elements[id]; ok {
			elements = append(elements, *element)
		}
	}
	return elements, nil
}

func (m *mockRepository) GetElement(ctx context.Context, id int64) (BusinessElement, error) {
	element, ok := m.elements[id]
	if !ok {
		return BusinessElement{}, fmt.Errorf("%w: element", httpx.ErrNotFound)
	}
	return *element, nil
}

func (m *mockRepository) FindElementByCode(ctx context.Context, code string) (BusinessElement, error) {
	for _, element := range m.elements {
		if element.Code == code {
			return *element, nil
		}
	}
	return BusinessElement{}, fmt.Errorf("%w: element", httpx.ErrNotFound)
}

func (m *mockRepository) CreateElement(ctx context.Context, code string, title *string) (BusinessElement, error) {
	for _, element := range m.elements {
		if element.Code == code {
			return BusinessElement{}, fmt.Errorf("%w: element code already exists", httpx.ErrDuplicate)
		}
	}
	element := &BusinessElement{ID: m.nextElementID, Code: code, Title: title, CreatedAt: time.Now()}
	m.elements[element.ID] = element
	m.nextElementID++
	return *element, nil
}

func (m *mockRepository) UpdateElementTitle(ctx context.Context, id int64, title *string) (BusinessElement, error) {
	element, ok := m.elements[id]
	if !ok {
		return BusinessElement{}, fmt.Errorf("%w: element", httpx.ErrNotFound)
	}
	element.Title = title
	return *element, nil
}

func (m *mockRepository) DeleteElement(ctx context.Context, id int64) error {
	if _, ok := m.elements[id]; !ok {
		return fmt.Errorf("%w: element", httpx.ErrNotFound)
	}
	for _, rule := range m.rules {
		if rule.ElementID == id {
			return fmt.Errorf("%w: element is used in rules", httpx.ErrDuplicate)
		}
	}
	delete(m.elements, id)
	return nil
}

func (m *mockRepository) ListRules(ctx context.Context, filter RuleFilter) ([]AccessRule, error) {
	var rules []AccessRule
	for id := int64(1); id < m.nextRuleID; id++ {
		rule, ok := m.rules[id]
		if !ok {
			continue
		}
		if filter.RoleID != nil && rule.RoleID != *filter.RoleID {
			continue
		}
		if filter.ElementID != nil && rule.ElementID != *filter.ElementID {
			continue
		}
		rules = append(rules, *rule)
	}
	return rules, nil
}

func (m *mockRepository) GetRule(ctx context.Context, id int64) (AccessRule, error) {
	rule, ok := m.rules[id]
	if !ok {
		return AccessRule{}, fmt.Errorf("%w: rule", httpx.ErrNotFound)
	}
	return *rule, nil
}

func (m *mockRepository) UpsertRule(ctx context.Context, roleID, elementID int64, flags RuleFlags) (AccessRule, error) {
	if _, ok := m.roles[roleID]; !ok {
		return AccessRule{}, fmt.Errorf("%w: role", httpx.ErrNotFound)
	}
	if _, ok := m.elements[elementID]; !ok {
		return AccessRule{}, fmt.Errorf("%w: element", httpx.ErrNotFound)
	}
	for _, rule := range m.rules {
		if rule.RoleID == roleID && rule.ElementID == elementID {
			rule.RuleFlags = flags
			return *rule, nil
		}
	}
	rule := &AccessRule{ID: m.nextRuleID, RoleID: roleID, ElementID: elementID, RuleFlags: flags, CreatedAt: time.Now()}
	m.rules[rule.ID] = rule
	m.nextRuleID++
	return *rule, nil
}

func (m *mockRepository) ListRulesFor(ctx context.Context, roleIDs []int64, elementID int64) ([]AccessRule, error) {
	if m.listRulesErr != nil {
		return nil, m.listRulesErr
	}
	roleSet := make(map[int64]bool, len(roleIDs))
	for _, id := range roleIDs {
		roleSet[id] = true
	}
	var rules []AccessRule
	for _, rule := range m.rules {
		if rule.ElementID == elementID && roleSet[rule.RoleID] {
			rules = append(rules, *rule)
		}
	}
	return rules, nil
}

func (m *mockRepository) ListRoleIDsForUser(ctx context.Context, userID int64) ([]int64, error) {
	var ids []int64
	for roleID := range m.memberships[userID] {
		ids = append(ids, roleID)
	}
	return ids, nil
}

func (m *mockRepository) ListRolesForUser(ctx context.Context, userID int64) ([]Role, error) {
	var roles []Role
	for roleID := range m.memberships[userID] {
		if role, ok := m.roles[roleID]; ok {
			roles = append(roles, *role)
		}
	}
	return roles, nil
}

func (m *mockRepository) UserExists(ctx context.Context, userID int64) (bool, error) {
	return m.users[userID], nil
}

func (m *mockRepository) AssignRole(ctx context.Context, userID, roleID int64) error {
	if m.memberships[userID] == nil {
		m.memberships[userID] = make(map[int64]bool)
	}
	m.memberships[userID][roleID] = true
	return nil
}

func (m *mockRepository) UnassignRole(ctx context.Context, userID, roleID int64) error {
	delete(m.memberships[userID], roleID)
	return nil
}

var _ RepositoryPort = (*mockRepository)(nil)

// strPtr helps build optional titles in tests.
func strPtr(s string) *string {
	trimmed := strings.TrimSpace(s)
	return &trimmed
}
