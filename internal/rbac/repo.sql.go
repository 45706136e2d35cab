package rbac

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/accessd/accessd/internal/platform/db"
	"github.com/accessd/accessd/internal/platform/httpx"
)

// PGRepository provides PostgreSQL backed persistence for the RBAC aggregate.
type PGRepository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

const ruleColumns = `id, role_id, element_id,
	read_permission, read_all_permission, create_permission,
	update_permission, update_all_permission, delete_permission, delete_all_permission,
	created_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRole(row rowScanner) (Role, error) {
	var role Role
	if err := row.Scan(&role.ID, &role.Name, &role.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Role{}, fmt.Errorf("%w: role", httpx.ErrNotFound)
		}
		return Role{}, err
	}
	return role, nil
}

func scanElement(row rowScanner) (BusinessElement, error) {
	var element BusinessElement
	if err := row.Scan(&element.ID, &element.Code, &element.Title, &element.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return BusinessElement{}, fmt.Errorf("%w: element", httpx.ErrNotFound)
		}
		return BusinessElement{}, err
	}
	return element, nil
}

func scanRule(row rowScanner) (AccessRule, error) {
	var rule AccessRule
	err := row.Scan(&rule.ID, &rule.RoleID, &rule.ElementID,
		&rule.Read, &rule.ReadAll, &rule.Create,
		&rule.Update, &rule.UpdateAll, &rule.Delete, &rule.DeleteAll,
		&rule.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return AccessRule{}, fmt.Errorf("%w: rule", httpx.ErrNotFound)
		}
		return AccessRule{}, err
	}
	return rule, nil
}

// mapConstraintErr translates PostgreSQL constraint violations into the
// domain error taxonomy: unique violations and restricted foreign keys
// both surface as Conflict to the caller.
func mapConstraintErr(err error, detail string) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23505", "23503":
			return fmt.Errorf("%w: %s", httpx.ErrDuplicate, detail)
		}
	}
	return err
}

// ListRoles returns all roles ordered by id.
func (r *PGRepository) ListRoles(ctx context.Context) ([]Role, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, name, created_at FROM roles ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var roles []Role
	for rows.Next() {
		role, err := scanRole(rows)
		if err != nil {
			return nil, err
		}
		roles = append(roles, role)
	}
	return roles, rows.Err()
}

// GetRole fetches a role by id.
func (r *PGRepository) GetRole(ctx context.Context, id int64) (Role, error) {
	return scanRole(r.pool.QueryRow(ctx, `SELECT id, name, created_at FROM roles WHERE id = $1`, id))
}

// CreateRole inserts a new role.
func (r *PGRepository) CreateRole(ctx context.Context, name string) (Role, error) {
	role, err := scanRole(r.pool.QueryRow(ctx,
		`INSERT INTO roles (name) VALUES ($1) RETURNING id, name, created_at`, name))
	if err != nil {
		return Role{}, mapConstraintErr(err, "role already exists")
	}
	return role, nil
}

// RenameRole updates a role name.
func (r *PGRepository) RenameRole(ctx context.Context, id int64, name string) (Role, error) {
	role, err := scanRole(r.pool.QueryRow(ctx,
		`UPDATE roles SET name = $2 WHERE id = $1 RETURNING id, name, created_at`, id, name))
	if err != nil {
		return Role{}, mapConstraintErr(err, "role already exists")
	}
	return role, nil
}

// DeleteRole removes a role. The delete is rejected with Conflict while
// any access rule still references the role; membership rows cascade.
func (r *PGRepository) DeleteRole(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM roles WHERE id = $1`, id)
	if err != nil {
		return mapConstraintErr(err, "role is used")
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: role", httpx.ErrNotFound)
	}
	return nil
}

// ListElements returns all business elements ordered by id.
func (r *PGRepository) ListElements(ctx context.Context) ([]BusinessElement, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, code, title, created_at FROM business_elements ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var elements []BusinessElement
	for rows.Next() {
		element, err := scanElement(rows)
		if err != nil {
			return nil, err
		}
		elements = append(elements, element)
	}
	return elements, rows.Err()
}

// GetElement fetches a business element by id.
func (r *PGRepository) GetElement(ctx context.Context, id int64) (BusinessElement, error) {
	return scanElement(r.pool.QueryRow(ctx,
		`SELECT id, code, title, created_at FROM business_elements WHERE id = $1`, id))
}

// FindElementByCode fetches a business element by its stable code.
func (r *PGRepository) FindElementByCode(ctx context.Context, code string) (BusinessElement, error) {
	return scanElement(r.pool.QueryRow(ctx,
		`SELECT id, code, title, created_at FROM business_elements WHERE code = $1`, code))
}

// CreateElement inserts a new business element.
func (r *PGRepository) CreateElement(ctx context.Context, code string, title *string) (BusinessElement, error) {
	element, err := scanElement(r.pool.QueryRow(ctx,
		`INSERT INTO business_elements (code, title) VALUES ($1, $2) RETURNING id, code, title, created_at`,
		code, title))
	if err != nil {
		return BusinessElement{}, mapConstraintErr(err, "element code already exists")
	}
	return element, nil
}

// UpdateElementTitle updates the display label of an element. The code
// is a stable identifier and never changes.
func (r *PGRepository) UpdateElementTitle(ctx context.Context, id int64, title *string) (BusinessElement, error) {
	return scanElement(r.pool.QueryRow(ctx,
		`UPDATE business_elements SET title = $2 WHERE id = $1 RETURNING id, code, title, created_at`,
		id, title))
}

// DeleteElement removes an element, rejected with Conflict while rules
// reference it.
func (r *PGRepository) DeleteElement(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM business_elements WHERE id = $1`, id)
	if err != nil {
		return mapConstraintErr(err, "element is used in rules")
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: element", httpx.ErrNotFound)
	}
	return nil
}

// ListRules returns rules, optionally narrowed by role or element.
func (r *PGRepository) ListRules(ctx context.Context, filter RuleFilter) ([]AccessRule, error) {
	query := `SELECT ` + ruleColumns + ` FROM access_roles_rules WHERE 1=1`
	args := []any{}
	if filter.RoleID != nil {
		args = append(args, *filter.RoleID)
		query += fmt.Sprintf(` AND role_id = $%d`, len(args))
	}
	if filter.ElementID != nil {
		args = append(args, *filter.ElementID)
		query += fmt.Sprintf(` AND element_id = $%d`, len(args))
	}
	query += ` ORDER BY id`
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var rules []AccessRule
	for rows.Next() {
		rule, err := scanRule(rows)
		if err != nil {
			return nil, err
		}
		rules = append(rules, rule)
	}
	return rules, rows.Err()
}

// GetRule fetches a rule by id.
func (r *PGRepository) GetRule(ctx context.Context, id int64) (AccessRule, error) {
	return scanRule(r.pool.QueryRow(ctx,
		`SELECT `+ruleColumns+` FROM access_roles_rules WHERE id = $1`, id))
}

// UpsertRule creates or fully replaces the single rule row for a
// (role, element) pair. The existence checks and the write run in one
// transaction so concurrent evaluators see either the old row or the
// new one, never a partial flag set.
func (r *PGRepository) UpsertRule(ctx context.Context, roleID, elementID int64, flags RuleFlags) (AccessRule, error) {
	var rule AccessRule
	err := db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		var exists bool
		if err := tx.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM roles WHERE id = $1)`, roleID).Scan(&exists); err != nil {
			return err
		}
		if !exists {
			return fmt.Errorf("%w: role", httpx.ErrNotFound)
		}
		if err := tx.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM business_elements WHERE id = $1)`, elementID).Scan(&exists); err != nil {
			return err
		}
		if !exists {
			return fmt.Errorf("%w: element", httpx.ErrNotFound)
		}
		row := tx.QueryRow(ctx,
			`INSERT INTO access_roles_rules (role_id, element_id,
				read_permission, read_all_permission, create_permission,
				update_permission, update_all_permission, delete_permission, delete_all_permission)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
			 ON CONFLICT (role_id, element_id) DO UPDATE SET
				read_permission = EXCLUDED.read_permission,
				read_all_permission = EXCLUDED.read_all_permission,
				create_permission = EXCLUDED.create_permission,
				update_permission = EXCLUDED.update_permission,
				update_all_permission = EXCLUDED.update_all_permission,
				delete_permission = EXCLUDED.delete_permission,
				delete_all_permission = EXCLUDED.delete_all_permission
			 RETURNING `+ruleColumns,
			roleID, elementID,
			flags.Read, flags.ReadAll, flags.Create,
			flags.Update, flags.UpdateAll, flags.Delete, flags.DeleteAll)
		var err error
		rule, err = scanRule(row)
		return err
	})
	if err != nil {
		return AccessRule{}, err
	}
	return rule, nil
}

// ListRulesFor loads the rules matching any of the roles for one element.
func (r *PGRepository) ListRulesFor(ctx context.Context, roleIDs []int64, elementID int64) ([]AccessRule, error) {
	if len(roleIDs) == 0 {
		return nil, nil
	}
	rows, err := r.pool.Query(ctx,
		`SELECT `+ruleColumns+` FROM access_roles_rules WHERE role_id = ANY($1) AND element_id = $2`,
		roleIDs, elementID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var rules []AccessRule
	for rows.Next() {
		rule, err := scanRule(rows)
		if err != nil {
			return nil, err
		}
		rules = append(rules, rule)
	}
	return rules, rows.Err()
}

// ListRoleIDsForUser returns the ids of roles held by the user.
func (r *PGRepository) ListRoleIDsForUser(ctx context.Context, userID int64) ([]int64, error) {
	rows, err := r.pool.Query(ctx, `SELECT role_id FROM user_roles WHERE user_id = $1`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// ListRolesForUser returns the full role records held by the user.
func (r *PGRepository) ListRolesForUser(ctx context.Context, userID int64) ([]Role, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT r.id, r.name, r.created_at
		 FROM roles r JOIN user_roles ur ON ur.role_id = r.id
		 WHERE ur.user_id = $1 ORDER BY r.id`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var roles []Role
	for rows.Next() {
		role, err := scanRole(rows)
		if err != nil {
			return nil, err
		}
		roles = append(roles, role)
	}
	return roles, rows.Err()
}

// UserExists reports whether a user row exists.
func (r *PGRepository) UserExists(ctx context.Context, userID int64) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM users WHERE id = $1)`, userID).Scan(&exists)
	return exists, err
}

// AssignRole links a role to a user. Duplicate assignment is a no-op.
func (r *PGRepository) AssignRole(ctx context.Context, userID, roleID int64) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO user_roles (user_id, role_id) VALUES ($1, $2) ON CONFLICT DO NOTHING`,
		userID, roleID)
	return err
}

// UnassignRole removes a membership row. Removing a missing pair is a no-op.
func (r *PGRepository) UnassignRole(ctx context.Context, userID, roleID int64) error {
	_, err := r.pool.Exec(ctx,
		`DELETE FROM user_roles WHERE user_id = $1 AND role_id = $2`, userID, roleID)
	return err
}

var _ RepositoryPort = (*PGRepository)(nil)
