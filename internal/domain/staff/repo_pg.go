package staff

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/bhcms/bhcms/internal/platform/authz"
)

type repoPG struct {
	pool *pgxpool.Pool
}

func NewRepositoryPG(pool *pgxpool.Pool) Repository {
	return &repoPG{pool: pool}
}

const staffCols = `id, user_id, position, active, created_at, updated_at`

func (r *repoPG) Create(ctx context.Context, m *StaffMember) error {
	m.ID = uuid.New()
	now := time.Now().UTC()
	m.CreatedAt = now
	m.UpdatedAt = now
	m.Active = true

	_, err := r.pool.Exec(ctx, `
		INSERT INTO staff_members (id, user_id, position, active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		m.ID, m.UserID, m.Position, m.Active, m.CreatedAt, m.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return ErrAlreadyStaff
		}
		return fmt.Errorf("insert staff member: %w", err)
	}
	return nil
}

func (r *repoPG) GetByID(ctx context.Context, id uuid.UUID) (*StaffMember, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+staffCols+` FROM staff_members WHERE id = $1`, id)
	return scanStaff(row)
}

func (r *repoPG) GetByUserID(ctx context.Context, userID uuid.UUID) (*StaffMember, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+staffCols+` FROM staff_members WHERE user_id = $1`, userID)
	return scanStaff(row)
}

func (r *repoPG) List(ctx context.Context, limit, offset int) ([]*StaffMember, int, error) {
	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM staff_members`).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count staff members: %w", err)
	}

	rows, err := r.pool.Query(ctx, `
		SELECT `+staffCols+` FROM staff_members
		ORDER BY created_at LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("list staff members: %w", err)
	}
	defer rows.Close()

	var list []*StaffMember
	for rows.Next() {
		m, err := scanStaff(rows)
		if err != nil {
			return nil, 0, err
		}
		list = append(list, m)
	}
	return list, total, rows.Err()
}

func (r *repoPG) SetActive(ctx context.Context, id uuid.UUID, active bool) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE staff_members SET active = $2, updated_at = $3 WHERE id = $1`,
		id, active, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("update staff member: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *repoPG) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM staff_members WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete staff member: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanStaff(row rowScanner) (*StaffMember, error) {
	var m StaffMember
	err := row.Scan(&m.ID, &m.UserID, &m.Position, &m.Active, &m.CreatedAt, &m.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan staff member: %w", err)
	}
	return &m, nil
}

type grantRepoPG struct {
	pool *pgxpool.Pool
}

func NewGrantRepositoryPG(pool *pgxpool.Pool) GrantRepository {
	return &grantRepoPG{pool: pool}
}

func (r *grantRepoPG) ListPermissions(ctx context.Context) ([]authz.Permission, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, name, category, description FROM permissions ORDER BY category, name`)
	if err != nil {
		return nil, fmt.Errorf("list permissions: %w", err)
	}
	defer rows.Close()

	var perms []authz.Permission
	for rows.Next() {
		var p authz.Permission
		if err := rows.Scan(&p.ID, &p.Name, &p.Category, &p.Description); err != nil {
			return nil, fmt.Errorf("scan permission: %w", err)
		}
		perms = append(perms, p)
	}
	return perms, rows.Err()
}

func (r *grantRepoPG) GrantToStaff(ctx context.Context, staffID uuid.UUID, permission string) error {
	tag, err := r.pool.Exec(ctx, `
		INSERT INTO staff_permissions (staff_id, permission_id)
		SELECT $1, id FROM permissions WHERE name = $2
		ON CONFLICT DO NOTHING`, staffID, permission)
	if err != nil {
		return fmt.Errorf("grant staff permission: %w", err)
	}
	return checkPermissionExisted(ctx, r.pool, tag, permission)
}

func (r *grantRepoPG) RevokeFromStaff(ctx context.Context, staffID uuid.UUID, permission string) error {
	_, err := r.pool.Exec(ctx, `
		DELETE FROM staff_permissions sp USING permissions p
		WHERE sp.permission_id = p.id AND sp.staff_id = $1 AND p.name = $2`,
		staffID, permission)
	if err != nil {
		return fmt.Errorf("revoke staff permission: %w", err)
	}
	return nil
}

func (r *grantRepoPG) GrantToUser(ctx context.Context, userID uuid.UUID, permission string) error {
	tag, err := r.pool.Exec(ctx, `
		INSERT INTO user_permissions (user_id, permission_id)
		SELECT $1, id FROM permissions WHERE name = $2
		ON CONFLICT DO NOTHING`, userID, permission)
	if err != nil {
		return fmt.Errorf("grant user permission: %w", err)
	}
	return checkPermissionExisted(ctx, r.pool, tag, permission)
}

func (r *grantRepoPG) RevokeFromUser(ctx context.Context, userID uuid.UUID, permission string) error {
	_, err := r.pool.Exec(ctx, `
		DELETE FROM user_permissions up USING permissions p
		WHERE up.permission_id = p.id AND up.user_id = $1 AND p.name = $2`,
		userID, permission)
	if err != nil {
		return fmt.Errorf("revoke user permission: %w", err)
	}
	return nil
}

func (r *grantRepoPG) GrantToRole(ctx context.Context, role, permission string) error {
	tag, err := r.pool.Exec(ctx, `
		INSERT INTO role_permissions (role_id, permission_id)
		SELECT r.id, p.id FROM roles r, permissions p
		WHERE r.name = $1 AND p.name = $2
		ON CONFLICT DO NOTHING`, role, permission)
	if err != nil {
		return fmt.Errorf("grant role permission: %w", err)
	}
	if tag.RowsAffected() == 0 {
		if err := roleExists(ctx, r.pool, role); err != nil {
			return err
		}
		return checkPermissionExisted(ctx, r.pool, tag, permission)
	}
	return nil
}

func (r *grantRepoPG) RevokeFromRole(ctx context.Context, role, permission string) error {
	_, err := r.pool.Exec(ctx, `
		DELETE FROM role_permissions rp USING roles ro, permissions p
		WHERE rp.role_id = ro.id AND rp.permission_id = p.id
		AND ro.name = $1 AND p.name = $2`, role, permission)
	if err != nil {
		return fmt.Errorf("revoke role permission: %w", err)
	}
	return nil
}

// checkPermissionExisted distinguishes "already granted" from "no such
// permission" when an INSERT ... SELECT affected no rows.
func checkPermissionExisted(ctx context.Context, pool *pgxpool.Pool, tag pgconn.CommandTag, permission string) error {
	if tag.RowsAffected() > 0 {
		return nil
	}
	var exists bool
	if err := pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM permissions WHERE name = $1)`, permission).Scan(&exists); err != nil {
		return fmt.Errorf("permission lookup: %w", err)
	}
	if !exists {
		return ErrPermissionNotFound
	}
	return nil
}

func roleExists(ctx context.Context, pool *pgxpool.Pool, role string) error {
	var exists bool
	if err := pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM roles WHERE name = $1)`, role).Scan(&exists); err != nil {
		return fmt.Errorf("role lookup: %w", err)
	}
	if !exists {
		return ErrRoleNotFound
	}
	return nil
}
