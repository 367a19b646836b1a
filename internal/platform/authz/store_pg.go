package authz

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type grantStorePG struct {
	pool *pgxpool.Pool
}

// NewGrantStore creates the pgx-backed grant store.
func NewGrantStore(pool *pgxpool.Pool) GrantStore {
	return &grantStorePG{pool: pool}
}

func (s *grantStorePG) StaffGrants(ctx context.Context, subject string) (*StaffGrants, error) {
	userID, err := uuid.Parse(subject)
	if err != nil {
		// Subjects that are not user IDs (external tokens) have no staff record.
		return nil, nil
	}

	var staffID uuid.UUID
	err = s.pool.QueryRow(ctx,
		`SELECT id FROM staff_members WHERE user_id = $1`, userID).Scan(&staffID)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("staff lookup: %w", err)
	}

	rows, err := s.pool.Query(ctx, `
		SELECT p.id, p.name, p.category, p.description
		FROM staff_permissions sp
		JOIN permissions p ON p.id = sp.permission_id
		WHERE sp.staff_id = $1`, staffID)
	if err != nil {
		return nil, fmt.Errorf("staff grants: %w", err)
	}
	perms, err := collectPermissions(rows)
	if err != nil {
		return nil, fmt.Errorf("staff grants: %w", err)
	}

	return &StaffGrants{StaffID: staffID, Permissions: perms}, nil
}

func (s *grantStorePG) UserGrants(ctx context.Context, subject string) ([]Permission, error) {
	userID, err := uuid.Parse(subject)
	if err != nil {
		return nil, nil
	}

	rows, err := s.pool.Query(ctx, `
		SELECT p.id, p.name, p.category, p.description
		FROM user_permissions up
		JOIN permissions p ON p.id = up.permission_id
		WHERE up.user_id = $1`, userID)
	if err != nil {
		return nil, fmt.Errorf("user grants: %w", err)
	}
	perms, err := collectPermissions(rows)
	if err != nil {
		return nil, fmt.Errorf("user grants: %w", err)
	}
	return perms, nil
}

func (s *grantStorePG) RoleGrants(ctx context.Context, roles []string) ([]Permission, error) {
	if len(roles) == 0 {
		return nil, nil
	}

	rows, err := s.pool.Query(ctx, `
		SELECT DISTINCT p.id, p.name, p.category, p.description
		FROM role_permissions rp
		JOIN roles r ON r.id = rp.role_id
		JOIN permissions p ON p.id = rp.permission_id
		WHERE r.name = ANY($1)`, roles)
	if err != nil {
		return nil, fmt.Errorf("role grants: %w", err)
	}
	perms, err := collectPermissions(rows)
	if err != nil {
		return nil, fmt.Errorf("role grants: %w", err)
	}
	return perms, nil
}

func (s *grantStorePG) AccountStatus(ctx context.Context, subject string) (string, error) {
	userID, err := uuid.Parse(subject)
	if err != nil {
		return "", nil
	}

	var status string
	err = s.pool.QueryRow(ctx,
		`SELECT status FROM users WHERE id = $1`, userID).Scan(&status)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("account status: %w", err)
	}
	return status, nil
}

func collectPermissions(rows pgx.Rows) ([]Permission, error) {
	defer rows.Close()

	var perms []Permission
	for rows.Next() {
		var p Permission
		if err := rows.Scan(&p.ID, &p.Name, &p.Category, &p.Description); err != nil {
			return nil, err
		}
		perms = append(perms, p)
	}
	return perms, rows.Err()
}
