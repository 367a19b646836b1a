package accounts

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/bhcms/bhcms/internal/platform/privacy"
)

type userRepoPG struct {
	pool *pgxpool.Pool
	svc  *privacy.Service
}

// NewUserRepo creates the pgx-backed user repository. Sensitive fields are
// encrypted with svc before storage.
func NewUserRepo(pool *pgxpool.Pool, svc *privacy.Service) UserRepository {
	return &userRepoPG{pool: pool, svc: svc}
}

const userCols = `id, email, password_hash, full_name, contact_number, status, created_at, updated_at`

func (r *userRepoPG) Create(ctx context.Context, u *User) error {
	u.ID = uuid.New()

	if err := u.EncryptSensitiveData(r.svc); err != nil {
		return fmt.Errorf("user create: %w", err)
	}

	_, err := r.pool.Exec(ctx, `
		INSERT INTO users (id, email, password_hash, full_name, contact_number, status)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		u.ID, u.Email, u.PasswordHash, u.FullName, u.ContactNumber, u.Status)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return ErrEmailTaken
		}
		return fmt.Errorf("user create: %w", err)
	}

	for _, role := range u.Roles {
		if err := r.AssignRole(ctx, u.ID, role); err != nil {
			return err
		}
	}
	return nil
}

func (r *userRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*User, error) {
	u, err := r.scanUser(r.pool.QueryRow(ctx,
		`SELECT `+userCols+` FROM users WHERE id = $1`, id))
	if err != nil {
		return nil, err
	}
	if u.Roles, err = r.rolesOf(ctx, u.ID); err != nil {
		return nil, err
	}
	return u, nil
}

func (r *userRepoPG) GetByEmail(ctx context.Context, email string) (*User, error) {
	u, err := r.scanUser(r.pool.QueryRow(ctx,
		`SELECT `+userCols+` FROM users WHERE email = $1`, email))
	if err != nil {
		return nil, err
	}
	if u.Roles, err = r.rolesOf(ctx, u.ID); err != nil {
		return nil, err
	}
	return u, nil
}

func (r *userRepoPG) List(ctx context.Context, limit, offset int) ([]*User, int, error) {
	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM users`).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("user list count: %w", err)
	}

	rows, err := r.pool.Query(ctx,
		`SELECT `+userCols+` FROM users ORDER BY created_at DESC LIMIT $1 OFFSET $2`,
		limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("user list: %w", err)
	}
	defer rows.Close()

	var users []*User
	for rows.Next() {
		u, err := r.scanUser(rows)
		if err != nil {
			return nil, 0, err
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("user list: %w", err)
	}
	return users, total, nil
}

func (r *userRepoPG) UpdateStatus(ctx context.Context, id uuid.UUID, status string) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE users SET status = $2, updated_at = NOW() WHERE id = $1`, id, status)
	if err != nil {
		return fmt.Errorf("user update status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *userRepoPG) AssignRole(ctx context.Context, id uuid.UUID, role string) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO user_roles (user_id, role_id)
		SELECT $1, r.id FROM roles r WHERE r.name = $2
		ON CONFLICT DO NOTHING`, id, role)
	if err != nil {
		return fmt.Errorf("assign role %q: %w", role, err)
	}
	return nil
}

func (r *userRepoPG) RemoveRole(ctx context.Context, id uuid.UUID, role string) error {
	_, err := r.pool.Exec(ctx, `
		DELETE FROM user_roles ur USING roles r
		WHERE ur.user_id = $1 AND ur.role_id = r.id AND r.name = $2`, id, role)
	if err != nil {
		return fmt.Errorf("remove role %q: %w", role, err)
	}
	return nil
}

func (r *userRepoPG) rolesOf(ctx context.Context, id uuid.UUID) ([]string, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT r.name FROM user_roles ur
		JOIN roles r ON r.id = ur.role_id
		WHERE ur.user_id = $1 ORDER BY r.name`, id)
	if err != nil {
		return nil, fmt.Errorf("user roles: %w", err)
	}
	defer rows.Close()

	var roles []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		roles = append(roles, name)
	}
	return roles, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func (r *userRepoPG) scanUser(row rowScanner) (*User, error) {
	var u User
	err := row.Scan(&u.ID, &u.Email, &u.PasswordHash, &u.FullName, &u.ContactNumber,
		&u.Status, &u.CreatedAt, &u.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan user: %w", err)
	}
	return &u, nil
}
