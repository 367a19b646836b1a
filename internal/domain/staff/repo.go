package staff

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/bhcms/bhcms/internal/platform/authz"
)

var (
	ErrNotFound           = errors.New("staff member not found")
	ErrAlreadyStaff       = errors.New("user already has a staff record")
	ErrPermissionNotFound = errors.New("permission not found")
	ErrRoleNotFound       = errors.New("role not found")
)

type Repository interface {
	Create(ctx context.Context, m *StaffMember) error
	GetByID(ctx context.Context, id uuid.UUID) (*StaffMember, error)
	GetByUserID(ctx context.Context, userID uuid.UUID) (*StaffMember, error)
	List(ctx context.Context, limit, offset int) ([]*StaffMember, int, error)
	SetActive(ctx context.Context, id uuid.UUID, active bool) error
	Delete(ctx context.Context, id uuid.UUID) error
}

// GrantRepository administers permission grants across the three grant
// tables. Permissions and roles are referenced by name.
type GrantRepository interface {
	ListPermissions(ctx context.Context) ([]authz.Permission, error)
	GrantToStaff(ctx context.Context, staffID uuid.UUID, permission string) error
	RevokeFromStaff(ctx context.Context, staffID uuid.UUID, permission string) error
	GrantToUser(ctx context.Context, userID uuid.UUID, permission string) error
	RevokeFromUser(ctx context.Context, userID uuid.UUID, permission string) error
	GrantToRole(ctx context.Context, role, permission string) error
	RevokeFromRole(ctx context.Context, role, permission string) error
}
