package staff

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/bhcms/bhcms/internal/platform/authz"
)

// GrantInvalidator drops a subject's cached grant snapshot after a grant
// mutation so the next authorization check sees fresh grants.
type GrantInvalidator interface {
	InvalidateGrants(ctx context.Context, subject string)
}

type Service struct {
	repo        Repository
	grants      GrantRepository
	invalidator GrantInvalidator
}

func NewService(repo Repository, grants GrantRepository, invalidator GrantInvalidator) *Service {
	return &Service{repo: repo, grants: grants, invalidator: invalidator}
}

// Enroll creates a staff record for an existing user. From this point on the
// user is authorized solely through staff permission grants, so the cached
// snapshot must be dropped immediately.
func (s *Service) Enroll(ctx context.Context, m *StaffMember) error {
	if m.UserID == uuid.Nil {
		return errors.New("user is required")
	}
	if m.Position == "" {
		return errors.New("position is required")
	}
	if err := s.repo.Create(ctx, m); err != nil {
		return err
	}
	s.invalidator.InvalidateGrants(ctx, m.UserID.String())
	return nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*StaffMember, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) List(ctx context.Context, limit, offset int) ([]*StaffMember, int, error) {
	return s.repo.List(ctx, limit, offset)
}

func (s *Service) SetActive(ctx context.Context, id uuid.UUID, active bool) error {
	m, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if err := s.repo.SetActive(ctx, id, active); err != nil {
		return err
	}
	s.invalidator.InvalidateGrants(ctx, m.UserID.String())
	return nil
}

// Remove deletes the staff record. The user falls back to role and direct
// user grants on their next request.
func (s *Service) Remove(ctx context.Context, id uuid.UUID) error {
	m, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.invalidator.InvalidateGrants(ctx, m.UserID.String())
	return nil
}

func (s *Service) ListPermissions(ctx context.Context) ([]authz.Permission, error) {
	return s.grants.ListPermissions(ctx)
}

func (s *Service) GrantToStaff(ctx context.Context, staffID uuid.UUID, permission string) error {
	m, err := s.repo.GetByID(ctx, staffID)
	if err != nil {
		return err
	}
	if err := s.grants.GrantToStaff(ctx, staffID, permission); err != nil {
		return err
	}
	s.invalidator.InvalidateGrants(ctx, m.UserID.String())
	return nil
}

func (s *Service) RevokeFromStaff(ctx context.Context, staffID uuid.UUID, permission string) error {
	m, err := s.repo.GetByID(ctx, staffID)
	if err != nil {
		return err
	}
	if err := s.grants.RevokeFromStaff(ctx, staffID, permission); err != nil {
		return err
	}
	s.invalidator.InvalidateGrants(ctx, m.UserID.String())
	return nil
}

func (s *Service) GrantToUser(ctx context.Context, userID uuid.UUID, permission string) error {
	if err := s.grants.GrantToUser(ctx, userID, permission); err != nil {
		return err
	}
	s.invalidator.InvalidateGrants(ctx, userID.String())
	return nil
}

func (s *Service) RevokeFromUser(ctx context.Context, userID uuid.UUID, permission string) error {
	if err := s.grants.RevokeFromUser(ctx, userID, permission); err != nil {
		return err
	}
	s.invalidator.InvalidateGrants(ctx, userID.String())
	return nil
}

// GrantToRole and RevokeFromRole cannot invalidate per-subject snapshots;
// cached grants for affected users age out with the snapshot TTL.
func (s *Service) GrantToRole(ctx context.Context, role, permission string) error {
	return s.grants.GrantToRole(ctx, role, permission)
}

func (s *Service) RevokeFromRole(ctx context.Context, role, permission string) error {
	return s.grants.RevokeFromRole(ctx, role, permission)
}
