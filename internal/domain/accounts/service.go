package accounts

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/bhcms/bhcms/internal/platform/auth"
	"github.com/bhcms/bhcms/internal/platform/authz"
)

// GrantInvalidator drops a user's cached permission snapshot. Satisfied by
// *authz.Resolver; invalidation is best-effort by contract.
type GrantInvalidator interface {
	InvalidateGrants(ctx context.Context, subject string)
}

type Service struct {
	users       UserRepository
	issuer      *auth.TokenIssuer
	invalidator GrantInvalidator
}

func NewService(users UserRepository, issuer *auth.TokenIssuer, invalidator GrantInvalidator) *Service {
	return &Service{users: users, issuer: issuer, invalidator: invalidator}
}

// Register creates a new account with the patient-facing "User" role and a
// Pending status awaiting verification by staff.
func (s *Service) Register(ctx context.Context, email, password, fullName, contactNumber string) (*User, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	if email == "" || !strings.Contains(email, "@") {
		return nil, fmt.Errorf("a valid email is required")
	}
	if len(password) < 8 {
		return nil, fmt.Errorf("password must be at least 8 characters")
	}
	if strings.TrimSpace(fullName) == "" {
		return nil, fmt.Errorf("full name is required")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	u := &User{
		Email:         email,
		PasswordHash:  string(hash),
		FullName:      fullName,
		ContactNumber: contactNumber,
		Status:        authz.StatusPending,
		Roles:         []string{auth.RoleUser},
	}
	if err := s.users.Create(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

// Login verifies credentials and returns a signed access token. A successful
// login clears the user's cached permission snapshot so grants changed while
// they were logged out take effect immediately; the clear is best-effort.
func (s *Service) Login(ctx context.Context, email, password string) (string, *User, error) {
	u, err := s.users.GetByEmail(ctx, strings.TrimSpace(strings.ToLower(email)))
	if err != nil {
		return "", nil, fmt.Errorf("invalid email or password")
	}
	if u.Status == authz.StatusDisabled {
		return "", nil, fmt.Errorf("account is disabled")
	}
	if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) != nil {
		return "", nil, fmt.Errorf("invalid email or password")
	}

	token, err := s.issuer.Issue(u.ID.String(), u.Email, u.Roles)
	if err != nil {
		return "", nil, fmt.Errorf("issue token: %w", err)
	}

	if s.invalidator != nil {
		s.invalidator.InvalidateGrants(ctx, u.ID.String())
	}
	return token, u, nil
}

// Verify marks an account as Verified, unlocking the dashboard convenience
// rules tied to account status.
func (s *Service) Verify(ctx context.Context, id uuid.UUID) error {
	if err := s.users.UpdateStatus(ctx, id, authz.StatusVerified); err != nil {
		return err
	}
	s.invalidate(ctx, id)
	return nil
}

// Disable locks an account out.
func (s *Service) Disable(ctx context.Context, id uuid.UUID) error {
	if err := s.users.UpdateStatus(ctx, id, authz.StatusDisabled); err != nil {
		return err
	}
	s.invalidate(ctx, id)
	return nil
}

// AssignRole grants a role to a user and drops their cached permissions.
func (s *Service) AssignRole(ctx context.Context, id uuid.UUID, role string) error {
	if strings.TrimSpace(role) == "" {
		return fmt.Errorf("role is required")
	}
	if err := s.users.AssignRole(ctx, id, role); err != nil {
		return err
	}
	s.invalidate(ctx, id)
	return nil
}

// RemoveRole revokes a role from a user and drops their cached permissions.
func (s *Service) RemoveRole(ctx context.Context, id uuid.UUID, role string) error {
	if err := s.users.RemoveRole(ctx, id, role); err != nil {
		return err
	}
	s.invalidate(ctx, id)
	return nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*User, error) {
	return s.users.GetByID(ctx, id)
}

func (s *Service) List(ctx context.Context, limit, offset int) ([]*User, int, error) {
	return s.users.List(ctx, limit, offset)
}

func (s *Service) invalidate(ctx context.Context, id uuid.UUID) {
	if s.invalidator != nil {
		s.invalidator.InvalidateGrants(ctx, id.String())
	}
}
