package staff

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"

	"github.com/bhcms/bhcms/internal/platform/authz"
)

type fakeStaffRepo struct {
	byID map[uuid.UUID]*StaffMember
}

func newFakeStaffRepo() *fakeStaffRepo {
	return &fakeStaffRepo{byID: make(map[uuid.UUID]*StaffMember)}
}

func (r *fakeStaffRepo) Create(ctx context.Context, m *StaffMember) error {
	for _, existing := range r.byID {
		if existing.UserID == m.UserID {
			return ErrAlreadyStaff
		}
	}
	m.ID = uuid.New()
	m.Active = true
	r.byID[m.ID] = m
	return nil
}

func (r *fakeStaffRepo) GetByID(ctx context.Context, id uuid.UUID) (*StaffMember, error) {
	m, ok := r.byID[id]
	if !ok {
		return nil, ErrNotFound
	}
	return m, nil
}

func (r *fakeStaffRepo) GetByUserID(ctx context.Context, userID uuid.UUID) (*StaffMember, error) {
	for _, m := range r.byID {
		if m.UserID == userID {
			return m, nil
		}
	}
	return nil, ErrNotFound
}

func (r *fakeStaffRepo) List(ctx context.Context, limit, offset int) ([]*StaffMember, int, error) {
	var list []*StaffMember
	for _, m := range r.byID {
		list = append(list, m)
	}
	return list, len(list), nil
}

func (r *fakeStaffRepo) SetActive(ctx context.Context, id uuid.UUID, active bool) error {
	m, ok := r.byID[id]
	if !ok {
		return ErrNotFound
	}
	m.Active = active
	return nil
}

func (r *fakeStaffRepo) Delete(ctx context.Context, id uuid.UUID) error {
	if _, ok := r.byID[id]; !ok {
		return ErrNotFound
	}
	delete(r.byID, id)
	return nil
}

type fakeGrantRepo struct {
	err error
}

func (r *fakeGrantRepo) ListPermissions(ctx context.Context) ([]authz.Permission, error) {
	return nil, r.err
}

func (r *fakeGrantRepo) GrantToStaff(ctx context.Context, staffID uuid.UUID, permission string) error {
	return r.err
}

func (r *fakeGrantRepo) RevokeFromStaff(ctx context.Context, staffID uuid.UUID, permission string) error {
	return r.err
}

func (r *fakeGrantRepo) GrantToUser(ctx context.Context, userID uuid.UUID, permission string) error {
	return r.err
}

func (r *fakeGrantRepo) RevokeFromUser(ctx context.Context, userID uuid.UUID, permission string) error {
	return r.err
}

func (r *fakeGrantRepo) GrantToRole(ctx context.Context, role, permission string) error {
	return r.err
}

func (r *fakeGrantRepo) RevokeFromRole(ctx context.Context, role, permission string) error {
	return r.err
}

type fakeInvalidator struct {
	subjects []string
}

func (f *fakeInvalidator) InvalidateGrants(ctx context.Context, subject string) {
	f.subjects = append(f.subjects, subject)
}

func TestEnroll(t *testing.T) {
	ctx := context.Background()
	inv := &fakeInvalidator{}
	svc := NewService(newFakeStaffRepo(), &fakeGrantRepo{}, inv)

	userID := uuid.New()
	m := &StaffMember{UserID: userID, Position: "Midwife"}
	if err := svc.Enroll(ctx, m); err != nil {
		t.Fatalf("enroll: %v", err)
	}
	if len(inv.subjects) != 1 || inv.subjects[0] != userID.String() {
		t.Fatalf("invalidated subjects = %v, want [%s]", inv.subjects, userID)
	}

	t.Run("duplicate user rejected", func(t *testing.T) {
		dup := &StaffMember{UserID: userID, Position: "Clerk"}
		if err := svc.Enroll(ctx, dup); !errors.Is(err, ErrAlreadyStaff) {
			t.Fatalf("err = %v, want ErrAlreadyStaff", err)
		}
	})

	t.Run("missing fields rejected", func(t *testing.T) {
		if err := svc.Enroll(ctx, &StaffMember{Position: "Clerk"}); err == nil {
			t.Fatal("expected error for missing user")
		}
		if err := svc.Enroll(ctx, &StaffMember{UserID: uuid.New()}); err == nil {
			t.Fatal("expected error for missing position")
		}
	})
}

func TestGrantMutationsInvalidateSnapshot(t *testing.T) {
	ctx := context.Background()
	repo := newFakeStaffRepo()
	inv := &fakeInvalidator{}
	svc := NewService(repo, &fakeGrantRepo{}, inv)

	userID := uuid.New()
	m := &StaffMember{UserID: userID, Position: "Nurse"}
	if err := svc.Enroll(ctx, m); err != nil {
		t.Fatalf("enroll: %v", err)
	}
	inv.subjects = nil

	steps := []struct {
		name string
		call func() error
	}{
		{"grant to staff", func() error { return svc.GrantToStaff(ctx, m.ID, "Patients:ViewPatients") }},
		{"revoke from staff", func() error { return svc.RevokeFromStaff(ctx, m.ID, "Patients:ViewPatients") }},
		{"deactivate", func() error { return svc.SetActive(ctx, m.ID, false) }},
		{"remove", func() error { return svc.Remove(ctx, m.ID) }},
	}
	for _, step := range steps {
		if err := step.call(); err != nil {
			t.Fatalf("%s: %v", step.name, err)
		}
	}
	if len(inv.subjects) != len(steps) {
		t.Fatalf("invalidations = %d, want %d", len(inv.subjects), len(steps))
	}
	for i, s := range inv.subjects {
		if s != userID.String() {
			t.Fatalf("invalidation %d subject = %s, want %s", i, s, userID)
		}
	}
}

func TestUserGrantsInvalidateSubject(t *testing.T) {
	ctx := context.Background()
	inv := &fakeInvalidator{}
	svc := NewService(newFakeStaffRepo(), &fakeGrantRepo{}, inv)

	userID := uuid.New()
	if err := svc.GrantToUser(ctx, userID, "Accounts:ManageUsers"); err != nil {
		t.Fatalf("grant to user: %v", err)
	}
	if err := svc.RevokeFromUser(ctx, userID, "Accounts:ManageUsers"); err != nil {
		t.Fatalf("revoke from user: %v", err)
	}
	if len(inv.subjects) != 2 {
		t.Fatalf("invalidations = %d, want 2", len(inv.subjects))
	}

	t.Run("role grants do not invalidate", func(t *testing.T) {
		before := len(inv.subjects)
		if err := svc.GrantToRole(ctx, "Nurse", "Screening:ViewAssessments"); err != nil {
			t.Fatalf("grant to role: %v", err)
		}
		if len(inv.subjects) != before {
			t.Fatal("role grant should not invalidate per-subject snapshots")
		}
	})
}

func TestGrantErrorsDoNotInvalidate(t *testing.T) {
	ctx := context.Background()
	repo := newFakeStaffRepo()
	inv := &fakeInvalidator{}
	svc := NewService(repo, &fakeGrantRepo{err: ErrPermissionNotFound}, inv)

	userID := uuid.New()
	m := &StaffMember{UserID: userID, Position: "Nurse"}
	if err := svc.Enroll(ctx, m); err != nil {
		t.Fatalf("enroll: %v", err)
	}
	inv.subjects = nil

	if err := svc.GrantToStaff(ctx, m.ID, "Nope:Nothing"); !errors.Is(err, ErrPermissionNotFound) {
		t.Fatalf("err = %v, want ErrPermissionNotFound", err)
	}
	if len(inv.subjects) != 0 {
		t.Fatalf("failed grant invalidated %v", inv.subjects)
	}
}
