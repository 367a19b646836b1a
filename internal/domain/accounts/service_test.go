package accounts

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/bhcms/bhcms/internal/platform/auth"
	"github.com/bhcms/bhcms/internal/platform/authz"
)

type fakeUserRepo struct {
	byEmail map[string]*User
	byID    map[uuid.UUID]*User
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{byEmail: make(map[string]*User), byID: make(map[uuid.UUID]*User)}
}

func (r *fakeUserRepo) Create(ctx context.Context, u *User) error {
	if _, ok := r.byEmail[u.Email]; ok {
		return ErrEmailTaken
	}
	u.ID = uuid.New()
	r.byEmail[u.Email] = u
	r.byID[u.ID] = u
	return nil
}

func (r *fakeUserRepo) GetByID(ctx context.Context, id uuid.UUID) (*User, error) {
	u, ok := r.byID[id]
	if !ok {
		return nil, ErrNotFound
	}
	return u, nil
}

func (r *fakeUserRepo) GetByEmail(ctx context.Context, email string) (*User, error) {
	u, ok := r.byEmail[email]
	if !ok {
		return nil, ErrNotFound
	}
	return u, nil
}

func (r *fakeUserRepo) List(ctx context.Context, limit, offset int) ([]*User, int, error) {
	var users []*User
	for _, u := range r.byID {
		users = append(users, u)
	}
	return users, len(users), nil
}

func (r *fakeUserRepo) UpdateStatus(ctx context.Context, id uuid.UUID, status string) error {
	u, ok := r.byID[id]
	if !ok {
		return ErrNotFound
	}
	u.Status = status
	return nil
}

func (r *fakeUserRepo) AssignRole(ctx context.Context, id uuid.UUID, role string) error {
	u, ok := r.byID[id]
	if !ok {
		return ErrNotFound
	}
	u.Roles = append(u.Roles, role)
	return nil
}

func (r *fakeUserRepo) RemoveRole(ctx context.Context, id uuid.UUID, role string) error {
	u, ok := r.byID[id]
	if !ok {
		return ErrNotFound
	}
	kept := u.Roles[:0]
	for _, existing := range u.Roles {
		if existing != role {
			kept = append(kept, existing)
		}
	}
	u.Roles = kept
	return nil
}

type fakeInvalidator struct {
	subjects []string
}

func (f *fakeInvalidator) InvalidateGrants(ctx context.Context, subject string) {
	f.subjects = append(f.subjects, subject)
}

func newTestService(repo UserRepository, inv GrantInvalidator) *Service {
	issuer := auth.NewTokenIssuer("bhcms", "bhcms-api", []byte("test-key"), time.Hour)
	return NewService(repo, issuer, inv)
}

func TestRegister(t *testing.T) {
	ctx := context.Background()

	t.Run("creates pending user with User role", func(t *testing.T) {
		svc := newTestService(newFakeUserRepo(), nil)
		u, err := svc.Register(ctx, "Maria@Example.com", "password123", "Maria Santos", "09171234567")
		if err != nil {
			t.Fatalf("register: %v", err)
		}
		if u.Email != "maria@example.com" {
			t.Fatalf("email = %q, want lowercased", u.Email)
		}
		if u.Status != authz.StatusPending {
			t.Fatalf("status = %q, want Pending", u.Status)
		}
		if len(u.Roles) != 1 || u.Roles[0] != auth.RoleUser {
			t.Fatalf("roles = %v, want [User]", u.Roles)
		}
		if u.PasswordHash == "password123" || u.PasswordHash == "" {
			t.Fatal("password must be stored hashed")
		}
	})

	t.Run("rejects bad input", func(t *testing.T) {
		svc := newTestService(newFakeUserRepo(), nil)
		cases := []struct {
			name, email, password, fullName string
		}{
			{"missing email", "", "password123", "Maria"},
			{"malformed email", "not-an-email", "password123", "Maria"},
			{"short password", "a@b.com", "short", "Maria"},
			{"missing name", "a@b.com", "password123", "  "},
		}
		for _, tc := range cases {
			if _, err := svc.Register(ctx, tc.email, tc.password, tc.fullName, ""); err == nil {
				t.Errorf("%s: expected error", tc.name)
			}
		}
	})

	t.Run("duplicate email rejected", func(t *testing.T) {
		svc := newTestService(newFakeUserRepo(), nil)
		if _, err := svc.Register(ctx, "a@b.com", "password123", "First", ""); err != nil {
			t.Fatalf("register: %v", err)
		}
		if _, err := svc.Register(ctx, "a@b.com", "password123", "Second", ""); err != ErrEmailTaken {
			t.Fatalf("err = %v, want ErrEmailTaken", err)
		}
	})
}

func TestLogin(t *testing.T) {
	ctx := context.Background()
	repo := newFakeUserRepo()
	inv := &fakeInvalidator{}
	svc := newTestService(repo, inv)

	u, err := svc.Register(ctx, "nurse@example.com", "password123", "Ana Reyes", "")
	if err != nil {
		t.Fatalf("register: %v", err)
	}

	t.Run("valid credentials issue token and clear cache", func(t *testing.T) {
		token, got, err := svc.Login(ctx, "nurse@example.com", "password123")
		if err != nil {
			t.Fatalf("login: %v", err)
		}
		if token == "" {
			t.Fatal("expected a token")
		}
		if got.ID != u.ID {
			t.Fatal("wrong user returned")
		}
		if len(inv.subjects) != 1 || inv.subjects[0] != u.ID.String() {
			t.Fatalf("invalidations = %v, want the user's subject", inv.subjects)
		}
	})

	t.Run("wrong password rejected", func(t *testing.T) {
		if _, _, err := svc.Login(ctx, "nurse@example.com", "wrong-password"); err == nil {
			t.Fatal("expected error")
		}
	})

	t.Run("unknown email rejected", func(t *testing.T) {
		if _, _, err := svc.Login(ctx, "nobody@example.com", "password123"); err == nil {
			t.Fatal("expected error")
		}
	})

	t.Run("disabled account rejected", func(t *testing.T) {
		if err := svc.Disable(ctx, u.ID); err != nil {
			t.Fatalf("disable: %v", err)
		}
		if _, _, err := svc.Login(ctx, "nurse@example.com", "password123"); err == nil {
			t.Fatal("expected error for disabled account")
		}
	})
}

func TestStatusAndRoleMutationsInvalidateCache(t *testing.T) {
	ctx := context.Background()
	repo := newFakeUserRepo()
	inv := &fakeInvalidator{}
	svc := newTestService(repo, inv)

	u, err := svc.Register(ctx, "resident@example.com", "password123", "Jose Cruz", "")
	if err != nil {
		t.Fatalf("register: %v", err)
	}

	if err := svc.Verify(ctx, u.ID); err != nil {
		t.Fatalf("verify: %v", err)
	}
	if u.Status != authz.StatusVerified {
		t.Fatalf("status = %q, want Verified", u.Status)
	}

	if err := svc.AssignRole(ctx, u.ID, auth.RoleNurse); err != nil {
		t.Fatalf("assign role: %v", err)
	}
	if err := svc.RemoveRole(ctx, u.ID, auth.RoleNurse); err != nil {
		t.Fatalf("remove role: %v", err)
	}
	if err := svc.AssignRole(ctx, u.ID, "  "); err == nil {
		t.Fatal("expected error for blank role")
	}

	// Verify + assign + remove, one invalidation each.
	if len(inv.subjects) != 3 {
		t.Fatalf("invalidations = %d, want 3", len(inv.subjects))
	}
	for _, s := range inv.subjects {
		if s != u.ID.String() {
			t.Fatalf("unexpected subject %q", s)
		}
	}
}
