package patients

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
)

type fakeRepo struct {
	byID map[uuid.UUID]*Patient
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{byID: make(map[uuid.UUID]*Patient)}
}

func (r *fakeRepo) Create(ctx context.Context, p *Patient) error {
	p.ID = uuid.New()
	r.byID[p.ID] = p
	return nil
}

func (r *fakeRepo) GetByID(ctx context.Context, id uuid.UUID) (*Patient, error) {
	p, ok := r.byID[id]
	if !ok {
		return nil, ErrNotFound
	}
	return p, nil
}

func (r *fakeRepo) GetByUserID(ctx context.Context, userID uuid.UUID) (*Patient, error) {
	for _, p := range r.byID {
		if p.UserID != nil && *p.UserID == userID {
			return p, nil
		}
	}
	return nil, ErrNotFound
}

func (r *fakeRepo) Update(ctx context.Context, p *Patient) error {
	if _, ok := r.byID[p.ID]; !ok {
		return ErrNotFound
	}
	r.byID[p.ID] = p
	return nil
}

func (r *fakeRepo) Delete(ctx context.Context, id uuid.UUID) error {
	if _, ok := r.byID[id]; !ok {
		return ErrNotFound
	}
	delete(r.byID, id)
	return nil
}

func (r *fakeRepo) List(ctx context.Context, limit, offset int) ([]*Patient, int, error) {
	var list []*Patient
	for _, p := range r.byID {
		list = append(list, p)
	}
	return list, len(list), nil
}

func TestCreate(t *testing.T) {
	ctx := context.Background()
	svc := NewService(newFakeRepo())

	t.Run("valid patient", func(t *testing.T) {
		p := &Patient{FullName: "Maria Santos", Gender: "Female"}
		if err := svc.Create(ctx, p); err != nil {
			t.Fatalf("create: %v", err)
		}
		if p.ID == uuid.Nil {
			t.Fatal("id not assigned")
		}
	})

	t.Run("gender is optional", func(t *testing.T) {
		p := &Patient{FullName: "Jose Rizal"}
		if err := svc.Create(ctx, p); err != nil {
			t.Fatalf("create: %v", err)
		}
	})

	t.Run("rejects blank name", func(t *testing.T) {
		if err := svc.Create(ctx, &Patient{FullName: "   "}); err == nil {
			t.Fatal("expected error for blank name")
		}
	})

	t.Run("rejects unknown gender", func(t *testing.T) {
		p := &Patient{FullName: "Maria Santos", Gender: "other"}
		if err := svc.Create(ctx, p); err == nil {
			t.Fatal("expected error for unknown gender")
		}
	})
}

func TestUpdateAndDelete(t *testing.T) {
	ctx := context.Background()
	svc := NewService(newFakeRepo())

	p := &Patient{FullName: "Maria Santos"}
	if err := svc.Create(ctx, p); err != nil {
		t.Fatalf("create: %v", err)
	}

	p.Address = "123 Mabini St"
	if err := svc.Update(ctx, p); err != nil {
		t.Fatalf("update: %v", err)
	}

	p.FullName = ""
	if err := svc.Update(ctx, p); err == nil {
		t.Fatal("expected error for blank name on update")
	}

	if err := svc.Delete(ctx, p.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := svc.Get(ctx, p.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("get after delete: err = %v, want ErrNotFound", err)
	}
}
