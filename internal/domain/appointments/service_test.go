package appointments

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
)

type fakeRepo struct {
	byID map[uuid.UUID]*Appointment
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{byID: make(map[uuid.UUID]*Appointment)}
}

func (r *fakeRepo) Create(ctx context.Context, a *Appointment) error {
	a.ID = uuid.New()
	r.byID[a.ID] = a
	return nil
}

func (r *fakeRepo) GetByID(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	a, ok := r.byID[id]
	if !ok {
		return nil, ErrNotFound
	}
	return a, nil
}

func (r *fakeRepo) UpdateStatus(ctx context.Context, id uuid.UUID, status string) error {
	a, ok := r.byID[id]
	if !ok {
		return ErrNotFound
	}
	a.Status = status
	return nil
}

func (r *fakeRepo) ListByPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]*Appointment, int, error) {
	var list []*Appointment
	for _, a := range r.byID {
		if a.PatientID == patientID {
			list = append(list, a)
		}
	}
	return list, len(list), nil
}

func (r *fakeRepo) ListByDoctor(ctx context.Context, doctorID uuid.UUID, limit, offset int) ([]*Appointment, int, error) {
	var list []*Appointment
	for _, a := range r.byID {
		if a.DoctorID == doctorID {
			list = append(list, a)
		}
	}
	return list, len(list), nil
}

func (r *fakeRepo) List(ctx context.Context, limit, offset int) ([]*Appointment, int, error) {
	var list []*Appointment
	for _, a := range r.byID {
		list = append(list, a)
	}
	return list, len(list), nil
}

func validAppointment() *Appointment {
	return &Appointment{
		PatientID:   uuid.New(),
		DoctorID:    uuid.New(),
		ScheduledAt: time.Now().Add(24 * time.Hour),
		Reason:      "follow-up check",
	}
}

func TestBook(t *testing.T) {
	ctx := context.Background()
	svc := NewService(newFakeRepo())

	t.Run("valid booking starts pending", func(t *testing.T) {
		a := validAppointment()
		if err := svc.Book(ctx, a); err != nil {
			t.Fatalf("book: %v", err)
		}
		if a.Status != StatusPending {
			t.Fatalf("status = %q, want Pending", a.Status)
		}
	})

	t.Run("rejects missing fields", func(t *testing.T) {
		cases := []struct {
			name   string
			mutate func(a *Appointment)
		}{
			{"missing patient", func(a *Appointment) { a.PatientID = uuid.Nil }},
			{"missing doctor", func(a *Appointment) { a.DoctorID = uuid.Nil }},
			{"missing time", func(a *Appointment) { a.ScheduledAt = time.Time{} }},
			{"time in the past", func(a *Appointment) { a.ScheduledAt = time.Now().Add(-time.Hour) }},
		}
		for _, tc := range cases {
			a := validAppointment()
			tc.mutate(a)
			if err := svc.Book(ctx, a); err == nil {
				t.Errorf("%s: expected error", tc.name)
			}
		}
	})
}

func TestStatusTransitions(t *testing.T) {
	ctx := context.Background()

	book := func(t *testing.T, svc *Service) *Appointment {
		t.Helper()
		a := validAppointment()
		if err := svc.Book(ctx, a); err != nil {
			t.Fatalf("book: %v", err)
		}
		return a
	}

	t.Run("pending to approved to completed", func(t *testing.T) {
		svc := NewService(newFakeRepo())
		a := book(t, svc)

		if err := svc.Approve(ctx, a.ID); err != nil {
			t.Fatalf("approve: %v", err)
		}
		if err := svc.Complete(ctx, a.ID); err != nil {
			t.Fatalf("complete: %v", err)
		}
		if a.Status != StatusCompleted {
			t.Fatalf("status = %q", a.Status)
		}
	})

	t.Run("cancel from pending and approved", func(t *testing.T) {
		svc := NewService(newFakeRepo())

		a := book(t, svc)
		if err := svc.Cancel(ctx, a.ID); err != nil {
			t.Fatalf("cancel pending: %v", err)
		}

		b := book(t, svc)
		if err := svc.Approve(ctx, b.ID); err != nil {
			t.Fatalf("approve: %v", err)
		}
		if err := svc.Cancel(ctx, b.ID); err != nil {
			t.Fatalf("cancel approved: %v", err)
		}
	})

	t.Run("invalid transitions rejected", func(t *testing.T) {
		svc := NewService(newFakeRepo())

		a := book(t, svc)
		if err := svc.Complete(ctx, a.ID); !errors.Is(err, ErrInvalidTransition) {
			t.Fatalf("pending->completed: err = %v, want ErrInvalidTransition", err)
		}

		if err := svc.Cancel(ctx, a.ID); err != nil {
			t.Fatalf("cancel: %v", err)
		}
		if err := svc.Approve(ctx, a.ID); !errors.Is(err, ErrInvalidTransition) {
			t.Fatalf("cancelled->approved: err = %v, want ErrInvalidTransition", err)
		}
	})

	t.Run("unknown appointment", func(t *testing.T) {
		svc := NewService(newFakeRepo())
		if err := svc.Approve(ctx, uuid.New()); !errors.Is(err, ErrNotFound) {
			t.Fatalf("err = %v, want ErrNotFound", err)
		}
	})
}
