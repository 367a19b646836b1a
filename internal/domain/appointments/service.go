package appointments

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// ErrInvalidTransition is returned when a status change is not allowed from
// the appointment's current status.
var ErrInvalidTransition = errors.New("invalid appointment status transition")

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Book creates a new appointment in the Pending status.
func (s *Service) Book(ctx context.Context, a *Appointment) error {
	if a.PatientID == uuid.Nil {
		return errors.New("patient is required")
	}
	if a.DoctorID == uuid.Nil {
		return errors.New("doctor is required")
	}
	if a.ScheduledAt.IsZero() {
		return errors.New("scheduled time is required")
	}
	if a.ScheduledAt.Before(time.Now()) {
		return errors.New("scheduled time must be in the future")
	}
	a.Status = StatusPending
	return s.repo.Create(ctx, a)
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) Approve(ctx context.Context, id uuid.UUID) error {
	return s.transition(ctx, id, StatusApproved)
}

func (s *Service) Complete(ctx context.Context, id uuid.UUID) error {
	return s.transition(ctx, id, StatusCompleted)
}

func (s *Service) Cancel(ctx context.Context, id uuid.UUID) error {
	return s.transition(ctx, id, StatusCancelled)
}

func (s *Service) transition(ctx context.Context, id uuid.UUID, status string) error {
	a, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if !a.CanTransitionTo(status) {
		return fmt.Errorf("%w: %s to %s", ErrInvalidTransition, a.Status, status)
	}
	return s.repo.UpdateStatus(ctx, id, status)
}

func (s *Service) ListByPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]*Appointment, int, error) {
	return s.repo.ListByPatient(ctx, patientID, limit, offset)
}

func (s *Service) ListByDoctor(ctx context.Context, doctorID uuid.UUID, limit, offset int) ([]*Appointment, int, error) {
	return s.repo.ListByDoctor(ctx, doctorID, limit, offset)
}

func (s *Service) List(ctx context.Context, limit, offset int) ([]*Appointment, int, error) {
	return s.repo.List(ctx, limit, offset)
}
