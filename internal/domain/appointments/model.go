package appointments

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/bhcms/bhcms/internal/platform/auth"
	"github.com/bhcms/bhcms/internal/platform/privacy"
)

// Appointment statuses. An appointment starts Pending and moves forward
// through Approved to Completed, or to Cancelled from any non-terminal state.
const (
	StatusPending   = "Pending"
	StatusApproved  = "Approved"
	StatusCompleted = "Completed"
	StatusCancelled = "Cancelled"
)

type Appointment struct {
	ID          uuid.UUID `json:"id" db:"id"`
	PatientID   uuid.UUID `json:"patient_id" db:"patient_id"`
	DoctorID    uuid.UUID `json:"doctor_id" db:"doctor_id"`
	ScheduledAt time.Time `json:"scheduled_at" db:"scheduled_at"`
	Reason      string    `json:"reason" db:"reason"`
	Status      string    `json:"status" db:"status"`
	Notes       string    `json:"notes,omitempty" db:"notes"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time `json:"updated_at" db:"updated_at"`
}

// CanTransitionTo reports whether the appointment may move to the given status.
func (a *Appointment) CanTransitionTo(status string) bool {
	switch a.Status {
	case StatusPending:
		return status == StatusApproved || status == StatusCancelled
	case StatusApproved:
		return status == StatusCompleted || status == StatusCancelled
	default:
		return false
	}
}

func (a *Appointment) EncryptSensitiveData(svc *privacy.Service) error {
	enc, err := svc.EncryptField(a.Reason)
	if err != nil {
		return err
	}
	a.Reason = enc
	return nil
}

func (a *Appointment) DecryptSensitiveData(ctx context.Context, svc *privacy.Service, p *auth.Principal) {
	a.Reason = svc.DecryptForUser(ctx, a.Reason, p)
}
