package clinical

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

var (
	ErrRecordNotFound       = errors.New("medical record not found")
	ErrPrescriptionNotFound = errors.New("prescription not found")
	ErrVitalsNotFound       = errors.New("vital signs not found")
)

type RecordRepository interface {
	Create(ctx context.Context, m *MedicalRecord) error
	GetByID(ctx context.Context, id uuid.UUID) (*MedicalRecord, error)
	Update(ctx context.Context, m *MedicalRecord) error
	ListByPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]*MedicalRecord, int, error)
}

type PrescriptionRepository interface {
	Create(ctx context.Context, p *Prescription) error
	GetByID(ctx context.Context, id uuid.UUID) (*Prescription, error)
	ListByRecord(ctx context.Context, recordID uuid.UUID) ([]*Prescription, error)
	ListByPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]*Prescription, int, error)
}

type VitalsRepository interface {
	Create(ctx context.Context, v *VitalSigns) error
	ListByPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]*VitalSigns, int, error)
	Latest(ctx context.Context, patientID uuid.UUID) (*VitalSigns, error)
}
