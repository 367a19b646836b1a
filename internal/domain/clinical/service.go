package clinical

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

type Service struct {
	records       RecordRepository
	prescriptions PrescriptionRepository
	vitals        VitalsRepository
}

func NewService(records RecordRepository, prescriptions PrescriptionRepository, vitals VitalsRepository) *Service {
	return &Service{records: records, prescriptions: prescriptions, vitals: vitals}
}

func (s *Service) CreateRecord(ctx context.Context, m *MedicalRecord) error {
	if m.PatientID == uuid.Nil {
		return errors.New("patient is required")
	}
	if m.ChiefComplaint == "" {
		return errors.New("chief complaint is required")
	}
	if m.VisitDate.IsZero() {
		m.VisitDate = time.Now().UTC()
	}
	return s.records.Create(ctx, m)
}

func (s *Service) GetRecord(ctx context.Context, id uuid.UUID) (*MedicalRecord, error) {
	return s.records.GetByID(ctx, id)
}

func (s *Service) UpdateRecord(ctx context.Context, m *MedicalRecord) error {
	if m.ChiefComplaint == "" {
		return errors.New("chief complaint is required")
	}
	return s.records.Update(ctx, m)
}

func (s *Service) ListRecordsByPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]*MedicalRecord, int, error) {
	return s.records.ListByPatient(ctx, patientID, limit, offset)
}

func (s *Service) CreatePrescription(ctx context.Context, p *Prescription) error {
	if p.PatientID == uuid.Nil {
		return errors.New("patient is required")
	}
	if p.Medication == "" {
		return errors.New("medication is required")
	}
	if p.Dosage == "" {
		return errors.New("dosage is required")
	}
	return s.prescriptions.Create(ctx, p)
}

func (s *Service) GetPrescription(ctx context.Context, id uuid.UUID) (*Prescription, error) {
	return s.prescriptions.GetByID(ctx, id)
}

func (s *Service) ListPrescriptionsByRecord(ctx context.Context, recordID uuid.UUID) ([]*Prescription, error) {
	return s.prescriptions.ListByRecord(ctx, recordID)
}

func (s *Service) ListPrescriptionsByPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]*Prescription, int, error) {
	return s.prescriptions.ListByPatient(ctx, patientID, limit, offset)
}

func (s *Service) RecordVitals(ctx context.Context, v *VitalSigns) error {
	if v.PatientID == uuid.Nil {
		return errors.New("patient is required")
	}
	return s.vitals.Create(ctx, v)
}

func (s *Service) ListVitalsByPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]*VitalSigns, int, error) {
	return s.vitals.ListByPatient(ctx, patientID, limit, offset)
}

func (s *Service) LatestVitals(ctx context.Context, patientID uuid.UUID) (*VitalSigns, error) {
	return s.vitals.Latest(ctx, patientID)
}
