package screening

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

type Service struct {
	ncd      NCDRepository
	heeadsss HEEADSSSRepository
}

func NewService(ncd NCDRepository, heeadsss HEEADSSSRepository) *Service {
	return &Service{ncd: ncd, heeadsss: heeadsss}
}

// AssessNCDRisk computes the risk level from the submitted answers and
// persists the assessment. Any client-supplied risk level is overwritten.
func (s *Service) AssessNCDRisk(ctx context.Context, n *NCDRiskAssessment) error {
	if n.PatientID == uuid.Nil {
		return errors.New("patient is required")
	}
	if n.Age <= 0 {
		return errors.New("age is required")
	}
	n.ComputeRiskLevel()
	return s.ncd.Create(ctx, n)
}

func (s *Service) GetNCDAssessment(ctx context.Context, id uuid.UUID) (*NCDRiskAssessment, error) {
	return s.ncd.GetByID(ctx, id)
}

func (s *Service) ListNCDByPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]*NCDRiskAssessment, int, error) {
	return s.ncd.ListByPatient(ctx, patientID, limit, offset)
}

func (s *Service) AssessHEEADSSS(ctx context.Context, h *HEEADSSSAssessment) error {
	if h.PatientID == uuid.Nil {
		return errors.New("patient is required")
	}
	return s.heeadsss.Create(ctx, h)
}

func (s *Service) GetHEEADSSSAssessment(ctx context.Context, id uuid.UUID) (*HEEADSSSAssessment, error) {
	return s.heeadsss.GetByID(ctx, id)
}

func (s *Service) ListHEEADSSSByPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]*HEEADSSSAssessment, int, error) {
	return s.heeadsss.ListByPatient(ctx, patientID, limit, offset)
}
