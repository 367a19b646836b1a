package screening

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

var ErrNotFound = errors.New("assessment not found")

type NCDRepository interface {
	Create(ctx context.Context, n *NCDRiskAssessment) error
	GetByID(ctx context.Context, id uuid.UUID) (*NCDRiskAssessment, error)
	ListByPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]*NCDRiskAssessment, int, error)
}

type HEEADSSSRepository interface {
	Create(ctx context.Context, h *HEEADSSSAssessment) error
	GetByID(ctx context.Context, id uuid.UUID) (*HEEADSSSAssessment, error)
	ListByPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]*HEEADSSSAssessment, int, error)
}
