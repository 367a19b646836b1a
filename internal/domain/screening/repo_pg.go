package screening

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/bhcms/bhcms/internal/platform/privacy"
)

type ncdRepoPG struct {
	pool *pgxpool.Pool
	svc  *privacy.Service
}

func NewNCDRepositoryPG(pool *pgxpool.Pool, svc *privacy.Service) NCDRepository {
	return &ncdRepoPG{pool: pool, svc: svc}
}

const ncdCols = `id, patient_id, assessed_by, age, smoker, alcohol_use, physical_inactive, high_salt_diet, obese, raised_bp, raised_blood_sugar, family_history, risk_level, created_at`

func (r *ncdRepoPG) Create(ctx context.Context, n *NCDRiskAssessment) error {
	if err := n.EncryptSensitiveData(r.svc); err != nil {
		return fmt.Errorf("encrypt ncd assessment: %w", err)
	}

	n.ID = uuid.New()
	n.CreatedAt = time.Now().UTC()

	_, err := r.pool.Exec(ctx, `
		INSERT INTO ncd_risk_assessments (id, patient_id, assessed_by, age, smoker, alcohol_use, physical_inactive, high_salt_diet, obese, raised_bp, raised_blood_sugar, family_history, risk_level, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`,
		n.ID, n.PatientID, n.AssessedBy, n.Age, n.Smoker, n.AlcoholUse, n.PhysicalInactive,
		n.HighSaltDiet, n.Obese, n.RaisedBP, n.RaisedBloodSugar, n.FamilyHistory, n.RiskLevel, n.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert ncd assessment: %w", err)
	}
	return nil
}

func (r *ncdRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*NCDRiskAssessment, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+ncdCols+` FROM ncd_risk_assessments WHERE id = $1`, id)
	return scanNCD(row)
}

func (r *ncdRepoPG) ListByPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]*NCDRiskAssessment, int, error) {
	var total int
	if err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM ncd_risk_assessments WHERE patient_id = $1`, patientID).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count ncd assessments: %w", err)
	}

	rows, err := r.pool.Query(ctx, `
		SELECT `+ncdCols+` FROM ncd_risk_assessments
		WHERE patient_id = $1 ORDER BY created_at DESC LIMIT $2 OFFSET $3`,
		patientID, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("list ncd assessments: %w", err)
	}
	defer rows.Close()

	var list []*NCDRiskAssessment
	for rows.Next() {
		n, err := scanNCD(rows)
		if err != nil {
			return nil, 0, err
		}
		list = append(list, n)
	}
	return list, total, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanNCD(row rowScanner) (*NCDRiskAssessment, error) {
	var n NCDRiskAssessment
	err := row.Scan(&n.ID, &n.PatientID, &n.AssessedBy, &n.Age, &n.Smoker, &n.AlcoholUse,
		&n.PhysicalInactive, &n.HighSaltDiet, &n.Obese, &n.RaisedBP, &n.RaisedBloodSugar,
		&n.FamilyHistory, &n.RiskLevel, &n.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan ncd assessment: %w", err)
	}
	return &n, nil
}

type heeadsssRepoPG struct {
	pool *pgxpool.Pool
	svc  *privacy.Service
}

func NewHEEADSSSRepositoryPG(pool *pgxpool.Pool, svc *privacy.Service) HEEADSSSRepository {
	return &heeadsssRepoPG{pool: pool, svc: svc}
}

const heeadsssCols = `id, patient_id, assessed_by, home, education, eating_habits, activities, drugs, sexuality, suicide_risk, safety, created_at`

func (r *heeadsssRepoPG) Create(ctx context.Context, h *HEEADSSSAssessment) error {
	if err := h.EncryptSensitiveData(r.svc); err != nil {
		return fmt.Errorf("encrypt heeadsss assessment: %w", err)
	}

	h.ID = uuid.New()
	h.CreatedAt = time.Now().UTC()

	_, err := r.pool.Exec(ctx, `
		INSERT INTO heeadsss_assessments (id, patient_id, assessed_by, home, education, eating_habits, activities, drugs, sexuality, suicide_risk, safety, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		h.ID, h.PatientID, h.AssessedBy, h.Home, h.Education, h.EatingHabits,
		h.Activities, h.Drugs, h.Sexuality, h.SuicideRisk, h.Safety, h.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert heeadsss assessment: %w", err)
	}
	return nil
}

func (r *heeadsssRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*HEEADSSSAssessment, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+heeadsssCols+` FROM heeadsss_assessments WHERE id = $1`, id)
	return scanHEEADSSS(row)
}

func (r *heeadsssRepoPG) ListByPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]*HEEADSSSAssessment, int, error) {
	var total int
	if err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM heeadsss_assessments WHERE patient_id = $1`, patientID).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count heeadsss assessments: %w", err)
	}

	rows, err := r.pool.Query(ctx, `
		SELECT `+heeadsssCols+` FROM heeadsss_assessments
		WHERE patient_id = $1 ORDER BY created_at DESC LIMIT $2 OFFSET $3`,
		patientID, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("list heeadsss assessments: %w", err)
	}
	defer rows.Close()

	var list []*HEEADSSSAssessment
	for rows.Next() {
		h, err := scanHEEADSSS(rows)
		if err != nil {
			return nil, 0, err
		}
		list = append(list, h)
	}
	return list, total, rows.Err()
}

func scanHEEADSSS(row rowScanner) (*HEEADSSSAssessment, error) {
	var h HEEADSSSAssessment
	err := row.Scan(&h.ID, &h.PatientID, &h.AssessedBy, &h.Home, &h.Education,
		&h.EatingHabits, &h.Activities, &h.Drugs, &h.Sexuality, &h.SuicideRisk,
		&h.Safety, &h.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan heeadsss assessment: %w", err)
	}
	return &h, nil
}
