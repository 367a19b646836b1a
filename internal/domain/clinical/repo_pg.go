package clinical

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

type recordRepoPG struct {
	pool *pgxpool.Pool
	svc  *privacy.Service
}

func NewRecordRepositoryPG(pool *pgxpool.Pool, svc *privacy.Service) RecordRepository {
	return &recordRepoPG{pool: pool, svc: svc}
}

const recordCols = `id, patient_id, recorded_by, visit_date, chief_complaint, diagnosis, treatment, notes, created_at, updated_at`

func (r *recordRepoPG) Create(ctx context.Context, m *MedicalRecord) error {
	if err := m.EncryptSensitiveData(r.svc); err != nil {
		return fmt.Errorf("encrypt medical record: %w", err)
	}

	m.ID = uuid.New()
	now := time.Now().UTC()
	m.CreatedAt = now
	m.UpdatedAt = now

	_, err := r.pool.Exec(ctx, `
		INSERT INTO medical_records (id, patient_id, recorded_by, visit_date, chief_complaint, diagnosis, treatment, notes, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		m.ID, m.PatientID, m.RecordedBy, m.VisitDate, m.ChiefComplaint,
		m.Diagnosis, m.Treatment, m.Notes, m.CreatedAt, m.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert medical record: %w", err)
	}
	return nil
}

func (r *recordRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*MedicalRecord, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+recordCols+` FROM medical_records WHERE id = $1`, id)
	return scanRecord(row)
}

func (r *recordRepoPG) Update(ctx context.Context, m *MedicalRecord) error {
	if err := m.EncryptSensitiveData(r.svc); err != nil {
		return fmt.Errorf("encrypt medical record: %w", err)
	}
	m.UpdatedAt = time.Now().UTC()

	tag, err := r.pool.Exec(ctx, `
		UPDATE medical_records
		SET visit_date = $2, chief_complaint = $3, diagnosis = $4, treatment = $5, notes = $6, updated_at = $7
		WHERE id = $1`,
		m.ID, m.VisitDate, m.ChiefComplaint, m.Diagnosis, m.Treatment, m.Notes, m.UpdatedAt)
	if err != nil {
		return fmt.Errorf("update medical record: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrRecordNotFound
	}
	return nil
}

func (r *recordRepoPG) ListByPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]*MedicalRecord, int, error) {
	var total int
	if err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM medical_records WHERE patient_id = $1`, patientID).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count medical records: %w", err)
	}

	rows, err := r.pool.Query(ctx, `
		SELECT `+recordCols+` FROM medical_records
		WHERE patient_id = $1 ORDER BY visit_date DESC LIMIT $2 OFFSET $3`,
		patientID, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("list medical records: %w", err)
	}
	defer rows.Close()

	var list []*MedicalRecord
	for rows.Next() {
		m, err := scanRecord(rows)
		if err != nil {
			return nil, 0, err
		}
		list = append(list, m)
	}
	return list, total, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(row rowScanner) (*MedicalRecord, error) {
	var m MedicalRecord
	err := row.Scan(&m.ID, &m.PatientID, &m.RecordedBy, &m.VisitDate, &m.ChiefComplaint,
		&m.Diagnosis, &m.Treatment, &m.Notes, &m.CreatedAt, &m.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrRecordNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan medical record: %w", err)
	}
	return &m, nil
}

type prescriptionRepoPG struct {
	pool *pgxpool.Pool
	svc  *privacy.Service
}

func NewPrescriptionRepositoryPG(pool *pgxpool.Pool, svc *privacy.Service) PrescriptionRepository {
	return &prescriptionRepoPG{pool: pool, svc: svc}
}

const prescriptionCols = `id, record_id, patient_id, prescribed_by, medication, dosage, instructions, created_at`

func (r *prescriptionRepoPG) Create(ctx context.Context, p *Prescription) error {
	if err := p.EncryptSensitiveData(r.svc); err != nil {
		return fmt.Errorf("encrypt prescription: %w", err)
	}

	p.ID = uuid.New()
	p.CreatedAt = time.Now().UTC()

	_, err := r.pool.Exec(ctx, `
		INSERT INTO prescriptions (id, record_id, patient_id, prescribed_by, medication, dosage, instructions, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		p.ID, p.RecordID, p.PatientID, p.PrescribedBy, p.Medication, p.Dosage, p.Instructions, p.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert prescription: %w", err)
	}
	return nil
}

func (r *prescriptionRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*Prescription, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+prescriptionCols+` FROM prescriptions WHERE id = $1`, id)
	return scanPrescription(row)
}

func (r *prescriptionRepoPG) ListByRecord(ctx context.Context, recordID uuid.UUID) ([]*Prescription, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+prescriptionCols+` FROM prescriptions
		WHERE record_id = $1 ORDER BY created_at`, recordID)
	if err != nil {
		return nil, fmt.Errorf("list prescriptions: %w", err)
	}
	defer rows.Close()

	var list []*Prescription
	for rows.Next() {
		p, err := scanPrescription(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, p)
	}
	return list, rows.Err()
}

func (r *prescriptionRepoPG) ListByPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]*Prescription, int, error) {
	var total int
	if err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM prescriptions WHERE patient_id = $1`, patientID).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count prescriptions: %w", err)
	}

	rows, err := r.pool.Query(ctx, `
		SELECT `+prescriptionCols+` FROM prescriptions
		WHERE patient_id = $1 ORDER BY created_at DESC LIMIT $2 OFFSET $3`,
		patientID, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("list prescriptions: %w", err)
	}
	defer rows.Close()

	var list []*Prescription
	for rows.Next() {
		p, err := scanPrescription(rows)
		if err != nil {
			return nil, 0, err
		}
		list = append(list, p)
	}
	return list, total, rows.Err()
}

func scanPrescription(row rowScanner) (*Prescription, error) {
	var p Prescription
	err := row.Scan(&p.ID, &p.RecordID, &p.PatientID, &p.PrescribedBy,
		&p.Medication, &p.Dosage, &p.Instructions, &p.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrPrescriptionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan prescription: %w", err)
	}
	return &p, nil
}

type vitalsRepoPG struct {
	pool *pgxpool.Pool
}

func NewVitalsRepositoryPG(pool *pgxpool.Pool) VitalsRepository {
	return &vitalsRepoPG{pool: pool}
}

const vitalsCols = `id, patient_id, recorded_by, systolic_bp, diastolic_bp, heart_rate, temperature_c, respiratory_rate, weight_kg, height_cm, oxygen_saturation, recorded_at`

func (r *vitalsRepoPG) Create(ctx context.Context, v *VitalSigns) error {
	v.ID = uuid.New()
	if v.RecordedAt.IsZero() {
		v.RecordedAt = time.Now().UTC()
	}

	_, err := r.pool.Exec(ctx, `
		INSERT INTO vital_signs (id, patient_id, recorded_by, systolic_bp, diastolic_bp, heart_rate, temperature_c, respiratory_rate, weight_kg, height_cm, oxygen_saturation, recorded_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		v.ID, v.PatientID, v.RecordedBy, v.SystolicBP, v.DiastolicBP, v.HeartRate,
		v.TemperatureC, v.RespiratoryRate, v.WeightKg, v.HeightCm, v.OxygenSaturation, v.RecordedAt)
	if err != nil {
		return fmt.Errorf("insert vital signs: %w", err)
	}
	return nil
}

func (r *vitalsRepoPG) ListByPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]*VitalSigns, int, error) {
	var total int
	if err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM vital_signs WHERE patient_id = $1`, patientID).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count vital signs: %w", err)
	}

	rows, err := r.pool.Query(ctx, `
		SELECT `+vitalsCols+` FROM vital_signs
		WHERE patient_id = $1 ORDER BY recorded_at DESC LIMIT $2 OFFSET $3`,
		patientID, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("list vital signs: %w", err)
	}
	defer rows.Close()

	var list []*VitalSigns
	for rows.Next() {
		v, err := scanVitals(rows)
		if err != nil {
			return nil, 0, err
		}
		list = append(list, v)
	}
	return list, total, rows.Err()
}

func (r *vitalsRepoPG) Latest(ctx context.Context, patientID uuid.UUID) (*VitalSigns, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+vitalsCols+` FROM vital_signs
		WHERE patient_id = $1 ORDER BY recorded_at DESC LIMIT 1`, patientID)
	v, err := scanVitals(row)
	if err != nil {
		return nil, err
	}
	return v, nil
}

func scanVitals(row rowScanner) (*VitalSigns, error) {
	var v VitalSigns
	err := row.Scan(&v.ID, &v.PatientID, &v.RecordedBy, &v.SystolicBP, &v.DiastolicBP,
		&v.HeartRate, &v.TemperatureC, &v.RespiratoryRate, &v.WeightKg, &v.HeightCm,
		&v.OxygenSaturation, &v.RecordedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrVitalsNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan vital signs: %w", err)
	}
	return &v, nil
}
