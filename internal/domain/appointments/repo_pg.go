package appointments

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

type repoPG struct {
	pool *pgxpool.Pool
	svc  *privacy.Service
}

func NewRepositoryPG(pool *pgxpool.Pool, svc *privacy.Service) Repository {
	return &repoPG{pool: pool, svc: svc}
}

const appointmentCols = `id, patient_id, doctor_id, scheduled_at, reason, status, notes, created_at, updated_at`

func (r *repoPG) Create(ctx context.Context, a *Appointment) error {
	if err := a.EncryptSensitiveData(r.svc); err != nil {
		return fmt.Errorf("encrypt appointment: %w", err)
	}

	a.ID = uuid.New()
	now := time.Now().UTC()
	a.CreatedAt = now
	a.UpdatedAt = now

	_, err := r.pool.Exec(ctx, `
		INSERT INTO appointments (id, patient_id, doctor_id, scheduled_at, reason, status, notes, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		a.ID, a.PatientID, a.DoctorID, a.ScheduledAt, a.Reason, a.Status, a.Notes, a.CreatedAt, a.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert appointment: %w", err)
	}
	return nil
}

func (r *repoPG) GetByID(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+appointmentCols+` FROM appointments WHERE id = $1`, id)
	return scanAppointment(row)
}

func (r *repoPG) UpdateStatus(ctx context.Context, id uuid.UUID, status string) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE appointments SET status = $2, updated_at = $3 WHERE id = $1`,
		id, status, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("update appointment status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *repoPG) ListByPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]*Appointment, int, error) {
	return r.list(ctx, `WHERE patient_id = $1`, []any{patientID}, limit, offset)
}

func (r *repoPG) ListByDoctor(ctx context.Context, doctorID uuid.UUID, limit, offset int) ([]*Appointment, int, error) {
	return r.list(ctx, `WHERE doctor_id = $1`, []any{doctorID}, limit, offset)
}

func (r *repoPG) List(ctx context.Context, limit, offset int) ([]*Appointment, int, error) {
	return r.list(ctx, ``, nil, limit, offset)
}

func (r *repoPG) list(ctx context.Context, where string, filterArgs []any, limit, offset int) ([]*Appointment, int, error) {
	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM appointments `+where, filterArgs...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count appointments: %w", err)
	}

	query := fmt.Sprintf(`SELECT %s FROM appointments %s
		ORDER BY scheduled_at DESC LIMIT $%d OFFSET $%d`,
		appointmentCols, where, len(filterArgs)+1, len(filterArgs)+2)
	rows, err := r.pool.Query(ctx, query, append(filterArgs, limit, offset)...)
	if err != nil {
		return nil, 0, fmt.Errorf("list appointments: %w", err)
	}
	defer rows.Close()

	var list []*Appointment
	for rows.Next() {
		a, err := scanAppointment(rows)
		if err != nil {
			return nil, 0, err
		}
		list = append(list, a)
	}
	return list, total, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAppointment(row rowScanner) (*Appointment, error) {
	var a Appointment
	err := row.Scan(&a.ID, &a.PatientID, &a.DoctorID, &a.ScheduledAt, &a.Reason,
		&a.Status, &a.Notes, &a.CreatedAt, &a.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan appointment: %w", err)
	}
	return &a, nil
}
