package patients

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/bhcms/bhcms/internal/platform/privacy"
)

type repoPG struct {
	pool *pgxpool.Pool
	svc  *privacy.Service
}

// NewRepo creates the pgx-backed patient repository. Sensitive fields are
// encrypted with svc before storage; rows always carry ciphertext.
func NewRepo(pool *pgxpool.Pool, svc *privacy.Service) Repository {
	return &repoPG{pool: pool, svc: svc}
}

const patientCols = `id, user_id, full_name, date_of_birth, gender, address, contact_number,
	philhealth_id, emergency_contact_name, emergency_contact_number, blood_type,
	created_at, updated_at`

func (r *repoPG) Create(ctx context.Context, p *Patient) error {
	p.ID = uuid.New()

	if err := p.EncryptSensitiveData(r.svc); err != nil {
		return fmt.Errorf("patient create: %w", err)
	}

	_, err := r.pool.Exec(ctx, `
		INSERT INTO patients (id, user_id, full_name, date_of_birth, gender, address,
			contact_number, philhealth_id, emergency_contact_name,
			emergency_contact_number, blood_type)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)`,
		p.ID, p.UserID, p.FullName, p.DateOfBirth, p.Gender, p.Address,
		p.ContactNumber, p.PhilHealthID, p.EmergencyContactName,
		p.EmergencyContactNumber, p.BloodType)
	if err != nil {
		return fmt.Errorf("patient create: %w", err)
	}
	return nil
}

func (r *repoPG) GetByID(ctx context.Context, id uuid.UUID) (*Patient, error) {
	return r.scanPatient(r.pool.QueryRow(ctx,
		`SELECT `+patientCols+` FROM patients WHERE id = $1`, id))
}

func (r *repoPG) GetByUserID(ctx context.Context, userID uuid.UUID) (*Patient, error) {
	return r.scanPatient(r.pool.QueryRow(ctx,
		`SELECT `+patientCols+` FROM patients WHERE user_id = $1`, userID))
}

func (r *repoPG) Update(ctx context.Context, p *Patient) error {
	if err := p.EncryptSensitiveData(r.svc); err != nil {
		return fmt.Errorf("patient update: %w", err)
	}

	tag, err := r.pool.Exec(ctx, `
		UPDATE patients SET full_name=$2, date_of_birth=$3, gender=$4, address=$5,
			contact_number=$6, philhealth_id=$7, emergency_contact_name=$8,
			emergency_contact_number=$9, blood_type=$10, updated_at=NOW()
		WHERE id = $1`,
		p.ID, p.FullName, p.DateOfBirth, p.Gender, p.Address,
		p.ContactNumber, p.PhilHealthID, p.EmergencyContactName,
		p.EmergencyContactNumber, p.BloodType)
	if err != nil {
		return fmt.Errorf("patient update: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *repoPG) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM patients WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("patient delete: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *repoPG) List(ctx context.Context, limit, offset int) ([]*Patient, int, error) {
	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM patients`).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("patient list count: %w", err)
	}

	rows, err := r.pool.Query(ctx,
		`SELECT `+patientCols+` FROM patients ORDER BY created_at DESC LIMIT $1 OFFSET $2`,
		limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("patient list: %w", err)
	}
	defer rows.Close()

	var out []*Patient
	for rows.Next() {
		p, err := r.scanPatient(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("patient list: %w", err)
	}
	return out, total, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func (r *repoPG) scanPatient(row rowScanner) (*Patient, error) {
	var p Patient
	err := row.Scan(&p.ID, &p.UserID, &p.FullName, &p.DateOfBirth, &p.Gender,
		&p.Address, &p.ContactNumber, &p.PhilHealthID, &p.EmergencyContactName,
		&p.EmergencyContactNumber, &p.BloodType, &p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan patient: %w", err)
	}
	return &p, nil
}
