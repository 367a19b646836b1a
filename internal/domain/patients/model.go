package patients

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/bhcms/bhcms/internal/platform/auth"
	"github.com/bhcms/bhcms/internal/platform/privacy"
)

// Patient maps to the patients table. Identifying fields are stored
// encrypted; DateOfBirth is kept as a string for that reason.
type Patient struct {
	ID                     uuid.UUID  `db:"id" json:"id"`
	UserID                 *uuid.UUID `db:"user_id" json:"user_id,omitempty"`
	FullName               string     `db:"full_name" json:"FullName"`
	DateOfBirth            string     `db:"date_of_birth" json:"DateOfBirth"`
	Gender                 string     `db:"gender" json:"gender"`
	Address                string     `db:"address" json:"Address"`
	ContactNumber          string     `db:"contact_number" json:"ContactNumber"`
	PhilHealthID           string     `db:"philhealth_id" json:"PhilHealthID"`
	EmergencyContactName   string     `db:"emergency_contact_name" json:"EmergencyContactName"`
	EmergencyContactNumber string     `db:"emergency_contact_number" json:"EmergencyContactNumber"`
	BloodType              string     `db:"blood_type" json:"blood_type"`
	CreatedAt              time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt              time.Time  `db:"updated_at" json:"updated_at"`
}

// sensitiveFields returns pointers to every field stored encrypted, in a
// fixed order. Both helpers below iterate this list so the two can never
// drift apart.
func (p *Patient) sensitiveFields() []*string {
	return []*string{
		&p.FullName,
		&p.DateOfBirth,
		&p.Address,
		&p.ContactNumber,
		&p.PhilHealthID,
		&p.EmergencyContactName,
		&p.EmergencyContactNumber,
	}
}

// EncryptSensitiveData encrypts every sensitive field in place. Fields
// already in ciphertext form are skipped, so repeated calls never
// double-encrypt.
func (p *Patient) EncryptSensitiveData(svc *privacy.Service) error {
	for _, f := range p.sensitiveFields() {
		enc, err := svc.EncryptField(*f)
		if err != nil {
			return err
		}
		*f = enc
	}
	return nil
}

// DecryptSensitiveData replaces each sensitive field with its plaintext iff
// the principal is entitled. Idempotent: plaintext and non-ciphertext values
// pass through unchanged.
func (p *Patient) DecryptSensitiveData(ctx context.Context, svc *privacy.Service, principal *auth.Principal) {
	for _, f := range p.sensitiveFields() {
		*f = svc.DecryptForUser(ctx, *f, principal)
	}
}
