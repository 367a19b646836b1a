package accounts

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/bhcms/bhcms/internal/platform/auth"
	"github.com/bhcms/bhcms/internal/platform/privacy"
)

// User maps to the users table. FullName and ContactNumber are stored
// encrypted.
type User struct {
	ID            uuid.UUID `db:"id" json:"id"`
	Email         string    `db:"email" json:"email"`
	PasswordHash  string    `db:"password_hash" json:"-"`
	FullName      string    `db:"full_name" json:"FullName"`
	ContactNumber string    `db:"contact_number" json:"ContactNumber"`
	Status        string    `db:"status" json:"status"`
	Roles         []string  `db:"-" json:"roles"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time `db:"updated_at" json:"updated_at"`
}

// EncryptSensitiveData encrypts the user's sensitive fields in place before
// persistence. Fields already in ciphertext form are left untouched.
func (u *User) EncryptSensitiveData(svc *privacy.Service) error {
	var err error
	if u.FullName, err = svc.EncryptField(u.FullName); err != nil {
		return err
	}
	if u.ContactNumber, err = svc.EncryptField(u.ContactNumber); err != nil {
		return err
	}
	return nil
}

// DecryptSensitiveData replaces each sensitive field with its plaintext iff
// the principal is entitled. Idempotent: plaintext values pass through
// unchanged.
func (u *User) DecryptSensitiveData(ctx context.Context, svc *privacy.Service, p *auth.Principal) {
	u.FullName = svc.DecryptForUser(ctx, u.FullName, p)
	u.ContactNumber = svc.DecryptForUser(ctx, u.ContactNumber, p)
}
