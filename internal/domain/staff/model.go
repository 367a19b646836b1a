package staff

import (
	"time"

	"github.com/google/uuid"
)

// StaffMember links a user account to a staff position at the health center.
// A user with a staff record is authorized exclusively through the explicit
// permission grants attached to that record.
type StaffMember struct {
	ID        uuid.UUID `json:"id" db:"id"`
	UserID    uuid.UUID `json:"user_id" db:"user_id"`
	Position  string    `json:"position" db:"position"`
	Active    bool      `json:"active" db:"active"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}
