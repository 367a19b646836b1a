package authz

import "github.com/google/uuid"

// Permission is an atomic capability. Name is the bare permission name
// ("ViewReports"); Category groups related permissions ("Reports").
// Historically permissions were referenced both as "ViewReports" and
// "Reports:ViewReports", so matching accepts either surface form.
type Permission struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Category    string `json:"category"`
	Description string `json:"description"`
}

// Categorized returns the "Category:Name" form, or just Name when the
// permission has no category.
func (p Permission) Categorized() string {
	if p.Category == "" {
		return p.Name
	}
	return p.Category + ":" + p.Name
}

// StaffGrants is a staff member's explicit permission allow-list. When a
// principal has a staff record, this list is the sole source of truth for
// authorization decisions: role and user grants are not consulted.
type StaffGrants struct {
	StaffID     uuid.UUID
	Permissions []Permission
}

// GrantSet is the per-principal snapshot the resolver evaluates against. It
// is loaded fresh per request unless a recent snapshot is cached.
type GrantSet struct {
	// Staff is non-nil iff the principal has an associated staff record.
	Staff *StaffGrants `json:"staff,omitempty"`
	// User holds the principal's direct permission grants.
	User []Permission `json:"user,omitempty"`
	// Role holds the union of permissions attached to the principal's roles.
	Role []Permission `json:"role,omitempty"`
}

// Decision is the outcome of an authorization query. Rule names which rule
// in the precedence chain produced the outcome, for audit logging.
type Decision struct {
	Allowed bool
	Rule    string
}

// Account statuses persisted on user records.
const (
	StatusPending  = "Pending"
	StatusVerified = "Verified"
	StatusDisabled = "Disabled"
)
