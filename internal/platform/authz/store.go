package authz

import "context"

// GrantStore loads grant edges and account state for a principal. The pgx
// implementation lives in store_pg.go; tests use in-memory fakes. Any error
// from these methods must make the caller deny the action: authorization
// never fails open.
type GrantStore interface {
	// StaffGrants returns the staff allow-list for the given user, or nil
	// if the user has no staff record.
	StaffGrants(ctx context.Context, subject string) (*StaffGrants, error)
	// UserGrants returns the user's direct permission grants.
	UserGrants(ctx context.Context, subject string) ([]Permission, error)
	// RoleGrants returns the union of permissions attached to the given
	// role names.
	RoleGrants(ctx context.Context, roles []string) ([]Permission, error)
	// AccountStatus returns the persisted status of the user's account
	// ("Pending", "Verified", "Disabled"), or empty if the user is unknown.
	AccountStatus(ctx context.Context, subject string) (string, error)
}
