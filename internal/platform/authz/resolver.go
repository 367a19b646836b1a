package authz

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/bhcms/bhcms/internal/platform/auth"
)

// Dashboard permission names with legacy convenience rules evaluated before
// the generic grant lookup.
const (
	PermAccessDashboard       = "Access Dashboard"
	PermAccessUserDashboard   = "Access User Dashboard"
	PermAccessNurseDashboard  = "Access Nurse Dashboard"
	PermAccessDoctorDashboard = "Access Doctor Dashboard"
	PermAccessAdminDashboard  = "Access Admin Dashboard"
)

// accessRule is one entry in the ordered special-case chain: if the
// predicate matches, the outcome is Allow and evaluation stops. Keeping the
// precedence as data makes each rule testable in isolation.
type accessRule struct {
	name string
	// eval returns whether the rule matches. It may consult storage (the
	// verified-account rule does); a storage error fails the whole
	// authorization closed.
	eval func(ctx context.Context, r *Resolver, p *auth.Principal, permission string) (bool, error)
}

func permissionIn(permission string, names ...string) bool {
	for _, n := range names {
		if permission == n {
			return true
		}
	}
	return false
}

// dashboardRules are the legacy dashboard-access shortcuts, in precedence
// order. All of them produce Allow on match.
var dashboardRules = []accessRule{
	{
		name: "user-role-dashboard",
		eval: func(ctx context.Context, r *Resolver, p *auth.Principal, permission string) (bool, error) {
			return permission == PermAccessUserDashboard && p.HasRole(auth.RoleUser), nil
		},
	},
	{
		name: "verified-account-dashboard",
		eval: func(ctx context.Context, r *Resolver, p *auth.Principal, permission string) (bool, error) {
			if !permissionIn(permission, PermAccessUserDashboard, PermAccessDashboard) {
				return false, nil
			}
			status, err := r.store.AccountStatus(ctx, p.Subject)
			if err != nil {
				return false, err
			}
			return status == StatusVerified, nil
		},
	},
	{
		name: "nurse-role-dashboard",
		eval: func(ctx context.Context, r *Resolver, p *auth.Principal, permission string) (bool, error) {
			return permissionIn(permission, PermAccessNurseDashboard, PermAccessDashboard) &&
				p.HasAnyRole(auth.RoleNurse, auth.RoleHeadNurse), nil
		},
	},
	{
		name: "doctor-role-dashboard",
		eval: func(ctx context.Context, r *Resolver, p *auth.Principal, permission string) (bool, error) {
			return permissionIn(permission, PermAccessDoctorDashboard, PermAccessDashboard) &&
				p.HasAnyRole(auth.RoleDoctor, auth.RoleHeadDoctor), nil
		},
	},
}

// Resolver decides whether a principal may perform an action. Decisions are
// deterministic and total: every query terminates in Allow or Deny, and an
// unknown permission name is simply a Deny. Storage failures propagate as
// errors so callers deny the action rather than fail open.
type Resolver struct {
	store  GrantStore
	cache  SnapshotCache
	logger zerolog.Logger
}

// NewResolver creates a Resolver. cache may be nil to disable snapshot
// caching (grants are then loaded from storage on every query).
func NewResolver(store GrantStore, cache SnapshotCache, logger zerolog.Logger) *Resolver {
	return &Resolver{store: store, cache: cache, logger: logger}
}

// Authorize walks the precedence chain, first match wins:
//
//  1. nil principal → Deny
//  2. Admin / System Administrator role → Allow
//  3. missing subject → Deny
//  4. dashboard special-case rules
//  5. staff allow-list (authoritative: Allow iff listed, no fall-through)
//  6. direct user grants
//  7. role grants
//  8. Deny
func (r *Resolver) Authorize(ctx context.Context, p *auth.Principal, permission string) (Decision, error) {
	if p == nil {
		d := Decision{Allowed: false, Rule: "principal-nil"}
		r.logger.Warn().Str("permission", permission).Str("rule", d.Rule).Msg("authorization denied")
		return d, nil
	}

	if p.HasAnyRole(auth.RoleAdmin, auth.RoleSystemAdmin) {
		return r.log(p, permission, Decision{Allowed: true, Rule: "admin-role"}), nil
	}

	if p.Subject == "" {
		d := Decision{Allowed: false, Rule: "subject-missing"}
		r.logger.Warn().Str("permission", permission).Str("rule", d.Rule).Msg("authorization denied")
		return d, nil
	}

	for _, rule := range dashboardRules {
		matched, err := rule.eval(ctx, r, p, permission)
		if err != nil {
			return Decision{Allowed: false, Rule: rule.name}, fmt.Errorf("authorize %q: %w", permission, err)
		}
		if matched {
			return r.log(p, permission, Decision{Allowed: true, Rule: rule.name}), nil
		}
	}

	grants, err := r.grants(ctx, p)
	if err != nil {
		return Decision{Allowed: false, Rule: "storage-error"}, fmt.Errorf("authorize %q: %w", permission, err)
	}

	forms := formsOf(permission)

	// Staff allow-list is authoritative: once a staff record exists, the
	// outcome is decided here and role/user grants are never consulted.
	if grants.Staff != nil {
		if forms.anyMatches(grants.Staff.Permissions) {
			return r.log(p, permission, Decision{Allowed: true, Rule: "staff-grant"}), nil
		}
		return r.log(p, permission, Decision{Allowed: false, Rule: "staff-denied"}), nil
	}

	if forms.anyMatches(grants.User) {
		return r.log(p, permission, Decision{Allowed: true, Rule: "user-grant"}), nil
	}

	if forms.anyMatches(grants.Role) {
		return r.log(p, permission, Decision{Allowed: true, Rule: "role-grant"}), nil
	}

	return r.log(p, permission, Decision{Allowed: false, Rule: "no-grant"}), nil
}

// Allowed is the boolean form of Authorize used where only the outcome
// matters (e.g. the encryption entitlement gate). Errors are denials.
func (r *Resolver) Allowed(ctx context.Context, p *auth.Principal, permission string) bool {
	d, err := r.Authorize(ctx, p, permission)
	if err != nil {
		return false
	}
	return d.Allowed
}

// InvalidateGrants drops the cached snapshot for a user. Called on login and
// whenever roles or grants change. Best-effort: failures are logged and
// swallowed, never surfaced to the caller.
func (r *Resolver) InvalidateGrants(ctx context.Context, subject string) {
	if r.cache == nil || subject == "" {
		return
	}
	if err := r.cache.Invalidate(ctx, subject); err != nil {
		r.logger.Warn().Err(err).Str("subject", subject).Msg("permission cache clear failed")
	}
}

// grants returns the principal's grant snapshot, from cache when fresh.
func (r *Resolver) grants(ctx context.Context, p *auth.Principal) (*GrantSet, error) {
	if r.cache != nil {
		if gs, ok := r.cache.Get(ctx, p.Subject); ok {
			return gs, nil
		}
	}

	staff, err := r.store.StaffGrants(ctx, p.Subject)
	if err != nil {
		return nil, err
	}

	gs := &GrantSet{Staff: staff}
	// A staff snapshot is complete on its own: role and user grants are
	// never consulted for staff principals, so they are not loaded.
	if staff == nil {
		if gs.User, err = r.store.UserGrants(ctx, p.Subject); err != nil {
			return nil, err
		}
		if gs.Role, err = r.store.RoleGrants(ctx, p.Roles); err != nil {
			return nil, err
		}
	}

	if r.cache != nil {
		r.cache.Set(ctx, p.Subject, gs)
	}
	return gs, nil
}

func (r *Resolver) log(p *auth.Principal, permission string, d Decision) Decision {
	r.logger.Debug().
		Str("subject", p.Subject).
		Str("permission", permission).
		Str("rule", d.Rule).
		Bool("allowed", d.Allowed).
		Msg("authorization decision")
	return d
}
