package auth

import "context"

type contextKey string

const principalKey contextKey = "principal"

// Principal is the authenticated caller of a request: a stable subject
// identifier plus the role names carried in the token. A nil Principal means
// the request is unauthenticated.
type Principal struct {
	Subject string
	Email   string
	Roles   []string
}

// HasRole reports whether the principal holds the given role name.
func (p *Principal) HasRole(role string) bool {
	if p == nil {
		return false
	}
	for _, r := range p.Roles {
		if r == role {
			return true
		}
	}
	return false
}

// HasAnyRole reports whether the principal holds at least one of the given
// role names.
func (p *Principal) HasAnyRole(roles ...string) bool {
	for _, r := range roles {
		if p.HasRole(r) {
			return true
		}
	}
	return false
}

// WithPrincipal returns a context carrying the principal.
func WithPrincipal(ctx context.Context, p *Principal) context.Context {
	return context.WithValue(ctx, principalKey, p)
}

// PrincipalFromContext returns the principal stored on the context, or nil
// for unauthenticated requests.
func PrincipalFromContext(ctx context.Context) *Principal {
	p, _ := ctx.Value(principalKey).(*Principal)
	return p
}
