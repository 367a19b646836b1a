package authz

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/bhcms/bhcms/internal/platform/auth"
)

// RequirePermission returns middleware that authorizes the request's
// principal for the named permission. A Deny responds 403. A resolver error
// (storage failure) also responds 403: the action cannot be authorized, so
// it is denied rather than allowed through.
func RequirePermission(resolver *Resolver, permission string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			ctx := c.Request().Context()
			p := auth.PrincipalFromContext(ctx)

			decision, err := resolver.Authorize(ctx, p, permission)
			if err != nil {
				return echo.NewHTTPError(http.StatusForbidden, "authorization unavailable")
			}
			if !decision.Allowed {
				return echo.NewHTTPError(http.StatusForbidden, "permission denied: "+permission)
			}
			return next(c)
		}
	}
}
