package auth

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
)

// Role names used throughout the health center. "User" is the patient-facing
// role assigned at registration.
const (
	RoleAdmin       = "Admin"
	RoleSystemAdmin = "System Administrator"
	RoleUser        = "User"
	RoleNurse       = "Nurse"
	RoleHeadNurse   = "Head Nurse"
	RoleDoctor      = "Doctor"
	RoleHeadDoctor  = "Head Doctor"
)

// RequireRole returns middleware that checks if the principal has at least
// one of the specified roles. Admin and System Administrator always pass.
func RequireRole(roles ...string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			p := PrincipalFromContext(c.Request().Context())
			if p == nil {
				return echo.NewHTTPError(http.StatusUnauthorized, "authentication required")
			}
			if p.HasAnyRole(RoleAdmin, RoleSystemAdmin) {
				return next(c)
			}
			if p.HasAnyRole(roles...) {
				return next(c)
			}
			return echo.NewHTTPError(http.StatusForbidden,
				fmt.Sprintf("required role: %s", strings.Join(roles, " or ")))
		}
	}
}
