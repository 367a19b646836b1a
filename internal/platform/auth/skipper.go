package auth

import (
	"github.com/labstack/echo/v4"
)

// publicPaths lists URL paths that bypass authentication. These are
// infrastructure endpoints (health checks, metrics) and the account
// endpoints that must be reachable before a caller has a token.
var publicPaths = map[string]bool{
	"/health":        true,
	"/health/db":     true,
	"/metrics":       true,
	"/auth/register": true,
	"/auth/login":    true,
}

// Skipper returns true for requests whose path should skip authentication.
// Pass this as JWTConfig.Skipper so registration, login, and health checks
// remain accessible without a bearer token.
func Skipper(c echo.Context) bool {
	return publicPaths[c.Path()]
}

// IsPublicPath reports whether the given path is a public endpoint that
// bypasses auth middleware.
func IsPublicPath(path string) bool {
	return publicPaths[path]
}
