package accounts

import (
	"context"
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/bhcms/bhcms/internal/platform/auth"
	"github.com/bhcms/bhcms/internal/platform/authz"
	"github.com/bhcms/bhcms/internal/platform/privacy"
	"github.com/bhcms/bhcms/pkg/pagination"
)

// ManageUsersPermission guards the user-administration endpoints.
const ManageUsersPermission = "Accounts:ManageUsers"

type Handler struct {
	svc      *Service
	privacy  *privacy.Service
	resolver *authz.Resolver
}

func NewHandler(svc *Service, privacySvc *privacy.Service, resolver *authz.Resolver) *Handler {
	return &Handler{svc: svc, privacy: privacySvc, resolver: resolver}
}

func (h *Handler) RegisterRoutes(e *echo.Echo, api *echo.Group) {
	e.POST("/auth/register", h.Register)
	e.POST("/auth/login", h.Login)

	admin := api.Group("/users", authz.RequirePermission(h.resolver, ManageUsersPermission))
	admin.GET("", h.ListUsers)
	admin.GET("/:id", h.GetUser)
	admin.POST("/:id/verify", h.VerifyUser)
	admin.POST("/:id/disable", h.DisableUser)
	admin.POST("/:id/roles", h.AssignRole)
	admin.DELETE("/:id/roles/:role", h.RemoveRole)

	api.GET("/me", h.Me)
}

type registerRequest struct {
	Email         string `json:"email"`
	Password      string `json:"password"`
	FullName      string `json:"full_name"`
	ContactNumber string `json:"contact_number"`
}

func (h *Handler) Register(c echo.Context) error {
	var req registerRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	u, err := h.svc.Register(c.Request().Context(), req.Email, req.Password, req.FullName, req.ContactNumber)
	if err != nil {
		if errors.Is(err, ErrEmailTaken) {
			return echo.NewHTTPError(http.StatusConflict, "email already registered")
		}
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusCreated, map[string]interface{}{
		"id":     u.ID,
		"email":  u.Email,
		"status": u.Status,
	})
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *Handler) Login(c echo.Context) error {
	var req loginRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	token, u, err := h.svc.Login(c.Request().Context(), req.Email, req.Password)
	if err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, err.Error())
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"token":  token,
		"id":     u.ID,
		"email":  u.Email,
		"roles":  u.Roles,
		"status": u.Status,
	})
}

func (h *Handler) ListUsers(c echo.Context) error {
	p := pagination.FromContext(c)
	users, total, err := h.svc.List(c.Request().Context(), p.Limit, p.Offset)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	ctx := c.Request().Context()
	principal := auth.PrincipalFromContext(ctx)
	for _, u := range users {
		u.DecryptSensitiveData(ctx, h.privacy, principal)
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(users, total, p.Limit, p.Offset))
}

func (h *Handler) GetUser(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid user id")
	}

	u, err := h.svc.Get(c.Request().Context(), id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "user not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	ctx := c.Request().Context()
	u.DecryptSensitiveData(ctx, h.privacy, auth.PrincipalFromContext(ctx))
	return c.JSON(http.StatusOK, u)
}

func (h *Handler) VerifyUser(c echo.Context) error {
	return h.updateStatus(c, h.svc.Verify)
}

func (h *Handler) DisableUser(c echo.Context) error {
	return h.updateStatus(c, h.svc.Disable)
}

type roleRequest struct {
	Role string `json:"role"`
}

func (h *Handler) AssignRole(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid user id")
	}
	var req roleRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := h.svc.AssignRole(c.Request().Context(), id, req.Role); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) RemoveRole(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid user id")
	}
	if err := h.svc.RemoveRole(c.Request().Context(), id, c.Param("role")); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.NoContent(http.StatusNoContent)
}

// Me returns the authenticated user's own account.
func (h *Handler) Me(c echo.Context) error {
	ctx := c.Request().Context()
	principal := auth.PrincipalFromContext(ctx)
	if principal == nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "authentication required")
	}
	id, err := uuid.Parse(principal.Subject)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid subject")
	}

	u, err := h.svc.Get(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "user not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	// Users may always read their own name and contact details.
	u.FullName = h.decryptOwn(u.FullName)
	u.ContactNumber = h.decryptOwn(u.ContactNumber)
	return c.JSON(http.StatusOK, u)
}

// decryptOwn decrypts a field for the owning user regardless of role
// entitlement; failures degrade to the stored value.
func (h *Handler) decryptOwn(value string) string {
	if !h.privacy.IsEncrypted(value) {
		return value
	}
	plain, err := h.privacy.DecryptField(value)
	if err != nil {
		return value
	}
	return plain
}

func (h *Handler) updateStatus(c echo.Context, fn func(ctx context.Context, id uuid.UUID) error) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid user id")
	}
	if err := fn(c.Request().Context(), id); err != nil {
		if errors.Is(err, ErrNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "user not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.NoContent(http.StatusNoContent)
}
