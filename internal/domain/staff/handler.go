package staff

import (
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/bhcms/bhcms/internal/platform/authz"
	"github.com/bhcms/bhcms/pkg/pagination"
)

// ManageStaffPermission guards staff enrollment and all grant administration.
const ManageStaffPermission = "Staff:ManageStaff"

type Handler struct {
	svc      *Service
	resolver *authz.Resolver
}

func NewHandler(svc *Service, resolver *authz.Resolver) *Handler {
	return &Handler{svc: svc, resolver: resolver}
}

type grantRequest struct {
	Permission string `json:"permission"`
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	g := api.Group("", authz.RequirePermission(h.resolver, ManageStaffPermission))

	g.GET("/staff", h.List)
	g.GET("/staff/:id", h.Get)
	g.POST("/staff", h.Enroll)
	g.POST("/staff/:id/activate", h.Activate)
	g.POST("/staff/:id/deactivate", h.Deactivate)
	g.DELETE("/staff/:id", h.Remove)

	g.GET("/permissions", h.ListPermissions)
	g.POST("/staff/:id/permissions", h.GrantToStaff)
	g.DELETE("/staff/:id/permissions/:permission", h.RevokeFromStaff)
	g.POST("/users/:id/permissions", h.GrantToUser)
	g.DELETE("/users/:id/permissions/:permission", h.RevokeFromUser)
	g.POST("/roles/:role/permissions", h.GrantToRole)
	g.DELETE("/roles/:role/permissions/:permission", h.RevokeFromRole)
}

func (h *Handler) Enroll(c echo.Context) error {
	var m StaffMember
	if err := c.Bind(&m); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := h.svc.Enroll(c.Request().Context(), &m); err != nil {
		if errors.Is(err, ErrAlreadyStaff) {
			return echo.NewHTTPError(http.StatusConflict, err.Error())
		}
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusCreated, m)
}

func (h *Handler) Get(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid staff id")
	}
	m, err := h.svc.Get(c.Request().Context(), id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "staff member not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, m)
}

func (h *Handler) List(c echo.Context) error {
	pg := pagination.FromContext(c)
	list, total, err := h.svc.List(c.Request().Context(), pg.Limit, pg.Offset)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(list, total, pg.Limit, pg.Offset))
}

func (h *Handler) Activate(c echo.Context) error {
	return h.setActive(c, true)
}

func (h *Handler) Deactivate(c echo.Context) error {
	return h.setActive(c, false)
}

func (h *Handler) setActive(c echo.Context, active bool) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid staff id")
	}
	if err := h.svc.SetActive(c.Request().Context(), id, active); err != nil {
		if errors.Is(err, ErrNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "staff member not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) Remove(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid staff id")
	}
	if err := h.svc.Remove(c.Request().Context(), id); err != nil {
		if errors.Is(err, ErrNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "staff member not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) ListPermissions(c echo.Context) error {
	perms, err := h.svc.ListPermissions(c.Request().Context())
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, perms)
}

func (h *Handler) GrantToStaff(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid staff id")
	}
	var req grantRequest
	if err := c.Bind(&req); err != nil || req.Permission == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "permission is required")
	}
	return h.grantResult(c, h.svc.GrantToStaff(c.Request().Context(), id, req.Permission))
}

func (h *Handler) RevokeFromStaff(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid staff id")
	}
	return h.grantResult(c, h.svc.RevokeFromStaff(c.Request().Context(), id, c.Param("permission")))
}

func (h *Handler) GrantToUser(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid user id")
	}
	var req grantRequest
	if err := c.Bind(&req); err != nil || req.Permission == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "permission is required")
	}
	return h.grantResult(c, h.svc.GrantToUser(c.Request().Context(), id, req.Permission))
}

func (h *Handler) RevokeFromUser(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid user id")
	}
	return h.grantResult(c, h.svc.RevokeFromUser(c.Request().Context(), id, c.Param("permission")))
}

func (h *Handler) GrantToRole(c echo.Context) error {
	var req grantRequest
	if err := c.Bind(&req); err != nil || req.Permission == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "permission is required")
	}
	return h.grantResult(c, h.svc.GrantToRole(c.Request().Context(), c.Param("role"), req.Permission))
}

func (h *Handler) RevokeFromRole(c echo.Context) error {
	return h.grantResult(c, h.svc.RevokeFromRole(c.Request().Context(), c.Param("role"), c.Param("permission")))
}

func (h *Handler) grantResult(c echo.Context, err error) error {
	switch {
	case err == nil:
		return c.NoContent(http.StatusNoContent)
	case errors.Is(err, ErrNotFound):
		return echo.NewHTTPError(http.StatusNotFound, "staff member not found")
	case errors.Is(err, ErrPermissionNotFound):
		return echo.NewHTTPError(http.StatusNotFound, "permission not found")
	case errors.Is(err, ErrRoleNotFound):
		return echo.NewHTTPError(http.StatusNotFound, "role not found")
	default:
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
}
