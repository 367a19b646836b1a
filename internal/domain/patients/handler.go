package patients

import (
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/bhcms/bhcms/internal/platform/auth"
	"github.com/bhcms/bhcms/internal/platform/authz"
	"github.com/bhcms/bhcms/internal/platform/privacy"
	"github.com/bhcms/bhcms/pkg/pagination"
)

// Permissions guarding the patient endpoints.
const (
	ViewPatientsPermission   = "Patients:ViewPatients"
	ManagePatientsPermission = "Patients:ManagePatients"
)

type Handler struct {
	svc      *Service
	privacy  *privacy.Service
	resolver *authz.Resolver
}

func NewHandler(svc *Service, privacySvc *privacy.Service, resolver *authz.Resolver) *Handler {
	return &Handler{svc: svc, privacy: privacySvc, resolver: resolver}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	read := api.Group("/patients", authz.RequirePermission(h.resolver, ViewPatientsPermission))
	read.GET("", h.List)
	read.GET("/:id", h.Get)

	write := api.Group("/patients", authz.RequirePermission(h.resolver, ManagePatientsPermission))
	write.POST("", h.Create)
	write.PUT("/:id", h.Update)
	write.DELETE("/:id", h.Delete)
}

func (h *Handler) Create(c echo.Context) error {
	var p Patient
	if err := c.Bind(&p); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := h.svc.Create(c.Request().Context(), &p); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	ctx := c.Request().Context()
	p.DecryptSensitiveData(ctx, h.privacy, auth.PrincipalFromContext(ctx))
	return c.JSON(http.StatusCreated, p)
}

func (h *Handler) Get(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid patient id")
	}

	p, err := h.svc.Get(c.Request().Context(), id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "patient not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	ctx := c.Request().Context()
	p.DecryptSensitiveData(ctx, h.privacy, auth.PrincipalFromContext(ctx))
	return c.JSON(http.StatusOK, p)
}

func (h *Handler) Update(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid patient id")
	}

	var p Patient
	if err := c.Bind(&p); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	p.ID = id

	if err := h.svc.Update(c.Request().Context(), &p); err != nil {
		if errors.Is(err, ErrNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "patient not found")
		}
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	ctx := c.Request().Context()
	p.DecryptSensitiveData(ctx, h.privacy, auth.PrincipalFromContext(ctx))
	return c.JSON(http.StatusOK, p)
}

func (h *Handler) Delete(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid patient id")
	}
	if err := h.svc.Delete(c.Request().Context(), id); err != nil {
		if errors.Is(err, ErrNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "patient not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) List(c echo.Context) error {
	pg := pagination.FromContext(c)
	list, total, err := h.svc.List(c.Request().Context(), pg.Limit, pg.Offset)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	ctx := c.Request().Context()
	principal := auth.PrincipalFromContext(ctx)
	for _, p := range list {
		p.DecryptSensitiveData(ctx, h.privacy, principal)
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(list, total, pg.Limit, pg.Offset))
}
