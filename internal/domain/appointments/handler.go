package appointments

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

// Permissions guarding the appointment endpoints.
const (
	ViewAppointmentsPermission   = "Appointments:ViewAppointments"
	ManageAppointmentsPermission = "Appointments:ManageAppointments"
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
	read := api.Group("/appointments", authz.RequirePermission(h.resolver, ViewAppointmentsPermission))
	read.GET("", h.List)
	read.GET("/:id", h.Get)
	read.GET("/patient/:id", h.ListByPatient)
	read.GET("/doctor/:id", h.ListByDoctor)

	write := api.Group("/appointments", authz.RequirePermission(h.resolver, ManageAppointmentsPermission))
	write.POST("", h.Book)
	write.POST("/:id/approve", h.Approve)
	write.POST("/:id/complete", h.Complete)
	write.POST("/:id/cancel", h.Cancel)
}

func (h *Handler) Book(c echo.Context) error {
	var a Appointment
	if err := c.Bind(&a); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := h.svc.Book(c.Request().Context(), &a); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	ctx := c.Request().Context()
	a.DecryptSensitiveData(ctx, h.privacy, auth.PrincipalFromContext(ctx))
	return c.JSON(http.StatusCreated, a)
}

func (h *Handler) Get(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid appointment id")
	}

	a, err := h.svc.Get(c.Request().Context(), id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "appointment not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	ctx := c.Request().Context()
	a.DecryptSensitiveData(ctx, h.privacy, auth.PrincipalFromContext(ctx))
	return c.JSON(http.StatusOK, a)
}

func (h *Handler) Approve(c echo.Context) error {
	return h.transition(c, h.svc.Approve)
}

func (h *Handler) Complete(c echo.Context) error {
	return h.transition(c, h.svc.Complete)
}

func (h *Handler) Cancel(c echo.Context) error {
	return h.transition(c, h.svc.Cancel)
}

func (h *Handler) transition(c echo.Context, fn func(ctx context.Context, id uuid.UUID) error) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid appointment id")
	}
	if err := fn(c.Request().Context(), id); err != nil {
		switch {
		case errors.Is(err, ErrNotFound):
			return echo.NewHTTPError(http.StatusNotFound, "appointment not found")
		case errors.Is(err, ErrInvalidTransition):
			return echo.NewHTTPError(http.StatusConflict, err.Error())
		default:
			return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
		}
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) List(c echo.Context) error {
	pg := pagination.FromContext(c)
	list, total, err := h.svc.List(c.Request().Context(), pg.Limit, pg.Offset)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return h.respondList(c, list, total, pg)
}

func (h *Handler) ListByPatient(c echo.Context) error {
	return h.listBy(c, h.svc.ListByPatient)
}

func (h *Handler) ListByDoctor(c echo.Context) error {
	return h.listBy(c, h.svc.ListByDoctor)
}

func (h *Handler) listBy(c echo.Context, fn func(ctx context.Context, id uuid.UUID, limit, offset int) ([]*Appointment, int, error)) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	pg := pagination.FromContext(c)
	list, total, err := fn(c.Request().Context(), id, pg.Limit, pg.Offset)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return h.respondList(c, list, total, pg)
}

func (h *Handler) respondList(c echo.Context, list []*Appointment, total int, pg pagination.Params) error {
	ctx := c.Request().Context()
	principal := auth.PrincipalFromContext(ctx)
	for _, a := range list {
		a.DecryptSensitiveData(ctx, h.privacy, principal)
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(list, total, pg.Limit, pg.Offset))
}
