package screening

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

// Permissions guarding the screening endpoints.
const (
	ViewScreeningsPermission   = "Screening:ViewAssessments"
	ManageScreeningsPermission = "Screening:ManageAssessments"
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
	read := api.Group("/screening", authz.RequirePermission(h.resolver, ViewScreeningsPermission))
	read.GET("/ncd/:id", h.GetNCD)
	read.GET("/ncd/patient/:id", h.ListNCD)
	read.GET("/heeadsss/:id", h.GetHEEADSSS)
	read.GET("/heeadsss/patient/:id", h.ListHEEADSSS)

	write := api.Group("/screening", authz.RequirePermission(h.resolver, ManageScreeningsPermission))
	write.POST("/ncd", h.AssessNCD)
	write.POST("/heeadsss", h.AssessHEEADSSS)
}

func (h *Handler) AssessNCD(c echo.Context) error {
	var n NCDRiskAssessment
	if err := c.Bind(&n); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if p := auth.PrincipalFromContext(c.Request().Context()); p != nil {
		if id, err := uuid.Parse(p.Subject); err == nil {
			n.AssessedBy = id
		}
	}
	if err := h.svc.AssessNCDRisk(c.Request().Context(), &n); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	ctx := c.Request().Context()
	n.DecryptSensitiveData(ctx, h.privacy, auth.PrincipalFromContext(ctx))
	return c.JSON(http.StatusCreated, n)
}

func (h *Handler) GetNCD(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid assessment id")
	}

	n, err := h.svc.GetNCDAssessment(c.Request().Context(), id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "assessment not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	ctx := c.Request().Context()
	n.DecryptSensitiveData(ctx, h.privacy, auth.PrincipalFromContext(ctx))
	return c.JSON(http.StatusOK, n)
}

func (h *Handler) ListNCD(c echo.Context) error {
	patientID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid patient id")
	}

	pg := pagination.FromContext(c)
	list, total, err := h.svc.ListNCDByPatient(c.Request().Context(), patientID, pg.Limit, pg.Offset)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	ctx := c.Request().Context()
	principal := auth.PrincipalFromContext(ctx)
	for _, n := range list {
		n.DecryptSensitiveData(ctx, h.privacy, principal)
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(list, total, pg.Limit, pg.Offset))
}

func (h *Handler) AssessHEEADSSS(c echo.Context) error {
	var a HEEADSSSAssessment
	if err := c.Bind(&a); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if p := auth.PrincipalFromContext(c.Request().Context()); p != nil {
		if id, err := uuid.Parse(p.Subject); err == nil {
			a.AssessedBy = id
		}
	}
	if err := h.svc.AssessHEEADSSS(c.Request().Context(), &a); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	ctx := c.Request().Context()
	a.DecryptSensitiveData(ctx, h.privacy, auth.PrincipalFromContext(ctx))
	return c.JSON(http.StatusCreated, a)
}

func (h *Handler) GetHEEADSSS(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid assessment id")
	}

	a, err := h.svc.GetHEEADSSSAssessment(c.Request().Context(), id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "assessment not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	ctx := c.Request().Context()
	a.DecryptSensitiveData(ctx, h.privacy, auth.PrincipalFromContext(ctx))
	return c.JSON(http.StatusOK, a)
}

func (h *Handler) ListHEEADSSS(c echo.Context) error {
	patientID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid patient id")
	}

	pg := pagination.FromContext(c)
	list, total, err := h.svc.ListHEEADSSSByPatient(c.Request().Context(), patientID, pg.Limit, pg.Offset)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	ctx := c.Request().Context()
	principal := auth.PrincipalFromContext(ctx)
	for _, a := range list {
		a.DecryptSensitiveData(ctx, h.privacy, principal)
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(list, total, pg.Limit, pg.Offset))
}
