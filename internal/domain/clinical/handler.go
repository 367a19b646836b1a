package clinical

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

// Permissions guarding the clinical endpoints.
const (
	ViewRecordsPermission   = "Clinical:ViewMedicalRecords"
	ManageRecordsPermission = "Clinical:ManageMedicalRecords"
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
	read := api.Group("", authz.RequirePermission(h.resolver, ViewRecordsPermission))
	read.GET("/records/:id", h.GetRecord)
	read.GET("/patients/:id/records", h.ListRecords)
	read.GET("/records/:id/prescriptions", h.ListPrescriptionsByRecord)
	read.GET("/patients/:id/prescriptions", h.ListPrescriptionsByPatient)
	read.GET("/patients/:id/vitals", h.ListVitals)
	read.GET("/patients/:id/vitals/latest", h.LatestVitals)

	write := api.Group("", authz.RequirePermission(h.resolver, ManageRecordsPermission))
	write.POST("/records", h.CreateRecord)
	write.PUT("/records/:id", h.UpdateRecord)
	write.POST("/prescriptions", h.CreatePrescription)
	write.POST("/vitals", h.RecordVitals)
}

func (h *Handler) CreateRecord(c echo.Context) error {
	var m MedicalRecord
	if err := c.Bind(&m); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if p := auth.PrincipalFromContext(c.Request().Context()); p != nil {
		if id, err := uuid.Parse(p.Subject); err == nil {
			m.RecordedBy = id
		}
	}
	if err := h.svc.CreateRecord(c.Request().Context(), &m); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	ctx := c.Request().Context()
	m.DecryptSensitiveData(ctx, h.privacy, auth.PrincipalFromContext(ctx))
	return c.JSON(http.StatusCreated, m)
}

func (h *Handler) GetRecord(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid record id")
	}

	m, err := h.svc.GetRecord(c.Request().Context(), id)
	if err != nil {
		if errors.Is(err, ErrRecordNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "medical record not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	ctx := c.Request().Context()
	m.DecryptSensitiveData(ctx, h.privacy, auth.PrincipalFromContext(ctx))
	return c.JSON(http.StatusOK, m)
}

func (h *Handler) UpdateRecord(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid record id")
	}

	var m MedicalRecord
	if err := c.Bind(&m); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	m.ID = id

	if err := h.svc.UpdateRecord(c.Request().Context(), &m); err != nil {
		if errors.Is(err, ErrRecordNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "medical record not found")
		}
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	ctx := c.Request().Context()
	m.DecryptSensitiveData(ctx, h.privacy, auth.PrincipalFromContext(ctx))
	return c.JSON(http.StatusOK, m)
}

func (h *Handler) ListRecords(c echo.Context) error {
	patientID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid patient id")
	}

	pg := pagination.FromContext(c)
	list, total, err := h.svc.ListRecordsByPatient(c.Request().Context(), patientID, pg.Limit, pg.Offset)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	ctx := c.Request().Context()
	principal := auth.PrincipalFromContext(ctx)
	for _, m := range list {
		m.DecryptSensitiveData(ctx, h.privacy, principal)
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(list, total, pg.Limit, pg.Offset))
}

func (h *Handler) CreatePrescription(c echo.Context) error {
	var p Prescription
	if err := c.Bind(&p); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if principal := auth.PrincipalFromContext(c.Request().Context()); principal != nil {
		if id, err := uuid.Parse(principal.Subject); err == nil {
			p.PrescribedBy = id
		}
	}
	if err := h.svc.CreatePrescription(c.Request().Context(), &p); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	ctx := c.Request().Context()
	p.DecryptSensitiveData(ctx, h.privacy, auth.PrincipalFromContext(ctx))
	return c.JSON(http.StatusCreated, p)
}

func (h *Handler) ListPrescriptionsByRecord(c echo.Context) error {
	recordID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid record id")
	}

	list, err := h.svc.ListPrescriptionsByRecord(c.Request().Context(), recordID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	ctx := c.Request().Context()
	principal := auth.PrincipalFromContext(ctx)
	for _, p := range list {
		p.DecryptSensitiveData(ctx, h.privacy, principal)
	}
	return c.JSON(http.StatusOK, list)
}

func (h *Handler) ListPrescriptionsByPatient(c echo.Context) error {
	patientID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid patient id")
	}

	pg := pagination.FromContext(c)
	list, total, err := h.svc.ListPrescriptionsByPatient(c.Request().Context(), patientID, pg.Limit, pg.Offset)
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

func (h *Handler) RecordVitals(c echo.Context) error {
	var v VitalSigns
	if err := c.Bind(&v); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if p := auth.PrincipalFromContext(c.Request().Context()); p != nil {
		if id, err := uuid.Parse(p.Subject); err == nil {
			v.RecordedBy = id
		}
	}
	if err := h.svc.RecordVitals(c.Request().Context(), &v); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusCreated, v)
}

func (h *Handler) ListVitals(c echo.Context) error {
	patientID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid patient id")
	}

	pg := pagination.FromContext(c)
	list, total, err := h.svc.ListVitalsByPatient(c.Request().Context(), patientID, pg.Limit, pg.Offset)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(list, total, pg.Limit, pg.Offset))
}

func (h *Handler) LatestVitals(c echo.Context) error {
	patientID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid patient id")
	}

	v, err := h.svc.LatestVitals(c.Request().Context(), patientID)
	if err != nil {
		if errors.Is(err, ErrVitalsNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "no vital signs recorded")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, v)
}
