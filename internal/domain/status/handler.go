package status

import (
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/labstack/echo/v4"

	"github.com/sais/sais/pkg/pagination"
)

// Handler exposes the read-only status surface. Everything it serves
// comes from the materialized cache or the synchronous calculators;
// consumers never see raw consent, triage or vaccination rows here, so
// every caller observes the same derived statuses.
type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	api.GET("/patients/:id/statuses", h.PatientStatuses)
	api.GET("/statuses", h.Worklist)
	api.GET("/sessions/:id/register", h.SessionRegister)
	api.GET("/sessions/:id/patients/:patient_id/outcome", h.PatientSessionOutcome)
}

func (h *Handler) SessionRegister(c echo.Context) error {
	sessionID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid session id")
	}
	items, err := h.svc.SessionRegister(c.Request().Context(), sessionID)
	if errors.Is(err, pgx.ErrNoRows) {
		return echo.NewHTTPError(http.StatusNotFound, "session not found")
	}
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, items)
}

func (h *Handler) PatientStatuses(c echo.Context) error {
	patientID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid patient id")
	}
	items, err := h.svc.PatientStatuses(c.Request().Context(), patientID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, items)
}

func (h *Handler) Worklist(c echo.Context) error {
	activity := Activity(c.QueryParam("next_activity"))
	switch activity {
	case ActivityConsent, ActivityTriage, ActivityRecord, ActivityReport, ActivityDoNotRecord:
	default:
		return echo.NewHTTPError(http.StatusBadRequest, "invalid next_activity")
	}

	academicYear, err := parseAcademicYear(c.QueryParam("academic_year"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	pg := pagination.FromContext(c)
	items, total, err := h.svc.Worklist(c.Request().Context(), activity, academicYear, pg.Limit, pg.Offset)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(items, total, pg.Limit, pg.Offset))
}

func (h *Handler) PatientSessionOutcome(c echo.Context) error {
	sessionID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid session id")
	}
	patientID, err := uuid.Parse(c.Param("patient_id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid patient id")
	}

	date := time.Now().UTC().Truncate(24 * time.Hour)
	if raw := c.QueryParam("date"); raw != "" {
		date, err = time.Parse("2006-01-02", raw)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid date")
		}
	}

	outcome, err := h.svc.ResolvePatientSession(c.Request().Context(), patientID, sessionID, date)
	if errors.Is(err, pgx.ErrNoRows) {
		return echo.NewHTTPError(http.StatusNotFound, "session not found")
	}
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, outcome)
}
