package triage

import (
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/sais/sais/internal/domain/programme"
)

// Handler serves a patient's triage history, newest first.
type Handler struct {
	repo TriageRepository
}

func NewHandler(repo TriageRepository) *Handler {
	return &Handler{repo: repo}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	api.GET("/patients/:id/triages", h.PatientTriages)
}

func (h *Handler) PatientTriages(c echo.Context) error {
	patientID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid patient id")
	}

	academicYear := programme.AcademicYearOf(time.Now())
	if raw := c.QueryParam("academic_year"); raw != "" {
		academicYear, err = strconv.Atoi(raw)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid academic_year")
		}
	}

	rows, err := h.repo.ListForPatient(c.Request().Context(), patientID, academicYear)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"academic_year": academicYear,
		"triages":       rows,
	})
}
