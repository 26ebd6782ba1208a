package consent

import (
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/sais/sais/internal/domain/programme"
)

// Handler serves a patient's consent responses for review pages. The
// grouped "current" view applies the same one-per-responder rule the
// batch calculators use.
type Handler struct {
	repo    ConsentRepository
	grouper *Grouper
}

func NewHandler(repo ConsentRepository, log zerolog.Logger) *Handler {
	return &Handler{repo: repo, grouper: NewGrouper(log)}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	api.GET("/patients/:id/consents", h.PatientConsents)
}

func (h *Handler) PatientConsents(c echo.Context) error {
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
		"responses":     rows,
		"current":       h.grouper.Current(rows),
	})
}
