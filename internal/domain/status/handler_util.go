package status

import (
	"fmt"
	"strconv"
	"time"

	"github.com/sais/sais/internal/domain/programme"
)

func parseAcademicYear(raw string) (int, error) {
	if raw == "" {
		return programme.AcademicYearOf(time.Now()), nil
	}
	year, err := strconv.Atoi(raw)
	if err != nil || year < 2000 || year > 2100 {
		return 0, fmt.Errorf("invalid academic_year")
	}
	return year, nil
}
