package programme

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestAcademicYearOf(t *testing.T) {
	assert.Equal(t, 2024, AcademicYearOf(time.Date(2024, 9, 1, 0, 0, 0, 0, time.UTC)))
	assert.Equal(t, 2024, AcademicYearOf(time.Date(2024, 12, 31, 0, 0, 0, 0, time.UTC)))
	assert.Equal(t, 2024, AcademicYearOf(time.Date(2025, 8, 31, 23, 59, 0, 0, time.UTC)))
	assert.Equal(t, 2023, AcademicYearOf(time.Date(2024, 8, 31, 0, 0, 0, 0, time.UTC)))
}

func TestBirthAcademicYear(t *testing.T) {
	// Born in the summer term: still the academic year that started the
	// previous September.
	assert.Equal(t, 2012, BirthAcademicYear(time.Date(2013, 3, 15, 0, 0, 0, 0, time.UTC)))
	assert.Equal(t, 2013, BirthAcademicYear(time.Date(2013, 9, 15, 0, 0, 0, 0, time.UTC)))
}

func TestYearGroup(t *testing.T) {
	// A child born in academic year 2012 is in reception in 2017.
	assert.Equal(t, 0, YearGroup(2012, 2017))
	assert.Equal(t, 7, YearGroup(2012, 2024))
	assert.Equal(t, 11, YearGroup(2012, 2028))
}
