package patient

import (
	"time"

	"github.com/google/uuid"

	"github.com/sais/sais/internal/domain/programme"
)

// Patient maps to the patients table. Patients are owned by external
// intake and cohort pipelines; this service consumes them read-only.
type Patient struct {
	ID                uuid.UUID `db:"id" json:"id"`
	NHSNumber         *string   `db:"nhs_number" json:"nhs_number,omitempty"`
	GivenName         string    `db:"given_name" json:"given_name"`
	FamilyName        string    `db:"family_name" json:"family_name"`
	DateOfBirth       time.Time `db:"date_of_birth" json:"date_of_birth"`
	BirthAcademicYear int       `db:"birth_academic_year" json:"birth_academic_year"`
	CreatedAt         time.Time `db:"created_at" json:"created_at"`
	UpdatedAt         time.Time `db:"updated_at" json:"updated_at"`
}

// AgeYears returns the patient's age in whole years at the given instant.
// The reference instant is always explicit so age-dependent rules stay
// pure: criteria evaluate age at a record's performed-at, never "now".
func (p *Patient) AgeYears(at time.Time) int {
	years := at.Year() - p.DateOfBirth.Year()
	anniversary := p.DateOfBirth.AddDate(years, 0, 0)
	if anniversary.After(at) {
		years--
	}
	return years
}

// YearGroup returns the school year group the patient belongs to during
// the given academic year.
func (p *Patient) YearGroup(academicYear int) int {
	return programme.YearGroup(p.BirthAcademicYear, academicYear)
}

// Ref is the minimal projection the status materializer scopes over.
type Ref struct {
	ID                uuid.UUID `db:"id"`
	BirthAcademicYear int       `db:"birth_academic_year"`
}
