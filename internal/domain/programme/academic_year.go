package programme

import "time"

// An academic year is identified by the calendar year it starts in: 2024
// means September 2024 through August 2025.

// academicYearStartMonth is September, the UK school year boundary.
const academicYearStartMonth = time.September

// ageChildrenStartSchool is the age a child turns during their first
// (reception) academic year.
const ageChildrenStartSchool = 5

// AcademicYearOf returns the academic year the given instant falls in.
func AcademicYearOf(t time.Time) int {
	if t.Month() >= academicYearStartMonth {
		return t.Year()
	}
	return t.Year() - 1
}

// BirthAcademicYear returns the academic year a child was born in.
func BirthAcademicYear(dateOfBirth time.Time) int {
	return AcademicYearOf(dateOfBirth)
}

// YearGroup converts a birth academic year into the school year group the
// child belongs to during the given academic year. Year group 0 is
// reception.
func YearGroup(birthAcademicYear, academicYear int) int {
	return academicYear - birthAcademicYear - ageChildrenStartSchool
}
