package session

import (
	"time"

	"github.com/google/uuid"
)

// Session is one clinic or school visit during which one or more
// programmes are offered. Sessions and their scheduling are owned by an
// external factory; this service reads them to scope register and
// session outcomes.
type Session struct {
	ID           uuid.UUID   `db:"id" json:"id"`
	LocationName string      `db:"location_name" json:"location_name"`
	AcademicYear int         `db:"academic_year" json:"academic_year"`
	ProgrammeIDs []uuid.UUID `db:"programme_ids" json:"programme_ids"`
	Dates        []time.Time `db:"dates" json:"dates"`
	CreatedAt    time.Time   `db:"created_at" json:"created_at"`
}

// AttendanceRecord is the per-date attendance flag taken at the start of
// a session day.
type AttendanceRecord struct {
	ID        uuid.UUID `db:"id" json:"id"`
	PatientID uuid.UUID `db:"patient_id" json:"patient_id"`
	SessionID uuid.UUID `db:"session_id" json:"session_id"`
	Date      time.Time `db:"date" json:"date"`
	Attending bool      `db:"attending" json:"attending"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}
