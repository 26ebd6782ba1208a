package vaccination

import (
	"time"

	"github.com/google/uuid"
)

// Outcome is what happened at the point of care.
type Outcome string

const (
	OutcomeAdministered      Outcome = "administered"
	OutcomeAlreadyHad        Outcome = "already_had"
	OutcomeRefused           Outcome = "refused"
	OutcomeContraindications Outcome = "contraindications"
	OutcomeAbsentFromSchool  Outcome = "absent_from_school"
	OutcomeAbsentFromSession Outcome = "absent_from_session"
	OutcomeNotWell           Outcome = "not_well"
)

// Record is one vaccination or non-administration event. Records are
// immutable once created; mistakes are soft-discarded.
type Record struct {
	ID                uuid.UUID  `db:"id" json:"id"`
	PatientID         uuid.UUID  `db:"patient_id" json:"patient_id"`
	ProgrammeID       uuid.UUID  `db:"programme_id" json:"programme_id"`
	SessionID         *uuid.UUID `db:"session_id" json:"session_id,omitempty"`
	AcademicYear      int        `db:"academic_year" json:"academic_year"`
	Outcome           Outcome    `db:"outcome" json:"outcome"`
	DoseSequence      *int       `db:"dose_sequence" json:"dose_sequence,omitempty"`
	VaccineMethod     *string    `db:"vaccine_method" json:"vaccine_method,omitempty"`
	PerformedAt       time.Time  `db:"performed_at" json:"performed_at"`
	RecordedInService bool       `db:"recorded_in_service" json:"recorded_in_service"`
	DiscardedAt       *time.Time `db:"discarded_at" json:"discarded_at,omitempty"`
	CreatedAt         time.Time  `db:"created_at" json:"created_at"`
}

func (r *Record) Kept() bool         { return r.DiscardedAt == nil }
func (r *Record) Administered() bool { return r.Outcome == OutcomeAdministered }
func (r *Record) AlreadyHad() bool   { return r.Outcome == OutcomeAlreadyHad }
