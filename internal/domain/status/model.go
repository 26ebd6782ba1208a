package status

import (
	"time"

	"github.com/google/uuid"

	"github.com/sais/sais/internal/domain/consent"
	"github.com/sais/sais/internal/domain/triage"
)

// Key is the natural unique key of the cached status table.
type Key struct {
	PatientID    uuid.UUID
	ProgrammeID  uuid.UUID
	AcademicYear int
}

// PatientProgrammeStatus is one row of the materialized status cache.
// It is a projection, never a source of truth: every column besides the
// key is re-derivable from the raw consent, triage and vaccination rows,
// and the materializer overwrites stale values in place. At most one row
// exists per key.
type PatientProgrammeStatus struct {
	ID           uuid.UUID `db:"id" json:"id"`
	PatientID    uuid.UUID `db:"patient_id" json:"patient_id"`
	ProgrammeID  uuid.UUID `db:"programme_id" json:"programme_id"`
	AcademicYear int       `db:"academic_year" json:"academic_year"`

	ConsentStatus   consent.Status       `db:"consent_status" json:"consent_status"`
	TriageStatus    triage.OutcomeStatus `db:"triage_status" json:"triage_status"`
	ProgrammeStatus ProgrammeStatus      `db:"programme_status" json:"programme_status"`
	NextActivity    Activity             `db:"next_activity" json:"next_activity"`
	VaccineMethods  []string             `db:"vaccine_methods" json:"vaccine_methods,omitempty"`
	NeedsFollowUp   bool                 `db:"needs_follow_up" json:"needs_follow_up"`

	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

func (s *PatientProgrammeStatus) Key() Key {
	return Key{PatientID: s.PatientID, ProgrammeID: s.ProgrammeID, AcademicYear: s.AcademicYear}
}

// Apply copies a freshly computed resolution onto the cached row and
// reports whether any mutable column changed.
func (s *PatientProgrammeStatus) Apply(r Resolution) bool {
	needsFollowUp := r.TriageStatus == triage.OutcomeRequired

	changed := s.ConsentStatus != r.ConsentStatus ||
		s.TriageStatus != r.TriageStatus ||
		s.ProgrammeStatus != r.ProgrammeStatus ||
		s.NextActivity != r.NextActivity ||
		s.NeedsFollowUp != needsFollowUp ||
		!equalStrings(s.VaccineMethods, r.VaccineMethods)

	s.ConsentStatus = r.ConsentStatus
	s.TriageStatus = r.TriageStatus
	s.ProgrammeStatus = r.ProgrammeStatus
	s.NextActivity = r.NextActivity
	s.VaccineMethods = r.VaccineMethods
	s.NeedsFollowUp = needsFollowUp
	return changed
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
