package triage

import (
	"time"

	"github.com/google/uuid"
)

// Status is the decision a nurse recorded.
type Status string

const (
	StatusReadyToVaccinate Status = "ready_to_vaccinate"
	StatusDoNotVaccinate   Status = "do_not_vaccinate"
	StatusDelayVaccination Status = "delay_vaccination"
	StatusNeedsFollowUp    Status = "needs_follow_up"
)

// Triage is one clinical screening decision. Rows are append-only; a
// superseded or mistaken decision is invalidated, not deleted.
type Triage struct {
	ID            uuid.UUID  `db:"id" json:"id"`
	PatientID     uuid.UUID  `db:"patient_id" json:"patient_id"`
	ProgrammeID   uuid.UUID  `db:"programme_id" json:"programme_id"`
	AcademicYear  int        `db:"academic_year" json:"academic_year"`
	Status        Status     `db:"status" json:"status"`
	VaccineMethod *string    `db:"vaccine_method" json:"vaccine_method,omitempty"`
	DelayUntil    *time.Time `db:"delay_until" json:"delay_until,omitempty"`
	Notes         *string    `db:"notes" json:"notes,omitempty"`
	PerformedByID *uuid.UUID `db:"performed_by_id" json:"performed_by_id,omitempty"`
	InvalidatedAt *time.Time `db:"invalidated_at" json:"invalidated_at,omitempty"`
	CreatedAt     time.Time  `db:"created_at" json:"created_at"`
}

func (t *Triage) Invalidated() bool { return t.InvalidatedAt != nil }

// Latest returns the most recently created non-invalidated decision, or
// nil when there is none. Creation-time ties fall back to the higher ID,
// matching the repository's set-based query.
func Latest(triages []*Triage) *Triage {
	var latest *Triage
	for _, t := range triages {
		if t.Invalidated() {
			continue
		}
		if latest == nil {
			latest = t
			continue
		}
		if t.CreatedAt.After(latest.CreatedAt) ||
			(t.CreatedAt.Equal(latest.CreatedAt) && t.ID.String() > latest.ID.String()) {
			latest = t
		}
	}
	return latest
}
