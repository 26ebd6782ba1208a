package status

import (
	"time"

	"github.com/google/uuid"

	"github.com/sais/sais/internal/domain/consent"
	"github.com/sais/sais/internal/domain/session"
	"github.com/sais/sais/internal/domain/triage"
	"github.com/sais/sais/internal/domain/vaccination"
)

// RegisterStatus is the whole-session disposition for one patient on a
// session day.
type RegisterStatus string

const (
	RegisterUnknown      RegisterStatus = "unknown"
	RegisterAttending    RegisterStatus = "attending"
	RegisterNotAttending RegisterStatus = "not_attending"
	RegisterCompleted    RegisterStatus = "completed"
)

// SessionStatus is the per-programme disposition for one patient within
// one session.
type SessionStatus string

const (
	SessionAdministered      SessionStatus = "administered"
	SessionAlreadyHad        SessionStatus = "already_had"
	SessionContraindications SessionStatus = "contraindications"
	SessionRefused           SessionStatus = "refused"
	SessionAbsentFromSchool  SessionStatus = "absent_from_school"
	SessionAbsentFromSession SessionStatus = "absent_from_session"
	SessionNotWell           SessionStatus = "not_well"
	SessionNoneYet           SessionStatus = "none_yet"
)

// RegisterKey is the natural unique key of the cached register table.
type RegisterKey struct {
	PatientID uuid.UUID
	SessionID uuid.UUID
}

// PatientRegistrationStatus is one row of the materialized register
// cache: the whole-session disposition for one patient, recomputed by
// the materializer's session pass. At most one row exists per key.
type PatientRegistrationStatus struct {
	ID             uuid.UUID      `db:"id" json:"id"`
	PatientID      uuid.UUID      `db:"patient_id" json:"patient_id"`
	SessionID      uuid.UUID      `db:"session_id" json:"session_id"`
	RegisterStatus RegisterStatus `db:"register_status" json:"register_status"`
	UpdatedAt      time.Time      `db:"updated_at" json:"updated_at"`
}

func (s *PatientRegistrationStatus) Key() RegisterKey {
	return RegisterKey{PatientID: s.PatientID, SessionID: s.SessionID}
}

// ApplyRegister copies a freshly computed register status onto the
// cached row and reports whether it changed.
func (s *PatientRegistrationStatus) ApplyRegister(rs RegisterStatus) bool {
	changed := s.RegisterStatus != rs
	s.RegisterStatus = rs
	return changed
}

// ResolveRegister derives the register status for one patient in one
// session: completed once every programme the session offers has a
// recorded outcome for this patient, otherwise taken from the day's
// attendance flag, otherwise unknown. sessionRecords must be the
// patient's kept records for this session.
func ResolveRegister(
	sess *session.Session,
	attendance *session.AttendanceRecord,
	sessionRecords []*vaccination.Record,
) RegisterStatus {
	recorded := make(map[uuid.UUID]bool)
	for _, r := range sessionRecords {
		if r.Kept() {
			recorded[r.ProgrammeID] = true
		}
	}
	completed := len(sess.ProgrammeIDs) > 0
	for _, programmeID := range sess.ProgrammeIDs {
		if !recorded[programmeID] {
			completed = false
			break
		}
	}
	if completed {
		return RegisterCompleted
	}

	if attendance != nil {
		if attendance.Attending {
			return RegisterAttending
		}
		return RegisterNotAttending
	}
	return RegisterUnknown
}

// ResolveSession derives the per-programme session disposition, in
// precedence order: the most recent recorded outcome for this patient,
// session and programme; then a consent refusal; then a do-not-vaccinate
// triage; then absence from the session; and finally none_yet.
// sessionRecords must be sorted newest first, as the repositories return
// them.
func ResolveSession(
	programmeID uuid.UUID,
	sessionRecords []*vaccination.Record,
	consentOutcome *consent.Outcome,
	triageStatus triage.OutcomeStatus,
	registerStatus RegisterStatus,
) SessionStatus {
	for _, r := range sessionRecords {
		if !r.Kept() || r.ProgrammeID != programmeID {
			continue
		}
		return SessionStatus(r.Outcome)
	}

	switch {
	case consentOutcome != nil && consentOutcome.Refused():
		return SessionRefused
	case triageStatus == triage.OutcomeDoNotVaccinate:
		return SessionContraindications
	case registerStatus == RegisterNotAttending:
		return SessionAbsentFromSession
	default:
		return SessionNoneYet
	}
}
