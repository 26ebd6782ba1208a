package status

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/sais/sais/internal/domain/consent"
	"github.com/sais/sais/internal/domain/session"
	"github.com/sais/sais/internal/domain/triage"
	"github.com/sais/sais/internal/domain/vaccination"
)

var (
	sessID      = uuid.MustParse("33333333-3333-3333-3333-333333333333")
	otherProgID = uuid.MustParse("44444444-4444-4444-4444-444444444444")
)

func testSession(programmeIDs ...uuid.UUID) *session.Session {
	return &session.Session{
		ID:           sessID,
		LocationName: "Hilltop Secondary",
		AcademicYear: 2024,
		ProgrammeIDs: programmeIDs,
	}
}

func sessionRecord(programmeID uuid.UUID, outcome vaccination.Outcome) *vaccination.Record {
	id := sessID
	return &vaccination.Record{
		ID:                uuid.New(),
		PatientID:         patID,
		ProgrammeID:       programmeID,
		SessionID:         &id,
		AcademicYear:      2024,
		Outcome:           outcome,
		PerformedAt:       time.Date(2024, 11, 5, 10, 0, 0, 0, time.UTC),
		RecordedInService: true,
	}
}

func attendance(attending bool) *session.AttendanceRecord {
	return &session.AttendanceRecord{
		PatientID: patID,
		SessionID: sessID,
		Date:      time.Date(2024, 11, 5, 0, 0, 0, 0, time.UTC),
		Attending: attending,
	}
}

// ---------- Register status ----------

func TestResolveRegister_Unknown(t *testing.T) {
	got := ResolveRegister(testSession(progID), nil, nil)
	assert.Equal(t, RegisterUnknown, got)
}

func TestResolveRegister_Attendance(t *testing.T) {
	assert.Equal(t, RegisterAttending, ResolveRegister(testSession(progID), attendance(true), nil))
	assert.Equal(t, RegisterNotAttending, ResolveRegister(testSession(progID), attendance(false), nil))
}

func TestResolveRegister_CompletedWhenAllProgrammesRecorded(t *testing.T) {
	sess := testSession(progID, otherProgID)
	records := []*vaccination.Record{
		sessionRecord(progID, vaccination.OutcomeAdministered),
		sessionRecord(otherProgID, vaccination.OutcomeRefused),
	}
	assert.Equal(t, RegisterCompleted, ResolveRegister(sess, attendance(true), records))
}

func TestResolveRegister_PartialRecordingIsNotCompleted(t *testing.T) {
	sess := testSession(progID, otherProgID)
	records := []*vaccination.Record{sessionRecord(progID, vaccination.OutcomeAdministered)}
	assert.Equal(t, RegisterAttending, ResolveRegister(sess, attendance(true), records))
}

func TestResolveRegister_DiscardedRecordDoesNotComplete(t *testing.T) {
	rec := sessionRecord(progID, vaccination.OutcomeAdministered)
	discardedAt := rec.PerformedAt.Add(time.Hour)
	rec.DiscardedAt = &discardedAt
	assert.Equal(t, RegisterUnknown, ResolveRegister(testSession(progID), nil, []*vaccination.Record{rec}))
}

func TestResolveRegister_NoProgrammesNeverCompleted(t *testing.T) {
	assert.Equal(t, RegisterUnknown, ResolveRegister(testSession(), nil, nil))
}

// ---------- Session outcome ----------

func refusedConsentOutcome() *consent.Outcome {
	return consent.NewOutcome([]*consent.Consent{parentConsent(consent.ResponseRefused, nil)})
}

func TestResolveSession_RecordedOutcomeWins(t *testing.T) {
	records := []*vaccination.Record{sessionRecord(progID, vaccination.OutcomeAdministered)}
	got := ResolveSession(progID, records, refusedConsentOutcome(), triage.OutcomeDoNotVaccinate, RegisterNotAttending)
	assert.Equal(t, SessionAdministered, got)
}

func TestResolveSession_NewestRecordWins(t *testing.T) {
	newest := sessionRecord(progID, vaccination.OutcomeNotWell)
	older := sessionRecord(progID, vaccination.OutcomeAbsentFromSession)
	// Newest first, as the repositories return them.
	got := ResolveSession(progID, []*vaccination.Record{newest, older}, nil, triage.OutcomeNotRequired, RegisterAttending)
	assert.Equal(t, SessionNotWell, got)
}

func TestResolveSession_OtherProgrammeRecordsIgnored(t *testing.T) {
	records := []*vaccination.Record{sessionRecord(otherProgID, vaccination.OutcomeAdministered)}
	got := ResolveSession(progID, records, nil, triage.OutcomeNotRequired, RegisterAttending)
	assert.Equal(t, SessionNoneYet, got)
}

func TestResolveSession_ConsentRefused(t *testing.T) {
	got := ResolveSession(progID, nil, refusedConsentOutcome(), triage.OutcomeNotRequired, RegisterAttending)
	assert.Equal(t, SessionRefused, got)
}

func TestResolveSession_TriageContraindications(t *testing.T) {
	got := ResolveSession(progID, nil, nil, triage.OutcomeDoNotVaccinate, RegisterAttending)
	assert.Equal(t, SessionContraindications, got)
}

func TestResolveSession_AbsentFromSession(t *testing.T) {
	got := ResolveSession(progID, nil, nil, triage.OutcomeNotRequired, RegisterNotAttending)
	assert.Equal(t, SessionAbsentFromSession, got)
}

func TestResolveSession_NoneYet(t *testing.T) {
	got := ResolveSession(progID, nil, nil, triage.OutcomeNotRequired, RegisterAttending)
	assert.Equal(t, SessionNoneYet, got)
	got = ResolveSession(progID, nil, nil, triage.OutcomeNotRequired, RegisterUnknown)
	assert.Equal(t, SessionNoneYet, got)
}
