package status

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/sais/sais/internal/domain/consent"
	"github.com/sais/sais/internal/domain/patient"
	"github.com/sais/sais/internal/domain/programme"
	"github.com/sais/sais/internal/domain/session"
	"github.com/sais/sais/internal/domain/triage"
	"github.com/sais/sais/internal/domain/vaccination"
)

// ---------- In-memory session repositories ----------

type memSessions struct {
	sessions []*session.Session
}

func (m *memSessions) GetByID(_ context.Context, id uuid.UUID) (*session.Session, error) {
	for _, s := range m.sessions {
		if s.ID == id {
			return s, nil
		}
	}
	return nil, nil
}

func (m *memSessions) ListByAcademicYear(_ context.Context, academicYear int) ([]*session.Session, error) {
	var out []*session.Session
	for _, s := range m.sessions {
		if s.AcademicYear == academicYear {
			out = append(out, s)
		}
	}
	return out, nil
}

type memAttendance struct {
	records []*session.AttendanceRecord
}

func (m *memAttendance) GetForDate(_ context.Context, patientID, sessionID uuid.UUID, date time.Time) (*session.AttendanceRecord, error) {
	for _, r := range m.records {
		if r.PatientID == patientID && r.SessionID == sessionID && r.Date.Equal(date) {
			return r, nil
		}
	}
	return nil, nil
}

func (m *memAttendance) ListForSessionDate(_ context.Context, sessionID uuid.UUID, date time.Time) ([]*session.AttendanceRecord, error) {
	var out []*session.AttendanceRecord
	for _, r := range m.records {
		if r.SessionID == sessionID && r.Date.Equal(date) {
			out = append(out, r)
		}
	}
	return out, nil
}

type memRecords struct {
	records []*vaccination.Record
}

func (m *memRecords) ListKept(_ context.Context, scope vaccination.Scope) ([]*vaccination.Record, error) {
	var out []*vaccination.Record
	for _, r := range m.records {
		if !r.Kept() {
			continue
		}
		if len(scope.PatientIDs) > 0 && !containsID(scope.PatientIDs, r.PatientID) {
			continue
		}
		out = append(out, r)
	}
	sortRecordsNewestFirst(out)
	return out, nil
}

func (m *memRecords) ListForSession(_ context.Context, sessionID uuid.UUID) ([]*vaccination.Record, error) {
	var out []*vaccination.Record
	for _, r := range m.records {
		if r.Kept() && r.SessionID != nil && *r.SessionID == sessionID {
			out = append(out, r)
		}
	}
	sortRecordsNewestFirst(out)
	return out, nil
}

// ---------- Service Tests ----------

func newSessionService(
	sessions []*session.Session,
	attendanceRecords []*session.AttendanceRecord,
	consents []*consent.Consent,
	triages []*triage.Triage,
	records []*vaccination.Record,
) *Service {
	pat := cohortPatient(patID.String())
	return NewService(
		newMemStatuses(),
		newMemRegisters(),
		&memPatients{patients: []*patient.Patient{pat}},
		&memProgrammes{programmes: []*programme.Programme{menACWYProgramme()}},
		&memSessions{sessions: sessions},
		&memAttendance{records: attendanceRecords},
		&memRecords{records: records},
		NewMemoryLoader(zerolog.Nop(), consents, triages, records),
	)
}

func TestResolvePatientSession_NoData(t *testing.T) {
	sess := testSession(progID)
	svc := newSessionService([]*session.Session{sess}, nil, nil, nil, nil)

	outcome, err := svc.ResolvePatientSession(context.Background(), patID, sess.ID, time.Date(2024, 11, 5, 0, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if outcome.RegisterStatus != RegisterUnknown {
		t.Errorf("expected unknown register status, got %s", outcome.RegisterStatus)
	}
	if got := outcome.Programmes["menacwy"]; got != SessionNoneYet {
		t.Errorf("expected none_yet, got %s", got)
	}
}

func TestResolvePatientSession_AdministeredCompletes(t *testing.T) {
	sess := testSession(progID)
	rec := sessionRecord(progID, vaccination.OutcomeAdministered)
	svc := newSessionService([]*session.Session{sess}, []*session.AttendanceRecord{attendance(true)}, nil, nil, []*vaccination.Record{rec})

	outcome, err := svc.ResolvePatientSession(context.Background(), patID, sess.ID, attendance(true).Date)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if outcome.RegisterStatus != RegisterCompleted {
		t.Errorf("expected completed, got %s", outcome.RegisterStatus)
	}
	if got := outcome.Programmes["menacwy"]; got != SessionAdministered {
		t.Errorf("expected administered, got %s", got)
	}
}

func TestResolvePatientSession_RefusedConsent(t *testing.T) {
	sess := testSession(progID)
	c := parentConsent(consent.ResponseRefused, nil)
	svc := newSessionService([]*session.Session{sess}, []*session.AttendanceRecord{attendance(true)}, []*consent.Consent{c}, nil, nil)

	outcome, err := svc.ResolvePatientSession(context.Background(), patID, sess.ID, attendance(true).Date)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if outcome.RegisterStatus != RegisterAttending {
		t.Errorf("expected attending, got %s", outcome.RegisterStatus)
	}
	if got := outcome.Programmes["menacwy"]; got != SessionRefused {
		t.Errorf("expected refused, got %s", got)
	}
}

func TestResolvePatientSession_AbsentAcrossProgrammes(t *testing.T) {
	sess := testSession(progID)
	svc := newSessionService([]*session.Session{sess}, []*session.AttendanceRecord{attendance(false)}, nil, nil, nil)

	outcome, err := svc.ResolvePatientSession(context.Background(), patID, sess.ID, attendance(false).Date)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if outcome.RegisterStatus != RegisterNotAttending {
		t.Errorf("expected not_attending, got %s", outcome.RegisterStatus)
	}
	if got := outcome.Programmes["menacwy"]; got != SessionAbsentFromSession {
		t.Errorf("expected absent_from_session, got %s", got)
	}
}

func TestSessionRegister_ReturnsCachedRows(t *testing.T) {
	sess := testSession(progID)
	registers := newMemRegisters()
	row := &PatientRegistrationStatus{
		ID:             uuid.New(),
		PatientID:      patID,
		SessionID:      sess.ID,
		RegisterStatus: RegisterAttending,
	}
	registers.rows[row.Key()] = row

	pat := cohortPatient(patID.String())
	svc := NewService(
		newMemStatuses(),
		registers,
		&memPatients{patients: []*patient.Patient{pat}},
		&memProgrammes{programmes: []*programme.Programme{menACWYProgramme()}},
		&memSessions{sessions: []*session.Session{sess}},
		&memAttendance{},
		&memRecords{},
		NewMemoryLoader(zerolog.Nop(), nil, nil, nil),
	)

	rows, err := svc.SessionRegister(context.Background(), sess.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("expected 1 register row, got %d", len(rows))
	}
	if rows[0].RegisterStatus != RegisterAttending {
		t.Errorf("expected attending, got %s", rows[0].RegisterStatus)
	}
}
