package status

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/sais/sais/internal/domain/consent"
	"github.com/sais/sais/internal/domain/patient"
	"github.com/sais/sais/internal/domain/programme"
	"github.com/sais/sais/internal/domain/session"
	"github.com/sais/sais/internal/domain/triage"
	"github.com/sais/sais/internal/domain/vaccination"
)

// Service is the synchronous read side: cached rows for status pages and
// worklists, and live register/session resolution for a session day.
type Service struct {
	statuses   StatusRepository
	registers  RegisterRepository
	patients   patient.PatientRepository
	programmes programme.ProgrammeRepository
	sessions   session.SessionRepository
	attendance session.AttendanceRepository
	records    vaccination.RecordRepository
	loader     SourceLoader
}

func NewService(
	statuses StatusRepository,
	registers RegisterRepository,
	patients patient.PatientRepository,
	programmes programme.ProgrammeRepository,
	sessions session.SessionRepository,
	attendance session.AttendanceRepository,
	records vaccination.RecordRepository,
	loader SourceLoader,
) *Service {
	return &Service{
		statuses:   statuses,
		registers:  registers,
		patients:   patients,
		programmes: programmes,
		sessions:   sessions,
		attendance: attendance,
		records:    records,
		loader:     loader,
	}
}

// PatientStatuses returns a patient's cached status rows.
func (s *Service) PatientStatuses(ctx context.Context, patientID uuid.UUID) ([]*PatientProgrammeStatus, error) {
	return s.statuses.ListForPatient(ctx, patientID)
}

// Worklist returns cached rows whose next activity matches, for clinical
// team worklists.
func (s *Service) Worklist(ctx context.Context, activity Activity, academicYear, limit, offset int) ([]*PatientProgrammeStatus, int, error) {
	return s.statuses.ListByActivity(ctx, activity, academicYear, limit, offset)
}

// SessionRegister returns a session's cached register rows, as the
// materializer last left them.
func (s *Service) SessionRegister(ctx context.Context, sessionID uuid.UUID) ([]*PatientRegistrationStatus, error) {
	if _, err := s.sessions.GetByID(ctx, sessionID); err != nil {
		return nil, fmt.Errorf("load session: %w", err)
	}
	return s.registers.ListForSession(ctx, sessionID)
}

// PatientSessionOutcome is the session-scoped view for one patient on
// one session day.
type PatientSessionOutcome struct {
	PatientID      uuid.UUID                `json:"patient_id"`
	RegisterStatus RegisterStatus           `json:"register_status"`
	Programmes     map[string]SessionStatus `json:"programmes"`
}

// ResolvePatientSession computes the register status and per-programme
// session dispositions for one patient attending one session date.
// Unlike the programme-level statuses this is never cached; it reflects
// the day's attendance and recorded outcomes directly.
func (s *Service) ResolvePatientSession(ctx context.Context, patientID, sessionID uuid.UUID, date time.Time) (*PatientSessionOutcome, error) {
	sess, err := s.sessions.GetByID(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("load session: %w", err)
	}

	attendanceRecord, err := s.attendance.GetForDate(ctx, patientID, sessionID, date)
	if err != nil {
		return nil, fmt.Errorf("load attendance: %w", err)
	}

	allRecords, err := s.records.ListKept(ctx, vaccination.Scope{PatientIDs: []uuid.UUID{patientID}})
	if err != nil {
		return nil, fmt.Errorf("load vaccination records: %w", err)
	}
	var sessionRecords []*vaccination.Record
	for _, r := range allRecords {
		if r.SessionID != nil && *r.SessionID == sessionID {
			sessionRecords = append(sessionRecords, r)
		}
	}

	registerStatus := ResolveRegister(sess, attendanceRecord, sessionRecords)

	patientIDs := []uuid.UUID{patientID}
	years := []int{sess.AcademicYear}
	consents, err := s.loader.CurrentConsents(ctx, patientIDs, years)
	if err != nil {
		return nil, fmt.Errorf("load consents: %w", err)
	}
	triages, err := s.loader.LatestTriages(ctx, patientIDs, years)
	if err != nil {
		return nil, fmt.Errorf("load triages: %w", err)
	}

	pat, err := s.patients.GetByID(ctx, patientID)
	if err != nil {
		return nil, fmt.Errorf("load patient: %w", err)
	}

	outcome := &PatientSessionOutcome{
		PatientID:      patientID,
		RegisterStatus: registerStatus,
		Programmes:     make(map[string]SessionStatus, len(sess.ProgrammeIDs)),
	}
	for _, programmeID := range sess.ProgrammeIDs {
		prog, err := s.programmes.GetByID(ctx, programmeID)
		if err != nil {
			return nil, fmt.Errorf("load programme: %w", err)
		}

		key := Key{PatientID: patientID, ProgrammeID: programmeID, AcademicYear: sess.AcademicYear}
		consentOutcome := consent.NewOutcome(consents[key])

		partial, err := vaccination.PartiallyVaccinated(prog, pat, sess.AcademicYear, allRecords)
		if err != nil {
			return nil, err
		}
		triageStatus := triage.ResolveOutcome(triages[key], consentOutcome, partial)

		outcome.Programmes[prog.Type] = ResolveSession(
			programmeID, sessionRecords, consentOutcome, triageStatus, registerStatus)
	}
	return outcome, nil
}
