package status

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/sais/sais/internal/domain/patient"
	"github.com/sais/sais/internal/domain/programme"
	"github.com/sais/sais/internal/domain/session"
	"github.com/sais/sais/internal/domain/vaccination"
)

// DefaultBatchSize bounds how many cached rows one update batch touches,
// keeping memory use independent of the population size and each commit
// short-lived.
const DefaultBatchSize = 10000

// insertChunkSize bounds one insert-missing round trip.
const insertChunkSize = 1000

// Materializer maintains the cached status table as a read-optimized
// projection of the raw consent, triage and vaccination rows. Runs are
// idempotent: recomputation always lands on the same values for
// unchanged sources, so re-running after a partial failure, or running
// concurrently for disjoint patient scopes, is safe. Concurrent updates
// to the same key are last-writer-wins; every writer's value is a fully
// current answer.
type Materializer struct {
	patients   patient.PatientRepository
	programmes programme.ProgrammeRepository
	statuses   StatusRepository
	registers  RegisterRepository
	sessions   session.SessionRepository
	attendance session.AttendanceRepository
	records    vaccination.RecordRepository
	loader     SourceLoader
	batchSize  int
	now        func() time.Time
	log        zerolog.Logger
}

func NewMaterializer(
	patients patient.PatientRepository,
	programmes programme.ProgrammeRepository,
	statuses StatusRepository,
	registers RegisterRepository,
	sessions session.SessionRepository,
	attendance session.AttendanceRepository,
	records vaccination.RecordRepository,
	loader SourceLoader,
	log zerolog.Logger,
) *Materializer {
	return &Materializer{
		patients:   patients,
		programmes: programmes,
		statuses:   statuses,
		registers:  registers,
		sessions:   sessions,
		attendance: attendance,
		records:    records,
		loader:     loader,
		batchSize:  DefaultBatchSize,
		now:        time.Now,
		log:        log,
	}
}

// SetBatchSize overrides the update batch size, mainly for tests.
func (m *Materializer) SetBatchSize(n int) {
	if n > 0 {
		m.batchSize = n
	}
}

// SetNow overrides the clock the register pass uses to pick the
// current session date, mainly for tests.
func (m *Materializer) SetNow(now func() time.Time) {
	if now != nil {
		m.now = now
	}
}

// Run materializes every cached row in scope: first the programme
// statuses, then the per-session register statuses, each pass inserting
// rows for keys that have none and then recomputing and conditionally
// updating each row in bounded batches. Each batch commits
// independently, so a failure partway leaves earlier batches valid and
// the failed batch's keys safe to retry on the next run.
func (m *Materializer) Run(ctx context.Context, scope Scope) error {
	if len(scope.AcademicYears) == 0 {
		return fmt.Errorf("materialize: at least one academic year is required")
	}

	if err := m.materializeProgrammeStatuses(ctx, scope); err != nil {
		return err
	}
	return m.materializeRegisterStatuses(ctx, scope)
}

func (m *Materializer) materializeProgrammeStatuses(ctx context.Context, scope Scope) error {
	programmes, err := m.programmes.List(ctx)
	if err != nil {
		return fmt.Errorf("materialize: load programmes: %w", err)
	}
	programmesByID := make(map[uuid.UUID]*programme.Programme, len(programmes))
	for _, p := range programmes {
		programmesByID[p.ID] = p
	}

	keys, err := m.keysInScope(ctx, scope, programmes)
	if err != nil {
		return err
	}
	for start := 0; start < len(keys); start += insertChunkSize {
		end := start + insertChunkSize
		if end > len(keys) {
			end = len(keys)
		}
		if err := m.statuses.InsertMissing(ctx, keys[start:end]); err != nil {
			return fmt.Errorf("materialize: %w", err)
		}
	}
	m.log.Info().Int("keys", len(keys)).Ints("academic_years", scope.AcademicYears).
		Msg("status rows ensured")

	var afterID uuid.UUID
	for {
		batch, err := m.statuses.ListBatch(ctx, scope, afterID, m.batchSize)
		if err != nil {
			return fmt.Errorf("materialize: list batch: %w", err)
		}
		if len(batch) == 0 {
			return nil
		}
		if err := m.updateBatch(ctx, scope, batch, programmesByID); err != nil {
			return err
		}
		afterID = batch[len(batch)-1].ID
	}
}

func (m *Materializer) updateBatch(
	ctx context.Context,
	scope Scope,
	batch []*PatientProgrammeStatus,
	programmesByID map[uuid.UUID]*programme.Programme,
) error {
	patientIDs := uniquePatientIDs(batch)

	patients, err := m.patients.ListByIDs(ctx, patientIDs)
	if err != nil {
		return fmt.Errorf("materialize: load patients: %w", err)
	}
	patientsByID := make(map[uuid.UUID]*patient.Patient, len(patients))
	for _, p := range patients {
		patientsByID[p.ID] = p
	}

	consents, err := m.loader.CurrentConsents(ctx, patientIDs, scope.AcademicYears)
	if err != nil {
		return fmt.Errorf("materialize: load consents: %w", err)
	}
	triages, err := m.loader.LatestTriages(ctx, patientIDs, scope.AcademicYears)
	if err != nil {
		return fmt.Errorf("materialize: load triages: %w", err)
	}
	records, err := m.loader.KeptRecords(ctx, patientIDs)
	if err != nil {
		return fmt.Errorf("materialize: load vaccination records: %w", err)
	}

	var changed []*PatientProgrammeStatus
	for _, row := range batch {
		prog, ok := programmesByID[row.ProgrammeID]
		if !ok {
			// A cached row for a decommissioned programme; leave it as
			// is rather than guessing a policy for it.
			m.log.Warn().Str("programme_id", row.ProgrammeID.String()).
				Msg("cached status references unknown programme")
			continue
		}
		pat, ok := patientsByID[row.PatientID]
		if !ok {
			continue
		}

		key := row.Key()
		resolution, err := Resolve(Snapshot{
			Patient:            pat,
			Programme:          prog,
			AcademicYear:       row.AcademicYear,
			Consents:           consents[key],
			LatestTriage:       triages[key],
			VaccinationRecords: records[PatientProgramme{PatientID: row.PatientID, ProgrammeID: row.ProgrammeID}],
		})
		if err != nil {
			return fmt.Errorf("materialize: resolve %s/%s/%d: %w",
				row.PatientID, prog.Type, row.AcademicYear, err)
		}
		if row.Apply(resolution) {
			changed = append(changed, row)
		}
	}

	if len(changed) > 0 {
		if err := m.statuses.UpdateStatuses(ctx, changed); err != nil {
			return fmt.Errorf("materialize: %w", err)
		}
	}
	m.log.Debug().Int("rows", len(batch)).Int("changed", len(changed)).
		Msg("status batch materialized")
	return nil
}

// materializeRegisterStatuses walks every session in the scoped
// academic years and maintains one cached register row per patient the
// session has touched, meaning a patient with an attendance flag for
// the current session date or a kept vaccination record against the
// session. Patients the session has not seen yet stay without a row;
// their register status is unknown either way.
func (m *Materializer) materializeRegisterStatuses(ctx context.Context, scope Scope) error {
	today := dateOnly(m.now())

	for _, year := range scope.AcademicYears {
		sessions, err := m.sessions.ListByAcademicYear(ctx, year)
		if err != nil {
			return fmt.Errorf("materialize: load sessions: %w", err)
		}
		for _, sess := range sessions {
			if err := m.materializeSessionRegisters(ctx, scope, sess, today); err != nil {
				return err
			}
		}
	}
	return nil
}

func (m *Materializer) materializeSessionRegisters(ctx context.Context, scope Scope, sess *session.Session, today time.Time) error {
	attendanceRecords, err := m.attendance.ListForSessionDate(ctx, sess.ID, today)
	if err != nil {
		return fmt.Errorf("materialize: load attendance for session %s: %w", sess.ID, err)
	}
	sessionRecords, err := m.records.ListForSession(ctx, sess.ID)
	if err != nil {
		return fmt.Errorf("materialize: load records for session %s: %w", sess.ID, err)
	}

	attendanceByPatient := make(map[uuid.UUID]*session.AttendanceRecord, len(attendanceRecords))
	for _, a := range attendanceRecords {
		attendanceByPatient[a.PatientID] = a
	}
	recordsByPatient := make(map[uuid.UUID][]*vaccination.Record)
	for _, r := range sessionRecords {
		recordsByPatient[r.PatientID] = append(recordsByPatient[r.PatientID], r)
	}

	var keys []RegisterKey
	seen := make(map[uuid.UUID]bool)
	addKey := func(patientID uuid.UUID) {
		if seen[patientID] || !idInScope(patientID, scope.PatientIDs) {
			return
		}
		seen[patientID] = true
		keys = append(keys, RegisterKey{PatientID: patientID, SessionID: sess.ID})
	}
	for _, a := range attendanceRecords {
		addKey(a.PatientID)
	}
	for _, r := range sessionRecords {
		addKey(r.PatientID)
	}

	for start := 0; start < len(keys); start += insertChunkSize {
		end := start + insertChunkSize
		if end > len(keys) {
			end = len(keys)
		}
		if err := m.registers.InsertMissing(ctx, keys[start:end]); err != nil {
			return fmt.Errorf("materialize: %w", err)
		}
	}

	var afterID uuid.UUID
	for {
		batch, err := m.registers.ListBatch(ctx, sess.ID, afterID, m.batchSize)
		if err != nil {
			return fmt.Errorf("materialize: list register batch: %w", err)
		}
		if len(batch) == 0 {
			return nil
		}

		var changed []*PatientRegistrationStatus
		for _, row := range batch {
			if !idInScope(row.PatientID, scope.PatientIDs) {
				continue
			}
			resolved := ResolveRegister(sess, attendanceByPatient[row.PatientID], recordsByPatient[row.PatientID])
			if row.ApplyRegister(resolved) {
				changed = append(changed, row)
			}
		}
		if len(changed) > 0 {
			if err := m.registers.UpdateStatuses(ctx, changed); err != nil {
				return fmt.Errorf("materialize: %w", err)
			}
		}
		m.log.Debug().Str("session_id", sess.ID.String()).
			Int("rows", len(batch)).Int("changed", len(changed)).
			Msg("register batch materialized")
		afterID = batch[len(batch)-1].ID
	}
}

func dateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// keysInScope derives the full (patient, programme, academic year) key
// set: a patient is in scope for a programme in every academic year
// where the programme's year-group eligibility window covers the year
// group the patient is in that year.
func (m *Materializer) keysInScope(ctx context.Context, scope Scope, programmes []*programme.Programme) ([]Key, error) {
	refs, err := m.patients.ListRefs(ctx, scope.PatientIDs)
	if err != nil {
		return nil, fmt.Errorf("materialize: load patient refs: %w", err)
	}

	var keys []Key
	for _, ref := range refs {
		for _, year := range scope.AcademicYears {
			yearGroup := programme.YearGroup(ref.BirthAcademicYear, year)
			for _, prog := range programmes {
				if prog.EligibleFor(yearGroup) {
					keys = append(keys, Key{
						PatientID:    ref.ID,
						ProgrammeID:  prog.ID,
						AcademicYear: year,
					})
				}
			}
		}
	}
	return keys, nil
}

func uniquePatientIDs(rows []*PatientProgrammeStatus) []uuid.UUID {
	seen := make(map[uuid.UUID]bool, len(rows))
	var ids []uuid.UUID
	for _, row := range rows {
		if !seen[row.PatientID] {
			seen[row.PatientID] = true
			ids = append(ids, row.PatientID)
		}
	}
	return ids
}
