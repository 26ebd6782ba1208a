package status

import (
	"context"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/sais/sais/internal/domain/consent"
	"github.com/sais/sais/internal/domain/triage"
	"github.com/sais/sais/internal/domain/vaccination"
)

// PatientProgramme keys vaccination history, which is not scoped by
// academic year at load time (non-seasonal programmes carry records
// across years).
type PatientProgramme struct {
	PatientID   uuid.UUID
	ProgrammeID uuid.UUID
}

// SourceLoader batch-loads the "latest per group" facts the resolver
// needs for a set of patients. Two implementations exist: MemoryLoader
// reduces over already-loaded rows with the pure grouping helpers, and
// the repository-backed loader issues one set-based query per fact kind.
// Both must return the same logical rows for the same underlying data.
type SourceLoader interface {
	// CurrentConsents returns the grouped one-per-responder consents per
	// (patient, programme, academic year).
	CurrentConsents(ctx context.Context, patientIDs []uuid.UUID, academicYears []int) (map[Key][]*consent.Consent, error)
	// LatestTriages returns the newest non-invalidated triage decision
	// per (patient, programme, academic year).
	LatestTriages(ctx context.Context, patientIDs []uuid.UUID, academicYears []int) (map[Key]*triage.Triage, error)
	// KeptRecords returns every kept vaccination record per (patient,
	// programme), newest first.
	KeptRecords(ctx context.Context, patientIDs []uuid.UUID) (map[PatientProgramme][]*vaccination.Record, error)
}

// MemoryLoader serves loads from rows already in memory. It backs tests
// and small synchronous resolutions (single patient pages) where the
// rows were fetched as part of a wider read.
type MemoryLoader struct {
	grouper *consent.Grouper

	consents []*consent.Consent
	triages  []*triage.Triage
	records  []*vaccination.Record
}

func NewMemoryLoader(
	log zerolog.Logger,
	consents []*consent.Consent,
	triages []*triage.Triage,
	records []*vaccination.Record,
) *MemoryLoader {
	return &MemoryLoader{
		grouper:  consent.NewGrouper(log),
		consents: consents,
		triages:  triages,
		records:  records,
	}
}

func (l *MemoryLoader) CurrentConsents(_ context.Context, patientIDs []uuid.UUID, academicYears []int) (map[Key][]*consent.Consent, error) {
	byKey := make(map[Key][]*consent.Consent)
	for _, c := range l.consents {
		if !idInScope(c.PatientID, patientIDs) || !yearInScope(c.AcademicYear, academicYears) {
			continue
		}
		key := Key{PatientID: c.PatientID, ProgrammeID: c.ProgrammeID, AcademicYear: c.AcademicYear}
		byKey[key] = append(byKey[key], c)
	}
	for key, group := range byKey {
		byKey[key] = l.grouper.Current(group)
	}
	return byKey, nil
}

func (l *MemoryLoader) LatestTriages(_ context.Context, patientIDs []uuid.UUID, academicYears []int) (map[Key]*triage.Triage, error) {
	byKey := make(map[Key][]*triage.Triage)
	for _, t := range l.triages {
		if !idInScope(t.PatientID, patientIDs) || !yearInScope(t.AcademicYear, academicYears) {
			continue
		}
		key := Key{PatientID: t.PatientID, ProgrammeID: t.ProgrammeID, AcademicYear: t.AcademicYear}
		byKey[key] = append(byKey[key], t)
	}
	latest := make(map[Key]*triage.Triage, len(byKey))
	for key, group := range byKey {
		if t := triage.Latest(group); t != nil {
			latest[key] = t
		}
	}
	return latest, nil
}

func (l *MemoryLoader) KeptRecords(_ context.Context, patientIDs []uuid.UUID) (map[PatientProgramme][]*vaccination.Record, error) {
	byKey := make(map[PatientProgramme][]*vaccination.Record)
	for _, r := range l.records {
		if !r.Kept() || !idInScope(r.PatientID, patientIDs) {
			continue
		}
		key := PatientProgramme{PatientID: r.PatientID, ProgrammeID: r.ProgrammeID}
		byKey[key] = append(byKey[key], r)
	}
	for _, group := range byKey {
		sortRecordsNewestFirst(group)
	}
	return byKey, nil
}

// RepoLoader serves loads from the repositories' set-based queries.
type RepoLoader struct {
	consents consent.ConsentRepository
	triages  triage.TriageRepository
	records  vaccination.RecordRepository
}

func NewRepoLoader(
	consents consent.ConsentRepository,
	triages triage.TriageRepository,
	records vaccination.RecordRepository,
) *RepoLoader {
	return &RepoLoader{consents: consents, triages: triages, records: records}
}

func (l *RepoLoader) CurrentConsents(ctx context.Context, patientIDs []uuid.UUID, academicYears []int) (map[Key][]*consent.Consent, error) {
	rows, err := l.consents.ListCurrent(ctx, consent.Scope{PatientIDs: patientIDs, AcademicYears: academicYears})
	if err != nil {
		return nil, err
	}
	byKey := make(map[Key][]*consent.Consent)
	for _, c := range rows {
		key := Key{PatientID: c.PatientID, ProgrammeID: c.ProgrammeID, AcademicYear: c.AcademicYear}
		byKey[key] = append(byKey[key], c)
	}
	return byKey, nil
}

func (l *RepoLoader) LatestTriages(ctx context.Context, patientIDs []uuid.UUID, academicYears []int) (map[Key]*triage.Triage, error) {
	rows, err := l.triages.ListLatest(ctx, triage.Scope{PatientIDs: patientIDs, AcademicYears: academicYears})
	if err != nil {
		return nil, err
	}
	latest := make(map[Key]*triage.Triage, len(rows))
	for _, t := range rows {
		latest[Key{PatientID: t.PatientID, ProgrammeID: t.ProgrammeID, AcademicYear: t.AcademicYear}] = t
	}
	return latest, nil
}

func (l *RepoLoader) KeptRecords(ctx context.Context, patientIDs []uuid.UUID) (map[PatientProgramme][]*vaccination.Record, error) {
	rows, err := l.records.ListKept(ctx, vaccination.Scope{PatientIDs: patientIDs})
	if err != nil {
		return nil, err
	}
	byKey := make(map[PatientProgramme][]*vaccination.Record)
	for _, r := range rows {
		key := PatientProgramme{PatientID: r.PatientID, ProgrammeID: r.ProgrammeID}
		byKey[key] = append(byKey[key], r)
	}
	return byKey, nil
}

func idInScope(id uuid.UUID, ids []uuid.UUID) bool {
	if len(ids) == 0 {
		return true
	}
	for _, candidate := range ids {
		if candidate == id {
			return true
		}
	}
	return false
}

func yearInScope(year int, years []int) bool {
	if len(years) == 0 {
		return true
	}
	for _, candidate := range years {
		if candidate == year {
			return true
		}
	}
	return false
}
