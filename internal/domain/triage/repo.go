package triage

import (
	"context"

	"github.com/google/uuid"
)

// Scope narrows a batch read. Empty slices mean "all".
type Scope struct {
	PatientIDs    []uuid.UUID
	ProgrammeIDs  []uuid.UUID
	AcademicYears []int
}

type TriageRepository interface {
	// ListForPatient returns every non-invalidated decision for one
	// patient, newest first.
	ListForPatient(ctx context.Context, patientID uuid.UUID, academicYear int) ([]*Triage, error)
	// ListLatest returns the latest non-invalidated decision per
	// (patient, programme, academic year) as one set-based query,
	// matching the Latest helper's tie-break.
	ListLatest(ctx context.Context, scope Scope) ([]*Triage, error)
}
