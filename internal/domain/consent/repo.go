package consent

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

// ConsentRepository reads consent rows. Rows are written by the intake
// pipelines; this service never creates or mutates them.
type ConsentRepository interface {
	// ListForPatient returns every non-invalidated row for one patient,
	// newest first.
	ListForPatient(ctx context.Context, patientID uuid.UUID, academicYear int) ([]*Consent, error)
	// ListCurrent returns one row per (patient, programme, academic
	// year, responder): the most recently submitted non-invalidated row
	// with a response, using the same tie-break as Grouper.Current. This
	// is the single set-based query the batch calculators load from.
	ListCurrent(ctx context.Context, scope Scope) ([]*Consent, error)
}
