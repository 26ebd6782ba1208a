package status

import (
	"context"

	"github.com/google/uuid"
)

// Scope narrows which cached rows a materializer run touches.
type Scope struct {
	PatientIDs    []uuid.UUID
	AcademicYears []int
}

// StatusRepository owns the materialized cache table.
type StatusRepository interface {
	// InsertMissing creates rows for any keys not yet cached, ignoring
	// conflicts on the natural key so concurrent materializer runs never
	// duplicate a row. New rows start at the lowest-precedence statuses.
	InsertMissing(ctx context.Context, keys []Key) error
	// ListBatch pages through cached rows in scope in stable ID order,
	// returning rows with IDs strictly greater than afterID.
	ListBatch(ctx context.Context, scope Scope, afterID uuid.UUID, limit int) ([]*PatientProgrammeStatus, error)
	// UpdateStatuses writes the mutable status columns of the given rows
	// by primary key.
	UpdateStatuses(ctx context.Context, rows []*PatientProgrammeStatus) error
	// ListForPatient returns a patient's cached rows, the read path for
	// status pages and worklists.
	ListForPatient(ctx context.Context, patientID uuid.UUID) ([]*PatientProgrammeStatus, error)
	// ListByActivity returns the worklist for one next activity within
	// an academic year.
	ListByActivity(ctx context.Context, activity Activity, academicYear, limit, offset int) ([]*PatientProgrammeStatus, int, error)
}

// RegisterRepository owns the materialized register cache table.
type RegisterRepository interface {
	// InsertMissing creates rows for any keys not yet cached, ignoring
	// conflicts on the natural key. New rows start at unknown.
	InsertMissing(ctx context.Context, keys []RegisterKey) error
	// ListBatch pages through one session's cached rows in stable ID
	// order, returning rows with IDs strictly greater than afterID.
	ListBatch(ctx context.Context, sessionID, afterID uuid.UUID, limit int) ([]*PatientRegistrationStatus, error)
	// UpdateStatuses writes the register status of the given rows by
	// primary key.
	UpdateStatuses(ctx context.Context, rows []*PatientRegistrationStatus) error
	// ListForSession returns a session's cached register rows, the read
	// path for the session register page.
	ListForSession(ctx context.Context, sessionID uuid.UUID) ([]*PatientRegistrationStatus, error)
}
