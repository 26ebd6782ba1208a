package vaccination

import (
	"context"

	"github.com/google/uuid"
)

// Scope narrows a batch read. Empty slices mean "all".
type Scope struct {
	PatientIDs   []uuid.UUID
	ProgrammeIDs []uuid.UUID
}

type RecordRepository interface {
	// ListKept returns every non-discarded record in scope, newest
	// performed-at first.
	ListKept(ctx context.Context, scope Scope) ([]*Record, error)
	// ListForSession returns non-discarded records recorded against one
	// session, newest performed-at first.
	ListForSession(ctx context.Context, sessionID uuid.UUID) ([]*Record, error)
}
