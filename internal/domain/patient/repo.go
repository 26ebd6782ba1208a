package patient

import (
	"context"

	"github.com/google/uuid"
)

type PatientRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*Patient, error)
	ListByIDs(ctx context.Context, ids []uuid.UUID) ([]*Patient, error)
	// ListRefs returns the (id, birth academic year) pairs the
	// materializer derives its key scope from. An empty id set means all
	// patients.
	ListRefs(ctx context.Context, ids []uuid.UUID) ([]Ref, error)
}
