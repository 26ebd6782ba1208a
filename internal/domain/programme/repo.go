package programme

import (
	"context"

	"github.com/google/uuid"
)

type ProgrammeRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*Programme, error)
	GetByType(ctx context.Context, programmeType string) (*Programme, error)
	List(ctx context.Context) ([]*Programme, error)
}
