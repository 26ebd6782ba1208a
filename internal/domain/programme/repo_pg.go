package programme

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/sais/sais/internal/platform/db"
)

// queryable abstracts pgxpool.Pool and pgx.Tx so reads join a
// transaction when the context carries one.
type queryable interface {
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
}

type programmeRepoPG struct{ pool *pgxpool.Pool }

func NewProgrammeRepoPG(pool *pgxpool.Pool) ProgrammeRepository {
	return &programmeRepoPG{pool: pool}
}

func (r *programmeRepoPG) conn(ctx context.Context) queryable {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	return r.pool
}

const programmeCols = `id, type, name, seasonal, policy, vaccine_methods,
	vaccinated_dose_sequence, maximum_dose_sequence, year_groups, created_at`

func scanProgramme(row pgx.Row) (*Programme, error) {
	var p Programme
	var policy string
	err := row.Scan(&p.ID, &p.Type, &p.Name, &p.Seasonal, &policy, &p.VaccineMethods,
		&p.VaccinatedDoseSequence, &p.MaximumDoseSequence, &p.YearGroups, &p.CreatedAt)
	if err != nil {
		return nil, err
	}
	if p.Policy, err = ParsePolicy(policy); err != nil {
		return nil, fmt.Errorf("programme %s: %w", p.Type, err)
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *programmeRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*Programme, error) {
	return scanProgramme(r.conn(ctx).QueryRow(ctx, `SELECT `+programmeCols+` FROM programmes WHERE id = $1`, id))
}

func (r *programmeRepoPG) GetByType(ctx context.Context, programmeType string) (*Programme, error) {
	return scanProgramme(r.conn(ctx).QueryRow(ctx, `SELECT `+programmeCols+` FROM programmes WHERE type = $1`, programmeType))
}

func (r *programmeRepoPG) List(ctx context.Context) ([]*Programme, error) {
	rows, err := r.conn(ctx).Query(ctx, `SELECT `+programmeCols+` FROM programmes ORDER BY type`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []*Programme
	for rows.Next() {
		p, err := scanProgramme(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, p)
	}
	return items, rows.Err()
}
