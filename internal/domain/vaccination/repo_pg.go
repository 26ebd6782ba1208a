package vaccination

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

type recordRepoPG struct{ pool *pgxpool.Pool }

func NewRecordRepoPG(pool *pgxpool.Pool) RecordRepository {
	return &recordRepoPG{pool: pool}
}

func (r *recordRepoPG) conn(ctx context.Context) queryable {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	return r.pool
}

const recordCols = `id, patient_id, programme_id, session_id, academic_year, outcome,
	dose_sequence, vaccine_method, performed_at, recorded_in_service, discarded_at, created_at`

func scanRecord(row pgx.Row) (*Record, error) {
	var r Record
	err := row.Scan(&r.ID, &r.PatientID, &r.ProgrammeID, &r.SessionID, &r.AcademicYear, &r.Outcome,
		&r.DoseSequence, &r.VaccineMethod, &r.PerformedAt, &r.RecordedInService, &r.DiscardedAt, &r.CreatedAt)
	return &r, err
}

func (r *recordRepoPG) ListKept(ctx context.Context, scope Scope) ([]*Record, error) {
	sql := `
		SELECT ` + recordCols + `
		FROM vaccination_records
		WHERE discarded_at IS NULL`
	args := []interface{}{}
	if len(scope.PatientIDs) > 0 {
		args = append(args, scope.PatientIDs)
		sql += fmt.Sprintf(` AND patient_id = ANY($%d)`, len(args))
	}
	if len(scope.ProgrammeIDs) > 0 {
		args = append(args, scope.ProgrammeIDs)
		sql += fmt.Sprintf(` AND programme_id = ANY($%d)`, len(args))
	}
	sql += ` ORDER BY performed_at DESC, id DESC`

	rows, err := r.conn(ctx).Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectRecords(rows)
}

func (r *recordRepoPG) ListForSession(ctx context.Context, sessionID uuid.UUID) ([]*Record, error) {
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT `+recordCols+`
		FROM vaccination_records
		WHERE session_id = $1 AND discarded_at IS NULL
		ORDER BY performed_at DESC, id DESC`,
		sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectRecords(rows)
}

func collectRecords(rows pgx.Rows) ([]*Record, error) {
	var items []*Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, rec)
	}
	return items, rows.Err()
}
