package triage

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

type triageRepoPG struct{ pool *pgxpool.Pool }

func NewTriageRepoPG(pool *pgxpool.Pool) TriageRepository {
	return &triageRepoPG{pool: pool}
}

func (r *triageRepoPG) conn(ctx context.Context) queryable {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	return r.pool
}

const triageCols = `id, patient_id, programme_id, academic_year, status, vaccine_method,
	delay_until, notes, performed_by_id, invalidated_at, created_at`

func scanTriage(row pgx.Row) (*Triage, error) {
	var t Triage
	err := row.Scan(&t.ID, &t.PatientID, &t.ProgrammeID, &t.AcademicYear, &t.Status, &t.VaccineMethod,
		&t.DelayUntil, &t.Notes, &t.PerformedByID, &t.InvalidatedAt, &t.CreatedAt)
	return &t, err
}

func (r *triageRepoPG) ListForPatient(ctx context.Context, patientID uuid.UUID, academicYear int) ([]*Triage, error) {
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT `+triageCols+`
		FROM triages
		WHERE patient_id = $1 AND academic_year = $2 AND invalidated_at IS NULL
		ORDER BY created_at DESC, id DESC`,
		patientID, academicYear)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectTriages(rows)
}

func (r *triageRepoPG) ListLatest(ctx context.Context, scope Scope) ([]*Triage, error) {
	sql := `
		SELECT DISTINCT ON (patient_id, programme_id, academic_year)
			` + triageCols + `
		FROM triages
		WHERE invalidated_at IS NULL`
	args := []interface{}{}
	if len(scope.PatientIDs) > 0 {
		args = append(args, scope.PatientIDs)
		sql += fmt.Sprintf(` AND patient_id = ANY($%d)`, len(args))
	}
	if len(scope.ProgrammeIDs) > 0 {
		args = append(args, scope.ProgrammeIDs)
		sql += fmt.Sprintf(` AND programme_id = ANY($%d)`, len(args))
	}
	if len(scope.AcademicYears) > 0 {
		args = append(args, scope.AcademicYears)
		sql += fmt.Sprintf(` AND academic_year = ANY($%d)`, len(args))
	}
	sql += `
		ORDER BY patient_id, programme_id, academic_year, created_at DESC, id DESC`

	rows, err := r.conn(ctx).Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectTriages(rows)
}

func collectTriages(rows pgx.Rows) ([]*Triage, error) {
	var items []*Triage
	for rows.Next() {
		t, err := scanTriage(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, t)
	}
	return items, rows.Err()
}
