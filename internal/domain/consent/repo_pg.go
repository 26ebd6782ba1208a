package consent

import (
	"context"
	"encoding/json"
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

type consentRepoPG struct{ pool *pgxpool.Pool }

func NewConsentRepoPG(pool *pgxpool.Pool) ConsentRepository {
	return &consentRepoPG{pool: pool}
}

func (r *consentRepoPG) conn(ctx context.Context) queryable {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	return r.pool
}

const consentCols = `id, patient_id, programme_id, academic_year, responder_type,
	responder_name, response, vaccine_methods, health_answers, submitted_at,
	invalidated_at, withdrawn_at, created_at`

func scanConsent(row pgx.Row) (*Consent, error) {
	var c Consent
	var answers []byte
	err := row.Scan(&c.ID, &c.PatientID, &c.ProgrammeID, &c.AcademicYear, &c.ResponderType,
		&c.ResponderName, &c.Response, &c.VaccineMethods, &answers, &c.SubmittedAt,
		&c.InvalidatedAt, &c.WithdrawnAt, &c.CreatedAt)
	if err != nil {
		return nil, err
	}
	if len(answers) > 0 {
		if err := json.Unmarshal(answers, &c.HealthAnswers); err != nil {
			return nil, fmt.Errorf("consent %s: decode health answers: %w", c.ID, err)
		}
	}
	return &c, nil
}

func (r *consentRepoPG) ListForPatient(ctx context.Context, patientID uuid.UUID, academicYear int) ([]*Consent, error) {
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT `+consentCols+`
		FROM consents
		WHERE patient_id = $1 AND academic_year = $2 AND invalidated_at IS NULL
		ORDER BY submitted_at DESC, id DESC`,
		patientID, academicYear)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectConsents(rows)
}

// ListCurrent keeps one row per responder group via DISTINCT ON, ordered
// within each group by submitted_at descending with the ID as the
// deterministic tie-break. The in-memory Grouper applies the same rule;
// the two paths must return the same logical rows.
func (r *consentRepoPG) ListCurrent(ctx context.Context, scope Scope) ([]*Consent, error) {
	sql := `
		SELECT DISTINCT ON (patient_id, programme_id, academic_year, responder_type, responder_name)
			` + consentCols + `
		FROM consents
		WHERE invalidated_at IS NULL AND response <> ''`
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
		ORDER BY patient_id, programme_id, academic_year, responder_type, responder_name,
			submitted_at DESC, id DESC`

	rows, err := r.conn(ctx).Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectConsents(rows)
}

func collectConsents(rows pgx.Rows) ([]*Consent, error) {
	var items []*Consent
	for rows.Next() {
		c, err := scanConsent(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, c)
	}
	return items, rows.Err()
}
