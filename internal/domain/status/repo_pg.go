package status

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/sais/sais/internal/domain/consent"
	"github.com/sais/sais/internal/domain/triage"
	"github.com/sais/sais/internal/platform/db"
)

// queryable abstracts pgxpool.Pool and pgx.Tx so repository methods run
// against whichever the context carries.
type queryable interface {
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
	SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults
}

type statusRepoPG struct{ pool *pgxpool.Pool }

func NewStatusRepoPG(pool *pgxpool.Pool) StatusRepository {
	return &statusRepoPG{pool: pool}
}

func (r *statusRepoPG) conn(ctx context.Context) queryable {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	return r.pool
}

const statusCols = `id, patient_id, programme_id, academic_year, consent_status,
	triage_status, programme_status, next_activity, vaccine_methods, needs_follow_up, updated_at`

func scanStatus(row pgx.Row) (*PatientProgrammeStatus, error) {
	var s PatientProgrammeStatus
	err := row.Scan(&s.ID, &s.PatientID, &s.ProgrammeID, &s.AcademicYear, &s.ConsentStatus,
		&s.TriageStatus, &s.ProgrammeStatus, &s.NextActivity, &s.VaccineMethods, &s.NeedsFollowUp, &s.UpdatedAt)
	return &s, err
}

// InsertMissing relies on the unique (patient_id, programme_id,
// academic_year) index: concurrent runs inserting overlapping key sets
// race benignly, with ON CONFLICT DO NOTHING keeping one row per key.
func (r *statusRepoPG) InsertMissing(ctx context.Context, keys []Key) error {
	batch := &pgx.Batch{}
	for _, k := range keys {
		batch.Queue(`
			INSERT INTO patient_programme_statuses
				(id, patient_id, programme_id, academic_year, consent_status, triage_status, programme_status, next_activity, needs_follow_up)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, false)
			ON CONFLICT (patient_id, programme_id, academic_year) DO NOTHING`,
			uuid.New(), k.PatientID, k.ProgrammeID, k.AcademicYear,
			consent.StatusNoResponse, triage.OutcomeNotRequired, ProgrammeNoneYet, ActivityConsent)
	}
	results := r.conn(ctx).SendBatch(ctx, batch)
	defer results.Close()
	for range keys {
		if _, err := results.Exec(); err != nil {
			return fmt.Errorf("insert missing status rows: %w", err)
		}
	}
	return nil
}

func (r *statusRepoPG) ListBatch(ctx context.Context, scope Scope, afterID uuid.UUID, limit int) ([]*PatientProgrammeStatus, error) {
	sql := `SELECT ` + statusCols + ` FROM patient_programme_statuses WHERE id > $1`
	args := []interface{}{afterID}
	if len(scope.PatientIDs) > 0 {
		args = append(args, scope.PatientIDs)
		sql += fmt.Sprintf(` AND patient_id = ANY($%d)`, len(args))
	}
	if len(scope.AcademicYears) > 0 {
		args = append(args, scope.AcademicYears)
		sql += fmt.Sprintf(` AND academic_year = ANY($%d)`, len(args))
	}
	args = append(args, limit)
	sql += fmt.Sprintf(` ORDER BY id LIMIT $%d`, len(args))

	rows, err := r.conn(ctx).Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectStatuses(rows)
}

// UpdateStatuses applies the whole batch in one transaction, so a batch
// either lands completely or not at all and stays safe to retry.
func (r *statusRepoPG) UpdateStatuses(ctx context.Context, statuses []*PatientProgrammeStatus) error {
	return db.RunInTx(ctx, r.pool, func(ctx context.Context) error {
		batch := &pgx.Batch{}
		for _, s := range statuses {
			batch.Queue(`
				UPDATE patient_programme_statuses
				SET consent_status = $2, triage_status = $3, programme_status = $4,
					next_activity = $5, vaccine_methods = $6, needs_follow_up = $7, updated_at = NOW()
				WHERE id = $1`,
				s.ID, s.ConsentStatus, s.TriageStatus, s.ProgrammeStatus,
				s.NextActivity, s.VaccineMethods, s.NeedsFollowUp)
		}
		results := r.conn(ctx).SendBatch(ctx, batch)
		defer results.Close()
		for range statuses {
			if _, err := results.Exec(); err != nil {
				return fmt.Errorf("update status rows: %w", err)
			}
		}
		return nil
	})
}

func (r *statusRepoPG) ListForPatient(ctx context.Context, patientID uuid.UUID) ([]*PatientProgrammeStatus, error) {
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT `+statusCols+`
		FROM patient_programme_statuses
		WHERE patient_id = $1
		ORDER BY academic_year DESC, programme_id`,
		patientID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectStatuses(rows)
}

func (r *statusRepoPG) ListByActivity(ctx context.Context, activity Activity, academicYear, limit, offset int) ([]*PatientProgrammeStatus, int, error) {
	var total int
	err := r.conn(ctx).QueryRow(ctx, `
		SELECT COUNT(*) FROM patient_programme_statuses
		WHERE next_activity = $1 AND academic_year = $2`,
		activity, academicYear).Scan(&total)
	if err != nil {
		return nil, 0, err
	}

	rows, err := r.conn(ctx).Query(ctx, `
		SELECT `+statusCols+`
		FROM patient_programme_statuses
		WHERE next_activity = $1 AND academic_year = $2
		ORDER BY patient_id, programme_id
		LIMIT $3 OFFSET $4`,
		activity, academicYear, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	items, err := collectStatuses(rows)
	return items, total, err
}

func collectStatuses(rows pgx.Rows) ([]*PatientProgrammeStatus, error) {
	var items []*PatientProgrammeStatus
	for rows.Next() {
		s, err := scanStatus(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, s)
	}
	return items, rows.Err()
}

type registerRepoPG struct{ pool *pgxpool.Pool }

func NewRegisterRepoPG(pool *pgxpool.Pool) RegisterRepository {
	return &registerRepoPG{pool: pool}
}

func (r *registerRepoPG) conn(ctx context.Context) queryable {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	return r.pool
}

const registerCols = `id, patient_id, session_id, register_status, updated_at`

func scanRegister(row pgx.Row) (*PatientRegistrationStatus, error) {
	var s PatientRegistrationStatus
	err := row.Scan(&s.ID, &s.PatientID, &s.SessionID, &s.RegisterStatus, &s.UpdatedAt)
	return &s, err
}

// InsertMissing mirrors the programme-status shape: ON CONFLICT DO
// NOTHING on the unique (patient_id, session_id) index keeps one row
// per key under concurrent runs.
func (r *registerRepoPG) InsertMissing(ctx context.Context, keys []RegisterKey) error {
	batch := &pgx.Batch{}
	for _, k := range keys {
		batch.Queue(`
			INSERT INTO patient_registration_statuses (id, patient_id, session_id, register_status)
			VALUES ($1, $2, $3, $4)
			ON CONFLICT (patient_id, session_id) DO NOTHING`,
			uuid.New(), k.PatientID, k.SessionID, RegisterUnknown)
	}
	results := r.conn(ctx).SendBatch(ctx, batch)
	defer results.Close()
	for range keys {
		if _, err := results.Exec(); err != nil {
			return fmt.Errorf("insert missing register rows: %w", err)
		}
	}
	return nil
}

func (r *registerRepoPG) ListBatch(ctx context.Context, sessionID, afterID uuid.UUID, limit int) ([]*PatientRegistrationStatus, error) {
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT `+registerCols+`
		FROM patient_registration_statuses
		WHERE session_id = $1 AND id > $2
		ORDER BY id LIMIT $3`,
		sessionID, afterID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectRegisters(rows)
}

func (r *registerRepoPG) UpdateStatuses(ctx context.Context, statuses []*PatientRegistrationStatus) error {
	return db.RunInTx(ctx, r.pool, func(ctx context.Context) error {
		batch := &pgx.Batch{}
		for _, s := range statuses {
			batch.Queue(`
				UPDATE patient_registration_statuses
				SET register_status = $2, updated_at = NOW()
				WHERE id = $1`,
				s.ID, s.RegisterStatus)
		}
		results := r.conn(ctx).SendBatch(ctx, batch)
		defer results.Close()
		for range statuses {
			if _, err := results.Exec(); err != nil {
				return fmt.Errorf("update register rows: %w", err)
			}
		}
		return nil
	})
}

func (r *registerRepoPG) ListForSession(ctx context.Context, sessionID uuid.UUID) ([]*PatientRegistrationStatus, error) {
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT `+registerCols+`
		FROM patient_registration_statuses
		WHERE session_id = $1
		ORDER BY patient_id`,
		sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectRegisters(rows)
}

func collectRegisters(rows pgx.Rows) ([]*PatientRegistrationStatus, error) {
	var items []*PatientRegistrationStatus
	for rows.Next() {
		s, err := scanRegister(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, s)
	}
	return items, rows.Err()
}
