package session

import (
	"context"
	"errors"
	"time"

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

type sessionRepoPG struct{ pool *pgxpool.Pool }

func NewSessionRepoPG(pool *pgxpool.Pool) SessionRepository {
	return &sessionRepoPG{pool: pool}
}

func (r *sessionRepoPG) conn(ctx context.Context) queryable {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	return r.pool
}

const sessionCols = `id, location_name, academic_year, programme_ids, dates, created_at`

func scanSession(row pgx.Row) (*Session, error) {
	var s Session
	err := row.Scan(&s.ID, &s.LocationName, &s.AcademicYear, &s.ProgrammeIDs, &s.Dates, &s.CreatedAt)
	return &s, err
}

func (r *sessionRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*Session, error) {
	return scanSession(r.conn(ctx).QueryRow(ctx, `SELECT `+sessionCols+` FROM sessions WHERE id = $1`, id))
}

func (r *sessionRepoPG) ListByAcademicYear(ctx context.Context, academicYear int) ([]*Session, error) {
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT `+sessionCols+` FROM sessions WHERE academic_year = $1 ORDER BY location_name`,
		academicYear)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []*Session
	for rows.Next() {
		s, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, s)
	}
	return items, rows.Err()
}

type attendanceRepoPG struct{ pool *pgxpool.Pool }

func NewAttendanceRepoPG(pool *pgxpool.Pool) AttendanceRepository {
	return &attendanceRepoPG{pool: pool}
}

func (r *attendanceRepoPG) conn(ctx context.Context) queryable {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	return r.pool
}

const attendanceCols = `id, patient_id, session_id, date, attending, created_at`

func scanAttendance(row pgx.Row) (*AttendanceRecord, error) {
	var a AttendanceRecord
	err := row.Scan(&a.ID, &a.PatientID, &a.SessionID, &a.Date, &a.Attending, &a.CreatedAt)
	return &a, err
}

func (r *attendanceRepoPG) GetForDate(ctx context.Context, patientID, sessionID uuid.UUID, date time.Time) (*AttendanceRecord, error) {
	a, err := scanAttendance(r.conn(ctx).QueryRow(ctx, `
		SELECT `+attendanceCols+`
		FROM attendance_records
		WHERE patient_id = $1 AND session_id = $2 AND date = $3`,
		patientID, sessionID, date))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return a, nil
}

func (r *attendanceRepoPG) ListForSessionDate(ctx context.Context, sessionID uuid.UUID, date time.Time) ([]*AttendanceRecord, error) {
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT `+attendanceCols+`
		FROM attendance_records
		WHERE session_id = $1 AND date = $2`,
		sessionID, date)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []*AttendanceRecord
	for rows.Next() {
		a, err := scanAttendance(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, a)
	}
	return items, rows.Err()
}
