package session

import (
	"context"
	"time"

	"github.com/google/uuid"
)

type SessionRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*Session, error)
	ListByAcademicYear(ctx context.Context, academicYear int) ([]*Session, error)
}

type AttendanceRepository interface {
	// GetForDate returns a patient's attendance flag for one session
	// date, or nil when none was taken.
	GetForDate(ctx context.Context, patientID, sessionID uuid.UUID, date time.Time) (*AttendanceRecord, error)
	// ListForSessionDate returns every attendance record taken on one
	// session date.
	ListForSessionDate(ctx context.Context, sessionID uuid.UUID, date time.Time) ([]*AttendanceRecord, error)
}
