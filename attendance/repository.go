package attendance

import (
	"context"
	"time"

	"hrms/models"
)

// Repository persists attendance records. Dates are calendar dates at UTC
// midnight. FindDay returns ErrRecordNotFound when the day has no record and
// Create returns ErrAlreadyCheckedIn when one already exists.
type Repository interface {
	FindDay(ctx context.Context, accountID string, day time.Time, forUpdate bool) (*models.AttendanceRecord, error)
	Create(ctx context.Context, record *models.AttendanceRecord) error
	Save(ctx context.Context, record *models.AttendanceRecord) error
	ListByAccount(ctx context.Context, accountID string, from, to time.Time) ([]models.AttendanceRecord, error)
	ListByDate(ctx context.Context, day time.Time) ([]models.AttendanceRecord, error)
}
