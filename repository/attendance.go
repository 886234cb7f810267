package repository

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"hrms/attendance"
	"hrms/database"
	"hrms/models"
)

const (
	attendanceDayIndex      = "idx_attendance_account_day"
	attendanceCheckoutCheck = "chk_attendance_checkout"
)

type Attendance struct {
	db *gorm.DB
}

func NewAttendance(db *gorm.DB) *Attendance {
	return &Attendance{db: db}
}

// FindDay loads the record for (accountID, day). With forUpdate the row
// stays locked until the surrounding transaction ends.
func (r *Attendance) FindDay(ctx context.Context, accountID string, day time.Time, forUpdate bool) (*models.AttendanceRecord, error) {
	query := database.Conn(ctx, r.db)
	if forUpdate {
		query = query.Clauses(clause.Locking{Strength: "UPDATE"})
	}

	var record models.AttendanceRecord
	err := query.Where("account_id = ? AND work_date = ?", accountID, sqlDate(day)).First(&record).Error
	if err != nil {
		if database.IsNotFound(err) {
			return nil, attendance.ErrRecordNotFound
		}
		return nil, fmt.Errorf("repository: load attendance: %w", err)
	}
	return &record, nil
}

func (r *Attendance) Create(ctx context.Context, record *models.AttendanceRecord) error {
	if err := database.Conn(ctx, r.db).Omit("Account").Create(record).Error; err != nil {
		return attendanceWriteError(err)
	}
	return nil
}

func (r *Attendance) Save(ctx context.Context, record *models.AttendanceRecord) error {
	if err := database.Conn(ctx, r.db).Omit("Account").Save(record).Error; err != nil {
		return attendanceWriteError(err)
	}
	return nil
}

func (r *Attendance) ListByAccount(ctx context.Context, accountID string, from, to time.Time) ([]models.AttendanceRecord, error) {
	var out []models.AttendanceRecord
	err := database.Conn(ctx, r.db).
		Where("account_id = ? AND work_date BETWEEN ? AND ?", accountID, sqlDate(from), sqlDate(to)).
		Order("work_date desc").
		Find(&out).Error
	if err != nil {
		return nil, fmt.Errorf("repository: list attendance for %s: %w", accountID, err)
	}
	return out, nil
}

func (r *Attendance) ListByDate(ctx context.Context, day time.Time) ([]models.AttendanceRecord, error) {
	var out []models.AttendanceRecord
	err := database.Conn(ctx, r.db).
		Where("work_date = ?", sqlDate(day)).
		Order("account_id").
		Find(&out).Error
	if err != nil {
		return nil, fmt.Errorf("repository: list attendance for %s: %w", sqlDate(day), err)
	}
	return out, nil
}

func attendanceWriteError(err error) error {
	switch {
	case database.IsUniqueViolation(err, attendanceDayIndex):
		return attendance.ErrAlreadyCheckedIn
	case database.IsCheckViolation(err, attendanceCheckoutCheck):
		return attendance.ErrCheckOutNotAfterCheckIn
	}
	return fmt.Errorf("repository: write attendance: %w", err)
}

// sqlDate binds a calendar date as text so the comparison does not depend
// on the session time zone.
func sqlDate(t time.Time) string {
	return t.Format(time.DateOnly)
}
