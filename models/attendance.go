package models

import (
	"time"

	"github.com/google/uuid"
)

type AttendanceStatus string

const (
	AttendancePresent AttendanceStatus = "PRESENT"
	AttendanceAbsent  AttendanceStatus = "ABSENT"
	AttendanceHalfDay AttendanceStatus = "HALF_DAY"
	AttendanceOnLeave AttendanceStatus = "ON_LEAVE"
)

// AttendanceRecord is unique per (account, work date).
type AttendanceRecord struct {
	ID        uuid.UUID        `gorm:"type:uuid;primaryKey" json:"id"`
	CreatedAt time.Time        `json:"created_at"`
	UpdatedAt time.Time        `json:"updated_at"`
	AccountID string           `gorm:"not null;size:12;uniqueIndex:idx_attendance_account_day,priority:1" json:"account_id"`
	WorkDate  time.Time        `gorm:"not null;type:date;uniqueIndex:idx_attendance_account_day,priority:2;index" json:"work_date"`
	CheckIn   *time.Time       `json:"check_in"`
	CheckOut  *time.Time       `gorm:"check:chk_attendance_checkout,check_out IS NULL OR (check_in IS NOT NULL AND check_out > check_in)" json:"check_out"`
	Status    AttendanceStatus `gorm:"not null;size:20" json:"status"`
	Account   *Account         `gorm:"foreignKey:AccountID;references:ID" json:"-"`
}

func (r *AttendanceRecord) CheckedIn() bool {
	return r.CheckIn != nil
}

func (r *AttendanceRecord) CheckedOut() bool {
	return r.CheckOut != nil
}

// WorkedDuration is zero until the record is checked out.
func (r *AttendanceRecord) WorkedDuration() time.Duration {
	if r.CheckIn == nil || r.CheckOut == nil {
		return 0
	}
	return r.CheckOut.Sub(*r.CheckIn)
}
