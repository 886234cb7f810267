package models

import (
	"time"

	"github.com/google/uuid"
)

type LeaveType string

const (
	LeavePaid   LeaveType = "PAID"
	LeaveSick   LeaveType = "SICK"
	LeaveUnpaid LeaveType = "UNPAID"
)

func (t LeaveType) Valid() bool {
	switch t {
	case LeavePaid, LeaveSick, LeaveUnpaid:
		return true
	}
	return false
}

type LeaveStatus string

const (
	LeavePending  LeaveStatus = "PENDING"
	LeaveApproved LeaveStatus = "APPROVED"
	LeaveRejected LeaveStatus = "REJECTED"
)

func (s LeaveStatus) Valid() bool {
	switch s {
	case LeavePending, LeaveApproved, LeaveRejected:
		return true
	}
	return false
}

// Terminal reports whether no further transition leaves s.
func (s LeaveStatus) Terminal() bool {
	return s == LeaveApproved || s == LeaveRejected
}

type LeaveRequest struct {
	ID         uuid.UUID   `gorm:"type:uuid;primaryKey" json:"id"`
	CreatedAt  time.Time   `json:"created_at"`
	UpdatedAt  time.Time   `json:"updated_at"`
	AccountID  string      `gorm:"not null;size:12;index" json:"account_id"`
	Type       LeaveType   `gorm:"not null;size:20" json:"type"`
	StartDate  time.Time   `gorm:"not null;type:date" json:"start_date"`
	EndDate    time.Time   `gorm:"not null;type:date;check:chk_leave_range,end_date >= start_date" json:"end_date"`
	Days       int         `gorm:"not null" json:"days"`
	Reason     string      `gorm:"type:text" json:"reason"`
	Status     LeaveStatus `gorm:"not null;size:20;default:PENDING;index" json:"status"`
	ReviewedBy *string     `gorm:"size:12" json:"reviewed_by,omitempty"`
	ReviewedAt *time.Time  `json:"reviewed_at,omitempty"`
	Remarks    *string     `gorm:"type:text" json:"remarks,omitempty"`
	Account    *Account    `gorm:"foreignKey:AccountID;references:ID" json:"-"`
}

type LeaveFilter struct {
	AccountID string
	Status    *LeaveStatus
}

// Overlaps reports whether the inclusive ranges [StartDate, EndDate] and [start, end] intersect.
func (l *LeaveRequest) Overlaps(start, end time.Time) bool {
	return !l.EndDate.Before(start) && !end.Before(l.StartDate)
}
