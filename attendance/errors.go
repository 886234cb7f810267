package attendance

import "hrms/apperr"

var (
	ErrAlreadyCheckedIn        = apperr.New(apperr.KindConflict, "already_checked_in", "already checked in today")
	ErrNotCheckedIn            = apperr.New(apperr.KindConflict, "not_checked_in", "no check-in recorded today")
	ErrAlreadyCheckedOut       = apperr.New(apperr.KindConflict, "already_checked_out", "already checked out today")
	ErrCheckOutNotAfterCheckIn = apperr.New(apperr.KindValidation, "checkout_not_after_checkin", "check-out must be after check-in")
	ErrRecordNotFound          = apperr.New(apperr.KindNotFound, "attendance_not_found", "attendance record not found")
	ErrInvalidRange            = apperr.New(apperr.KindValidation, "invalid_date_range", "invalid date range")
)
