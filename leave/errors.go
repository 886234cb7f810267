package leave

import "hrms/apperr"

var (
	ErrInvalidDateRange = apperr.New(apperr.KindValidation, "invalid_date_range", "end date must not be before start date")
	ErrInvalidLeaveType = apperr.New(apperr.KindValidation, "invalid_leave_type", "unknown leave type")
	ErrInvalidDecision  = apperr.New(apperr.KindValidation, "invalid_decision", "decision must be APPROVE or REJECT")
	ErrInvalidStatus    = apperr.New(apperr.KindValidation, "invalid_status", "unknown leave status")
	ErrReasonTooLong    = apperr.New(apperr.KindValidation, "reason_too_long", "reason is too long")
	ErrLeaveNotFound    = apperr.New(apperr.KindNotFound, "leave_not_found", "leave request not found")
	ErrNotPending       = apperr.New(apperr.KindConflict, "not_pending", "leave request has already been decided")
	ErrOverlap          = apperr.New(apperr.KindConflict, "leave_overlap", "leave overlaps an existing request")
	ErrSelfAdjudication = apperr.New(apperr.KindForbidden, "self_adjudication", "cannot decide on your own leave request")
)
