package accounts

import "hrms/apperr"

var (
	ErrAccountNotFound = apperr.New(apperr.KindNotFound, "account_not_found", "account not found")
	ErrEmailTaken      = apperr.New(apperr.KindConflict, "email_taken", "email already registered")
	ErrIdentifierTaken = apperr.New(apperr.KindConflict, "identifier_taken", "identifier already issued")
	ErrInvalidEmail    = apperr.New(apperr.KindValidation, "invalid_email", "email is invalid")
	ErrInvalidRole     = apperr.New(apperr.KindValidation, "invalid_role", "role must be ADMIN or EMPLOYEE")
	ErrInvalidSalary   = apperr.New(apperr.KindValidation, "invalid_salary", "salary must be between 0 and 9999999999.99")
	ErrInvalidField    = apperr.New(apperr.KindValidation, "invalid_field", "field is too long")
)
