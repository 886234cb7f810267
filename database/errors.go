package database

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

const (
	uniqueViolationCode     = "23505"
	foreignKeyViolationCode = "23503"
	checkViolationCode      = "23514"
)

// IsNotFound reports gorm's record-not-found.
func IsNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}

// IsUniqueViolation reports a unique violation, optionally restricted to the
// named index or constraint.
func IsUniqueViolation(err error, constraint string) bool {
	return isPgError(err, uniqueViolationCode, constraint)
}

func IsForeignKeyViolation(err error, constraint string) bool {
	return isPgError(err, foreignKeyViolationCode, constraint)
}

func IsCheckViolation(err error, constraint string) bool {
	return isPgError(err, checkViolationCode, constraint)
}

func isPgError(err error, code, constraint string) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return false
	}
	if pgErr.Code != code {
		return false
	}
	return constraint == "" || pgErr.ConstraintName == constraint
}
