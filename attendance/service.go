// Package attendance implements the daily check-in/check-out lifecycle.
package attendance

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/google/uuid"

	"hrms/auth"
	"hrms/models"
)

// Clock provides the current time.
type Clock interface {
	Now() time.Time
}

type realClock struct{}

func (realClock) Now() time.Time {
	return time.Now()
}

// TransactionManager abstracts transaction control.
type TransactionManager interface {
	WithinReadOnly(ctx context.Context, fn func(context.Context) error) error
	WithinReadWrite(ctx context.Context, fn func(context.Context) error) error
}

type noopTransactionManager struct{}

func (noopTransactionManager) WithinReadOnly(ctx context.Context, fn func(context.Context) error) error {
	return fn(ctx)
}

func (noopTransactionManager) WithinReadWrite(ctx context.Context, fn func(context.Context) error) error {
	return fn(ctx)
}

const (
	defaultHistoryDays = 30
	maxHistoryDays     = 366
)

var (
	staffRoles = auth.Roles(models.RoleAdmin, models.RoleEmployee)
	adminOnly  = auth.Roles(models.RoleAdmin)
)

type Options struct {
	// Location decides which calendar day a timestamp belongs to. Defaults to UTC.
	Location *time.Location
	// HalfDayAfter, when positive, marks check-ins later than this offset
	// from local midnight as HALF_DAY.
	HalfDayAfter time.Duration
}

type Service struct {
	repo         Repository
	clock        Clock
	tx           TransactionManager
	loc          *time.Location
	halfDayAfter time.Duration
}

func NewService(repo Repository, clock Clock, tx TransactionManager, opts Options) *Service {
	if clock == nil {
		clock = realClock{}
	}
	if tx == nil {
		tx = noopTransactionManager{}
	}
	loc := opts.Location
	if loc == nil {
		loc = time.UTC
	}
	return &Service{
		repo:         repo,
		clock:        clock,
		tx:           tx,
		loc:          loc,
		halfDayAfter: opts.HalfDayAfter,
	}
}

// CheckIn opens today's record for the session's account. A record that
// exists without a check-in, such as a synthetic ABSENT row, is claimed.
func (s *Service) CheckIn(ctx context.Context, claims *auth.Claims) (*models.AttendanceRecord, error) {
	if err := auth.Authorize(claims, staffRoles); err != nil {
		return nil, err
	}

	local := s.clock.Now().In(s.loc)
	day := calendarDay(local)
	at := local.UTC()
	status := s.statusAt(local)

	var out *models.AttendanceRecord
	err := s.tx.WithinReadWrite(ctx, func(txCtx context.Context) error {
		record, err := s.repo.FindDay(txCtx, claims.AccountID, day, true)
		switch {
		case errors.Is(err, ErrRecordNotFound):
			record = &models.AttendanceRecord{
				ID:        uuid.New(),
				CreatedAt: at,
				UpdatedAt: at,
				AccountID: claims.AccountID,
				WorkDate:  day,
				CheckIn:   &at,
				Status:    status,
			}
			if err := s.repo.Create(txCtx, record); err != nil {
				return err
			}
		case err != nil:
			return err
		case record.CheckedIn():
			return ErrAlreadyCheckedIn
		default:
			record.CheckIn = &at
			record.Status = status
			record.UpdatedAt = at
			if err := s.repo.Save(txCtx, record); err != nil {
				return err
			}
		}
		out = record
		return nil
	})
	if err != nil {
		return nil, err
	}

	log.Printf("[attendance] %s checked in for %s (%s)", claims.AccountID, day.Format(time.DateOnly), out.Status)
	return out, nil
}

// CheckOut closes today's record. Status is left as derived at check-in.
func (s *Service) CheckOut(ctx context.Context, claims *auth.Claims) (*models.AttendanceRecord, error) {
	if err := auth.Authorize(claims, staffRoles); err != nil {
		return nil, err
	}

	local := s.clock.Now().In(s.loc)
	day := calendarDay(local)
	at := local.UTC()

	var out *models.AttendanceRecord
	err := s.tx.WithinReadWrite(ctx, func(txCtx context.Context) error {
		record, err := s.repo.FindDay(txCtx, claims.AccountID, day, true)
		if errors.Is(err, ErrRecordNotFound) {
			return ErrNotCheckedIn
		}
		if err != nil {
			return err
		}
		if !record.CheckedIn() {
			return ErrNotCheckedIn
		}
		if record.CheckedOut() {
			return ErrAlreadyCheckedOut
		}
		if !at.After(*record.CheckIn) {
			return ErrCheckOutNotAfterCheckIn
		}

		record.CheckOut = &at
		record.UpdatedAt = at
		if err := s.repo.Save(txCtx, record); err != nil {
			return err
		}
		out = record
		return nil
	})
	if err != nil {
		return nil, err
	}

	log.Printf("[attendance] %s checked out for %s after %s", claims.AccountID, day.Format(time.DateOnly), out.WorkedDuration().Round(time.Minute))
	return out, nil
}

// Today returns the session account's record for the current day.
func (s *Service) Today(ctx context.Context, claims *auth.Claims) (*models.AttendanceRecord, error) {
	if err := auth.Authorize(claims, staffRoles); err != nil {
		return nil, err
	}
	day := calendarDay(s.clock.Now().In(s.loc))

	var out *models.AttendanceRecord
	err := s.tx.WithinReadOnly(ctx, func(txCtx context.Context) error {
		var err error
		out, err = s.repo.FindDay(txCtx, claims.AccountID, day, false)
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// History lists the session account's records between from and to
// inclusive. Zero bounds default to the last 30 days.
func (s *Service) History(ctx context.Context, claims *auth.Claims, from, to time.Time) ([]models.AttendanceRecord, error) {
	if err := auth.Authorize(claims, staffRoles); err != nil {
		return nil, err
	}
	from, to, err := s.historyRange(from, to)
	if err != nil {
		return nil, err
	}

	var out []models.AttendanceRecord
	err = s.tx.WithinReadOnly(ctx, func(txCtx context.Context) error {
		var err error
		out, err = s.repo.ListByAccount(txCtx, claims.AccountID, from, to)
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// ListByDate lists every account's record for day. Admin only.
func (s *Service) ListByDate(ctx context.Context, admin *auth.Claims, day time.Time) ([]models.AttendanceRecord, error) {
	if err := auth.Authorize(admin, adminOnly); err != nil {
		return nil, err
	}
	if day.IsZero() {
		day = s.clock.Now().In(s.loc)
	}

	var out []models.AttendanceRecord
	err := s.tx.WithinReadOnly(ctx, func(txCtx context.Context) error {
		var err error
		out, err = s.repo.ListByDate(txCtx, calendarDay(day))
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Service) historyRange(from, to time.Time) (time.Time, time.Time, error) {
	if to.IsZero() {
		to = s.clock.Now().In(s.loc)
	}
	to = calendarDay(to)
	if from.IsZero() {
		from = to.AddDate(0, 0, -(defaultHistoryDays - 1))
	}
	from = calendarDay(from)
	if to.Before(from) || to.Sub(from) > maxHistoryDays*24*time.Hour {
		return time.Time{}, time.Time{}, ErrInvalidRange
	}
	return from, to, nil
}

func (s *Service) statusAt(local time.Time) models.AttendanceStatus {
	if s.halfDayAfter <= 0 {
		return models.AttendancePresent
	}
	midnight := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, local.Location())
	if local.Sub(midnight) > s.halfDayAfter {
		return models.AttendanceHalfDay
	}
	return models.AttendancePresent
}

// calendarDay keeps the wall-clock date of t and drops the rest.
func calendarDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
