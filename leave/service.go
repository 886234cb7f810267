// Package leave implements the leave-request workflow: employees apply,
// admins approve or reject exactly once.
package leave

import (
	"context"
	"log"
	"strings"
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
	return time.Now().UTC()
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

type Decision string

const (
	DecisionApprove Decision = "APPROVE"
	DecisionReject  Decision = "REJECT"
)

func ParseDecision(s string) (Decision, error) {
	switch d := Decision(strings.ToUpper(strings.TrimSpace(s))); d {
	case DecisionApprove, DecisionReject:
		return d, nil
	}
	return "", ErrInvalidDecision
}

func (d Decision) status() models.LeaveStatus {
	if d == DecisionApprove {
		return models.LeaveApproved
	}
	return models.LeaveRejected
}

const (
	maxReasonLength = 2000
	secondsPerDay   = 24 * 60 * 60
)

var (
	staffRoles = auth.Roles(models.RoleAdmin, models.RoleEmployee)
	adminOnly  = auth.Roles(models.RoleAdmin)
)

type Service struct {
	repo  Repository
	clock Clock
	tx    TransactionManager
}

func NewService(repo Repository, clock Clock, tx TransactionManager) *Service {
	if clock == nil {
		clock = realClock{}
	}
	if tx == nil {
		tx = noopTransactionManager{}
	}
	return &Service{repo: repo, clock: clock, tx: tx}
}

type ApplyInput struct {
	Type      models.LeaveType
	StartDate time.Time
	EndDate   time.Time
	Reason    string
}

// Duration is the inclusive number of calendar days from start to end.
func Duration(start, end time.Time) int {
	return int((dateOf(end).Unix()-dateOf(start).Unix())/secondsPerDay) + 1
}

// Apply files a PENDING request for the session's account.
func (s *Service) Apply(ctx context.Context, claims *auth.Claims, in ApplyInput) (*models.LeaveRequest, error) {
	if err := auth.Authorize(claims, staffRoles); err != nil {
		return nil, err
	}
	if !in.Type.Valid() {
		return nil, ErrInvalidLeaveType
	}
	if in.StartDate.IsZero() || in.EndDate.IsZero() {
		return nil, ErrInvalidDateRange
	}
	start, end := dateOf(in.StartDate), dateOf(in.EndDate)
	if end.Before(start) {
		return nil, ErrInvalidDateRange
	}
	reason := strings.TrimSpace(in.Reason)
	if len(reason) > maxReasonLength {
		return nil, ErrReasonTooLong
	}

	now := s.clock.Now()
	req := &models.LeaveRequest{
		ID:        uuid.New(),
		CreatedAt: now,
		UpdatedAt: now,
		AccountID: claims.AccountID,
		Type:      in.Type,
		StartDate: start,
		EndDate:   end,
		Days:      Duration(start, end),
		Reason:    reason,
		Status:    models.LeavePending,
	}

	err := s.tx.WithinReadWrite(ctx, func(txCtx context.Context) error {
		existing, err := s.repo.FindOverlapping(txCtx, claims.AccountID, start, end)
		if err != nil {
			return err
		}
		if len(existing) > 0 {
			return ErrOverlap
		}
		return s.repo.Create(txCtx, req)
	})
	if err != nil {
		return nil, err
	}

	log.Printf("[leave] %s applied for %s leave %s..%s (%d days)", claims.AccountID, req.Type, start.Format(time.DateOnly), end.Format(time.DateOnly), req.Days)
	return req, nil
}

type AdjudicateInput struct {
	Decision Decision
	Remarks  string
}

// Adjudicate moves a PENDING request to APPROVED or REJECTED and records
// the deciding admin. Deciding an already decided request fails with
// ErrNotPending.
func (s *Service) Adjudicate(ctx context.Context, admin *auth.Claims, id uuid.UUID, in AdjudicateInput) (*models.LeaveRequest, error) {
	if err := auth.Authorize(admin, adminOnly); err != nil {
		return nil, err
	}
	if in.Decision != DecisionApprove && in.Decision != DecisionReject {
		return nil, ErrInvalidDecision
	}
	remarks := strings.TrimSpace(in.Remarks)
	if len(remarks) > maxReasonLength {
		return nil, ErrReasonTooLong
	}

	var out *models.LeaveRequest
	err := s.tx.WithinReadWrite(ctx, func(txCtx context.Context) error {
		req, err := s.repo.FindByID(txCtx, id, true)
		if err != nil {
			return err
		}
		if req.Status != models.LeavePending {
			return ErrNotPending
		}
		if req.AccountID == admin.AccountID {
			return ErrSelfAdjudication
		}

		now := s.clock.Now()
		reviewer := admin.AccountID
		req.Status = in.Decision.status()
		req.ReviewedBy = &reviewer
		req.ReviewedAt = &now
		req.UpdatedAt = now
		if remarks != "" {
			req.Remarks = &remarks
		}
		if err := s.repo.Decide(txCtx, req); err != nil {
			return err
		}
		out = req
		return nil
	})
	if err != nil {
		return nil, err
	}

	log.Printf("[leave] %s set request %s to %s", admin.AccountID, out.ID, out.Status)
	return out, nil
}

// Get returns a request. Employees only see their own; other requests are
// reported as not found.
func (s *Service) Get(ctx context.Context, claims *auth.Claims, id uuid.UUID) (*models.LeaveRequest, error) {
	if err := auth.Authorize(claims, staffRoles); err != nil {
		return nil, err
	}

	var out *models.LeaveRequest
	err := s.tx.WithinReadOnly(ctx, func(txCtx context.Context) error {
		var err error
		out, err = s.repo.FindByID(txCtx, id, false)
		return err
	})
	if err != nil {
		return nil, err
	}
	if claims.Role != models.RoleAdmin && out.AccountID != claims.AccountID {
		return nil, ErrLeaveNotFound
	}
	return out, nil
}

// ListMine lists the session account's requests, optionally by status.
func (s *Service) ListMine(ctx context.Context, claims *auth.Claims, status *models.LeaveStatus) ([]models.LeaveRequest, error) {
	if err := auth.Authorize(claims, staffRoles); err != nil {
		return nil, err
	}
	return s.list(ctx, models.LeaveFilter{AccountID: claims.AccountID, Status: status})
}

// List lists requests across accounts. Admin only.
func (s *Service) List(ctx context.Context, admin *auth.Claims, filter models.LeaveFilter) ([]models.LeaveRequest, error) {
	if err := auth.Authorize(admin, adminOnly); err != nil {
		return nil, err
	}
	return s.list(ctx, filter)
}

func (s *Service) list(ctx context.Context, filter models.LeaveFilter) ([]models.LeaveRequest, error) {
	if filter.Status != nil && !filter.Status.Valid() {
		return nil, ErrInvalidStatus
	}
	var out []models.LeaveRequest
	err := s.tx.WithinReadOnly(ctx, func(txCtx context.Context) error {
		var err error
		out, err = s.repo.List(txCtx, filter)
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func dateOf(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
