package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"hrms/accounts"
	"hrms/database"
	"hrms/leave"
	"hrms/models"
)

const leaveRangeCheck = "chk_leave_range"

type Leaves struct {
	db *gorm.DB
}

func NewLeaves(db *gorm.DB) *Leaves {
	return &Leaves{db: db}
}

func (r *Leaves) Create(ctx context.Context, req *models.LeaveRequest) error {
	if err := database.Conn(ctx, r.db).Omit("Account").Create(req).Error; err != nil {
		return leaveWriteError(err)
	}
	return nil
}

func (r *Leaves) FindByID(ctx context.Context, id uuid.UUID, forUpdate bool) (*models.LeaveRequest, error) {
	query := database.Conn(ctx, r.db)
	if forUpdate {
		query = query.Clauses(clause.Locking{Strength: "UPDATE"})
	}

	var req models.LeaveRequest
	if err := query.First(&req, "id = ?", id).Error; err != nil {
		if database.IsNotFound(err) {
			return nil, leave.ErrLeaveNotFound
		}
		return nil, fmt.Errorf("repository: load leave %s: %w", id, err)
	}
	return &req, nil
}

func (r *Leaves) List(ctx context.Context, filter models.LeaveFilter) ([]models.LeaveRequest, error) {
	query := database.Conn(ctx, r.db).Model(&models.LeaveRequest{})
	if filter.AccountID != "" {
		query = query.Where("account_id = ?", filter.AccountID)
	}
	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}

	var out []models.LeaveRequest
	if err := query.Order("start_date desc").Order("created_at desc").Find(&out).Error; err != nil {
		return nil, fmt.Errorf("repository: list leaves: %w", err)
	}
	return out, nil
}

func (r *Leaves) FindOverlapping(ctx context.Context, accountID string, start, end time.Time) ([]models.LeaveRequest, error) {
	var out []models.LeaveRequest
	err := database.Conn(ctx, r.db).
		Where("account_id = ? AND status IN ?", accountID, []models.LeaveStatus{models.LeavePending, models.LeaveApproved}).
		Where("start_date <= ? AND end_date >= ?", sqlDate(end), sqlDate(start)).
		Find(&out).Error
	if err != nil {
		return nil, fmt.Errorf("repository: overlapping leaves for %s: %w", accountID, err)
	}
	return out, nil
}

// Decide writes the decision only while the row is still PENDING.
func (r *Leaves) Decide(ctx context.Context, req *models.LeaveRequest) error {
	res := database.Conn(ctx, r.db).Model(&models.LeaveRequest{}).
		Where("id = ? AND status = ?", req.ID, models.LeavePending).
		Updates(map[string]any{
			"status":      req.Status,
			"reviewed_by": req.ReviewedBy,
			"reviewed_at": req.ReviewedAt,
			"remarks":     req.Remarks,
			"updated_at":  req.UpdatedAt,
		})
	if res.Error != nil {
		return fmt.Errorf("repository: decide leave %s: %w", req.ID, res.Error)
	}
	if res.RowsAffected == 0 {
		return leave.ErrNotPending
	}
	return nil
}

func leaveWriteError(err error) error {
	switch {
	case database.IsCheckViolation(err, leaveRangeCheck):
		return leave.ErrInvalidDateRange
	case database.IsForeignKeyViolation(err, ""):
		return accounts.ErrAccountNotFound
	}
	return fmt.Errorf("repository: insert leave: %w", err)
}
