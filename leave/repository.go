package leave

import (
	"context"
	"time"

	"github.com/google/uuid"

	"hrms/models"
)

// Repository persists leave requests.
//
// Decide is the only status writer after creation. It must apply the
// decision only while the stored status is still PENDING and return
// ErrNotPending otherwise.
type Repository interface {
	Create(ctx context.Context, req *models.LeaveRequest) error
	FindByID(ctx context.Context, id uuid.UUID, forUpdate bool) (*models.LeaveRequest, error)
	List(ctx context.Context, filter models.LeaveFilter) ([]models.LeaveRequest, error)
	// FindOverlapping returns the account's PENDING or APPROVED requests
	// intersecting the inclusive range [start, end].
	FindOverlapping(ctx context.Context, accountID string, start, end time.Time) ([]models.LeaveRequest, error)
	Decide(ctx context.Context, req *models.LeaveRequest) error
}
