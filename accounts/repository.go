package accounts

import (
	"context"

	"hrms/models"
)

// Repository persists accounts and their profiles.
type Repository interface {
	// Create inserts the account and its Profile together.
	Create(ctx context.Context, account *models.Account) error
	FindByID(ctx context.Context, id string) (*models.Account, error)
	FindByEmail(ctx context.Context, email string) (*models.Account, error)
	List(ctx context.Context, filter ListFilter) ([]models.Account, error)
	UpdateProfile(ctx context.Context, profile *models.Profile) error
	SetVerified(ctx context.Context, id string) error
	UpdatePassword(ctx context.Context, id, hash string) error
}

type ListFilter struct {
	Role       *models.Role
	Department string
	Limit      int
	Offset     int
}
