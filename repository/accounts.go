package repository

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"hrms/accounts"
	"hrms/database"
	"hrms/models"
)

const (
	accountEmailIndex = "idx_accounts_email"
	accountPrimaryKey = "accounts_pkey"
)

type Accounts struct {
	db *gorm.DB
}

func NewAccounts(db *gorm.DB) *Accounts {
	return &Accounts{db: db}
}

func (r *Accounts) Create(ctx context.Context, account *models.Account) error {
	conn := database.Conn(ctx, r.db)
	if err := conn.Omit("Profile").Create(account).Error; err != nil {
		return accountWriteError(err)
	}
	if account.Profile != nil {
		account.Profile.AccountID = account.ID
		if err := conn.Create(account.Profile).Error; err != nil {
			return accountWriteError(err)
		}
	}
	return nil
}

func (r *Accounts) FindByID(ctx context.Context, id string) (*models.Account, error) {
	var account models.Account
	err := database.Conn(ctx, r.db).Preload("Profile").First(&account, "id = ?", id).Error
	if err != nil {
		return nil, accountReadError(err)
	}
	return &account, nil
}

func (r *Accounts) FindByEmail(ctx context.Context, email string) (*models.Account, error) {
	var account models.Account
	err := database.Conn(ctx, r.db).Preload("Profile").First(&account, "email = ?", email).Error
	if err != nil {
		return nil, accountReadError(err)
	}
	return &account, nil
}

func (r *Accounts) List(ctx context.Context, filter accounts.ListFilter) ([]models.Account, error) {
	query := database.Conn(ctx, r.db).Model(&models.Account{}).Preload("Profile")
	if filter.Role != nil {
		query = query.Where("accounts.role = ?", *filter.Role)
	}
	if filter.Department != "" {
		query = query.Joins("JOIN profiles ON profiles.account_id = accounts.id").
			Where("profiles.department = ?", filter.Department)
	}
	if filter.Limit > 0 {
		query = query.Limit(filter.Limit)
	}
	if filter.Offset > 0 {
		query = query.Offset(filter.Offset)
	}

	var out []models.Account
	if err := query.Order("accounts.id").Find(&out).Error; err != nil {
		return nil, fmt.Errorf("repository: list accounts: %w", err)
	}
	return out, nil
}

func (r *Accounts) UpdateProfile(ctx context.Context, p *models.Profile) error {
	res := database.Conn(ctx, r.db).Model(&models.Profile{}).
		Where("account_id = ?", p.AccountID).
		Updates(map[string]any{
			"first_name": p.FirstName,
			"last_name":  p.LastName,
			"department": p.Department,
			"job_title":  p.JobTitle,
			"phone":      p.Phone,
			"address":    p.Address,
			"salary":     p.Salary,
			"updated_at": p.UpdatedAt,
		})
	if res.Error != nil {
		return fmt.Errorf("repository: update profile %s: %w", p.AccountID, res.Error)
	}
	if res.RowsAffected == 0 {
		return accounts.ErrAccountNotFound
	}
	return nil
}

func (r *Accounts) SetVerified(ctx context.Context, id string) error {
	res := database.Conn(ctx, r.db).Model(&models.Account{}).
		Where("id = ?", id).
		Update("verified", true)
	if res.Error != nil {
		return fmt.Errorf("repository: verify account %s: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return accounts.ErrAccountNotFound
	}
	return nil
}

func (r *Accounts) UpdatePassword(ctx context.Context, id, hash string) error {
	res := database.Conn(ctx, r.db).Model(&models.Account{}).
		Where("id = ?", id).
		Update("password_hash", hash)
	if res.Error != nil {
		return fmt.Errorf("repository: update password %s: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return accounts.ErrAccountNotFound
	}
	return nil
}

func accountReadError(err error) error {
	if database.IsNotFound(err) {
		return accounts.ErrAccountNotFound
	}
	return fmt.Errorf("repository: load account: %w", err)
}

func accountWriteError(err error) error {
	switch {
	case database.IsUniqueViolation(err, accountEmailIndex):
		return accounts.ErrEmailTaken
	case database.IsUniqueViolation(err, accountPrimaryKey):
		return accounts.ErrIdentifierTaken
	}
	return fmt.Errorf("repository: insert account: %w", err)
}
