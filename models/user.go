package models

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

type Role string

const (
	RoleAdmin    Role = "ADMIN"
	RoleEmployee Role = "EMPLOYEE"
)

// Valid reports whether r is one of the closed set of roles.
func (r Role) Valid() bool {
	return r == RoleAdmin || r == RoleEmployee
}

// ParseRole accepts a role name in any case.
func ParseRole(s string) (Role, bool) {
	switch Role(strings.ToUpper(strings.TrimSpace(s))) {
	case RoleAdmin:
		return RoleAdmin, true
	case RoleEmployee:
		return RoleEmployee, true
	}
	return "", false
}

// Account is keyed by the issued employee identifier.
type Account struct {
	ID           string    `gorm:"primaryKey;size:12" json:"id"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
	Email        string    `gorm:"uniqueIndex:idx_accounts_email;not null;size:255" json:"email"`
	PasswordHash string    `gorm:"not null" json:"-"`
	Role         Role      `gorm:"not null;size:20" json:"role"`
	Verified     bool      `gorm:"not null;default:false" json:"verified"`
	JoinYear     int       `gorm:"not null;index" json:"join_year"`
	Profile      *Profile  `gorm:"foreignKey:AccountID;references:ID" json:"profile,omitempty"`
}

// Profile is created in the same transaction as its Account.
type Profile struct {
	AccountID  string          `gorm:"primaryKey;size:12" json:"account_id"`
	CreatedAt  time.Time       `json:"created_at"`
	UpdatedAt  time.Time       `json:"updated_at"`
	FirstName  string          `gorm:"not null;size:100" json:"first_name"`
	LastName   string          `gorm:"not null;size:100" json:"last_name"`
	Department string          `gorm:"size:100" json:"department"`
	JobTitle   string          `gorm:"size:100" json:"job_title"`
	Salary     decimal.Decimal `gorm:"type:numeric(12,2);not null;default:0" json:"salary"`
	Phone      string          `gorm:"size:30" json:"phone"`
	Address    string          `gorm:"size:300" json:"address"`
	JoinDate   time.Time       `gorm:"not null;type:date" json:"join_date"`
}

// IdentifierCounter holds the last serial handed out for a join year.
type IdentifierCounter struct {
	Year       int `gorm:"primaryKey;autoIncrement:false"`
	LastSerial int `gorm:"not null"`
}

func (a *Account) DisplayName() string {
	if a.Profile != nil && (a.Profile.FirstName != "" || a.Profile.LastName != "") {
		return a.Profile.FirstName + " " + a.Profile.LastName
	}
	return a.Email
}
