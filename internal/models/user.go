package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type UserRole string

const (
	RoleSupervisor  UserRole = "SUPERVISOR"
	RoleSalesperson UserRole = "SALESPERSON"
)

func (r UserRole) Valid() bool {
	return r == RoleSupervisor || r == RoleSalesperson
}

type User struct {
	ID           uint            `gorm:"primaryKey" json:"id"`
	BranchID     *uint           `gorm:"index" json:"branchId"`
	Branch       *Branch         `json:"branch,omitempty"`
	FirstName    string          `gorm:"size:100;not null" json:"firstName"`
	LastName     string          `gorm:"size:100;not null" json:"lastName"`
	Email        string          `gorm:"size:100;uniqueIndex;not null" json:"email"`
	PhoneNumber  string          `gorm:"size:30;uniqueIndex;not null" json:"phoneNumber"`
	PasswordHash string          `gorm:"size:255;not null" json:"-"`
	Role         UserRole        `gorm:"size:20;not null" json:"role"`
	Active       bool            `gorm:"not null;default:true" json:"active"`
	Sales        decimal.Decimal `gorm:"type:numeric(12,2);not null;default:0" json:"sales"`
	LastLoginAt  *time.Time      `json:"lastLoginAt"`
	CreatedAt    time.Time       `json:"createdAt"`
	UpdatedAt    time.Time       `json:"updatedAt"`

	// PENDING transactions, i.e. cash the user still holds.
	Deposits []Transaction `gorm:"foreignKey:UserID" json:"deposits,omitempty"`
}

func (u *User) FullName() string {
	return u.FirstName + " " + u.LastName
}
