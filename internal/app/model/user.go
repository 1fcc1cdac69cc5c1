package model

import (
	"time"

	"gorm.io/gorm"
)

type UserRole string // staff role

const (
	RoleAdmin       UserRole = "ADMIN"       // full access
	RoleManager     UserRole = "MANAGER"     // approvals, inventory, analytics
	RoleSalesperson UserRole = "SALESPERSON" // customers and sales
)

func (r UserRole) Valid() bool {
	return r == RoleAdmin || r == RoleManager || r == RoleSalesperson
}

// User is a dealership staff account.
type User struct {
	ID           uint           `gorm:"primarykey" json:"id"`
	Email        string         `gorm:"uniqueIndex;not null" json:"email"`
	PasswordHash string         `gorm:"not null" json:"-"`
	Name         string         `gorm:"not null" json:"name"`
	Role         UserRole       `gorm:"type:varchar(20);not null" json:"role"`
	LastLoginAt  *time.Time     `json:"last_login_at,omitempty"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"-"`
}

func (User) TableName() string {
	return "users"
}
