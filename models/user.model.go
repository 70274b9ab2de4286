package models

import (
	"time"

	"gorm.io/gorm"
)

// Roles known to the marketplace.
const (
	RoleFarmer = "farmer"
	RoleBuyer  = "buyer"
	RoleAdmin  = "admin"
)

// Farmer verification status, set by admin.
const (
	StatusPending  = "pending"
	StatusApproved = "approved"
	StatusRejected = "rejected"
)

type User struct {
	ID uint `gorm:"primaryKey" json:"id"`

	Name     string `gorm:"size:100;not null" json:"name"`
	Email    string `gorm:"unique;not null;size:100" json:"email"`
	Password string `gorm:"not null" json:"-"`

	// Role & Status
	Role     string `gorm:"size:20;not null;default:'buyer'" json:"role"` // farmer, buyer, admin
	IsActive bool   `gorm:"default:true" json:"is_active"`
	Status   string `gorm:"size:20;default:'pending'" json:"status"` // farmer verification: pending, approved, rejected

	// Location (optional, used for the public farmer listing)
	Address   string   `gorm:"type:text" json:"address"`
	Latitude  *float64 `gorm:"index:idx_location" json:"latitude"`
	Longitude *float64 `gorm:"index:idx_location" json:"longitude"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at"`
}

func (u *User) IsFarmer() bool { return u.Role == RoleFarmer }
func (u *User) IsBuyer() bool  { return u.Role == RoleBuyer }
func (u *User) IsAdmin() bool  { return u.Role == RoleAdmin }

func (u *User) IsApproved() bool { return u.Status == StatusApproved }
