package models

import "time"

// Announcement target audiences.
const (
	TargetAll    = "all"
	TargetFarmer = "farmer"
	TargetBuyer  = "buyer"
)

type Announcement struct {
	ID         uint   `gorm:"primaryKey" json:"id"`
	Title      string `gorm:"size:255;not null" json:"title"`
	Content    string `gorm:"type:text;not null" json:"content"`
	TargetRole string `gorm:"size:20;not null;default:'all'" json:"target_role"` // all, farmer, buyer

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
