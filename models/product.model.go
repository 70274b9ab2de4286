package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Product struct {
	ID         uint `gorm:"primaryKey" json:"id"`
	UserID     uint `gorm:"index;not null" json:"user_id"` // owning farmer
	CategoryID uint `gorm:"index" json:"category_id"`

	Name        string          `gorm:"size:255;not null" json:"name"`
	Description string          `gorm:"type:text" json:"description"`
	Price       decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"price"`
	Unit        string          `gorm:"size:50;default:'kg'" json:"unit"`
	Stock       int             `gorm:"not null;default:0" json:"stock"`
	MinOrder    int             `gorm:"default:1" json:"min_order"`

	ImageURL       string                      `json:"image_url"`
	Images         datatypes.JSONSlice[string] `json:"images"`
	Features       datatypes.JSONSlice[string] `json:"features"`
	Certifications datatypes.JSONSlice[string] `json:"certifications"`
	Origin         string                      `gorm:"size:255" json:"origin"`
	HarvestDate    *time.Time                  `json:"harvest_date"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at"`

	// Relations
	Farmer   User     `gorm:"foreignKey:UserID" json:"farmer"`
	Category Category `gorm:"foreignKey:CategoryID" json:"category"`
}
