package models

import "time"

type ModifierItem struct {
	ID        uint    `gorm:"primaryKey" json:"-"`
	Code      string  `gorm:"type:varchar(32);uniqueIndex;not null" json:"code"`
	GroupCode string  `gorm:"type:varchar(32);index;not null" json:"group_code"`
	Name      string  `gorm:"type:varchar(255);not null" json:"name"`
	Price     float64 `gorm:"type:decimal(10,2);not null" json:"price"`
	IsDefault bool    `gorm:"not null" json:"is_default"`
	// nil sorts after every explicit position
	DisplayOrder *int      `json:"display_order"`
	IsActive     bool      `gorm:"not null" json:"is_active"`
	CreatedAt    time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt    time.Time `gorm:"not null" json:"updated_at"`
}
