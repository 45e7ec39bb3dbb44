package models

import "time"

type MenuCategory struct {
	ID           uint   `gorm:"primaryKey" json:"-"`
	Code         string `gorm:"type:varchar(32);uniqueIndex;not null" json:"code"`
	Name         string `gorm:"type:varchar(100);uniqueIndex;not null" json:"name"`
	Description  string `gorm:"type:text" json:"description"`
	DisplayOrder int    `gorm:"not null" json:"display_order"`
	IsActive     bool   `gorm:"not null" json:"is_active"`
	// ModifierConfigVersion increases on every change to the category's modifier links.
	ModifierConfigVersion uint      `gorm:"not null" json:"modifier_config_version"`
	CreatedAt             time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt             time.Time `gorm:"not null" json:"updated_at"`
}
