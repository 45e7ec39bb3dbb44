package models

import "time"

type MenuItem struct {
	ID           uint          `gorm:"primaryKey" json:"-"`
	Code         string        `gorm:"type:varchar(32);uniqueIndex;not null" json:"code"`
	CategoryCode *string       `gorm:"type:varchar(32);index" json:"category_code"`
	Category     *MenuCategory `gorm:"foreignKey:CategoryCode;references:Code;constraint:OnUpdate:CASCADE,OnDelete:RESTRICT" json:"category,omitempty"`
	Name         string        `gorm:"type:varchar(255);not null" json:"name"`
	Price        float64       `gorm:"type:decimal(10,2);not null" json:"price"`
	Stock        int           `json:"stock"`
	Description  string        `gorm:"type:text" json:"description"`
	IsActive     bool          `gorm:"not null" json:"is_active"`
	// InheritModifierGroup makes the item pick up its category's modifier groups on save.
	InheritModifierGroup bool `gorm:"not null" json:"inherit_modifier_group"`
	// ModifiersResolvedVersion is the category's ModifierConfigVersion the stored
	// assignments were resolved against.
	ModifiersResolvedVersion uint      `gorm:"not null" json:"modifiers_resolved_version"`
	CreatedAt                time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt                time.Time `gorm:"not null" json:"updated_at"`
}
