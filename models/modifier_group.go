package models

import "time"

// ModifierGroup is a set of customization options such as "Size" or "Toppings".
type ModifierGroup struct {
	ID   uint   `gorm:"primaryKey" json:"-"`
	Code string `gorm:"type:varchar(32);uniqueIndex;not null" json:"code"`
	Name string `gorm:"type:varchar(255);not null" json:"name"`
	// CategoryCode is the group's home category; nil for item-scoped groups.
	CategoryCode  *string        `gorm:"type:varchar(32);index" json:"category_code"`
	IsRequired    bool           `gorm:"not null" json:"is_required"`
	IsMultiselect bool           `gorm:"not null" json:"is_multiselect"`
	MinSelection  *int           `json:"min_selection"`
	MaxSelection  *int           `json:"max_selection"`
	Items         []ModifierItem `gorm:"foreignKey:GroupCode;references:Code;constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"items,omitempty"`
	CreatedAt     time.Time      `gorm:"not null" json:"created_at"`
	UpdatedAt     time.Time      `gorm:"not null" json:"updated_at"`
}

// EffectiveMaxSelection treats a single-select group as capped at one choice.
func (g ModifierGroup) EffectiveMaxSelection() *int {
	if g.MaxSelection == nil && !g.IsMultiselect {
		one := 1
		return &one
	}
	return g.MaxSelection
}
