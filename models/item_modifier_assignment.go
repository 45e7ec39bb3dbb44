package models

import "time"

// ItemModifierAssignment is one row of an item's resolved modifier set. Rows are
// replaced as a whole every time the item's modifier configuration is saved.
type ItemModifierAssignment struct {
	ID        uint          `gorm:"primaryKey" json:"-"`
	ItemCode  string        `gorm:"type:varchar(32);not null;uniqueIndex:idx_item_group" json:"item_code"`
	GroupCode string        `gorm:"type:varchar(32);not null;uniqueIndex:idx_item_group;index" json:"group_code"`
	Group     ModifierGroup `gorm:"foreignKey:GroupCode;references:Code" json:"-"`
	Position  int           `gorm:"not null" json:"position"`

	InheritFromMenuGroup      bool `gorm:"not null" json:"inherit_from_menu_group"`
	IsInheritFromMenuCategory bool `gorm:"not null" json:"is_inherit_from_menu_category"`

	// Per-item overrides of the group's selection policy, explicit rows only.
	IsRequired    *bool `json:"is_required"`
	IsMultiselect *bool `json:"is_multiselect"`
	MinSelection  *int  `json:"min_selection"`
	MaxSelection  *int  `json:"max_selection"`

	CreatedAt time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}
