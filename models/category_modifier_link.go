package models

import "time"

// CategoryModifierLink makes a group available for inheritance by every item of the category.
type CategoryModifierLink struct {
	ID           uint      `gorm:"primaryKey" json:"-"`
	CategoryCode string    `gorm:"type:varchar(32);not null;uniqueIndex:idx_category_group" json:"category_code"`
	GroupCode    string    `gorm:"type:varchar(32);not null;uniqueIndex:idx_category_group;index" json:"group_code"`
	CreatedAt    time.Time `gorm:"not null" json:"created_at"`
}
