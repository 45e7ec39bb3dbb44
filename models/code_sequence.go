package models

type CodeSequence struct {
	Prefix    string `gorm:"type:varchar(16);primaryKey"`
	LastValue uint   `gorm:"not null"`
}
