package services

import (
	"fmt"

	"github.com/pkg/errors"
	"github.com/yeremiapane/restaurant-backoffice/models"
	"gorm.io/gorm"
)

// Business code prefixes.
const (
	PrefixCategory      = "CAT"
	PrefixMenuItem      = "W"
	PrefixModifierGroup = "MG"
	PrefixModifierItem  = "MO"
)

// CodeGenerator hands out sequential business codes such as "W001". Next must run
// inside the transaction that inserts the coded row so a rollback also releases the
// number.
type CodeGenerator struct{}

func NewCodeGenerator() *CodeGenerator {
	return &CodeGenerator{}
}

func (g *CodeGenerator) Next(tx *gorm.DB, prefix string) (string, error) {
	res := tx.Model(&models.CodeSequence{}).
		Where("prefix = ?", prefix).
		Update("last_value", gorm.Expr("last_value + 1"))
	if res.Error != nil {
		return "", errors.Wrapf(res.Error, "advance %s sequence", prefix)
	}
	if res.RowsAffected == 0 {
		seq := models.CodeSequence{Prefix: prefix, LastValue: 1}
		if err := tx.Create(&seq).Error; err != nil {
			return "", errors.Wrapf(err, "start %s sequence", prefix)
		}
		return formatCode(prefix, 1), nil
	}

	var seq models.CodeSequence
	if err := tx.Where("prefix = ?", prefix).First(&seq).Error; err != nil {
		return "", errors.Wrapf(err, "read %s sequence", prefix)
	}
	return formatCode(prefix, seq.LastValue), nil
}

func formatCode(prefix string, n uint) string {
	return fmt.Sprintf("%s%03d", prefix, n)
}
