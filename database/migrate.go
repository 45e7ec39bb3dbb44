package database

import (
	"github.com/pkg/errors"
	"github.com/yeremiapane/restaurant-backoffice/models"
	"github.com/yeremiapane/restaurant-backoffice/utils"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// Models lists every table the back office owns, in dependency order.
var Models = []interface{}{
	&models.User{},
	&models.CodeSequence{},
	&models.MenuCategory{},
	&models.MenuItem{},
	&models.ModifierGroup{},
	&models.ModifierItem{},
	&models.CategoryModifierLink{},
	&models.ItemModifierAssignment{},
}

func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(Models...); err != nil {
		return errors.Wrap(err, "auto migrate")
	}
	utils.InfoLogger.Info("AutoMigrate completed")
	return nil
}

// SeedAdmin creates an admin account unless a user with that email already exists.
func SeedAdmin(db *gorm.DB, name, email, password string) (bool, error) {
	if email == "" || password == "" {
		return false, errors.New("admin email and password are required")
	}

	var count int64
	if err := db.Model(&models.User{}).Where("email = ?", email).Count(&count).Error; err != nil {
		return false, errors.Wrap(err, "look up admin")
	}
	if count > 0 {
		return false, nil
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return false, errors.Wrap(err, "hash admin password")
	}
	admin := models.User{Name: name, Email: email, Password: string(hashed), Role: models.RoleAdmin}
	if err := db.Create(&admin).Error; err != nil {
		return false, errors.Wrap(err, "create admin")
	}
	utils.InfoLogger.WithField("email", email).Info("admin user seeded")
	return true, nil
}
