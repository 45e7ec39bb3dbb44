package services

import (
	"context"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/yeremiapane/restaurant-backoffice/models"
	"github.com/yeremiapane/restaurant-backoffice/utils"
	"gorm.io/gorm"
)

// CatalogService owns the catalog writes that ripple into modifier assignments:
// category links and deletions. Plain field edits stay in the controllers.
type CatalogService struct {
	db          *gorm.DB
	assignments *AssignmentService
}

func NewCatalogService(db *gorm.DB, assignments *AssignmentService) *CatalogService {
	return &CatalogService{db: db, assignments: assignments}
}

// LinkedGroups returns the groups a category offers for inheritance, in link order.
func (s *CatalogService) LinkedGroups(ctx context.Context, categoryCode string) ([]models.ModifierGroup, error) {
	db := s.db.WithContext(ctx)
	if err := RequireCategory(db, categoryCode); err != nil {
		return nil, err
	}

	var groups []models.ModifierGroup
	err := db.Model(&models.ModifierGroup{}).
		Joins("JOIN category_modifier_links ON category_modifier_links.group_code = modifier_groups.code").
		Where("category_modifier_links.category_code = ?", categoryCode).
		Order("category_modifier_links.id ASC").
		Find(&groups).Error
	if err != nil {
		return nil, errors.Wrap(err, "list linked modifier groups")
	}
	return groups, nil
}

// LinkGroup appends groupCode to the category's inheritable groups. Items already
// saved keep their assignments until refreshed.
func (s *CatalogService) LinkGroup(ctx context.Context, categoryCode, groupCode string) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := RequireCategory(tx, categoryCode); err != nil {
			return err
		}
		if err := RequireGroup(tx, groupCode); err != nil {
			return err
		}

		var count int64
		if err := tx.Model(&models.CategoryModifierLink{}).
			Where("category_code = ? AND group_code = ?", categoryCode, groupCode).
			Count(&count).Error; err != nil {
			return errors.Wrap(err, "look up category link")
		}
		if count > 0 {
			return &ConflictError{Reason: "modifier group " + groupCode + " is already linked to " + categoryCode}
		}

		link := models.CategoryModifierLink{CategoryCode: categoryCode, GroupCode: groupCode}
		if err := tx.Create(&link).Error; err != nil {
			return errors.Wrap(err, "create category link")
		}
		return bumpConfigVersion(tx, categoryCode)
	})
	if err != nil {
		return txFailure(err, "link modifier group")
	}

	s.linksChanged(ctx, categoryCode, groupCode, "linked")
	return nil
}

func (s *CatalogService) UnlinkGroup(ctx context.Context, categoryCode, groupCode string) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Where("category_code = ? AND group_code = ?", categoryCode, groupCode).
			Delete(&models.CategoryModifierLink{})
		if res.Error != nil {
			return errors.Wrap(res.Error, "delete category link")
		}
		if res.RowsAffected == 0 {
			return notFound("category modifier link", categoryCode+"/"+groupCode)
		}
		return bumpConfigVersion(tx, categoryCode)
	})
	if err != nil {
		return txFailure(err, "unlink modifier group")
	}

	s.linksChanged(ctx, categoryCode, groupCode, "unlinked")
	return nil
}

// DeleteGroup removes a modifier group with its options, its category links and every
// item assignment that references it.
func (s *CatalogService) DeleteGroup(ctx context.Context, groupCode string) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := RequireGroup(tx, groupCode); err != nil {
			return err
		}

		var linked []string
		if err := tx.Model(&models.CategoryModifierLink{}).
			Where("group_code = ?", groupCode).
			Pluck("category_code", &linked).Error; err != nil {
			return errors.Wrap(err, "find linked categories")
		}

		steps := []struct {
			what  string
			model interface{}
			where string
		}{
			{"item assignments", &models.ItemModifierAssignment{}, "group_code = ?"},
			{"category links", &models.CategoryModifierLink{}, "group_code = ?"},
			{"modifier items", &models.ModifierItem{}, "group_code = ?"},
			{"modifier group", &models.ModifierGroup{}, "code = ?"},
		}
		for _, step := range steps {
			if err := tx.Where(step.where, groupCode).Delete(step.model).Error; err != nil {
				return errors.Wrapf(err, "delete %s", step.what)
			}
		}

		for _, cat := range linked {
			if err := bumpConfigVersion(tx, cat); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return txFailure(err, "delete modifier group")
	}

	utils.InfoLogger.WithField("group_code", groupCode).Info("modifier group deleted")
	s.assignments.ModifiersChanged(ctx, EventModifierGroup, map[string]interface{}{
		"group_code": groupCode,
		"action":     "deleted",
	})
	return nil
}

// DeleteCategory refuses while menu items still belong to the category.
func (s *CatalogService) DeleteCategory(ctx context.Context, categoryCode string) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := RequireCategory(tx, categoryCode); err != nil {
			return err
		}

		var items int64
		if err := tx.Model(&models.MenuItem{}).Where("category_code = ?", categoryCode).Count(&items).Error; err != nil {
			return errors.Wrap(err, "count category items")
		}
		if items > 0 {
			return &ConflictError{Reason: "menu category " + categoryCode + " still has menu items"}
		}

		if err := tx.Where("category_code = ?", categoryCode).Delete(&models.CategoryModifierLink{}).Error; err != nil {
			return errors.Wrap(err, "delete category links")
		}
		if err := tx.Model(&models.ModifierGroup{}).
			Where("category_code = ?", categoryCode).
			Update("category_code", nil).Error; err != nil {
			return errors.Wrap(err, "detach home category")
		}
		return errors.Wrap(tx.Where("code = ?", categoryCode).Delete(&models.MenuCategory{}).Error, "delete category")
	})
	if err != nil {
		return txFailure(err, "delete menu category")
	}

	s.assignments.ModifiersChanged(ctx, EventMenuCategoryUpdate, map[string]interface{}{
		"category_code": categoryCode,
		"action":        "deleted",
	})
	return nil
}

func (s *CatalogService) DeleteMenuItem(ctx context.Context, itemCode string) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Where("code = ?", itemCode).Delete(&models.MenuItem{})
		if res.Error != nil {
			return errors.Wrap(res.Error, "delete menu item")
		}
		if res.RowsAffected == 0 {
			return notFound("menu item", itemCode)
		}
		return errors.Wrap(tx.Where("item_code = ?", itemCode).Delete(&models.ItemModifierAssignment{}).Error,
			"delete item assignments")
	})
	if err != nil {
		return txFailure(err, "delete menu item")
	}

	s.assignments.ItemChanged(ctx, itemCode, "deleted")
	return nil
}

func (s *CatalogService) linksChanged(ctx context.Context, categoryCode, groupCode, action string) {
	utils.InfoLogger.WithFields(logrus.Fields{
		"category_code": categoryCode,
		"group_code":    groupCode,
		"action":        action,
	}).Info("category modifier links changed")
	s.assignments.ModifiersChanged(ctx, EventCategoryModifiers, map[string]interface{}{
		"category_code": categoryCode,
		"group_code":    groupCode,
		"action":        action,
	})
}

// RequireCategory returns a NotFoundError unless the category exists.
func RequireCategory(tx *gorm.DB, code string) error {
	var count int64
	if err := tx.Model(&models.MenuCategory{}).Where("code = ?", code).Count(&count).Error; err != nil {
		return errors.Wrap(err, "look up menu category")
	}
	if count == 0 {
		return notFound("menu category", code)
	}
	return nil
}

func RequireGroup(tx *gorm.DB, code string) error {
	var count int64
	if err := tx.Model(&models.ModifierGroup{}).Where("code = ?", code).Count(&count).Error; err != nil {
		return errors.Wrap(err, "look up modifier group")
	}
	if count == 0 {
		return notFound("modifier group", code)
	}
	return nil
}

func bumpConfigVersion(tx *gorm.DB, categoryCode string) error {
	err := tx.Model(&models.MenuCategory{}).
		Where("code = ?", categoryCode).
		Update("modifier_config_version", gorm.Expr("modifier_config_version + 1")).Error
	return errors.Wrap(err, "bump modifier config version")
}
