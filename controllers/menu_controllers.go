package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"
	"github.com/yeremiapane/restaurant-backoffice/models"
	"github.com/yeremiapane/restaurant-backoffice/services"
	"github.com/yeremiapane/restaurant-backoffice/utils"
	"gorm.io/gorm"
)

type MenuController struct {
	DB          *gorm.DB
	Codes       *services.CodeGenerator
	Assignments *services.AssignmentService
	Catalog     *services.CatalogService
}

func NewMenuController(db *gorm.DB, codes *services.CodeGenerator, assignments *services.AssignmentService, catalog *services.CatalogService) *MenuController {
	return &MenuController{DB: db, Codes: codes, Assignments: assignments, Catalog: catalog}
}

// GetAllMenus lists active menu items, optionally of one category.
func (mc *MenuController) GetAllMenus(c *gin.Context) {
	mc.listMenus(c, true)
}

// ListMenus is the admin listing, inactive items included.
func (mc *MenuController) ListMenus(c *gin.Context) {
	mc.listMenus(c, false)
}

func (mc *MenuController) listMenus(c *gin.Context, activeOnly bool) {
	query := mc.DB.WithContext(c.Request.Context()).Preload("Category").Order("id ASC")
	if cat := c.Query("category"); cat != "" {
		query = query.Where("category_code = ?", cat)
	}
	if activeOnly {
		query = query.Where("is_active = ?", true)
	}

	var menus []models.MenuItem
	if err := query.Find(&menus).Error; err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "List of menus", menus)
}

// GetMenuByCode
func (mc *MenuController) GetMenuByCode(c *gin.Context) {
	code := c.Param("menu_code")

	var menu models.MenuItem
	if err := mc.DB.WithContext(c.Request.Context()).Preload("Category").Where("code = ?", code).First(&menu).Error; err != nil {
		respondLookupError(c, "menu item", code, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Menu detail", menu)
}

// CreateMenu stores a new item and resolves its modifier groups in the same
// transaction. Without a modifiers block the item inherits its category's groups.
func (mc *MenuController) CreateMenu(c *gin.Context) {
	var body struct {
		CategoryCode *string          `json:"category_code"`
		Name         string           `json:"name" binding:"required"`
		Price        float64          `json:"price" binding:"gte=0"`
		Stock        int              `json:"stock" binding:"gte=0"`
		Description  string           `json:"description"`
		IsActive     *bool            `json:"is_active"`
		Modifiers    *modifierPayload `json:"modifiers"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}
	if body.CategoryCode != nil && *body.CategoryCode == "" {
		body.CategoryCode = nil
	}

	in := services.AssignmentInput{InheritEnabled: true}
	if body.Modifiers != nil {
		in = body.Modifiers.input()
	}

	var menu models.MenuItem
	var resolved []services.ResolvedGroup
	err := mc.DB.WithContext(c.Request.Context()).Transaction(func(tx *gorm.DB) error {
		if body.CategoryCode != nil {
			if err := services.RequireCategory(tx, *body.CategoryCode); err != nil {
				return err
			}
		}

		code, err := mc.Codes.Next(tx, services.PrefixMenuItem)
		if err != nil {
			return err
		}
		menu = models.MenuItem{
			Code:         code,
			CategoryCode: body.CategoryCode,
			Name:         body.Name,
			Price:        body.Price,
			Stock:        body.Stock,
			Description:  body.Description,
			IsActive:     body.IsActive == nil || *body.IsActive,
		}
		if err := tx.Create(&menu).Error; err != nil {
			return errors.Wrap(err, "create menu item")
		}

		resolved, err = mc.Assignments.SaveTx(tx, code, in)
		return err
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}

	mc.Assignments.AfterSave(c.Request.Context(), menu.Code, resolved)
	utils.RespondJSON(c, http.StatusCreated, "Menu created", mc.reload(c, menu))
}

// UpdateMenu edits item fields. Moving the item to another category re-resolves its
// inherited groups against the new category in the same transaction.
func (mc *MenuController) UpdateMenu(c *gin.Context) {
	code := c.Param("menu_code")

	var body struct {
		CategoryCode *string  `json:"category_code"`
		Name         *string  `json:"name"`
		Price        *float64 `json:"price" binding:"omitempty,gte=0"`
		Stock        *int     `json:"stock" binding:"omitempty,gte=0"`
		Description  *string  `json:"description"`
		IsActive     *bool    `json:"is_active"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	var menu models.MenuItem
	var resolved []services.ResolvedGroup
	moved := false
	err := mc.DB.WithContext(c.Request.Context()).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("code = ?", code).First(&menu).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return &services.NotFoundError{Entity: "menu item", Code: code}
			}
			return err
		}

		updates := map[string]interface{}{}
		if body.Name != nil {
			if *body.Name == "" {
				return &services.ValidationError{Field: "name", Reason: "must not be empty"}
			}
			updates["name"] = *body.Name
		}
		if body.Price != nil {
			updates["price"] = *body.Price
		}
		if body.Stock != nil {
			updates["stock"] = *body.Stock
		}
		if body.Description != nil {
			updates["description"] = *body.Description
		}
		if body.IsActive != nil {
			updates["is_active"] = *body.IsActive
		}
		if body.CategoryCode != nil {
			var next *string
			if *body.CategoryCode != "" {
				if err := services.RequireCategory(tx, *body.CategoryCode); err != nil {
					return err
				}
				next = body.CategoryCode
			}
			if !sameCategory(menu.CategoryCode, next) {
				updates["category_code"] = next
				moved = true
			}
		}
		if len(updates) == 0 {
			return nil
		}

		if err := tx.Model(&menu).Updates(updates).Error; err != nil {
			return errors.Wrap(err, "update menu item")
		}
		if moved {
			var err error
			resolved, err = mc.Assignments.RefreshTx(tx, code)
			return err
		}
		return nil
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}

	if moved {
		mc.Assignments.AfterSave(c.Request.Context(), code, resolved)
	} else {
		mc.Assignments.ItemChanged(c.Request.Context(), code, "updated")
	}
	utils.RespondJSON(c, http.StatusOK, "Menu updated", mc.reload(c, menu))
}

// reload fetches the committed item with its category. The write has already
// succeeded, so a failed read answers with what was written.
func (mc *MenuController) reload(c *gin.Context, committed models.MenuItem) models.MenuItem {
	var menu models.MenuItem
	err := mc.DB.WithContext(c.Request.Context()).Preload("Category").Where("code = ?", committed.Code).First(&menu).Error
	if err != nil {
		utils.ErrorLogger.WithError(err).WithField("menu_code", committed.Code).Warn("reload after commit failed")
		return committed
	}
	return menu
}

// DeleteMenu
func (mc *MenuController) DeleteMenu(c *gin.Context) {
	code := c.Param("menu_code")

	if err := mc.Catalog.DeleteMenuItem(c.Request.Context(), code); err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Menu deleted", gin.H{"menu_code": code})
}

func sameCategory(a, b *string) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}
