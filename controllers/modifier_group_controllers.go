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

type ModifierGroupController struct {
	DB          *gorm.DB
	Codes       *services.CodeGenerator
	Assignments *services.AssignmentService
	Catalog     *services.CatalogService
}

func NewModifierGroupController(db *gorm.DB, codes *services.CodeGenerator, assignments *services.AssignmentService, catalog *services.CatalogService) *ModifierGroupController {
	return &ModifierGroupController{DB: db, Codes: codes, Assignments: assignments, Catalog: catalog}
}

type modifierItemPayload struct {
	Name         string  `json:"name" binding:"required"`
	Price        float64 `json:"price" binding:"gte=0"`
	IsDefault    bool    `json:"is_default"`
	DisplayOrder *int    `json:"display_order"`
	IsActive     *bool   `json:"is_active"`
}

func orderedItems(q *gorm.DB) *gorm.DB {
	return q.Order("display_order IS NULL, display_order ASC, id ASC")
}

// GetAllGroups lists every group with all of its options, inactive ones included.
func (mgc *ModifierGroupController) GetAllGroups(c *gin.Context) {
	query := mgc.DB.WithContext(c.Request.Context()).Preload("Items", orderedItems).Order("id ASC")
	if cat := c.Query("category"); cat != "" {
		query = query.Where("category_code = ?", cat)
	}

	var groups []models.ModifierGroup
	if err := query.Find(&groups).Error; err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "All modifier groups", groups)
}

func (mgc *ModifierGroupController) GetGroupByCode(c *gin.Context) {
	code := c.Param("group_code")

	var group models.ModifierGroup
	if err := mgc.DB.WithContext(c.Request.Context()).Preload("Items", orderedItems).Where("code = ?", code).First(&group).Error; err != nil {
		respondLookupError(c, "modifier group", code, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Modifier group detail", group)
}

// CreateGroup stores a group together with its initial options.
func (mgc *ModifierGroupController) CreateGroup(c *gin.Context) {
	var body struct {
		Name          string                `json:"name" binding:"required"`
		CategoryCode  *string               `json:"category_code"`
		IsRequired    bool                  `json:"is_required"`
		IsMultiselect bool                  `json:"is_multiselect"`
		MinSelection  *int                  `json:"min_selection"`
		MaxSelection  *int                  `json:"max_selection"`
		Items         []modifierItemPayload `json:"items" binding:"dive"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}
	if err := services.ValidateSelectionBounds("selection", body.MinSelection, body.MaxSelection); err != nil {
		respondServiceError(c, err)
		return
	}
	if body.CategoryCode != nil && *body.CategoryCode == "" {
		body.CategoryCode = nil
	}

	var group models.ModifierGroup
	err := mgc.DB.WithContext(c.Request.Context()).Transaction(func(tx *gorm.DB) error {
		if body.CategoryCode != nil {
			if err := services.RequireCategory(tx, *body.CategoryCode); err != nil {
				return err
			}
		}

		code, err := mgc.Codes.Next(tx, services.PrefixModifierGroup)
		if err != nil {
			return err
		}
		group = models.ModifierGroup{
			Code:          code,
			Name:          body.Name,
			CategoryCode:  body.CategoryCode,
			IsRequired:    body.IsRequired,
			IsMultiselect: body.IsMultiselect,
			MinSelection:  body.MinSelection,
			MaxSelection:  body.MaxSelection,
		}
		if err := tx.Omit("Items").Create(&group).Error; err != nil {
			return errors.Wrap(err, "create modifier group")
		}

		for _, p := range body.Items {
			item, err := mgc.newItem(tx, code, p)
			if err != nil {
				return err
			}
			group.Items = append(group.Items, item)
		}
		return nil
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}

	mgc.Assignments.ModifiersChanged(c.Request.Context(), services.EventModifierGroup, gin.H{
		"group_code": group.Code,
		"action":     "created",
	})
	utils.RespondJSON(c, http.StatusCreated, "Modifier group created", group)
}

// UpdateGroup edits the group's name, home category or selection policy.
func (mgc *ModifierGroupController) UpdateGroup(c *gin.Context) {
	code := c.Param("group_code")

	var body struct {
		Name          *string `json:"name"`
		CategoryCode  *string `json:"category_code"`
		IsRequired    *bool   `json:"is_required"`
		IsMultiselect *bool   `json:"is_multiselect"`
		MinSelection  *int    `json:"min_selection"`
		MaxSelection  *int    `json:"max_selection"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	var group models.ModifierGroup
	err := mgc.DB.WithContext(c.Request.Context()).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("code = ?", code).First(&group).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return &services.NotFoundError{Entity: "modifier group", Code: code}
			}
			return err
		}

		if body.Name != nil && *body.Name != "" {
			group.Name = *body.Name
		}
		if body.CategoryCode != nil {
			if *body.CategoryCode == "" {
				group.CategoryCode = nil
			} else {
				if err := services.RequireCategory(tx, *body.CategoryCode); err != nil {
					return err
				}
				group.CategoryCode = body.CategoryCode
			}
		}
		if body.IsRequired != nil {
			group.IsRequired = *body.IsRequired
		}
		if body.IsMultiselect != nil {
			group.IsMultiselect = *body.IsMultiselect
		}
		if body.MinSelection != nil {
			group.MinSelection = body.MinSelection
		}
		if body.MaxSelection != nil {
			group.MaxSelection = body.MaxSelection
		}
		if err := services.ValidateSelectionBounds("selection", group.MinSelection, group.MaxSelection); err != nil {
			return err
		}

		return errors.Wrap(tx.Omit("Items").Save(&group).Error, "update modifier group")
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}

	mgc.Assignments.ModifiersChanged(c.Request.Context(), services.EventModifierGroup, gin.H{
		"group_code": code,
		"action":     "updated",
	})
	utils.RespondJSON(c, http.StatusOK, "Modifier group updated", group)
}

// DeleteGroup removes the group with its options, links and item assignments.
func (mgc *ModifierGroupController) DeleteGroup(c *gin.Context) {
	code := c.Param("group_code")

	if err := mgc.Catalog.DeleteGroup(c.Request.Context(), code); err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Modifier group deleted", gin.H{"group_code": code})
}

// CreateItem adds an option to a group.
func (mgc *ModifierGroupController) CreateItem(c *gin.Context) {
	groupCode := c.Param("group_code")

	var body modifierItemPayload
	if err := c.ShouldBindJSON(&body); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	var item models.ModifierItem
	err := mgc.DB.WithContext(c.Request.Context()).Transaction(func(tx *gorm.DB) error {
		if err := services.RequireGroup(tx, groupCode); err != nil {
			return err
		}
		var err error
		item, err = mgc.newItem(tx, groupCode, body)
		return err
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}

	mgc.Assignments.ModifiersChanged(c.Request.Context(), services.EventModifierGroup, gin.H{
		"group_code": groupCode,
		"item_code":  item.Code,
		"action":     "item_created",
	})
	utils.RespondJSON(c, http.StatusCreated, "Modifier item created", item)
}

func (mgc *ModifierGroupController) UpdateItem(c *gin.Context) {
	code := c.Param("item_code")

	var body struct {
		Name         *string  `json:"name"`
		Price        *float64 `json:"price" binding:"omitempty,gte=0"`
		IsDefault    *bool    `json:"is_default"`
		DisplayOrder *int     `json:"display_order"`
		ClearOrder   bool     `json:"clear_display_order"`
		IsActive     *bool    `json:"is_active"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	db := mgc.DB.WithContext(c.Request.Context())
	var item models.ModifierItem
	if err := db.Where("code = ?", code).First(&item).Error; err != nil {
		respondLookupError(c, "modifier item", code, err)
		return
	}

	if body.Name != nil && *body.Name != "" {
		item.Name = *body.Name
	}
	if body.Price != nil {
		item.Price = *body.Price
	}
	if body.IsDefault != nil {
		item.IsDefault = *body.IsDefault
	}
	if body.DisplayOrder != nil {
		item.DisplayOrder = body.DisplayOrder
	}
	if body.ClearOrder {
		item.DisplayOrder = nil
	}
	if body.IsActive != nil {
		item.IsActive = *body.IsActive
	}

	if err := db.Save(&item).Error; err != nil {
		respondServiceError(c, err)
		return
	}

	mgc.Assignments.ModifiersChanged(c.Request.Context(), services.EventModifierGroup, gin.H{
		"group_code": item.GroupCode,
		"item_code":  item.Code,
		"action":     "item_updated",
	})
	utils.RespondJSON(c, http.StatusOK, "Modifier item updated", item)
}

func (mgc *ModifierGroupController) DeleteItem(c *gin.Context) {
	code := c.Param("item_code")

	db := mgc.DB.WithContext(c.Request.Context())
	var item models.ModifierItem
	if err := db.Where("code = ?", code).First(&item).Error; err != nil {
		respondLookupError(c, "modifier item", code, err)
		return
	}
	if err := db.Delete(&item).Error; err != nil {
		respondServiceError(c, err)
		return
	}

	mgc.Assignments.ModifiersChanged(c.Request.Context(), services.EventModifierGroup, gin.H{
		"group_code": item.GroupCode,
		"item_code":  code,
		"action":     "item_deleted",
	})
	utils.RespondJSON(c, http.StatusOK, "Modifier item deleted", gin.H{"item_code": code})
}

func (mgc *ModifierGroupController) newItem(tx *gorm.DB, groupCode string, p modifierItemPayload) (models.ModifierItem, error) {
	code, err := mgc.Codes.Next(tx, services.PrefixModifierItem)
	if err != nil {
		return models.ModifierItem{}, err
	}
	item := models.ModifierItem{
		Code:         code,
		GroupCode:    groupCode,
		Name:         p.Name,
		Price:        p.Price,
		IsDefault:    p.IsDefault,
		DisplayOrder: p.DisplayOrder,
		IsActive:     p.IsActive == nil || *p.IsActive,
	}
	if err := tx.Create(&item).Error; err != nil {
		return models.ModifierItem{}, errors.Wrap(err, "create modifier item")
	}
	return item, nil
}
