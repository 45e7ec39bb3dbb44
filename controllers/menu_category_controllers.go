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

type MenuCategoryController struct {
	DB      *gorm.DB
	Codes   *services.CodeGenerator
	Catalog *services.CatalogService
}

func NewMenuCategoryController(db *gorm.DB, codes *services.CodeGenerator, catalog *services.CatalogService) *MenuCategoryController {
	return &MenuCategoryController{DB: db, Codes: codes, Catalog: catalog}
}

// GetAllCategories
func (mcc *MenuCategoryController) GetAllCategories(c *gin.Context) {
	var categories []models.MenuCategory
	if err := mcc.DB.WithContext(c.Request.Context()).Order("display_order ASC, id ASC").Find(&categories).Error; err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "All menu categories", categories)
}

// CreateCategory
func (mcc *MenuCategoryController) CreateCategory(c *gin.Context) {
	var body struct {
		Name         string `json:"name" binding:"required"`
		Description  string `json:"description"`
		DisplayOrder int    `json:"display_order"`
		IsActive     *bool  `json:"is_active"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	var category models.MenuCategory
	err := mcc.DB.WithContext(c.Request.Context()).Transaction(func(tx *gorm.DB) error {
		var taken int64
		if err := tx.Model(&models.MenuCategory{}).Where("name = ?", body.Name).Count(&taken).Error; err != nil {
			return err
		}
		if taken > 0 {
			return &services.ConflictError{Reason: "menu category " + body.Name + " already exists"}
		}

		code, err := mcc.Codes.Next(tx, services.PrefixCategory)
		if err != nil {
			return err
		}
		category = models.MenuCategory{
			Code:         code,
			Name:         body.Name,
			Description:  body.Description,
			DisplayOrder: body.DisplayOrder,
			IsActive:     body.IsActive == nil || *body.IsActive,
		}
		return errors.Wrap(tx.Create(&category).Error, "create category")
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}

	utils.RespondJSON(c, http.StatusCreated, "Category created", category)
}

// GetCategoryByCode
func (mcc *MenuCategoryController) GetCategoryByCode(c *gin.Context) {
	code := c.Param("cat_code")

	var category models.MenuCategory
	if err := mcc.DB.WithContext(c.Request.Context()).Where("code = ?", code).First(&category).Error; err != nil {
		respondLookupError(c, "menu category", code, err)
		return
	}

	utils.RespondJSON(c, http.StatusOK, "Category detail", category)
}

// UpdateCategory
func (mcc *MenuCategoryController) UpdateCategory(c *gin.Context) {
	code := c.Param("cat_code")

	var body struct {
		Name         *string `json:"name"`
		Description  *string `json:"description"`
		DisplayOrder *int    `json:"display_order"`
		IsActive     *bool   `json:"is_active"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	var category models.MenuCategory
	db := mcc.DB.WithContext(c.Request.Context())
	if err := db.Where("code = ?", code).First(&category).Error; err != nil {
		respondLookupError(c, "menu category", code, err)
		return
	}

	if body.Name != nil && *body.Name != "" {
		category.Name = *body.Name
	}
	if body.Description != nil {
		category.Description = *body.Description
	}
	if body.DisplayOrder != nil {
		category.DisplayOrder = *body.DisplayOrder
	}
	if body.IsActive != nil {
		category.IsActive = *body.IsActive
	}

	if err := db.Save(&category).Error; err != nil {
		respondServiceError(c, err)
		return
	}

	utils.RespondJSON(c, http.StatusOK, "Category updated", category)
}

// DeleteCategory is refused while menu items still belong to the category.
func (mcc *MenuCategoryController) DeleteCategory(c *gin.Context) {
	code := c.Param("cat_code")

	if err := mcc.Catalog.DeleteCategory(c.Request.Context(), code); err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Category deleted", gin.H{"category_code": code})
}

// GetCategoryModifierGroups lists the groups items of the category can inherit, in
// inheritance order.
func (mcc *MenuCategoryController) GetCategoryModifierGroups(c *gin.Context) {
	code := c.Param("cat_code")

	groups, err := mcc.Catalog.LinkedGroups(c.Request.Context(), code)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Category modifier groups", groups)
}

func (mcc *MenuCategoryController) LinkModifierGroup(c *gin.Context) {
	code := c.Param("cat_code")

	var body struct {
		GroupCode string `json:"groupCode" binding:"required"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	if err := mcc.Catalog.LinkGroup(c.Request.Context(), code, body.GroupCode); err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusCreated, "Modifier group linked", gin.H{
		"category_code": code,
		"group_code":    body.GroupCode,
	})
}

func (mcc *MenuCategoryController) UnlinkModifierGroup(c *gin.Context) {
	code := c.Param("cat_code")
	groupCode := c.Param("group_code")

	if err := mcc.Catalog.UnlinkGroup(c.Request.Context(), code, groupCode); err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Modifier group unlinked", gin.H{
		"category_code": code,
		"group_code":    groupCode,
	})
}
