package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yeremiapane/restaurant-backoffice/services"
	"github.com/yeremiapane/restaurant-backoffice/utils"
)

type groupOverridePayload struct {
	Code          string `json:"code" binding:"required"`
	IsRequired    *bool  `json:"isRequired"`
	IsMultiselect *bool  `json:"isMultiselect"`
	MinSelection  *int   `json:"minSelection"`
	MaxSelection  *int   `json:"maxSelection"`
}

// modifierPayload is the body of an assignment write. InheritEnabled is a pointer so
// an omitted flag fails binding instead of silently meaning false.
type modifierPayload struct {
	ExplicitGroupCodes []string               `json:"explicitGroupCodes"`
	PerGroupOverrides  []groupOverridePayload `json:"perGroupOverrides" binding:"dive"`
	InheritEnabled     *bool                  `json:"inheritEnabled" binding:"required"`
}

func (p modifierPayload) input() services.AssignmentInput {
	in := services.AssignmentInput{
		ExplicitGroupCodes: p.ExplicitGroupCodes,
		InheritEnabled:     p.InheritEnabled != nil && *p.InheritEnabled,
	}
	for _, o := range p.PerGroupOverrides {
		in.Overrides = append(in.Overrides, services.GroupOverride{
			Code:          o.Code,
			IsRequired:    o.IsRequired,
			IsMultiselect: o.IsMultiselect,
			MinSelection:  o.MinSelection,
			MaxSelection:  o.MaxSelection,
		})
	}
	return in
}

type ModifierAssignmentController struct {
	Assignments *services.AssignmentService
}

func NewModifierAssignmentController(assignments *services.AssignmentService) *ModifierAssignmentController {
	return &ModifierAssignmentController{Assignments: assignments}
}

// GetModifiers returns the item's resolved groups with their active options. An
// unknown item yields an empty list.
func (mac *ModifierAssignmentController) GetModifiers(c *gin.Context) {
	code := c.Param("menu_code")

	views, err := mac.Assignments.ProjectForItem(c.Request.Context(), code)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Menu modifiers", views)
}

// SaveModifiers replaces the item's modifier configuration.
func (mac *ModifierAssignmentController) SaveModifiers(c *gin.Context) {
	code := c.Param("menu_code")

	var body modifierPayload
	if err := c.ShouldBindJSON(&body); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	if err := mac.Assignments.Save(c.Request.Context(), code, body.input()); err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// RefreshModifiers re-resolves the item against its category's current links.
func (mac *ModifierAssignmentController) RefreshModifiers(c *gin.Context) {
	code := c.Param("menu_code")

	if err := mac.Assignments.Refresh(c.Request.Context(), code); err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}
