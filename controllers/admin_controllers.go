package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"
	"github.com/yeremiapane/restaurant-backoffice/hub"
	"github.com/yeremiapane/restaurant-backoffice/models"
	"github.com/yeremiapane/restaurant-backoffice/services"
	"github.com/yeremiapane/restaurant-backoffice/utils"
	"gorm.io/gorm"
)

type AdminController struct {
	DB          *gorm.DB
	Assignments *services.AssignmentService
	Hub         *hub.Hub
}

func NewAdminController(db *gorm.DB, assignments *services.AssignmentService, h *hub.Hub) *AdminController {
	return &AdminController{DB: db, Assignments: assignments, Hub: h}
}

type dashboardStats struct {
	Categories int64 `json:"categories"`
	MenuStats  struct {
		Active   int64 `json:"active"`
		Inactive int64 `json:"inactive"`
		Inherit  int64 `json:"inherit"`
	} `json:"menu_stats"`
	ModifierStats struct {
		Groups          int64 `json:"groups"`
		Options         int64 `json:"options"`
		InactiveOptions int64 `json:"inactive_options"`
		Links           int64 `json:"links"`
		Assignments     int64 `json:"assignments"`
	} `json:"modifier_stats"`
	StaleItems    []string `json:"stale_items"`
	ActiveClients int      `json:"active_clients"`
}

// GetDashboardStats summarizes the catalog and lists the items waiting for a
// re-resolve.
func (ac *AdminController) GetDashboardStats(c *gin.Context) {
	db := ac.DB.WithContext(c.Request.Context())
	var stats dashboardStats

	counts := []struct {
		what  string
		query *gorm.DB
		dest  *int64
	}{
		{"categories", db.Model(&models.MenuCategory{}), &stats.Categories},
		{"active menus", db.Model(&models.MenuItem{}).Where("is_active = ?", true), &stats.MenuStats.Active},
		{"inactive menus", db.Model(&models.MenuItem{}).Where("is_active = ?", false), &stats.MenuStats.Inactive},
		{"inheriting menus", db.Model(&models.MenuItem{}).Where("inherit_modifier_group = ?", true), &stats.MenuStats.Inherit},
		{"modifier groups", db.Model(&models.ModifierGroup{}), &stats.ModifierStats.Groups},
		{"modifier options", db.Model(&models.ModifierItem{}), &stats.ModifierStats.Options},
		{"inactive options", db.Model(&models.ModifierItem{}).Where("is_active = ?", false), &stats.ModifierStats.InactiveOptions},
		{"category links", db.Model(&models.CategoryModifierLink{}), &stats.ModifierStats.Links},
		{"assignments", db.Model(&models.ItemModifierAssignment{}), &stats.ModifierStats.Assignments},
	}
	for _, q := range counts {
		if err := q.query.Count(q.dest).Error; err != nil {
			respondServiceError(c, errors.Wrapf(err, "count %s", q.what))
			return
		}
	}

	stale, err := ac.Assignments.StaleItemCodes(c.Request.Context())
	if err != nil {
		respondServiceError(c, err)
		return
	}
	stats.StaleItems = stale
	if stats.StaleItems == nil {
		stats.StaleItems = []string{}
	}
	stats.ActiveClients = ac.Hub.Count()

	utils.RespondJSON(c, http.StatusOK, "Dashboard stats retrieved successfully", stats)
}

// RefreshStale re-resolves every stale item and reports how many were rewritten.
func (ac *AdminController) RefreshStale(c *gin.Context) {
	n, err := ac.Assignments.RefreshStale(c.Request.Context())
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Stale menu items re-resolved", gin.H{"refreshed": n})
}
