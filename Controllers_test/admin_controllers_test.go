package Controllers_test

import (
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type dashboard struct {
	Categories int64 `json:"categories"`
	MenuStats  struct {
		Active   int64 `json:"active"`
		Inactive int64 `json:"inactive"`
		Inherit  int64 `json:"inherit"`
	} `json:"menu_stats"`
	ModifierStats struct {
		Groups      int64 `json:"groups"`
		Options     int64 `json:"options"`
		Links       int64 `json:"links"`
		Assignments int64 `json:"assignments"`
	} `json:"modifier_stats"`
	StaleItems []string `json:"stale_items"`
}

func TestDashboardAndRefreshStale(t *testing.T) {
	s := newTestServer(t)
	food := s.createCategory("Food")
	side := s.createGroup("Side", gin.H{"name": "Fries"}, gin.H{"name": "Salad"})
	s.link(food, side)
	burger := s.createMenu(gin.H{"name": "Burger", "category_code": food})
	s.createMenu(gin.H{"name": "Water", "is_active": false, "modifiers": gin.H{"inheritEnabled": false}})

	assert.Equal(t, http.StatusForbidden, s.do(http.MethodGet, "/admin/dashboard", s.managerToken, nil).Code)

	var stats dashboard
	decode(t, s.do(http.MethodGet, "/admin/dashboard", s.adminToken, nil), &stats)
	assert.EqualValues(t, 1, stats.Categories)
	assert.EqualValues(t, 1, stats.MenuStats.Active)
	assert.EqualValues(t, 1, stats.MenuStats.Inactive)
	assert.EqualValues(t, 1, stats.MenuStats.Inherit)
	assert.EqualValues(t, 2, stats.ModifierStats.Options)
	assert.EqualValues(t, 1, stats.ModifierStats.Assignments)
	assert.Empty(t, stats.StaleItems)

	sauce := s.createGroup("Sauce")
	s.link(food, sauce)

	decode(t, s.do(http.MethodGet, "/admin/dashboard", s.adminToken, nil), &stats)
	assert.Equal(t, []string{burger}, stats.StaleItems)

	w := s.do(http.MethodPost, "/admin/modifiers/refresh-stale", s.adminToken, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var out struct {
		Refreshed int `json:"refreshed"`
	}
	decode(t, w, &out)
	assert.Equal(t, 1, out.Refreshed)

	assert.Equal(t, []string{side, sauce}, groupCodes(s.modifiers(burger)))
	decode(t, s.do(http.MethodGet, "/admin/dashboard", s.adminToken, nil), &stats)
	assert.Empty(t, stats.StaleItems)
}

func TestLogoutRevokesToken(t *testing.T) {
	s := newTestServer(t)

	require.Equal(t, http.StatusOK, s.do(http.MethodGet, "/admin/profile", s.staffToken, nil).Code)
	require.Equal(t, http.StatusOK, s.do(http.MethodPost, "/admin/logout", s.staffToken, nil).Code)

	assert.Equal(t, http.StatusUnauthorized, s.do(http.MethodGet, "/admin/profile", s.staffToken, nil).Code)
	assert.Equal(t, http.StatusOK, s.do(http.MethodGet, "/admin/profile", s.managerToken, nil).Code)
}
