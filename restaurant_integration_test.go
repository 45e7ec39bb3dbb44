package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yeremiapane/restaurant-backoffice/config"
	"github.com/yeremiapane/restaurant-backoffice/database"
	"github.com/yeremiapane/restaurant-backoffice/router"
	"github.com/yeremiapane/restaurant-backoffice/services"
	"github.com/yeremiapane/restaurant-backoffice/utils"
)

func TestMain(m *testing.M) {
	utils.InitLogger("warn", "text")
	gin.SetMode(gin.TestMode)
	os.Exit(m.Run())
}

const (
	adminEmail    = "owner@example.com"
	adminPassword = "owner-password"
)

// TestEndToEndIntegration walks the main modifier flow against a running server:
//  0. seed the admin and log in
//  1. build a category with two linked modifier groups
//  2. create a menu item that inherits them after one explicit group
//  3. read the projection and watch the websocket feed
//  4. link another group, see the item go stale, re-resolve it
func TestEndToEndIntegration(t *testing.T) {
	srv, a := startServer(t)
	c := &client{t: t, base: srv.URL}

	c.token = c.login()

	feed := c.subscribe()
	defer feed.Close()
	require.Eventually(t, func() bool { return a.hub.Count() == 1 }, time.Second, 10*time.Millisecond)

	// 1. catalog
	food := c.create("/admin/categories", gin.H{"name": "Food"})
	bread := c.create("/admin/modifier-groups", gin.H{
		"name":        "Bread",
		"is_required": true,
		"items":       []gin.H{{"name": "White", "is_default": true}, {"name": "Rye", "price": 0.5}},
	})
	side := c.create("/admin/modifier-groups", gin.H{"name": "Side", "items": []gin.H{{"name": "Fries", "price": 2}}})
	extras := c.create("/admin/modifier-groups", gin.H{"name": "Extras", "is_multiselect": true})
	c.expect(http.MethodPost, "/admin/categories/"+food+"/modifier-groups", gin.H{"groupCode": bread}, http.StatusCreated)
	c.expect(http.MethodPost, "/admin/categories/"+food+"/modifier-groups", gin.H{"groupCode": side}, http.StatusCreated)

	// 2. menu item
	burger := c.create("/admin/menus", gin.H{
		"category_code": food,
		"name":          "Burger",
		"price":         8.5,
		"modifiers": gin.H{
			"explicitGroupCodes": []string{extras},
			"perGroupOverrides":  []gin.H{{"code": extras, "maxSelection": 2}},
			"inheritEnabled":     true,
		},
	})
	waitForEvent(t, feed, services.EventAssignmentsSaved)

	// 3. projection
	views := c.modifiers(burger)
	require.Len(t, views, 3)
	assert.Equal(t, []string{extras, bread, side}, codesOf(views))
	assert.False(t, views[0].Inherited)
	require.NotNil(t, views[0].MaxSelection)
	assert.Equal(t, 2, *views[0].MaxSelection)
	assert.True(t, views[1].Inherited)
	assert.True(t, views[1].IsRequired)
	require.Len(t, views[1].Group.Options, 2)
	assert.Equal(t, "White", views[1].Group.Options[0].Name)

	// 4. a new link leaves saved items stale until they are re-resolved
	sauce := c.create("/admin/modifier-groups", gin.H{"name": "Sauce"})
	c.expect(http.MethodPost, "/admin/categories/"+food+"/modifier-groups", gin.H{"groupCode": sauce}, http.StatusCreated)
	waitForEvent(t, feed, services.EventCategoryModifiers)

	views = c.modifiers(burger)
	assert.Equal(t, []string{extras, bread, side}, codesOf(views))
	assert.True(t, views[0].Stale)

	stale, err := a.assignments.StaleItemCodes(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{burger}, stale)

	n, err := a.assignments.RefreshStale(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	views = c.modifiers(burger)
	assert.Equal(t, []string{extras, bread, side, sauce}, codesOf(views))
	assert.False(t, views[0].Stale)
	require.NotNil(t, views[0].MaxSelection, "overrides survive a re-resolve")
	assert.Equal(t, 2, *views[0].MaxSelection)

	// the scrape endpoint reflects the writes above
	resp, err := http.Get(srv.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), `backoffice_modifier_assignment_saves_total{result="success"}`)
	assert.Contains(t, string(body), "backoffice_hub_clients 1")
}

// TestLogoutAcrossInstances runs two servers behind one Redis and logs out on one.
func TestLogoutAcrossInstances(t *testing.T) {
	mr := miniredis.RunT(t)
	withRedis := func(cfg *config.Config) {
		cfg.Redis = config.RedisConfig{Addr: mr.Addr(), TTL: time.Minute}
	}
	first, _ := startServer(t, withRedis)
	second, _ := startServer(t, withRedis)

	c := &client{t: t, base: first.URL}
	c.token = c.login()
	other := &client{t: t, base: second.URL, token: c.token}

	other.expect(http.MethodGet, "/admin/profile", nil, http.StatusOK)
	c.expect(http.MethodPost, "/admin/logout", nil, http.StatusOK)
	other.expect(http.MethodGet, "/admin/profile", nil, http.StatusUnauthorized)
}

// startServer builds the application the way serve does, over a private in-memory
// sqlite database.
func startServer(t *testing.T, opts ...func(*config.Config)) (*httptest.Server, *app) {
	t.Helper()

	cfg := &config.Config{
		App: config.AppConfig{
			CORSOrigins:    []string{"*"},
			MetricsEnabled: true,
		},
		Database: config.DatabaseConfig{
			Driver:       "sqlite",
			SQLitePath:   fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString()),
			MaxOpenConns: 1,
		},
		JWT: config.JWTConfig{Secret: "integration-secret", TTL: time.Hour},
	}
	for _, opt := range opts {
		opt(cfg)
	}

	a, err := newApp(context.Background(), cfg)
	require.NoError(t, err)
	require.NoError(t, database.Migrate(a.db))
	_, err = database.SeedAdmin(a.db, "Owner", adminEmail, adminPassword)
	require.NoError(t, err)

	srv := httptest.NewServer(router.SetupRouter(a.routerDeps()))
	t.Cleanup(func() {
		a.hub.Close()
		srv.Close()
		a.close()
	})
	return srv, a
}

type client struct {
	t     *testing.T
	base  string
	token string
}

type response struct {
	Status  bool            `json:"status"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func (c *client) do(method, path string, body interface{}) (int, response) {
	c.t.Helper()

	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		require.NoError(c.t, err)
	}
	req, err := http.NewRequest(method, c.base+path, bytes.NewReader(payload))
	require.NoError(c.t, err)
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(c.t, err)
	defer resp.Body.Close()

	var out response
	require.NoError(c.t, json.NewDecoder(resp.Body).Decode(&out))
	return resp.StatusCode, out
}

func (c *client) expect(method, path string, body interface{}, status int) response {
	c.t.Helper()
	code, out := c.do(method, path, body)
	require.Equal(c.t, status, code, out.Message)
	return out
}

func (c *client) login() string {
	c.t.Helper()
	out := c.expect(http.MethodPost, "/login", gin.H{"email": adminEmail, "password": adminPassword}, http.StatusOK)

	var data struct {
		Token string `json:"token"`
	}
	require.NoError(c.t, json.Unmarshal(out.Data, &data))
	require.NotEmpty(c.t, data.Token)
	return data.Token
}

// create posts body and returns the generated business code.
func (c *client) create(path string, body interface{}) string {
	c.t.Helper()
	out := c.expect(http.MethodPost, path, body, http.StatusCreated)

	var created struct {
		Code string `json:"code"`
	}
	require.NoError(c.t, json.Unmarshal(out.Data, &created))
	require.NotEmpty(c.t, created.Code)
	return created.Code
}

func (c *client) modifiers(menuCode string) []services.AssignmentView {
	c.t.Helper()
	out := c.expect(http.MethodGet, "/menus/"+menuCode+"/modifiers", nil, http.StatusOK)

	var views []services.AssignmentView
	require.NoError(c.t, json.Unmarshal(out.Data, &views))
	return views
}

func (c *client) subscribe() *websocket.Conn {
	c.t.Helper()
	url := "ws" + strings.TrimPrefix(c.base, "http") + "/ws/menu?token=" + c.token
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(c.t, err)
	return conn
}

// waitForEvent reads the feed until event arrives, skipping the others.
func waitForEvent(t *testing.T, conn *websocket.Conn, event string) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for {
		require.NoError(t, conn.SetReadDeadline(deadline))
		var msg struct {
			Event string `json:"event"`
		}
		require.NoError(t, conn.ReadJSON(&msg), "waiting for %s", event)
		if msg.Event == event {
			return
		}
	}
}

func codesOf(views []services.AssignmentView) []string {
	out := make([]string, 0, len(views))
	for _, v := range views {
		out = append(out, v.GroupCode)
	}
	return out
}
