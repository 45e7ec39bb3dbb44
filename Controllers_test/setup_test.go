package Controllers_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"github.com/yeremiapane/restaurant-backoffice/config"
	"github.com/yeremiapane/restaurant-backoffice/database/dbtest"
	"github.com/yeremiapane/restaurant-backoffice/hub"
	"github.com/yeremiapane/restaurant-backoffice/models"
	"github.com/yeremiapane/restaurant-backoffice/router"
	"github.com/yeremiapane/restaurant-backoffice/services"
	"github.com/yeremiapane/restaurant-backoffice/utils"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const testPassword = "secret-password"

type testServer struct {
	t      *testing.T
	db     *gorm.DB
	router *gin.Engine
	tokens *utils.TokenIssuer

	adminToken   string
	managerToken string
	staffToken   string
}

// newTestServer wires the full router over a private in-memory database seeded with
// one user per role.
func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db := dbtest.Open(t)
	tokens := utils.NewTokenIssuer("test-secret", time.Hour)
	assignments := services.NewAssignmentService(db)

	r := router.SetupRouter(router.Deps{
		Config:      config.AppConfig{CORSOrigins: []string{"http://127.0.0.1:5500"}},
		DB:          db,
		Tokens:      tokens,
		Assignments: assignments,
		Catalog:     services.NewCatalogService(db, assignments),
		Codes:       services.NewCodeGenerator(),
		Hub:         hub.New(),
	})

	s := &testServer{t: t, db: db, router: r, tokens: tokens}
	s.adminToken = s.seedUser("admin@example.com", models.RoleAdmin)
	s.managerToken = s.seedUser("manager@example.com", models.RoleManager)
	s.staffToken = s.seedUser("staff@example.com", models.RoleStaff)
	return s
}

func (s *testServer) seedUser(email, role string) string {
	s.t.Helper()
	hashed, err := bcrypt.GenerateFromPassword([]byte(testPassword), bcrypt.MinCost)
	require.NoError(s.t, err)

	user := models.User{Name: role, Email: email, Password: string(hashed), Role: role}
	require.NoError(s.t, s.db.Create(&user).Error)

	token, err := s.tokens.GenerateToken(user.ID, user.Role)
	require.NoError(s.t, err)
	return token
}

func (s *testServer) do(method, path, token string, body interface{}) *httptest.ResponseRecorder {
	s.t.Helper()

	var reader *bytes.Reader
	switch b := body.(type) {
	case nil:
		reader = bytes.NewReader(nil)
	case string:
		reader = bytes.NewReader([]byte(b))
	default:
		payload, err := json.Marshal(b)
		require.NoError(s.t, err)
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequest(method, path, reader)
	require.NoError(s.t, err)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

type envelope struct {
	Status  bool            `json:"status"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func decode(t *testing.T, w *httptest.ResponseRecorder, dest interface{}) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	if dest != nil {
		require.NoError(t, json.Unmarshal(env.Data, dest), string(env.Data))
	}
	return env
}

// createCategory, createGroup and createMenu go through the API and return the
// generated code.
func (s *testServer) createCategory(name string) string {
	s.t.Helper()
	w := s.do(http.MethodPost, "/admin/categories", s.adminToken, gin.H{"name": name})
	require.Equal(s.t, http.StatusCreated, w.Code, w.Body.String())
	var cat models.MenuCategory
	decode(s.t, w, &cat)
	return cat.Code
}

func (s *testServer) createGroup(name string, items ...gin.H) string {
	s.t.Helper()
	body := gin.H{"name": name}
	if len(items) > 0 {
		body["items"] = items
	}
	w := s.do(http.MethodPost, "/admin/modifier-groups", s.adminToken, body)
	require.Equal(s.t, http.StatusCreated, w.Code, w.Body.String())
	var group models.ModifierGroup
	decode(s.t, w, &group)
	return group.Code
}

func (s *testServer) link(categoryCode, groupCode string) {
	s.t.Helper()
	w := s.do(http.MethodPost, "/admin/categories/"+categoryCode+"/modifier-groups", s.adminToken, gin.H{"groupCode": groupCode})
	require.Equal(s.t, http.StatusCreated, w.Code, w.Body.String())
}

func (s *testServer) createMenu(body gin.H) string {
	s.t.Helper()
	w := s.do(http.MethodPost, "/admin/menus", s.adminToken, body)
	require.Equal(s.t, http.StatusCreated, w.Code, w.Body.String())
	var menu models.MenuItem
	decode(s.t, w, &menu)
	return menu.Code
}

func (s *testServer) modifiers(menuCode string) []services.AssignmentView {
	s.t.Helper()
	w := s.do(http.MethodGet, "/menus/"+menuCode+"/modifiers", "", nil)
	require.Equal(s.t, http.StatusOK, w.Code, w.Body.String())
	var views []services.AssignmentView
	decode(s.t, w, &views)
	return views
}

func groupCodes(views []services.AssignmentView) []string {
	out := make([]string, 0, len(views))
	for _, v := range views {
		out = append(out, v.GroupCode)
	}
	return out
}
