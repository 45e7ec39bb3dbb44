package Controllers_test

import (
	"context"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yeremiapane/restaurant-backoffice/models"
)

func TestLogin(t *testing.T) {
	s := newTestServer(t)

	w := s.do(http.MethodPost, "/login", "", gin.H{"email": "manager@example.com", "password": testPassword})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var data struct {
		Token    string `json:"token"`
		UserRole string `json:"user_role"`
	}
	decode(t, w, &data)
	assert.NotEmpty(t, data.Token)
	assert.Equal(t, models.RoleManager, data.UserRole)

	claims, err := s.tokens.ParseToken(context.Background(), data.Token)
	require.NoError(t, err)
	assert.Equal(t, models.RoleManager, claims.Role)

	w = s.do(http.MethodPost, "/login", "", gin.H{"email": "manager@example.com", "password": "wrong"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = s.do(http.MethodPost, "/login", "", gin.H{"email": "nobody@example.com", "password": testPassword})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = s.do(http.MethodPost, "/login", "", gin.H{"email": "manager@example.com"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestLoginIsRateLimited(t *testing.T) {
	s := newTestServer(t)

	codes := []int{}
	for i := 0; i < 6; i++ {
		w := s.do(http.MethodPost, "/login", "", gin.H{"email": "staff@example.com", "password": "wrong"})
		codes = append(codes, w.Code)
	}
	assert.Equal(t, http.StatusUnauthorized, codes[0])
	assert.Equal(t, http.StatusTooManyRequests, codes[5])
}

func TestCreateUserRequiresAdmin(t *testing.T) {
	s := newTestServer(t)
	body := gin.H{"name": "Cook", "email": "cook@example.com", "password": "long-enough", "role": "staff"}

	assert.Equal(t, http.StatusForbidden, s.do(http.MethodPost, "/admin/users", s.managerToken, body).Code)
	assert.Equal(t, http.StatusUnauthorized, s.do(http.MethodPost, "/admin/users", "", body).Code)

	w := s.do(http.MethodPost, "/admin/users", s.adminToken, body)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	assert.Equal(t, http.StatusConflict, s.do(http.MethodPost, "/admin/users", s.adminToken, body).Code)

	body["email"] = "chef@example.com"
	body["role"] = "chef"
	assert.Equal(t, http.StatusBadRequest, s.do(http.MethodPost, "/admin/users", s.adminToken, body).Code)

	w = s.do(http.MethodPost, "/login", "", gin.H{"email": "cook@example.com", "password": "long-enough"})
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestGetProfileAndUsers(t *testing.T) {
	s := newTestServer(t)

	w := s.do(http.MethodGet, "/admin/profile", s.staffToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var user models.User
	decode(t, w, &user)
	assert.Equal(t, "staff@example.com", user.Email)
	assert.Empty(t, user.Password, "password hash must never be serialized")

	assert.Equal(t, http.StatusForbidden, s.do(http.MethodGet, "/admin/users", s.staffToken, nil).Code)

	w = s.do(http.MethodGet, "/admin/users", s.adminToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var users []models.User
	decode(t, w, &users)
	assert.Len(t, users, 3)
}
