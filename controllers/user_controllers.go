package controllers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/yeremiapane/restaurant-backoffice/middlewares"
	"github.com/yeremiapane/restaurant-backoffice/models"
	"github.com/yeremiapane/restaurant-backoffice/services"
	"github.com/yeremiapane/restaurant-backoffice/utils"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type UserController struct {
	DB     *gorm.DB
	Tokens *utils.TokenIssuer
}

func NewUserController(db *gorm.DB, tokens *utils.TokenIssuer) *UserController {
	return &UserController{DB: db, Tokens: tokens}
}

// CreateUser adds a back-office account. Only admins reach this handler.
func (uc *UserController) CreateUser(c *gin.Context) {
	type request struct {
		Name     string `json:"name" binding:"required"`
		Email    string `json:"email" binding:"required,email"`
		Password string `json:"password" binding:"required,min=8"`
		Role     string `json:"role" binding:"required"` // admin, manager, staff
	}
	var req request
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}
	role := strings.ToLower(req.Role)
	if !models.IsValidRole(role) {
		respondServiceError(c, &services.ValidationError{Field: "role", Reason: "must be admin, manager or staff"})
		return
	}

	db := uc.DB.WithContext(c.Request.Context())
	var taken int64
	if err := db.Model(&models.User{}).Where("email = ?", req.Email).Count(&taken).Error; err != nil {
		respondServiceError(c, err)
		return
	}
	if taken > 0 {
		respondServiceError(c, &services.ConflictError{Reason: "email already registered"})
		return
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	user := models.User{
		Name:     req.Name,
		Email:    req.Email,
		Password: string(hashed),
		Role:     role,
	}
	if err := db.Create(&user).Error; err != nil {
		respondServiceError(c, err)
		return
	}

	utils.InfoLogger.WithField("email", user.Email).WithField("role", user.Role).Info("user created")
	utils.RespondJSON(c, http.StatusCreated, "User created", gin.H{
		"user_id": user.ID,
	})
}

// Login user -> return JWT
func (uc *UserController) Login(c *gin.Context) {
	var input struct {
		Email    string `json:"email" binding:"required"`
		Password string `json:"password" binding:"required"`
	}

	if err := c.ShouldBindJSON(&input); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	var user models.User
	if err := uc.DB.WithContext(c.Request.Context()).Where("email = ?", input.Email).First(&user).Error; err != nil {
		utils.RespondError(c, http.StatusUnauthorized, errors.New("invalid credentials"))
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(input.Password)); err != nil {
		utils.RespondError(c, http.StatusUnauthorized, errors.New("invalid credentials"))
		return
	}

	token, err := uc.Tokens.GenerateToken(user.ID, user.Role)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	utils.InfoLogger.WithField("email", user.Email).Info("login successful")
	utils.RespondJSON(c, http.StatusOK, "Login successful", gin.H{
		"token":     token,
		"user_role": strings.ToLower(user.Role),
	})
}

// GetProfile -> the user behind the JWT
func (uc *UserController) GetProfile(c *gin.Context) {
	userID := c.GetUint(middlewares.ContextUserID)
	if userID == 0 {
		utils.RespondError(c, http.StatusUnauthorized, errors.New("user id not found in context"))
		return
	}

	var user models.User
	if err := uc.DB.WithContext(c.Request.Context()).First(&user, userID).Error; err != nil {
		respondLookupError(c, "user", "", err)
		return
	}

	utils.RespondJSON(c, http.StatusOK, "Profile data retrieved successfully", user)
}

func (uc *UserController) GetAllUsers(c *gin.Context) {
	var users []models.User
	if err := uc.DB.WithContext(c.Request.Context()).Order("id ASC").Find(&users).Error; err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "All users", users)
}

// Logout revokes the bearer token of the current request.
func (uc *UserController) Logout(c *gin.Context) {
	claims, ok := c.MustGet(middlewares.ContextClaims).(*utils.CustomClaims)
	if !ok {
		utils.RespondError(c, http.StatusUnauthorized, errors.New("token claims not found in context"))
		return
	}
	if err := uc.Tokens.Revoke(c.Request.Context(), claims); err != nil {
		utils.ErrorLogger.WithError(err).WithField("user_id", claims.UserID).Error("logout not shared")
		utils.RespondError(c, http.StatusServiceUnavailable, errors.New("logout could not be recorded, try again"))
		return
	}

	utils.InfoLogger.WithField("user_id", claims.UserID).Info("logout")
	utils.RespondJSON(c, http.StatusOK, "Logged out", nil)
}
