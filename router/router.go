package router

import (
	"github.com/gin-gonic/gin"
	"github.com/yeremiapane/restaurant-backoffice/config"
	"github.com/yeremiapane/restaurant-backoffice/controllers"
	"github.com/yeremiapane/restaurant-backoffice/hub"
	"github.com/yeremiapane/restaurant-backoffice/metrics"
	"github.com/yeremiapane/restaurant-backoffice/middlewares"
	"github.com/yeremiapane/restaurant-backoffice/models"
	"github.com/yeremiapane/restaurant-backoffice/services"
	"github.com/yeremiapane/restaurant-backoffice/utils"
	"golang.org/x/time/rate"
	"gorm.io/gorm"
)

// Deps carries everything the HTTP layer needs. Metrics may be nil.
type Deps struct {
	Config      config.AppConfig
	DB          *gorm.DB
	Tokens      *utils.TokenIssuer
	Assignments *services.AssignmentService
	Catalog     *services.CatalogService
	Codes       *services.CodeGenerator
	Hub         *hub.Hub
	Metrics     *metrics.Metrics
}

func SetupRouter(d Deps) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())

	r.Use(middlewares.LoggerMiddleware())
	if d.Metrics != nil {
		r.Use(d.Metrics.Middleware())
	}
	r.Use(middlewares.SecurityHeaders())
	r.Use(middlewares.CORSMiddlewares(d.Config.CORSOrigins))
	if d.Config.RateLimitRPS > 0 {
		r.Use(middlewares.NewRateLimiter(rate.Limit(d.Config.RateLimitRPS), d.Config.RateLimitBurst).RateLimit())
	}

	healthCtrl := controllers.NewHealthController(d.DB)
	userCtrl := controllers.NewUserController(d.DB, d.Tokens)
	categoryCtrl := controllers.NewMenuCategoryController(d.DB, d.Codes, d.Catalog)
	menuCtrl := controllers.NewMenuController(d.DB, d.Codes, d.Assignments, d.Catalog)
	groupCtrl := controllers.NewModifierGroupController(d.DB, d.Codes, d.Assignments, d.Catalog)
	assignmentCtrl := controllers.NewModifierAssignmentController(d.Assignments)
	hubCtrl := controllers.NewHubController(d.Hub, d.Config.CORSOrigins)
	adminCtrl := controllers.NewAdminController(d.DB, d.Assignments, d.Hub)

	// ----------------------------------------------------------------
	//                      PUBLIC ROUTES
	// ----------------------------------------------------------------
	r.GET("/ping", healthCtrl.Ping)
	r.GET("/healthz", healthCtrl.Healthz)
	if d.Metrics != nil {
		r.GET("/metrics", d.Metrics.Handler())
	}

	public := r.Group("/")
	public.Use(middlewares.NewStrictRateLimiter().RateLimit())
	{
		public.POST("/login", userCtrl.Login)
	}

	r.GET("/categories", categoryCtrl.GetAllCategories)
	r.GET("/menus", menuCtrl.GetAllMenus)
	r.GET("/menus/:menu_code", menuCtrl.GetMenuByCode)
	r.GET("/menus/:menu_code/modifiers", assignmentCtrl.GetModifiers)

	ws := r.Group("/ws")
	ws.Use(middlewares.WebSocketAuthMiddleware(d.Tokens))
	{
		ws.GET("/menu", hubCtrl.Stream)
	}

	// ----------------------------------------------------------------
	//                      AUTHENTICATED ROUTES
	// ----------------------------------------------------------------
	auth := r.Group("/admin")
	auth.Use(middlewares.AuthMiddleware(d.Tokens))

	auth.GET("/profile", userCtrl.GetProfile)
	auth.POST("/logout", userCtrl.Logout)

	// reads are open to every role, writes need admin or manager
	write := auth.Group("")
	write.Use(middlewares.RequireRoles(models.RoleAdmin, models.RoleManager))

	adminOnly := auth.Group("")
	adminOnly.Use(middlewares.RequireRoles(models.RoleAdmin))
	adminOnly.GET("/users", userCtrl.GetAllUsers)
	adminOnly.POST("/users", userCtrl.CreateUser)
	adminOnly.GET("/dashboard", adminCtrl.GetDashboardStats)
	adminOnly.POST("/modifiers/refresh-stale", adminCtrl.RefreshStale)

	// MENU CATEGORIES
	auth.GET("/categories", categoryCtrl.GetAllCategories)
	auth.GET("/categories/:cat_code", categoryCtrl.GetCategoryByCode)
	write.POST("/categories", categoryCtrl.CreateCategory)
	write.PATCH("/categories/:cat_code", categoryCtrl.UpdateCategory)
	write.DELETE("/categories/:cat_code", categoryCtrl.DeleteCategory)

	// CATEGORY -> MODIFIER GROUP LINKS
	auth.GET("/categories/:cat_code/modifier-groups", categoryCtrl.GetCategoryModifierGroups)
	write.POST("/categories/:cat_code/modifier-groups", categoryCtrl.LinkModifierGroup)
	write.DELETE("/categories/:cat_code/modifier-groups/:group_code", categoryCtrl.UnlinkModifierGroup)

	// MODIFIER GROUPS AND OPTIONS
	auth.GET("/modifier-groups", groupCtrl.GetAllGroups)
	auth.GET("/modifier-groups/:group_code", groupCtrl.GetGroupByCode)
	write.POST("/modifier-groups", groupCtrl.CreateGroup)
	write.PATCH("/modifier-groups/:group_code", groupCtrl.UpdateGroup)
	write.DELETE("/modifier-groups/:group_code", groupCtrl.DeleteGroup)
	write.POST("/modifier-groups/:group_code/items", groupCtrl.CreateItem)
	write.PATCH("/modifier-items/:item_code", groupCtrl.UpdateItem)
	write.DELETE("/modifier-items/:item_code", groupCtrl.DeleteItem)

	// MENUS
	auth.GET("/menus", menuCtrl.ListMenus)
	auth.GET("/menus/:menu_code", menuCtrl.GetMenuByCode)
	write.POST("/menus", menuCtrl.CreateMenu)
	write.PATCH("/menus/:menu_code", menuCtrl.UpdateMenu)
	write.DELETE("/menus/:menu_code", menuCtrl.DeleteMenu)

	// MENU MODIFIER ASSIGNMENTS
	auth.GET("/menus/:menu_code/modifiers", assignmentCtrl.GetModifiers)
	write.POST("/menus/:menu_code/modifiers", assignmentCtrl.SaveModifiers)
	write.POST("/menus/:menu_code/modifiers/refresh", assignmentCtrl.RefreshModifiers)

	return r
}
