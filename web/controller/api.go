package controller

import (
	"net/http"

	"github.com/cardtracker/cardtracker/config"
	"github.com/cardtracker/cardtracker/database"
	"github.com/cardtracker/cardtracker/database/model"
	"github.com/cardtracker/cardtracker/web/middleware"
	"github.com/cardtracker/cardtracker/web/service"

	"github.com/gin-gonic/gin"
)

// APIController mounts every JSON route under /api.
type APIController struct {
	authService *service.AuthService
	tcg         *service.TCGClient
	rateLimit   int
}

func NewAPIController(g *gin.RouterGroup, authService *service.AuthService, tcg *service.TCGClient, rateLimit int) *APIController {
	a := &APIController{authService: authService, tcg: tcg, rateLimit: rateLimit}
	a.initRouter(g)
	return a
}

func (a *APIController) initRouter(g *gin.RouterGroup) {
	api := g.Group("/api")
	api.Use(middleware.RequestID(), middleware.RequestLogger())

	api.GET("/health", a.health)

	limit := middleware.RateLimit(middleware.DefaultRateLimitConfig(a.rateLimit))
	NewAuthController(api.Group("/auth"), a.authService, limit)

	authed := middleware.AuthRequired(a.authService)
	admin := middleware.RequireRole(model.RoleAdmin)

	NewUserController(api.Group("/users", authed))
	NewCardController(api.Group("/cards", authed), service.NewCardService(a.tcg))
	NewTCGController(api.Group("/tcg", authed), a.tcg)

	NewSeriesController(api.Group("/series"), authed, admin)
	NewSetController(api.Group("/sets"), authed, admin)
	NewCardTypeController(api.Group("/card-types"), authed, admin)
	NewLogController(api.Group("/logs", authed, admin))
}

func (a *APIController) health(c *gin.Context) {
	status := http.StatusOK
	state := "ok"
	if db := database.GetDB(); db == nil {
		status = http.StatusServiceUnavailable
		state = "unavailable"
	} else if sqlDB, err := db.DB(); err != nil || sqlDB.PingContext(c.Request.Context()) != nil {
		status = http.StatusServiceUnavailable
		state = "unavailable"
	}
	c.JSON(status, gin.H{
		"status":  state,
		"name":    config.GetName(),
		"version": config.GetVersion(),
	})
}
