package controller

import (
	"net/http"

	"github.com/cardtracker/cardtracker/web/entity"
	"github.com/cardtracker/cardtracker/web/middleware"
	"github.com/cardtracker/cardtracker/web/service"

	"github.com/gin-gonic/gin"
)

// AuthController registers users and hands out bearer tokens.
type AuthController struct {
	authService *service.AuthService
}

func NewAuthController(g *gin.RouterGroup, authService *service.AuthService, limit gin.HandlerFunc) *AuthController {
	a := &AuthController{authService: authService}
	a.initRouter(g, limit)
	return a
}

func (a *AuthController) initRouter(g *gin.RouterGroup, limit gin.HandlerFunc) {
	g.POST("/register", limit, a.register)
	g.POST("/login", limit, a.login)
	g.GET("/me", middleware.AuthRequired(a.authService), a.me)
}

func (a *AuthController) register(c *gin.Context) {
	var req entity.RegisterRequest
	if !bindJSON(c, &req) {
		return
	}
	u, err := a.authService.Register(req.Username, req.Email, req.Password)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, entity.RegisterResponse{Id: u.Id, Username: u.Username, Email: u.Email})
}

func (a *AuthController) login(c *gin.Context) {
	var req entity.LoginRequest
	if !bindJSON(c, &req) {
		return
	}
	if req.Username == "" && req.Email == "" {
		fieldErrors(c, entity.FieldError{Field: "username", Message: "username or email is required"})
		return
	}
	token, err := a.authService.Login(req.Username, req.Email, req.Password)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, entity.TokenResponse{Token: token})
}

func (a *AuthController) me(c *gin.Context) {
	c.JSON(http.StatusOK, entity.MeResponse{
		Id:       middleware.GetUserId(c),
		Username: c.GetString(middleware.KeyUsername),
		Roles:    middleware.GetRoles(c),
	})
}
