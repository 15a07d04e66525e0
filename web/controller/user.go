package controller

import (
	"net/http"

	"github.com/cardtracker/cardtracker/database/model"
	"github.com/cardtracker/cardtracker/web/entity"
	"github.com/cardtracker/cardtracker/web/middleware"
	"github.com/cardtracker/cardtracker/web/service"

	"github.com/gin-gonic/gin"
)

// UserController manages accounts. Callers change only their own account
// unless they are admins.
type UserController struct {
	BaseController

	userService service.UserService
}

// NewUserController registers the user routes on g, which must already
// require authentication.
func NewUserController(g *gin.RouterGroup) *UserController {
	a := &UserController{}
	a.initRouter(g)
	return a
}

func (a *UserController) initRouter(g *gin.RouterGroup) {
	g.GET("", a.getUsers)
	g.GET("/:id", a.getUser)
	g.POST("", middleware.RequireRole(model.RoleAdmin), a.addUser)
	g.PUT("/:id", a.updateUser)
	g.DELETE("/:id", a.delUser)
}

func (a *UserController) getUsers(c *gin.Context) {
	users, err := a.userService.List()
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, users)
}

func (a *UserController) getUser(c *gin.Context) {
	id, ok := paramId(c)
	if !ok {
		return
	}
	u, err := a.userService.Get(id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, u)
}

func (a *UserController) addUser(c *gin.Context) {
	var req entity.UserCreateRequest
	if !bindJSON(c, &req) {
		return
	}
	u, err := a.userService.Create(req.Username, req.Email, req.Password, req.Admin)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, u)
}

func (a *UserController) updateUser(c *gin.Context) {
	id, ok := paramId(c)
	if !ok || !a.checkSelfOrAdmin(c, id) {
		return
	}
	var req entity.UserUpdateRequest
	if !bindJSON(c, &req) {
		return
	}
	u, err := a.userService.Update(id, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, u)
}

func (a *UserController) delUser(c *gin.Context) {
	id, ok := paramId(c)
	if !ok || !a.checkSelfOrAdmin(c, id) {
		return
	}
	if err := a.userService.Delete(id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
