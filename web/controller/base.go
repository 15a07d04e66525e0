// Package controller holds the HTTP handlers of the JSON API.
package controller

import (
	"github.com/cardtracker/cardtracker/database/model"
	"github.com/cardtracker/cardtracker/web/middleware"
	"github.com/cardtracker/cardtracker/web/service"

	"github.com/gin-gonic/gin"
)

// BaseController provides the ownership checks shared by the controllers.
type BaseController struct{}

// checkSelfOrAdmin lets the caller act on user id only when it is their own
// account or they are an admin.
func (a *BaseController) checkSelfOrAdmin(c *gin.Context, id int) bool {
	if middleware.GetUserId(c) == id || middleware.HasRole(c, model.RoleAdmin) {
		return true
	}
	respondError(c, service.ErrForbidden)
	c.Abort()
	return false
}
