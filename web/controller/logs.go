package controller

import (
	"net/http"
	"strings"

	"github.com/cardtracker/cardtracker/logger"
	"github.com/cardtracker/cardtracker/web/entity"

	"github.com/gin-gonic/gin"
	"github.com/op/go-logging"
)

const (
	defaultLogCount = 100
	maxLogCount     = 500
)

// LogController exposes the in-memory log buffer to admins.
type LogController struct{}

func NewLogController(g *gin.RouterGroup) *LogController {
	a := &LogController{}
	g.GET("", a.getLogs)
	return a
}

// getLogs returns the newest entries at or above ?level (default INFO),
// at most ?count of them.
func (a *LogController) getLogs(c *gin.Context) {
	count, err := queryInt(c, "count")
	if err != nil {
		fieldErrors(c, entity.FieldError{Field: "count", Message: err.Error()})
		return
	}
	if count == 0 {
		count = defaultLogCount
	}
	count = min(count, maxLogCount)

	level := strings.ToUpper(strings.TrimSpace(c.DefaultQuery("level", "INFO")))
	if _, err := logging.LogLevel(level); err != nil {
		fieldErrors(c, entity.FieldError{Field: "level", Message: "unknown log level"})
		return
	}
	c.JSON(http.StatusOK, logger.GetLogs(count, level))
}
