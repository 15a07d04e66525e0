package controller

import (
	"strings"

	"github.com/cardtracker/cardtracker/web/entity"
	"github.com/cardtracker/cardtracker/web/service"

	"github.com/gin-gonic/gin"
)

// TCGController proxies card lookups to the Pokémon TCG API.
type TCGController struct {
	tcg *service.TCGClient
}

func NewTCGController(g *gin.RouterGroup, tcg *service.TCGClient) *TCGController {
	a := &TCGController{tcg: tcg}
	g.GET("/cards", a.searchCards)
	g.GET("/cards/:id", a.getCard)
	return a
}

func (a *TCGController) searchCards(c *gin.Context) {
	var q entity.TCGSearchQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		fieldErrors(c, validationErrors(err)...)
		return
	}
	resp, err := a.tcg.SearchCards(c.Request.Context(), q)
	if err != nil {
		respondError(c, err)
		return
	}
	relay(c, resp)
}

func (a *TCGController) getCard(c *gin.Context) {
	id := strings.TrimSpace(c.Param("id"))
	if id == "" {
		fieldErrors(c, entity.FieldError{Field: "id", Message: "is required"})
		return
	}
	resp, err := a.tcg.GetCard(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	if resp.Cached {
		c.Header("X-Cache", "HIT")
	} else {
		c.Header("X-Cache", "MISS")
	}
	relay(c, resp)
}

func relay(c *gin.Context, resp *service.UpstreamResponse) {
	c.Data(resp.StatusCode, "application/json; charset=utf-8", resp.Body)
}
