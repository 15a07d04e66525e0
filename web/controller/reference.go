package controller

import (
	"net/http"

	"github.com/cardtracker/cardtracker/web/entity"
	"github.com/cardtracker/cardtracker/web/service"

	"github.com/gin-gonic/gin"
)

// SeriesController, SetController and CardTypeController serve reference
// data. Reads are public; the write routes get the admin guard passed in.

type SeriesController struct {
	seriesService service.SeriesService
}

func NewSeriesController(g *gin.RouterGroup, admin ...gin.HandlerFunc) *SeriesController {
	a := &SeriesController{}
	g.GET("", a.getAll)
	g.GET("/:id", a.get)
	w := g.Group("", admin...)
	w.POST("", a.add)
	w.PUT("/:id", a.update)
	w.DELETE("/:id", a.del)
	return a
}

func (a *SeriesController) getAll(c *gin.Context) {
	series, err := a.seriesService.List()
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, series)
}

func (a *SeriesController) get(c *gin.Context) {
	id, ok := paramId(c)
	if !ok {
		return
	}
	series, err := a.seriesService.Get(id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, series)
}

func (a *SeriesController) add(c *gin.Context) {
	var req entity.SeriesRequest
	if !bindJSON(c, &req) {
		return
	}
	series, err := a.seriesService.Create(req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, series)
}

func (a *SeriesController) update(c *gin.Context) {
	id, ok := paramId(c)
	if !ok {
		return
	}
	var req entity.SeriesUpdateRequest
	if !bindJSON(c, &req) {
		return
	}
	series, err := a.seriesService.Update(id, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, series)
}

func (a *SeriesController) del(c *gin.Context) {
	id, ok := paramId(c)
	if !ok {
		return
	}
	if err := a.seriesService.Delete(id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

type SetController struct {
	setService service.SetService
}

func NewSetController(g *gin.RouterGroup, admin ...gin.HandlerFunc) *SetController {
	a := &SetController{}
	g.GET("", a.getAll)
	g.GET("/:id", a.get)
	w := g.Group("", admin...)
	w.POST("", a.add)
	w.PUT("/:id", a.update)
	w.DELETE("/:id", a.del)
	return a
}

func (a *SetController) getAll(c *gin.Context) {
	sets, err := a.setService.List()
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, sets)
}

func (a *SetController) get(c *gin.Context) {
	id, ok := paramId(c)
	if !ok {
		return
	}
	set, err := a.setService.Get(id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, set)
}

func (a *SetController) add(c *gin.Context) {
	var req entity.SetRequest
	if !bindJSON(c, &req) {
		return
	}
	set, err := a.setService.Create(req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, set)
}

func (a *SetController) update(c *gin.Context) {
	id, ok := paramId(c)
	if !ok {
		return
	}
	var req entity.SetUpdateRequest
	if !bindJSON(c, &req) {
		return
	}
	set, err := a.setService.Update(id, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, set)
}

func (a *SetController) del(c *gin.Context) {
	id, ok := paramId(c)
	if !ok {
		return
	}
	if err := a.setService.Delete(id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

type CardTypeController struct {
	cardTypeService service.CardTypeService
}

func NewCardTypeController(g *gin.RouterGroup, admin ...gin.HandlerFunc) *CardTypeController {
	a := &CardTypeController{}
	g.GET("", a.getAll)
	g.GET("/:id", a.get)
	w := g.Group("", admin...)
	w.POST("", a.add)
	w.PUT("/:id", a.update)
	w.DELETE("/:id", a.del)
	return a
}

func (a *CardTypeController) getAll(c *gin.Context) {
	types, err := a.cardTypeService.List()
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, types)
}

func (a *CardTypeController) get(c *gin.Context) {
	id, ok := paramId(c)
	if !ok {
		return
	}
	t, err := a.cardTypeService.Get(id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, t)
}

func (a *CardTypeController) add(c *gin.Context) {
	var req entity.CardTypeRequest
	if !bindJSON(c, &req) {
		return
	}
	t, err := a.cardTypeService.Create(req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, t)
}

func (a *CardTypeController) update(c *gin.Context) {
	id, ok := paramId(c)
	if !ok {
		return
	}
	var req entity.CardTypeUpdateRequest
	if !bindJSON(c, &req) {
		return
	}
	t, err := a.cardTypeService.Update(id, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, t)
}

func (a *CardTypeController) del(c *gin.Context) {
	id, ok := paramId(c)
	if !ok {
		return
	}
	if err := a.cardTypeService.Delete(id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
