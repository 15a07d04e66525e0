package controller

import (
	"net/http"

	"github.com/cardtracker/cardtracker/web/entity"
	"github.com/cardtracker/cardtracker/web/middleware"
	"github.com/cardtracker/cardtracker/web/service"

	"github.com/gin-gonic/gin"
)

// CardController serves the caller's own cards.
type CardController struct {
	cardService *service.CardService
}

func NewCardController(g *gin.RouterGroup, cardService *service.CardService) *CardController {
	a := &CardController{cardService: cardService}
	a.initRouter(g)
	return a
}

func (a *CardController) initRouter(g *gin.RouterGroup) {
	g.GET("", a.getCards)
	g.GET("/search", a.search)
	g.GET("/:id", a.getCard)
	g.POST("", a.addCard)
	g.PUT("/:id", a.updateCard)
	g.DELETE("/:id", a.delCard)
}

func (a *CardController) getCards(c *gin.Context) {
	cards, err := a.cardService.List(middleware.GetUserId(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, cards)
}

func (a *CardController) search(c *gin.Context) {
	q := entity.SearchQuery{
		Q:      c.Query("q"),
		Rarity: c.Query("rarity"),
	}
	var errs []entity.FieldError
	facets := []struct {
		name string
		dst  *int
	}{{"series", &q.Series}, {"set", &q.Set}, {"type", &q.Type}}
	for _, f := range facets {
		n, err := queryInt(c, f.name)
		if err != nil {
			errs = append(errs, entity.FieldError{Field: f.name, Message: err.Error()})
			continue
		}
		*f.dst = n
	}
	if len(errs) > 0 {
		fieldErrors(c, errs...)
		return
	}

	cards, err := a.cardService.Search(middleware.GetUserId(c), q)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, cards)
}

func (a *CardController) getCard(c *gin.Context) {
	id, ok := paramId(c)
	if !ok {
		return
	}
	card, err := a.cardService.Get(middleware.GetUserId(c), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, card)
}

func (a *CardController) addCard(c *gin.Context) {
	var req entity.CardCreateRequest
	if !bindJSON(c, &req) {
		return
	}
	card, err := a.cardService.Create(c.Request.Context(), middleware.GetUserId(c), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, card)
}

func (a *CardController) updateCard(c *gin.Context) {
	id, ok := paramId(c)
	if !ok {
		return
	}
	var req entity.CardUpdateRequest
	if !bindJSON(c, &req) {
		return
	}
	card, err := a.cardService.Update(middleware.GetUserId(c), id, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, card)
}

func (a *CardController) delCard(c *gin.Context) {
	id, ok := paramId(c)
	if !ok {
		return
	}
	if err := a.cardService.Delete(middleware.GetUserId(c), id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
