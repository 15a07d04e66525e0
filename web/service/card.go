package service

import (
	"context"
	"errors"
	"time"

	"github.com/cardtracker/cardtracker/database"
	"github.com/cardtracker/cardtracker/database/model"
	"github.com/cardtracker/cardtracker/logger"
	"github.com/cardtracker/cardtracker/web/entity"

	"gorm.io/gorm"
)

// cardViewColumns lists the card columns explicitly so the generated search
// document never ends up in a response.
const cardViewColumns = `c.id, c.name, c.set_id, c.type_id, c.user_id, c.no_in_set,
	c.image_small, c.image_large, c.rarity,
	c.price_low, c.price_mid, c.price_high, c.price_market,
	c.created_at, c.updated_at, c.deleted_at,
	s.series_id, sr.name AS series_name, s.name_of_expansion AS set_name,
	t.name AS type_name, u.username AS user_name`

// cardViewQuery selects the non-deleted cards of userId joined with their
// set, series, type and owner.
func cardViewQuery(db *gorm.DB, userId int) *gorm.DB {
	return db.Table("cards AS c").
		Select(cardViewColumns).
		Joins("JOIN sets AS s ON s.id = c.set_id").
		Joins("JOIN series AS sr ON sr.id = s.series_id").
		Joins("JOIN card_types AS t ON t.id = c.type_id").
		Joins("JOIN users AS u ON u.id = c.user_id").
		Where("c.user_id = ? AND c.deleted_at IS NULL", userId)
}

// CardService manages the cards of one owner at a time. Every method takes
// the owner's id and never touches other users' cards.
type CardService struct {
	tcg             *TCGClient
	setService      SetService
	cardTypeService CardTypeService
}

// NewCardService returns a service that enriches new cards through tcg.
// A nil client disables enrichment.
func NewCardService(tcg *TCGClient) *CardService {
	return &CardService{tcg: tcg}
}

func (s *CardService) List(userId int) ([]model.CardView, error) {
	views := make([]model.CardView, 0)
	err := cardViewQuery(database.GetDB(), userId).
		Order("c.created_at DESC, c.id DESC").
		Scan(&views).Error
	return views, err
}

func (s *CardService) Get(userId, id int) (*model.CardView, error) {
	var view model.CardView
	res := cardViewQuery(database.GetDB(), userId).
		Where("c.id = ?", id).
		Limit(1).
		Scan(&view)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, ErrNotFound
	}
	return &view, nil
}

// Create stores a new card owned by userId. Empty fields are filled from
// the TCG API when the card can be identified there.
func (s *CardService) Create(ctx context.Context, userId int, req entity.CardCreateRequest) (*model.Card, error) {
	set, err := s.setService.Get(req.SetId)
	if errors.Is(err, ErrNotFound) {
		return nil, invalidField("set_id", "set %d does not exist", req.SetId)
	}
	if err != nil {
		return nil, err
	}

	s.enrich(ctx, set, &req)

	if req.TypeId == 0 {
		return nil, invalidField("type_id", "type_id is required")
	}
	if err := s.checkType(req.TypeId); err != nil {
		return nil, err
	}

	card := &model.Card{
		Name:        req.Name,
		SetId:       req.SetId,
		TypeId:      req.TypeId,
		UserId:      userId,
		NoInSet:     req.NoInSet,
		ImageSmall:  req.ImageSmall,
		ImageLarge:  req.ImageLarge,
		Rarity:      req.Rarity,
		PriceLow:    req.PriceLow,
		PriceMid:    req.PriceMid,
		PriceHigh:   req.PriceHigh,
		PriceMarket: req.PriceMarket,
	}
	if err := database.GetDB().Create(card).Error; err != nil {
		return nil, err
	}
	return card, nil
}

// Update changes the fields present in req on a card owned by userId.
func (s *CardService) Update(userId, id int, req entity.CardUpdateRequest) (*model.Card, error) {
	updates := map[string]any{"updated_at": time.Now()}
	if req.Name != nil {
		updates["name"] = *req.Name
	}
	if req.SetId != nil {
		if _, err := s.setService.Get(*req.SetId); errors.Is(err, ErrNotFound) {
			return nil, invalidField("set_id", "set %d does not exist", *req.SetId)
		} else if err != nil {
			return nil, err
		}
		updates["set_id"] = *req.SetId
	}
	if req.TypeId != nil {
		if err := s.checkType(*req.TypeId); err != nil {
			return nil, err
		}
		updates["type_id"] = *req.TypeId
	}
	if req.NoInSet != nil {
		updates["no_in_set"] = *req.NoInSet
	}
	if req.ImageSmall != nil {
		updates["image_small"] = *req.ImageSmall
	}
	if req.ImageLarge != nil {
		updates["image_large"] = *req.ImageLarge
	}
	if req.Rarity != nil {
		updates["rarity"] = *req.Rarity
	}
	if req.PriceLow != nil {
		updates["price_low"] = *req.PriceLow
	}
	if req.PriceMid != nil {
		updates["price_mid"] = *req.PriceMid
	}
	if req.PriceHigh != nil {
		updates["price_high"] = *req.PriceHigh
	}
	if req.PriceMarket != nil {
		updates["price_market"] = *req.PriceMarket
	}

	db := database.GetDB()
	res := db.Model(&model.Card{}).
		Where("id = ? AND user_id = ?", id, userId).
		Updates(updates)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, ErrNotFound
	}

	var card model.Card
	if err := db.Where("id = ? AND user_id = ?", id, userId).First(&card).Error; err != nil {
		return nil, notFoundOr(err)
	}
	return &card, nil
}

// Delete soft-deletes a card owned by userId. Missing cards are ignored.
func (s *CardService) Delete(userId, id int) error {
	return database.GetDB().
		Where("id = ? AND user_id = ?", id, userId).
		Delete(&model.Card{}).Error
}

func (s *CardService) checkType(id int) error {
	ok, err := s.cardTypeService.exists(id)
	if err != nil {
		return err
	}
	if !ok {
		return invalidField("type_id", "card type %d does not exist", id)
	}
	return nil
}

// RefreshPrices refetches holofoil prices for every card that can be found
// in the TCG API and returns how many cards were updated.
func (s *CardService) RefreshPrices(ctx context.Context) (int, error) {
	if s.tcg == nil {
		return 0, nil
	}

	type target struct {
		Id      int
		SetAbb  string
		NoInSet int
	}
	var targets []target
	err := database.GetDB().Table("cards AS c").
		Select("c.id, s.set_abb, c.no_in_set").
		Joins("JOIN sets AS s ON s.id = c.set_id").
		Where("c.deleted_at IS NULL AND c.no_in_set IS NOT NULL").
		Where("s.set_abb IS NOT NULL AND s.set_abb <> ''").
		Scan(&targets).Error
	if err != nil {
		return 0, err
	}

	updated := 0
	for _, t := range targets {
		if err := ctx.Err(); err != nil {
			return updated, err
		}
		id := tcgCardId(t.SetAbb, t.NoInSet)
		lookupCtx, cancel := context.WithTimeout(ctx, s.tcg.Budget())
		tc, err := s.tcg.LookupCard(lookupCtx, id)
		cancel()
		if err != nil {
			logger.Debugf("refresh prices: card %d (%s): %v", t.Id, id, err)
			continue
		}
		prices := tc.HolofoilPrices()
		if prices == nil {
			continue
		}
		err = database.GetDB().Model(&model.Card{}).Where("id = ?", t.Id).Updates(map[string]any{
			"price_low":    prices.Low,
			"price_mid":    prices.Mid,
			"price_high":   prices.High,
			"price_market": prices.Market,
		}).Error
		if err != nil {
			return updated, err
		}
		updated++
	}
	return updated, nil
}
