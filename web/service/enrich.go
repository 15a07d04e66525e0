package service

import (
	"context"
	"fmt"

	"github.com/cardtracker/cardtracker/database/model"
	"github.com/cardtracker/cardtracker/logger"
	"github.com/cardtracker/cardtracker/web/entity"
)

// tcgCardId builds the TCG API id of a card, e.g. "base1-4".
func tcgCardId(setAbb string, noInSet int) string {
	return fmt.Sprintf("%s-%d", setAbb, noInSet)
}

// enrich fills the empty fields of req from the TCG API. It only reads
// when set has an abbreviation and req a number in the set, and a failed
// lookup leaves req untouched.
func (s *CardService) enrich(ctx context.Context, set *model.Set, req *entity.CardCreateRequest) {
	if s.tcg == nil || set.SetAbb == nil || *set.SetAbb == "" || req.NoInSet == nil {
		return
	}

	id := tcgCardId(*set.SetAbb, *req.NoInSet)
	ctx, cancel := context.WithTimeout(ctx, s.tcg.Budget())
	defer cancel()

	tc, err := s.tcg.LookupCard(ctx, id)
	if err != nil {
		logger.Debugf("enrich: lookup %s failed: %v", id, err)
		return
	}

	if req.ImageSmall == nil && tc.Images.Small != "" {
		req.ImageSmall = &tc.Images.Small
	}
	if req.ImageLarge == nil && tc.Images.Large != "" {
		req.ImageLarge = &tc.Images.Large
	}
	if req.Rarity == nil && tc.Rarity != "" {
		req.Rarity = &tc.Rarity
	}
	if p := tc.HolofoilPrices(); p != nil {
		if req.PriceLow == nil {
			req.PriceLow = p.Low
		}
		if req.PriceMid == nil {
			req.PriceMid = p.Mid
		}
		if req.PriceHigh == nil {
			req.PriceHigh = p.High
		}
		if req.PriceMarket == nil {
			req.PriceMarket = p.Market
		}
	}
	if req.TypeId == 0 {
		typeId, err := s.cardTypeService.MatchSubtype(tc.Subtypes)
		if err != nil {
			logger.Debugf("enrich: match subtypes %v: %v", tc.Subtypes, err)
			return
		}
		req.TypeId = typeId
	}
}
