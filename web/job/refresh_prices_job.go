package job

import (
	"context"

	"github.com/cardtracker/cardtracker/logger"
	"github.com/cardtracker/cardtracker/web/service"
)

// RefreshPricesJob refetches TCG prices for the cards that can be found there.
type RefreshPricesJob struct {
	ctx         context.Context
	cardService *service.CardService
}

// NewRefreshPricesJob stops early when ctx is cancelled.
func NewRefreshPricesJob(ctx context.Context, tcg *service.TCGClient) *RefreshPricesJob {
	return &RefreshPricesJob{ctx: ctx, cardService: service.NewCardService(tcg)}
}

func (j *RefreshPricesJob) Run() {
	logger.Debug("Price refresh job started")
	n, err := j.cardService.RefreshPrices(j.ctx)
	if err != nil {
		logger.Warningf("Price refresh stopped after %d cards: %v", n, err)
		return
	}
	logger.Infof("Refreshed prices of %d cards", n)
}
