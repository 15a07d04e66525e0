package service

import (
	"time"

	"github.com/cardtracker/cardtracker/database"
	"github.com/cardtracker/cardtracker/database/model"

	"gorm.io/gorm"
)

// PurgeResult counts the rows removed per table.
type PurgeResult struct {
	Cards     int64
	Sets      int64
	CardTypes int64
	Series    int64
	Users     int64
}

func (r PurgeResult) Total() int64 {
	return r.Cards + r.Sets + r.CardTypes + r.Series + r.Users
}

type PurgeService struct{}

// PurgeDeleted hard-deletes rows soft-deleted before cutoff. Parents still
// referenced by any remaining row are kept, so live cards never lose the
// set, series, type or owner they join to.
func (s *PurgeService) PurgeDeleted(cutoff time.Time) (PurgeResult, error) {
	var result PurgeResult
	err := database.GetDB().Transaction(func(tx *gorm.DB) error {
		steps := []struct {
			count *int64
			run   func() *gorm.DB
		}{
			{&result.Cards, func() *gorm.DB {
				return tx.Unscoped().Where("deleted_at < ?", cutoff).Delete(&model.Card{})
			}},
			{&result.Sets, func() *gorm.DB {
				return tx.Unscoped().
					Where("deleted_at < ?", cutoff).
					Where("NOT EXISTS (SELECT 1 FROM cards WHERE cards.set_id = sets.id)").
					Delete(&model.Set{})
			}},
			{&result.CardTypes, func() *gorm.DB {
				return tx.Unscoped().
					Where("deleted_at < ?", cutoff).
					Where("NOT EXISTS (SELECT 1 FROM cards WHERE cards.type_id = card_types.id)").
					Delete(&model.CardType{})
			}},
			{&result.Series, func() *gorm.DB {
				return tx.Unscoped().
					Where("deleted_at < ?", cutoff).
					Where("NOT EXISTS (SELECT 1 FROM sets WHERE sets.series_id = series.id)").
					Delete(&model.Series{})
			}},
		}
		for _, step := range steps {
			res := step.run()
			if res.Error != nil {
				return res.Error
			}
			*step.count = res.RowsAffected
		}

		purgeable := tx.Unscoped().Model(&model.User{}).
			Select("id").
			Where("deleted_at < ?", cutoff).
			Where("NOT EXISTS (SELECT 1 FROM cards WHERE cards.user_id = users.id)")
		if err := tx.Exec("DELETE FROM user_roles WHERE user_id IN (?)", purgeable).Error; err != nil {
			return err
		}
		res := tx.Unscoped().
			Where("deleted_at < ?", cutoff).
			Where("NOT EXISTS (SELECT 1 FROM cards WHERE cards.user_id = users.id)").
			Delete(&model.User{})
		if res.Error != nil {
			return res.Error
		}
		result.Users = res.RowsAffected
		return nil
	})
	return result, err
}
