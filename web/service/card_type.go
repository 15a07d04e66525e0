package service

import (
	"strings"
	"time"

	"github.com/cardtracker/cardtracker/database"
	"github.com/cardtracker/cardtracker/database/model"
	"github.com/cardtracker/cardtracker/web/cache"
	"github.com/cardtracker/cardtracker/web/entity"
)

type CardTypeService struct{}

func (s *CardTypeService) List() ([]model.CardType, error) {
	return cache.GetOrSet(cache.KeyCardTypeList, cache.TTLReference, func() ([]model.CardType, error) {
		types := make([]model.CardType, 0)
		err := database.GetDB().Order("name").Find(&types).Error
		return types, err
	})
}

func (s *CardTypeService) Get(id int) (*model.CardType, error) {
	var t model.CardType
	if err := database.GetDB().First(&t, id).Error; err != nil {
		return nil, notFoundOr(err)
	}
	return &t, nil
}

func (s *CardTypeService) Create(req entity.CardTypeRequest) (*model.CardType, error) {
	t := &model.CardType{Name: req.Name, Category: req.Category}
	if err := database.GetDB().Create(t).Error; err != nil {
		return nil, conflictOr(err)
	}
	cache.Invalidate(cache.KeyCardTypeList)
	return t, nil
}

func (s *CardTypeService) Update(id int, req entity.CardTypeUpdateRequest) (*model.CardType, error) {
	updates := map[string]any{"updated_at": time.Now()}
	if req.Name != nil {
		updates["name"] = *req.Name
	}
	if req.Category != nil {
		updates["category"] = *req.Category
	}
	res := database.GetDB().Model(&model.CardType{}).Where("id = ?", id).Updates(updates)
	if res.Error != nil {
		return nil, conflictOr(res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, ErrNotFound
	}
	cache.Invalidate(cache.KeyCardTypeList)
	return s.Get(id)
}

func (s *CardTypeService) Delete(id int) error {
	if err := database.GetDB().Delete(&model.CardType{}, id).Error; err != nil {
		return err
	}
	cache.Invalidate(cache.KeyCardTypeList)
	return nil
}

func (s *CardTypeService) exists(id int) (bool, error) {
	var count int64
	err := database.GetDB().Model(&model.CardType{}).Where("id = ?", id).Count(&count).Error
	return count > 0, err
}

// MatchSubtype returns the id of the first type whose name equals one of
// subtypes, ignoring case, or 0 when none does.
func (s *CardTypeService) MatchSubtype(subtypes []string) (int, error) {
	if len(subtypes) == 0 {
		return 0, nil
	}
	types, err := s.List()
	if err != nil {
		return 0, err
	}
	for _, sub := range subtypes {
		for _, t := range types {
			if strings.EqualFold(t.Name, sub) {
				return t.Id, nil
			}
		}
	}
	return 0, nil
}
