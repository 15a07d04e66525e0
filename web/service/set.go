package service

import (
	"time"

	"github.com/cardtracker/cardtracker/database"
	"github.com/cardtracker/cardtracker/database/model"
	"github.com/cardtracker/cardtracker/web/cache"
	"github.com/cardtracker/cardtracker/web/entity"
)

type SetService struct {
	seriesService SeriesService
}

func (s *SetService) List() ([]model.Set, error) {
	return cache.GetOrSet(cache.KeySetList, cache.TTLReference, func() ([]model.Set, error) {
		sets := make([]model.Set, 0)
		err := database.GetDB().Order("name_of_expansion").Find(&sets).Error
		return sets, err
	})
}

func (s *SetService) Get(id int) (*model.Set, error) {
	var set model.Set
	if err := database.GetDB().First(&set, id).Error; err != nil {
		return nil, notFoundOr(err)
	}
	return &set, nil
}

func (s *SetService) Create(req entity.SetRequest) (*model.Set, error) {
	if err := s.checkSeries(req.SeriesId); err != nil {
		return nil, err
	}
	set := &model.Set{
		NameOfExpansion: req.NameOfExpansion,
		SeriesId:        req.SeriesId,
		SetAbb:          req.SetAbb,
	}
	if err := database.GetDB().Create(set).Error; err != nil {
		return nil, conflictOr(err)
	}
	cache.Invalidate(cache.KeySetList)
	return set, nil
}

func (s *SetService) Update(id int, req entity.SetUpdateRequest) (*model.Set, error) {
	updates := map[string]any{"updated_at": time.Now()}
	if req.NameOfExpansion != nil {
		updates["name_of_expansion"] = *req.NameOfExpansion
	}
	if req.SeriesId != nil {
		if err := s.checkSeries(*req.SeriesId); err != nil {
			return nil, err
		}
		updates["series_id"] = *req.SeriesId
	}
	if req.SetAbb != nil {
		updates["set_abb"] = *req.SetAbb
	}

	res := database.GetDB().Model(&model.Set{}).Where("id = ?", id).Updates(updates)
	if res.Error != nil {
		return nil, conflictOr(res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, ErrNotFound
	}
	cache.Invalidate(cache.KeySetList)
	return s.Get(id)
}

func (s *SetService) Delete(id int) error {
	if err := database.GetDB().Delete(&model.Set{}, id).Error; err != nil {
		return err
	}
	cache.Invalidate(cache.KeySetList)
	return nil
}

func (s *SetService) checkSeries(id int) error {
	ok, err := s.seriesService.exists(id)
	if err != nil {
		return err
	}
	if !ok {
		return invalidField("series_id", "series %d does not exist", id)
	}
	return nil
}
