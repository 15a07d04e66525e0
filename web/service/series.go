package service

import (
	"time"

	"github.com/cardtracker/cardtracker/database"
	"github.com/cardtracker/cardtracker/database/model"
	"github.com/cardtracker/cardtracker/web/cache"
	"github.com/cardtracker/cardtracker/web/entity"
)

type SeriesService struct{}

func (s *SeriesService) List() ([]model.Series, error) {
	return cache.GetOrSet(cache.KeySeriesList, cache.TTLReference, func() ([]model.Series, error) {
		series := make([]model.Series, 0)
		err := database.GetDB().Order("name").Find(&series).Error
		return series, err
	})
}

func (s *SeriesService) Get(id int) (*model.Series, error) {
	var series model.Series
	if err := database.GetDB().First(&series, id).Error; err != nil {
		return nil, notFoundOr(err)
	}
	return &series, nil
}

func (s *SeriesService) Create(req entity.SeriesRequest) (*model.Series, error) {
	series := &model.Series{Name: req.Name}
	if err := database.GetDB().Create(series).Error; err != nil {
		return nil, conflictOr(err)
	}
	cache.Invalidate(cache.KeySeriesList)
	return series, nil
}

func (s *SeriesService) Update(id int, req entity.SeriesUpdateRequest) (*model.Series, error) {
	updates := map[string]any{"updated_at": time.Now()}
	if req.Name != nil {
		updates["name"] = *req.Name
	}
	res := database.GetDB().Model(&model.Series{}).Where("id = ?", id).Updates(updates)
	if res.Error != nil {
		return nil, conflictOr(res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, ErrNotFound
	}
	cache.Invalidate(cache.KeySeriesList)
	return s.Get(id)
}

func (s *SeriesService) Delete(id int) error {
	if err := database.GetDB().Delete(&model.Series{}, id).Error; err != nil {
		return err
	}
	cache.Invalidate(cache.KeySeriesList)
	return nil
}

// exists reports whether a non-deleted series with id exists.
func (s *SeriesService) exists(id int) (bool, error) {
	var count int64
	err := database.GetDB().Model(&model.Series{}).Where("id = ?", id).Count(&count).Error
	return count > 0, err
}
