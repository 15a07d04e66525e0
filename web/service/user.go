package service

import (
	"time"

	"github.com/cardtracker/cardtracker/config"
	"github.com/cardtracker/cardtracker/database"
	"github.com/cardtracker/cardtracker/database/model"
	"github.com/cardtracker/cardtracker/util/crypto"
	"github.com/cardtracker/cardtracker/web/entity"

	"gorm.io/gorm"
)

type UserService struct{}

// List returns all non-deleted users ordered by username.
func (s *UserService) List() ([]model.User, error) {
	db := database.GetDB()
	users := make([]model.User, 0)
	err := db.Order("username").Find(&users).Error
	return users, err
}

// Get returns the user with its roles loaded.
func (s *UserService) Get(id int) (*model.User, error) {
	db := database.GetDB()
	var u model.User
	if err := db.Preload("Roles").First(&u, id).Error; err != nil {
		return nil, notFoundOr(err)
	}
	return &u, nil
}

// Create adds a user with the "user" role, plus "admin" when admin is set.
func (s *UserService) Create(username string, email *string, rawPassword string, admin bool) (*model.User, error) {
	return s.create(username, email, rawPassword, config.GetBcryptCost(), admin)
}

func (s *UserService) create(username string, email *string, rawPassword string, cost int, admin bool) (*model.User, error) {
	hash, err := crypto.HashPassword(rawPassword, cost)
	if err != nil {
		return nil, err
	}
	roleNames := []string{model.RoleUser}
	if admin {
		roleNames = append(roleNames, model.RoleAdmin)
	}

	u := &model.User{
		Username:     username,
		Email:        email,
		PasswordHash: hash,
	}
	err = database.GetDB().Transaction(func(tx *gorm.DB) error {
		var roles []model.Role
		if err := tx.Where("name IN ?", roleNames).Find(&roles).Error; err != nil {
			return err
		}
		if err := tx.Omit("Roles").Create(u).Error; err != nil {
			return err
		}
		return tx.Model(u).Association("Roles").Append(roles)
	})
	if err != nil {
		return nil, conflictOr(err)
	}
	return u, nil
}

// Update changes the username and/or email that are set in req.
func (s *UserService) Update(id int, req entity.UserUpdateRequest) (*model.User, error) {
	db := database.GetDB()

	updates := map[string]any{"updated_at": time.Now()}
	if req.Username != nil {
		updates["username"] = *req.Username
	}
	if req.Email != nil {
		updates["email"] = *req.Email
	}

	res := db.Model(&model.User{}).Where("id = ?", id).Updates(updates)
	if res.Error != nil {
		return nil, conflictOr(res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, ErrNotFound
	}
	return s.Get(id)
}

// Delete soft-deletes the user. Deleting a missing user is not an error.
func (s *UserService) Delete(id int) error {
	db := database.GetDB()
	return db.Delete(&model.User{}, id).Error
}

// GrantRole adds role to the user named username.
func (s *UserService) GrantRole(username, role string) error {
	db := database.GetDB()

	var u model.User
	if err := db.Where("username = ?", username).First(&u).Error; err != nil {
		return notFoundOr(err)
	}
	var r model.Role
	if err := db.Where("name = ?", role).First(&r).Error; err != nil {
		return notFoundOr(err)
	}
	return db.Model(&u).Association("Roles").Append(&r)
}

func notFoundOr(err error) error {
	if database.IsNotFound(err) {
		return ErrNotFound
	}
	return err
}

func conflictOr(err error) error {
	if database.IsDuplicate(err) {
		return ErrConflict
	}
	return err
}
