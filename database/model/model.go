// Package model contains the persisted entities of the card tracker.
//
// Every entity is soft-deleted through gorm.DeletedAt: Delete sets
// deleted_at and queries built from the model skip such rows.
package model

import (
	"time"

	"gorm.io/gorm"
)

const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

type Role struct {
	Id   int    `json:"id" gorm:"primaryKey;autoIncrement"`
	Name string `json:"name" gorm:"uniqueIndex;not null"`
}

type User struct {
	Id           int            `json:"id" gorm:"primaryKey;autoIncrement"`
	Username     string         `json:"username" gorm:"uniqueIndex;not null"`
	Email        *string        `json:"email" gorm:"uniqueIndex"`
	PasswordHash string         `json:"-" gorm:"not null"`
	Roles        []Role         `json:"-" gorm:"many2many:user_roles;"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
	DeletedAt    gorm.DeletedAt `json:"-" gorm:"index"`
}

// RoleNames returns the names of the loaded roles.
func (u *User) RoleNames() []string {
	names := make([]string, 0, len(u.Roles))
	for _, r := range u.Roles {
		names = append(names, r.Name)
	}
	return names
}

// HasRole reports whether the loaded roles contain name.
func (u *User) HasRole(name string) bool {
	for _, r := range u.Roles {
		if r.Name == name {
			return true
		}
	}
	return false
}

type Series struct {
	Id        int            `json:"id" gorm:"primaryKey;autoIncrement"`
	Name      string         `json:"name" gorm:"not null"`
	CreatedAt time.Time      `json:"-"`
	UpdatedAt time.Time      `json:"-"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`
}

// Set is an expansion within a series. SetAbb is the code the TCG API uses
// as the prefix of its card ids, e.g. "base1".
type Set struct {
	Id              int            `json:"id" gorm:"primaryKey;autoIncrement"`
	NameOfExpansion string         `json:"name_of_expansion" gorm:"not null"`
	SeriesId        int            `json:"series_id" gorm:"index;not null"`
	SetAbb          *string        `json:"set_abb"`
	CreatedAt       time.Time      `json:"created_at"`
	UpdatedAt       time.Time      `json:"updated_at"`
	DeletedAt       gorm.DeletedAt `json:"deleted_at" gorm:"index"`
}

type CardType struct {
	Id        int            `json:"id" gorm:"primaryKey;autoIncrement"`
	Name      string         `json:"name" gorm:"not null"`
	Category  *string        `json:"category"`
	CreatedAt time.Time      `json:"-"`
	UpdatedAt time.Time      `json:"-"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`
}

type Card struct {
	Id          int            `json:"id" gorm:"primaryKey;autoIncrement"`
	Name        string         `json:"name" gorm:"not null"`
	SetId       int            `json:"set_id" gorm:"index;not null"`
	TypeId      int            `json:"type_id" gorm:"index;not null"`
	UserId      int            `json:"user_id" gorm:"index;not null"`
	NoInSet     *int           `json:"no_in_set"`
	ImageSmall  *string        `json:"image_small"`
	ImageLarge  *string        `json:"image_large"`
	Rarity      *string        `json:"rarity" gorm:"index"`
	PriceLow    *float64       `json:"price_low"`
	PriceMid    *float64       `json:"price_mid"`
	PriceHigh   *float64       `json:"price_high"`
	PriceMarket *float64       `json:"price_market"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `json:"deleted_at" gorm:"index"`
}

// CardView is a card joined with the names of its series, set, type and owner.
type CardView struct {
	Card
	SeriesId   int    `json:"series_id"`
	SeriesName string `json:"series_name"`
	SetName    string `json:"set_name"`
	TypeName   string `json:"type_name"`
	UserName   string `json:"user_name"`
}
