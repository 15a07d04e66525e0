// Package entity defines the request and response bodies of the HTTP API.
package entity

// Msg is the body of every non-validation error response.
type Msg struct {
	Message string `json:"message"`
}

// FieldError describes one invalid input field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationErrors is the 400 response body.
type ValidationErrors struct {
	Errors []FieldError `json:"errors"`
}

type RegisterRequest struct {
	Username string  `json:"username" binding:"required"`
	Email    *string `json:"email" binding:"omitnil,email"`
	Password string  `json:"password" binding:"required,min=6"`
}

type RegisterResponse struct {
	Id       int     `json:"id"`
	Username string  `json:"username"`
	Email    *string `json:"email"`
}

// LoginRequest identifies the user by email when given, otherwise by username.
type LoginRequest struct {
	Username string `json:"username"`
	Email    string `json:"email" binding:"omitempty,email"`
	Password string `json:"password" binding:"required"`
}

type TokenResponse struct {
	Token string `json:"token"`
}

type MeResponse struct {
	Id       int      `json:"id"`
	Username string   `json:"username"`
	Roles    []string `json:"roles"`
}

type UserCreateRequest struct {
	Username string  `json:"username" binding:"required"`
	Email    *string `json:"email" binding:"omitnil,email"`
	Password string  `json:"password" binding:"required,min=6"`
	Admin    bool    `json:"admin"`
}

type UserUpdateRequest struct {
	Username *string `json:"username" binding:"omitnil,min=1"`
	Email    *string `json:"email" binding:"omitnil,email"`
}

// CardCreateRequest may omit type_id when the card can be matched to a type
// through its TCG subtypes.
type CardCreateRequest struct {
	Name        string   `json:"name" binding:"required"`
	SetId       int      `json:"set_id" binding:"required,min=1"`
	TypeId      int      `json:"type_id" binding:"omitempty,min=1"`
	NoInSet     *int     `json:"no_in_set" binding:"omitnil,min=1"`
	ImageSmall  *string  `json:"image_small" binding:"omitnil,url"`
	ImageLarge  *string  `json:"image_large" binding:"omitnil,url"`
	Rarity      *string  `json:"rarity"`
	PriceLow    *float64 `json:"price_low" binding:"omitnil,gte=0"`
	PriceMid    *float64 `json:"price_mid" binding:"omitnil,gte=0"`
	PriceHigh   *float64 `json:"price_high" binding:"omitnil,gte=0"`
	PriceMarket *float64 `json:"price_market" binding:"omitnil,gte=0"`
}

// CardUpdateRequest only changes the fields that are present.
type CardUpdateRequest struct {
	Name        *string  `json:"name" binding:"omitnil,min=1"`
	SetId       *int     `json:"set_id" binding:"omitnil,min=1"`
	TypeId      *int     `json:"type_id" binding:"omitnil,min=1"`
	NoInSet     *int     `json:"no_in_set" binding:"omitnil,min=1"`
	ImageSmall  *string  `json:"image_small" binding:"omitnil,url"`
	ImageLarge  *string  `json:"image_large" binding:"omitnil,url"`
	Rarity      *string  `json:"rarity"`
	PriceLow    *float64 `json:"price_low" binding:"omitnil,gte=0"`
	PriceMid    *float64 `json:"price_mid" binding:"omitnil,gte=0"`
	PriceHigh   *float64 `json:"price_high" binding:"omitnil,gte=0"`
	PriceMarket *float64 `json:"price_market" binding:"omitnil,gte=0"`
}

// SearchQuery holds the card search parameters. Zero ids mean "any".
type SearchQuery struct {
	Q      string `form:"q"`
	Series int    `form:"series" binding:"omitempty,min=0"`
	Set    int    `form:"set" binding:"omitempty,min=0"`
	Type   int    `form:"type" binding:"omitempty,min=0"`
	Rarity string `form:"rarity"`
}

type SeriesRequest struct {
	Name string `json:"name" binding:"required"`
}

type SeriesUpdateRequest struct {
	Name *string `json:"name" binding:"omitnil,min=1"`
}

type SetRequest struct {
	NameOfExpansion string  `json:"name_of_expansion" binding:"required"`
	SeriesId        int     `json:"series_id" binding:"required,min=1"`
	SetAbb          *string `json:"set_abb"`
}

type SetUpdateRequest struct {
	NameOfExpansion *string `json:"name_of_expansion" binding:"omitnil,min=1"`
	SeriesId        *int    `json:"series_id" binding:"omitnil,min=1"`
	SetAbb          *string `json:"set_abb"`
}

type CardTypeRequest struct {
	Name     string  `json:"name" binding:"required"`
	Category *string `json:"category"`
}

type CardTypeUpdateRequest struct {
	Name     *string `json:"name" binding:"omitnil,min=1"`
	Category *string `json:"category"`
}

// TCGSearchQuery lists the parameters forwarded to the TCG card search.
type TCGSearchQuery struct {
	Q        string `form:"q"`
	Page     string `form:"page"`
	PageSize string `form:"pageSize"`
	OrderBy  string `form:"orderBy"`
	Select   string `form:"select"`
}
