package service

import (
	"errors"
	"strconv"
	"time"

	"github.com/cardtracker/cardtracker/config"
	"github.com/cardtracker/cardtracker/database"
	"github.com/cardtracker/cardtracker/database/model"
	"github.com/cardtracker/cardtracker/util/crypto"

	"github.com/golang-jwt/jwt/v5"
)

// Claims is the payload of an access token. The subject is the user id.
type Claims struct {
	Username string   `json:"username"`
	Roles    []string `json:"roles"`
	jwt.RegisteredClaims
}

// UserId returns the numeric user id carried in the subject.
func (c *Claims) UserId() (int, error) {
	return strconv.Atoi(c.Subject)
}

// AuthService registers users, checks credentials and issues/validates
// HS256 bearer tokens.
type AuthService struct {
	JWTSecret  []byte
	TTL        time.Duration
	BcryptCost int

	userService UserService
}

func NewAuthService() *AuthService {
	return &AuthService{
		JWTSecret:  []byte(config.GetJWTSecret()),
		TTL:        config.GetJWTTTL(),
		BcryptCost: config.GetBcryptCost(),
	}
}

// Register creates a user with the default "user" role.
func (s *AuthService) Register(username string, email *string, rawPassword string) (*model.User, error) {
	return s.userService.create(username, email, rawPassword, s.BcryptCost, false)
}

// Login checks the password of the user found by email, or by username when
// email is empty, and returns a signed token.
func (s *AuthService) Login(username, email, rawPassword string) (string, error) {
	db := database.GetDB()

	query := db.Preload("Roles")
	if email != "" {
		query = query.Where("email = ?", email)
	} else {
		query = query.Where("username = ?", username)
	}

	var u model.User
	if err := query.First(&u).Error; err != nil {
		if database.IsNotFound(err) {
			return "", ErrInvalidCredentials
		}
		return "", err
	}
	if !crypto.CheckPasswordHash(u.PasswordHash, rawPassword) {
		return "", ErrInvalidCredentials
	}
	return s.IssueToken(&u)
}

// IssueToken signs a token for u, whose roles must be loaded.
func (s *AuthService) IssueToken(u *model.User) (string, error) {
	now := time.Now()
	claims := Claims{
		Username: u.Username,
		Roles:    u.RoleNames(),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.Itoa(u.Id),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.TTL)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.JWTSecret)
}

// ParseToken validates signature, algorithm and expiry.
func (s *AuthService) ParseToken(token string) (*Claims, error) {
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (any, error) {
		return s.JWTSecret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired())
	if err != nil {
		return nil, errors.Join(ErrInvalidToken, err)
	}
	if _, err := claims.UserId(); err != nil {
		return nil, errors.Join(ErrInvalidToken, err)
	}
	return claims, nil
}
