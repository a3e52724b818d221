package utils

import (
	"errors"
	"fmt"
	"site-inventory/internal/models"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// JWTClaims carries the caller identity and the permissions already granted
// by the identity service.
type JWTClaims struct {
	UserID      int      `json:"user_id"`
	Username    string   `json:"username"`
	Role        string   `json:"role"`
	Permissions []string `json:"permissions"`
	jwt.RegisteredClaims
}

func (c *JWTClaims) Actor() models.Actor {
	return models.Actor{
		UserID:      c.UserID,
		Username:    c.Username,
		Role:        c.Role,
		Permissions: c.Permissions,
	}
}

func GenerateAccessToken(actor models.Actor, secret string, expire time.Duration) (string, error) {
	now := time.Now()
	claims := JWTClaims{
		UserID:      actor.UserID,
		Username:    actor.Username,
		Role:        actor.Role,
		Permissions: actor.Permissions,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   fmt.Sprintf("%d", actor.UserID),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(expire)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

func ValidateToken(tokenString, secret string) (*JWTClaims, error) {
	claims := &JWTClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		return []byte(secret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return nil, err
	}
	if !token.Valid {
		return nil, errors.New("invalid token")
	}
	return claims, nil
}
