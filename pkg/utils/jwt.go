package utils

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const (
	RoleAdmin   = "admin"
	RoleManager = "manager"
)

type AdminClaims struct {
	AdminID string `json:"id"`
	Role    string `json:"role"`
	jwt.RegisteredClaims
}

// CreateAdminToken signs an HS256 admin session valid for ttl.
func CreateAdminToken(secret []byte, adminID string, role string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := &AdminClaims{
		AdminID: adminID,
		Role:    role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   adminID,
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(secret)
}

func ValidateAdminToken(secret []byte, tokenString string) (*AdminClaims, error) {
	claims := &AdminClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		return secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return nil, err
	}
	if !token.Valid {
		return nil, errors.New("token is not valid")
	}

	return claims, nil
}

func (c *AdminClaims) HasAdminRole() bool {
	return c.Role == RoleAdmin || c.Role == RoleManager
}
