package service

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// OperatorClaims identifies the operator behind a campaign management call
type OperatorClaims struct {
	Name string `json:"name"`
	jwt.RegisteredClaims
}

// SignOperatorToken issues an HS256 bearer token for an operator
func SignOperatorToken(secretKey, name string, expireHours int) (string, error) {
	if expireHours <= 0 {
		expireHours = 24
	}
	now := time.Now()
	claims := OperatorClaims{
		Name: name,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   name,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Duration(expireHours) * time.Hour)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secretKey))
}
