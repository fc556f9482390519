// Package auth parses the reviewer identity injected by the calling
// context. Credentials and user accounts live outside this service; only
// bearer-token claims are read here.
package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const (
	RoleAdmin    = "admin"
	RoleHR       = "hr"
	RoleManager  = "manager"
	RoleEmployee = "employee"
)

type Claims struct {
	EmployeeID string `json:"eid"`
	Role       string `json:"role"`
	jwt.RegisteredClaims
}

// UserContext is the request-scoped identity placed on the context by the
// auth middleware.
type UserContext struct {
	EmployeeID string
	Role       string
}

// CanWriteReviews reports whether the role may create, edit or delete
// reviews.
func (u UserContext) CanWriteReviews() bool {
	return u.Role == RoleManager || u.Role == RoleHR || u.Role == RoleAdmin
}

// CanCloseCycles reports whether the role may administratively close a
// cycle.
func (u UserContext) CanCloseCycles() bool {
	return u.Role == RoleHR || u.Role == RoleAdmin
}

func GenerateToken(secret string, claims Claims, ttl time.Duration) (string, error) {
	claims.RegisteredClaims = jwt.RegisteredClaims{
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(ttl)),
		IssuedAt:  jwt.NewNumericDate(time.Now()),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

func ParseToken(secret, tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if token.Method != jwt.SigningMethodHS256 {
			return nil, errors.New("unexpected signing method")
		}
		return []byte(secret), nil
	})
	if err != nil {
		return nil, err
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, errors.New("invalid token")
	}
	return claims, nil
}
