package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"petcare/internal/db"
)

// Claims is the session context derived from the token on every request.
// Nothing role-related is cached elsewhere; handlers read it from here.
type Claims struct {
	UserID int    `json:"user_id"`
	Phone  string `json:"phone,omitempty"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}

const RoleAdmin = "admin"

func IssueUserToken(secret string, user *db.User, ttl time.Duration) (string, error) {
	claims := Claims{
		UserID: user.ID,
		Phone:  user.Phone,
		Role:   user.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

func IssueAdminToken(secret string, adminID int, email string, ttl time.Duration) (string, error) {
	claims := Claims{
		UserID: adminID,
		Role:   RoleAdmin,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   email,
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

func ParseToken(secret, tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return []byte(secret), nil
	})
	if err != nil {
		return nil, err
	}
	if !token.Valid {
		return nil, fmt.Errorf("invalid token")
	}
	return claims, nil
}
