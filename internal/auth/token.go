package auth

import (
	"time"

	"github.com/golang-jwt/jwt/v4"

	"quiz-gateway/internal/domain"
)

// Mint signs a token for the given identity, valid for ttl. Used by the
// token CLI command and by tests; the server itself never issues tokens.
func Mint(secret string, id domain.Identity, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		ID:    id.ID,
		Email: id.Email,
		Name:  id.Name,
		Role:  id.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}
