package auth

import (
	"fmt"

	"github.com/golang-jwt/jwt/v4"

	"quiz-gateway/internal/domain"
)

// Claims is the token payload the gateway understands. Role is optional and
// defaults to "user" when absent.
type Claims struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
	Role  string `json:"role"`
	jwt.RegisteredClaims
}

// Verifier validates bearer tokens and extracts caller identities. It holds
// no mutable state and is safe for concurrent use.
type Verifier struct {
	secret    []byte
	testToken string
}

// NewVerifier builds a Verifier for HS256 tokens signed with secret.
// testToken, when non-empty, is accepted verbatim and maps to a fixed admin
// identity; leave it empty outside test environments.
func NewVerifier(secret, testToken string) *Verifier {
	return &Verifier{secret: []byte(secret), testToken: testToken}
}

// Verify parses and validates credential and returns the caller identity.
func (v *Verifier) Verify(credential string) (domain.Identity, error) {
	if credential == "" {
		return domain.Identity{}, domain.ErrNoToken
	}
	if v.testToken != "" && credential == v.testToken {
		return domain.Identity{ID: "test-user", Name: "Test User", Role: domain.RoleAdmin}, nil
	}

	claims := &Claims{}
	token, err := jwt.ParseWithClaims(credential, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return v.secret, nil
	})
	if err != nil || !token.Valid {
		return domain.Identity{}, domain.ErrInvalidToken
	}

	role := claims.Role
	if role == "" {
		role = domain.RoleUser
	}
	return domain.Identity{
		ID:    claims.ID,
		Email: claims.Email,
		Name:  claims.Name,
		Role:  role,
	}, nil
}
