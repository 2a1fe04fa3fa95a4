package auth

import (
	"context"
	"errors"
	"strings"

	"github.com/golang-jwt/jwt/v4"
)

// Claims carries the subset of token claims this service consumes.
type Claims struct {
	Subject string
	Email   string
}

// TokenVerifier checks a bearer token and returns its claims. Exactly one
// strategy is wired at startup; local verification against the cached key set
// is the system of record.
type TokenVerifier interface {
	Verify(ctx context.Context, token string) (*Claims, error)
}

type tokenClaims struct {
	Email string `json:"email"`
	jwt.RegisteredClaims
}

// JWKSVerifier verifies tokens locally: RS256 signature against the cached
// key set, standard expiry check, and audience when configured.
type JWKSVerifier struct {
	cache    *KeyCache
	audience string
}

func NewJWKSVerifier(cache *KeyCache, audience string) *JWKSVerifier {
	return &JWKSVerifier{cache: cache, audience: audience}
}

func (v *JWKSVerifier) Verify(ctx context.Context, raw string) (*Claims, error) {
	set, err := v.cache.Keys(ctx)
	if err != nil {
		return nil, err
	}

	parser := jwt.NewParser(jwt.WithValidMethods([]string{jwt.SigningMethodRS256.Alg()}))

	var claims tokenClaims
	_, err = parser.ParseWithClaims(raw, &claims, func(t *jwt.Token) (interface{}, error) {
		kid, _ := t.Header["kid"].(string)
		if kid == "" {
			return nil, Failed("Invalid token key")
		}
		matches := set.Key(kid)
		if len(matches) == 0 {
			return nil, Failed("Invalid token key")
		}
		return matches[0].Key, nil
	})
	if err != nil {
		var authErr *AuthError
		switch {
		case errors.As(err, &authErr):
			return nil, authErr
		case errors.Is(err, jwt.ErrTokenExpired):
			return nil, Failed("Token has expired")
		default:
			return nil, Failed("Invalid token")
		}
	}

	if v.audience != "" && !claims.VerifyAudience(v.audience, true) {
		return nil, Failed("Invalid token")
	}

	sub := strings.TrimSpace(claims.Subject)
	if sub == "" {
		return nil, Failed("Invalid token")
	}
	return &Claims{Subject: sub, Email: claims.Email}, nil
}
