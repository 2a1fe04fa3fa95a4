package auth

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	jose "github.com/go-jose/go-jose/v4"
	"github.com/golang-jwt/jwt/v4"
	"github.com/stretchr/testify/require"
)

type jwksFixture struct {
	key     *rsa.PrivateKey
	kid     string
	server  *httptest.Server
	fetches atomic.Int64
}

func newJWKSFixture(t *testing.T) *jwksFixture {
	t.Helper()

	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	f := &jwksFixture{key: key, kid: "key-1"}
	set := jose.JSONWebKeySet{Keys: []jose.JSONWebKey{{
		Key:       &key.PublicKey,
		KeyID:     f.kid,
		Algorithm: "RS256",
		Use:       "sig",
	}}}
	doc, err := json.Marshal(set)
	require.NoError(t, err)

	f.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		f.fetches.Add(1)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write(doc)
	}))
	t.Cleanup(f.server.Close)
	return f
}

func (f *jwksFixture) sign(t *testing.T, kid string, claims jwt.Claims) string {
	t.Helper()
	tok := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)
	tok.Header["kid"] = kid
	raw, err := tok.SignedString(f.key)
	require.NoError(t, err)
	return raw
}

func validClaims(sub, email string) jwt.MapClaims {
	return jwt.MapClaims{
		"sub":   sub,
		"email": email,
		"aud":   "authenticated",
		"exp":   time.Now().Add(time.Hour).Unix(),
	}
}

func TestVerifyValidToken(t *testing.T) {
	f := newJWKSFixture(t)
	v := NewJWKSVerifier(NewKeyCache(f.server.URL, time.Hour), "authenticated")

	raw := f.sign(t, f.kid, validClaims("user-123", "user@example.com"))
	claims, err := v.Verify(context.Background(), raw)
	require.NoError(t, err)
	require.Equal(t, "user-123", claims.Subject)
	require.Equal(t, "user@example.com", claims.Email)
}

func TestVerifyExpiredToken(t *testing.T) {
	f := newJWKSFixture(t)
	v := NewJWKSVerifier(NewKeyCache(f.server.URL, time.Hour), "authenticated")

	raw := f.sign(t, f.kid, jwt.MapClaims{
		"sub": "user-123",
		"aud": "authenticated",
		"exp": time.Now().Add(-time.Hour).Unix(),
	})
	_, err := v.Verify(context.Background(), raw)
	require.Error(t, err)
	require.Equal(t, "Token has expired", err.Error())
}

func TestVerifyUnknownKeyID(t *testing.T) {
	f := newJWKSFixture(t)
	v := NewJWKSVerifier(NewKeyCache(f.server.URL, time.Hour), "authenticated")

	raw := f.sign(t, "no-such-kid", validClaims("user-123", ""))
	_, err := v.Verify(context.Background(), raw)
	require.Error(t, err)
	require.Equal(t, "Invalid token key", err.Error())
}

func TestVerifyWrongAudience(t *testing.T) {
	f := newJWKSFixture(t)
	v := NewJWKSVerifier(NewKeyCache(f.server.URL, time.Hour), "authenticated")

	raw := f.sign(t, f.kid, jwt.MapClaims{
		"sub": "user-123",
		"aud": "somebody-else",
		"exp": time.Now().Add(time.Hour).Unix(),
	})
	_, err := v.Verify(context.Background(), raw)
	require.Error(t, err)
	require.Equal(t, "Invalid token", err.Error())
}

func TestVerifyMissingAudience(t *testing.T) {
	f := newJWKSFixture(t)
	v := NewJWKSVerifier(NewKeyCache(f.server.URL, time.Hour), "authenticated")

	raw := f.sign(t, f.kid, jwt.MapClaims{
		"sub": "user-123",
		"exp": time.Now().Add(time.Hour).Unix(),
	})
	_, err := v.Verify(context.Background(), raw)
	require.Error(t, err)
	require.Equal(t, "Invalid token", err.Error())
}

func TestVerifyMissingSubject(t *testing.T) {
	f := newJWKSFixture(t)
	v := NewJWKSVerifier(NewKeyCache(f.server.URL, time.Hour), "authenticated")

	raw := f.sign(t, f.kid, jwt.MapClaims{
		"aud": "authenticated",
		"exp": time.Now().Add(time.Hour).Unix(),
	})
	_, err := v.Verify(context.Background(), raw)
	require.Error(t, err)
	require.Equal(t, "Invalid token", err.Error())
}

func TestKeyCacheFetchesOncePerTTL(t *testing.T) {
	f := newJWKSFixture(t)

	clock := time.Now()
	cache := NewKeyCache(f.server.URL, time.Hour)
	cache.now = func() time.Time { return clock }

	v := NewJWKSVerifier(cache, "authenticated")
	raw := f.sign(t, f.kid, validClaims("user-123", ""))

	for i := 0; i < 3; i++ {
		_, err := v.Verify(context.Background(), raw)
		require.NoError(t, err)
	}
	require.EqualValues(t, 1, f.fetches.Load())

	// Past the TTL the next verification refetches, once.
	clock = clock.Add(61 * time.Minute)
	_, err := v.Verify(context.Background(), raw)
	require.NoError(t, err)
	require.EqualValues(t, 2, f.fetches.Load())
}

func TestKeyCacheFetchFailureIsHardError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	cache := NewKeyCache(server.URL, time.Hour)
	_, err := cache.Keys(context.Background())
	require.Error(t, err)

	var authErr *AuthError
	require.ErrorAs(t, err, &authErr)
}
