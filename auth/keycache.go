package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	jose "github.com/go-jose/go-jose/v4"
)

// KeyCache holds the identity provider's published signing keys for a fixed
// TTL. It is constructed once at process start and shared across all
// verification calls. Concurrent refreshes are harmless: the key set is
// idempotent data, last writer wins.
type KeyCache struct {
	url    string
	ttl    time.Duration
	client *http.Client
	now    func() time.Time

	mu        sync.RWMutex
	keys      *jose.JSONWebKeySet
	fetchedAt time.Time
}

// NewKeyCache builds a cache for the JWKS document at url, kept for ttl.
func NewKeyCache(url string, ttl time.Duration) *KeyCache {
	return &KeyCache{
		url:    url,
		ttl:    ttl,
		client: http.DefaultClient,
		now:    time.Now,
	}
}

// Keys returns the cached key set, fetching from the provider on the first
// call or after expiry. A failed fetch is a hard authentication error; there
// is no retry, one provider round trip per cache miss.
func (kc *KeyCache) Keys(ctx context.Context) (*jose.JSONWebKeySet, error) {
	kc.mu.RLock()
	if kc.keys != nil && kc.now().Sub(kc.fetchedAt) < kc.ttl {
		keys := kc.keys
		kc.mu.RUnlock()
		return keys, nil
	}
	kc.mu.RUnlock()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, kc.url, nil)
	if err != nil {
		return nil, Failed("Authentication failed: " + err.Error())
	}
	resp, err := kc.client.Do(req)
	if err != nil {
		return nil, Failed("Authentication failed: " + err.Error())
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, Failed(fmt.Sprintf("Authentication failed: key set fetch returned %d", resp.StatusCode))
	}

	var set jose.JSONWebKeySet
	if err := json.NewDecoder(resp.Body).Decode(&set); err != nil {
		return nil, Failed("Authentication failed: " + err.Error())
	}

	kc.mu.Lock()
	kc.keys = &set
	kc.fetchedAt = kc.now()
	kc.mu.Unlock()
	return &set, nil
}
