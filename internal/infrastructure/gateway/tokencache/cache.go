// Package tokencache holds gateway bearer tokens for reuse across
// concurrent checkout requests. One cache instance serves the whole
// process; it is injected into gateway clients, never reached through
// package state.
package tokencache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/FlexpointLLC/sellium-sub001/internal/shared/biztime"
)

// DefaultSafetyMargin is subtracted from a token's stated expiry before
// reuse, so a token is refreshed well before the provider rejects it.
const DefaultSafetyMargin = 5 * time.Minute

// Credentials identify one merchant credential set. Tokens are partitioned
// by the credential values themselves, so two stores only ever share a
// token when they present the exact same key and secret.
type Credentials struct {
	AppKey    string
	AppSecret string
}

// Digest returns the cache key for the credential set.
func (c Credentials) Digest() string {
	h := sha256.New()
	h.Write([]byte(c.AppKey))
	h.Write([]byte{0})
	h.Write([]byte(c.AppSecret))
	return hex.EncodeToString(h.Sum(nil))
}

// Token is an immutable grant result. Refreshes store a new value;
// nothing mutates a cached token in place.
type Token struct {
	Value     string
	ExpiresAt time.Time
}

// GrantFunc performs the provider token-grant call for one credential set.
type GrantFunc func(ctx context.Context) (Token, error)

// Cache is a process-wide bearer-token cache keyed by credential digest.
// Readers holding a valid token never block; expired entries are refreshed
// under a per-key singleflight so concurrent expiry produces exactly one
// grant round trip. There is no eviction beyond expiry-driven replacement;
// the key space is bounded by the number of distinct merchant credential
// sets.
type Cache struct {
	mu     sync.RWMutex
	tokens map[string]Token

	group  singleflight.Group
	margin time.Duration
}

func New() *Cache {
	return NewWithMargin(DefaultSafetyMargin)
}

func NewWithMargin(margin time.Duration) *Cache {
	return &Cache{
		tokens: make(map[string]Token),
		margin: margin,
	}
}

// Get returns a cached token while it is still comfortably valid,
// otherwise runs grant and stores the result. A failed grant returns the
// error as-is; no stale token is ever served after its margin has passed.
func (c *Cache) Get(ctx context.Context, creds Credentials, grant GrantFunc) (string, error) {
	key := creds.Digest()

	if tok, ok := c.lookup(key); ok {
		return tok.Value, nil
	}

	// The flight is shared by every caller waiting on this key, so it
	// must not die with whichever caller happened to start it. Callers
	// that give up still return on their own ctx below.
	grantCtx := context.WithoutCancel(ctx)

	ch := c.group.DoChan(key, func() (interface{}, error) {
		// Another caller may have refreshed while we queued.
		if tok, ok := c.lookup(key); ok {
			return tok.Value, nil
		}

		tok, err := grant(grantCtx)
		if err != nil {
			return "", err
		}

		c.mu.Lock()
		c.tokens[key] = tok
		c.mu.Unlock()

		return tok.Value, nil
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			return "", res.Err
		}
		return res.Val.(string), nil
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

// Invalidate drops the cached token for a credential set. Used when the
// provider rejects a token before its stated expiry.
func (c *Cache) Invalidate(creds Credentials) {
	c.mu.Lock()
	delete(c.tokens, creds.Digest())
	c.mu.Unlock()
}

func (c *Cache) lookup(key string) (Token, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	tok, ok := c.tokens[key]
	if !ok {
		return Token{}, false
	}
	if !biztime.NowUTC().Before(tok.ExpiresAt.Add(-c.margin)) {
		return Token{}, false
	}
	return tok, true
}
