package tokencache

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCacheGet_ReusesValidToken(t *testing.T) {
	cache := New()
	creds := Credentials{AppKey: "key-1", AppSecret: "secret-1"}

	var grants int32
	grant := func(ctx context.Context) (Token, error) {
		atomic.AddInt32(&grants, 1)
		return Token{Value: "tok-1", ExpiresAt: time.Now().UTC().Add(time.Hour)}, nil
	}

	tok, err := cache.Get(context.Background(), creds, grant)
	require.NoError(t, err)
	assert.Equal(t, "tok-1", tok)

	// Second call must be served from the cache without a grant.
	tok, err = cache.Get(context.Background(), creds, grant)
	require.NoError(t, err)
	assert.Equal(t, "tok-1", tok)
	assert.Equal(t, int32(1), atomic.LoadInt32(&grants))
}

func TestCacheGet_GrantSurvivesInitiatorCancel(t *testing.T) {
	cache := New()
	creds := Credentials{AppKey: "key-1", AppSecret: "secret-1"}

	started := make(chan struct{})
	release := make(chan struct{})
	var grants int32
	grant := func(ctx context.Context) (Token, error) {
		atomic.AddInt32(&grants, 1)
		close(started)
		select {
		case <-release:
			return Token{Value: "tok-1", ExpiresAt: time.Now().UTC().Add(time.Hour)}, nil
		case <-ctx.Done():
			return Token{}, ctx.Err()
		}
	}

	// The initiator starts the grant flight and then gives up.
	initiatorCtx, cancel := context.WithCancel(context.Background())
	initiatorErr := make(chan error, 1)
	go func() {
		_, err := cache.Get(initiatorCtx, creds, grant)
		initiatorErr <- err
	}()
	<-started

	// A second caller with a healthy context joins the same flight.
	waiterTok := make(chan string, 1)
	waiterErr := make(chan error, 1)
	go func() {
		tok, err := cache.Get(context.Background(), creds, grant)
		waiterTok <- tok
		waiterErr <- err
	}()

	cancel()
	require.ErrorIs(t, <-initiatorErr, context.Canceled)

	// The flight outlives its initiator; the waiter still gets a token.
	close(release)
	require.NoError(t, <-waiterErr)
	assert.Equal(t, "tok-1", <-waiterTok)
	assert.Equal(t, int32(1), atomic.LoadInt32(&grants))
}

func TestCacheGet_RefreshesWithinSafetyMargin(t *testing.T) {
	cache := New()
	creds := Credentials{AppKey: "key-1", AppSecret: "secret-1"}

	var grants int32
	grant := func(ctx context.Context) (Token, error) {
		n := atomic.AddInt32(&grants, 1)
		if n == 1 {
			// Expires inside the safety margin: usable never.
			return Token{Value: "stale", ExpiresAt: time.Now().UTC().Add(time.Minute)}, nil
		}
		return Token{Value: "fresh", ExpiresAt: time.Now().UTC().Add(time.Hour)}, nil
	}

	tok, err := cache.Get(context.Background(), creds, grant)
	require.NoError(t, err)
	assert.Equal(t, "stale", tok)

	// The first token expires within the margin, so the next call grants again.
	tok, err = cache.Get(context.Background(), creds, grant)
	require.NoError(t, err)
	assert.Equal(t, "fresh", tok)
	assert.Equal(t, int32(2), atomic.LoadInt32(&grants))
}

func TestCacheGet_PartitionsByCredentialSet(t *testing.T) {
	cache := New()

	grantFor := func(value string) GrantFunc {
		return func(ctx context.Context) (Token, error) {
			return Token{Value: value, ExpiresAt: time.Now().UTC().Add(time.Hour)}, nil
		}
	}

	tokA, err := cache.Get(context.Background(), Credentials{AppKey: "a", AppSecret: "x"}, grantFor("token-a"))
	require.NoError(t, err)
	tokB, err := cache.Get(context.Background(), Credentials{AppKey: "b", AppSecret: "y"}, grantFor("token-b"))
	require.NoError(t, err)

	assert.Equal(t, "token-a", tokA)
	assert.Equal(t, "token-b", tokB)

	// Concatenation boundary must not collide: ("ab","c") vs ("a","bc").
	tok1, err := cache.Get(context.Background(), Credentials{AppKey: "ab", AppSecret: "c"}, grantFor("token-1"))
	require.NoError(t, err)
	tok2, err := cache.Get(context.Background(), Credentials{AppKey: "a", AppSecret: "bc"}, grantFor("token-2"))
	require.NoError(t, err)

	assert.Equal(t, "token-1", tok1)
	assert.Equal(t, "token-2", tok2)
}

func TestCacheGet_SingleGrantUnderConcurrency(t *testing.T) {
	cache := New()
	creds := Credentials{AppKey: "key-1", AppSecret: "secret-1"}

	var grants int32
	grant := func(ctx context.Context) (Token, error) {
		atomic.AddInt32(&grants, 1)
		time.Sleep(20 * time.Millisecond)
		return Token{Value: "tok", ExpiresAt: time.Now().UTC().Add(time.Hour)}, nil
	}

	const workers = 16
	var wg sync.WaitGroup
	errs := make([]error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = cache.Get(context.Background(), creds, grant)
		}(i)
	}
	wg.Wait()

	for _, err := range errs {
		require.NoError(t, err)
	}
	assert.Equal(t, int32(1), atomic.LoadInt32(&grants))
}

func TestCacheGet_GrantFailureIsNotCached(t *testing.T) {
	cache := New()
	creds := Credentials{AppKey: "key-1", AppSecret: "secret-1"}

	var grants int32
	grant := func(ctx context.Context) (Token, error) {
		n := atomic.AddInt32(&grants, 1)
		if n == 1 {
			return Token{}, errors.New("provider unavailable")
		}
		return Token{Value: "recovered", ExpiresAt: time.Now().UTC().Add(time.Hour)}, nil
	}

	_, err := cache.Get(context.Background(), creds, grant)
	require.Error(t, err)

	tok, err := cache.Get(context.Background(), creds, grant)
	require.NoError(t, err)
	assert.Equal(t, "recovered", tok)
}

func TestCacheInvalidate(t *testing.T) {
	cache := New()
	creds := Credentials{AppKey: "key-1", AppSecret: "secret-1"}

	var grants int32
	grant := func(ctx context.Context) (Token, error) {
		atomic.AddInt32(&grants, 1)
		return Token{Value: "tok", ExpiresAt: time.Now().UTC().Add(time.Hour)}, nil
	}

	_, err := cache.Get(context.Background(), creds, grant)
	require.NoError(t, err)

	cache.Invalidate(creds)

	_, err = cache.Get(context.Background(), creds, grant)
	require.NoError(t, err)
	assert.Equal(t, int32(2), atomic.LoadInt32(&grants))
}

func TestCredentialsDigest(t *testing.T) {
	a := Credentials{AppKey: "app", AppSecret: "sec"}
	b := Credentials{AppKey: "app", AppSecret: "sec"}
	c := Credentials{AppKey: "apps", AppSecret: "ec"}

	assert.Equal(t, a.Digest(), b.Digest())
	assert.NotEqual(t, a.Digest(), c.Digest())
}
