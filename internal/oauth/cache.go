package oauth

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/giantswarm/connauth/pkg/logging"
)

// AcquireFunc performs one token acquisition. The context it receives is
// cancelled only once every caller waiting on the acquisition has given up.
type AcquireFunc func(ctx context.Context) (*Token, error)

// TokenCache is a thread-safe in-memory store of access tokens keyed by
// request signature. Concurrent GetOrAcquire calls for the same key share a
// single acquisition.
type TokenCache struct {
	mu     sync.RWMutex
	tokens map[CacheKey]*Token

	group singleflight.Group

	flightsMu sync.Mutex
	flights   map[string]*flight

	skew time.Duration
	now  func() time.Time
}

// flight tracks the callers waiting on one in-flight acquisition.
type flight struct {
	ctx     context.Context
	cancel  context.CancelFunc
	waiters int
}

// CacheOption configures a TokenCache.
type CacheOption func(*TokenCache)

// WithExpirySkew sets how long before its expiry a token stops being served.
func WithExpirySkew(skew time.Duration) CacheOption {
	return func(c *TokenCache) {
		if skew >= 0 {
			c.skew = skew
		}
	}
}

// WithCacheClock replaces time.Now, for tests.
func WithCacheClock(now func() time.Time) CacheOption {
	return func(c *TokenCache) {
		if now != nil {
			c.now = now
		}
	}
}

// NewTokenCache creates an empty token cache.
func NewTokenCache(opts ...CacheOption) *TokenCache {
	c := &TokenCache{
		tokens:  make(map[CacheKey]*Token),
		flights: make(map[string]*flight),
		skew:   DefaultExpirySkew,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Get returns the cached token for key, or nil when it is absent or
// expires within the skew. Expired entries stay in place until they are
// replaced or cleaned up.
func (c *TokenCache) Get(key CacheKey) *Token {
	c.mu.RLock()
	defer c.mu.RUnlock()

	token, ok := c.tokens[key]
	if !ok {
		return nil
	}
	if token.IsExpired(c.now(), c.skew) {
		return nil
	}
	return token
}

// Store saves token under key, replacing any previous entry.
func (c *TokenCache) Store(key CacheKey, token *Token) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.tokens[key] = token
	logging.Debug("TokenCache", "Stored token for endpoint=%s client=%s (expires: %s)",
		key.TokenEndpoint, logging.TruncateIdentifier(key.ClientID), token.ExpiresAt.Format(time.RFC3339))
}

// Delete removes the entry for key.
func (c *TokenCache) Delete(key CacheKey) {
	c.mu.Lock()
	defer c.mu.Unlock()

	delete(c.tokens, key)
	logging.Debug("TokenCache", "Invalidated token for endpoint=%s client=%s",
		key.TokenEndpoint, logging.TruncateIdentifier(key.ClientID))
}

// Clear removes every entry.
func (c *TokenCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	n := len(c.tokens)
	c.tokens = make(map[CacheKey]*Token)
	logging.Debug("TokenCache", "Cleared %d cached tokens", n)
}

// Len returns the number of entries, expired ones included.
func (c *TokenCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.tokens)
}

// GetOrAcquire returns the cached token for key, or runs acquire to obtain
// one. At most one acquire runs per key at any time; concurrent callers wait
// for it. The boolean result reports whether the token came from the cache
// without waiting for an acquisition.
//
// A caller whose ctx is already done gets ctx.Err() without any acquisition
// being started. If ctx is done while waiting, ctx.Err() is returned; the
// acquisition keeps running for the remaining waiters and is cancelled when
// the last one leaves. Failed or abandoned acquisitions are not cached.
func (c *TokenCache) GetOrAcquire(ctx context.Context, key CacheKey, acquire AcquireFunc) (*Token, bool, error) {
	if token := c.Get(key); token != nil {
		return token, true, nil
	}
	if err := ctx.Err(); err != nil {
		return nil, false, err
	}

	name := key.String()
	f := c.joinFlight(ctx, name)
	defer c.leaveFlight(name, f)

	ch := c.group.DoChan(name, func() (interface{}, error) {
		// Another flight may have finished between Get and DoChan.
		if token := c.Get(key); token != nil {
			return token, nil
		}
		token, err := acquire(f.ctx)
		if err != nil {
			return nil, err
		}
		if err := f.ctx.Err(); err != nil {
			return nil, err
		}
		c.Store(key, token)
		return token, nil
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			return nil, false, res.Err
		}
		return res.Val.(*Token), false, nil
	case <-ctx.Done():
		return nil, false, ctx.Err()
	}
}

// joinFlight registers the caller as a waiter on the flight for name,
// creating it when none is pending. The flight context keeps the values of
// the first caller's ctx but not its cancellation.
func (c *TokenCache) joinFlight(ctx context.Context, name string) *flight {
	c.flightsMu.Lock()
	defer c.flightsMu.Unlock()

	f, ok := c.flights[name]
	if !ok {
		flightCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
		f = &flight{ctx: flightCtx, cancel: cancel}
		c.flights[name] = f
	}
	f.waiters++
	return f
}

// leaveFlight drops one waiter. The last waiter out cancels the flight and
// makes the key start a fresh acquisition for later callers.
func (c *TokenCache) leaveFlight(name string, f *flight) {
	c.flightsMu.Lock()
	defer c.flightsMu.Unlock()

	f.waiters--
	if f.waiters > 0 {
		return
	}
	if c.flights[name] == f {
		delete(c.flights, name)
	}
	c.group.Forget(name)
	f.cancel()
}

// StartCleanup removes expired entries every interval until ctx is done.
func (c *TokenCache) StartCleanup(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		return
	}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				c.cleanup()
			case <-ctx.Done():
				return
			}
		}
	}()
}

// cleanup removes all entries that are past their true expiry.
func (c *TokenCache) cleanup() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	count := 0
	for key, token := range c.tokens {
		if token.IsExpired(now, 0) {
			delete(c.tokens, key)
			count++
		}
	}

	if count > 0 {
		logging.Debug("TokenCache", "Cleaned up %d expired tokens", count)
	}
	return count
}
