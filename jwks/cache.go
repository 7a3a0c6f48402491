// Package jwks caches an issuer's published JSON Web Key Set with a fixed
// freshness window, so token verification does not hit the network on every
// request.
package jwks

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	jwtkit "github.com/open-rails/playkit/jwt"
)

// ErrFetch indicates the key set could not be retrieved from the issuer.
// The cache keeps its previous entry when this happens.
var ErrFetch = errors.New("jwks: key set fetch failed")

// DefaultTTL is how long a fetched key set is served without refetching.
const DefaultTTL = time.Hour

// Doer is the subset of *http.Client the cache needs.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

type entry struct {
	keys      jwtkit.JWKS
	fetchedAt time.Time
}

// Cache holds at most one key-set entry per issuer domain. Entries are
// replaced wholesale on refresh, never merged, so a concurrent reader sees
// either the old set or the new set and nothing in between.
type Cache struct {
	mu      sync.Mutex
	client  Doer
	now     func() time.Time
	ttl     time.Duration
	entries map[string]entry
}

// Option configures a Cache.
type Option func(*Cache)

// WithHTTPClient overrides the HTTP client used to fetch key sets.
func WithHTTPClient(d Doer) Option {
	return func(c *Cache) {
		if d != nil {
			c.client = d
		}
	}
}

// WithClock overrides the time source. Tests use this to expire entries
// without sleeping.
func WithClock(now func() time.Time) Option {
	return func(c *Cache) {
		if now != nil {
			c.now = now
		}
	}
}

// New creates a cache with the given TTL. If ttl <= 0, DefaultTTL is used.
func New(ttl time.Duration, opts ...Option) *Cache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	c := &Cache{
		client:  http.DefaultClient,
		now:     time.Now,
		ttl:     ttl,
		entries: make(map[string]entry),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Keys returns the issuer's key set, fetching it on first use or once the
// cached entry is older than the TTL. A fetch failure returns an ErrFetch
// wrapped error and leaves any previous entry in place; callers that can
// tolerate staleness may retry on their own schedule.
func (c *Cache) Keys(ctx context.Context, issuerDomain string) (jwtkit.JWKS, error) {
	c.mu.Lock()
	e, ok := c.entries[issuerDomain]
	fresh := ok && c.now().Sub(e.fetchedAt) < c.ttl
	c.mu.Unlock()
	if fresh {
		return e.keys, nil
	}

	// Two requests racing on a stale entry may both fetch; the fetch is
	// idempotent and the last writer wins a whole-value swap.
	ks, err := c.fetch(ctx, issuerDomain)
	if err != nil {
		return jwtkit.JWKS{}, err
	}

	c.mu.Lock()
	c.entries[issuerDomain] = entry{keys: ks, fetchedAt: c.now()}
	c.mu.Unlock()
	return ks, nil
}

// Refresh refetches the issuer's key set immediately and swaps it in. On
// failure the cached entry is left untouched, so a scheduled refresh against
// an unreachable issuer cannot evict a still-working key set.
func (c *Cache) Refresh(ctx context.Context, issuerDomain string) error {
	ks, err := c.fetch(ctx, issuerDomain)
	if err != nil {
		return err
	}
	c.mu.Lock()
	c.entries[issuerDomain] = entry{keys: ks, fetchedAt: c.now()}
	c.mu.Unlock()
	return nil
}

// Invalidate drops all cached entries so the next Keys call refetches
// regardless of TTL. Used on a kid miss to pick up rotated keys.
func (c *Cache) Invalidate() {
	c.mu.Lock()
	c.entries = make(map[string]entry)
	c.mu.Unlock()
}

func (c *Cache) fetch(ctx context.Context, issuerDomain string) (jwtkit.JWKS, error) {
	url := "https://" + issuerDomain + "/.well-known/jwks.json"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return jwtkit.JWKS{}, fmt.Errorf("%w: %v", ErrFetch, err)
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return jwtkit.JWKS{}, fmt.Errorf("%w: %v", ErrFetch, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return jwtkit.JWKS{}, fmt.Errorf("%w: %s returned status %d", ErrFetch, url, resp.StatusCode)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return jwtkit.JWKS{}, fmt.Errorf("%w: %v", ErrFetch, err)
	}
	ks, err := jwtkit.ParseJWKS(body)
	if err != nil {
		return jwtkit.JWKS{}, fmt.Errorf("%w: %v", ErrFetch, err)
	}
	return ks, nil
}
