package jwks_test

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/open-rails/playkit/jwks"
)

// stubDoer serves a canned JWKS document and counts fetches.
type stubDoer struct {
	mu     sync.Mutex
	body   string
	status int
	calls  int
}

func (d *stubDoer) Do(req *http.Request) (*http.Response, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.calls++
	status := d.status
	if status == 0 {
		status = http.StatusOK
	}
	return &http.Response{
		StatusCode: status,
		Body:       io.NopCloser(strings.NewReader(d.body)),
		Request:    req,
	}, nil
}

func (d *stubDoer) count() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.calls
}

const oneKeyDoc = `{"keys":[{"kty":"RSA","kid":"k1","n":"sXch","e":"AQAB"}]}`

func TestKeys_CachedWithinTTL(t *testing.T) {
	doer := &stubDoer{body: oneKeyDoc}
	c := jwks.New(time.Hour, jwks.WithHTTPClient(doer))

	for i := 0; i < 3; i++ {
		ks, err := c.Keys(context.Background(), "example.com")
		if err != nil {
			t.Fatalf("call %d: %v", i, err)
		}
		if len(ks.Keys) != 1 || ks.Keys[0].Kid != "k1" {
			t.Fatalf("call %d: unexpected key set %+v", i, ks)
		}
	}
	if doer.count() != 1 {
		t.Fatalf("expected a single fetch within the TTL, got %d", doer.count())
	}
}

func TestKeys_RefetchAfterTTL(t *testing.T) {
	doer := &stubDoer{body: oneKeyDoc}
	now := time.Unix(1_700_000_000, 0)
	c := jwks.New(time.Hour,
		jwks.WithHTTPClient(doer),
		jwks.WithClock(func() time.Time { return now }),
	)

	if _, err := c.Keys(context.Background(), "example.com"); err != nil {
		t.Fatal(err)
	}

	// One second short of the TTL: still cached.
	now = now.Add(time.Hour - time.Second)
	if _, err := c.Keys(context.Background(), "example.com"); err != nil {
		t.Fatal(err)
	}
	if doer.count() != 1 {
		t.Fatalf("entry expired early, %d fetches", doer.count())
	}

	// At the TTL boundary the entry is stale.
	now = now.Add(time.Second)
	if _, err := c.Keys(context.Background(), "example.com"); err != nil {
		t.Fatal(err)
	}
	if doer.count() != 2 {
		t.Fatalf("expected refetch at TTL expiry, got %d fetches", doer.count())
	}
}

func TestInvalidate_ForcesRefetch(t *testing.T) {
	doer := &stubDoer{body: oneKeyDoc}
	c := jwks.New(time.Hour, jwks.WithHTTPClient(doer))

	if _, err := c.Keys(context.Background(), "example.com"); err != nil {
		t.Fatal(err)
	}
	c.Invalidate()
	if _, err := c.Keys(context.Background(), "example.com"); err != nil {
		t.Fatal(err)
	}
	if doer.count() != 2 {
		t.Fatalf("invalidate must force a refetch, got %d fetches", doer.count())
	}
}

func TestKeys_NonSuccessStatusIsError(t *testing.T) {
	doer := &stubDoer{body: "server error", status: http.StatusInternalServerError}
	c := jwks.New(time.Hour, jwks.WithHTTPClient(doer))

	_, err := c.Keys(context.Background(), "example.com")
	if !errors.Is(err, jwks.ErrFetch) {
		t.Fatalf("expected ErrFetch, got %v", err)
	}
}

func TestKeys_FetchErrorLeavesPreviousEntry(t *testing.T) {
	doer := &stubDoer{body: oneKeyDoc}
	now := time.Unix(1_700_000_000, 0)
	c := jwks.New(time.Hour,
		jwks.WithHTTPClient(doer),
		jwks.WithClock(func() time.Time { return now }),
	)

	if _, err := c.Keys(context.Background(), "example.com"); err != nil {
		t.Fatal(err)
	}

	// Expire the entry, then make the refetch fail.
	now = now.Add(2 * time.Hour)
	doer.status = http.StatusBadGateway
	if _, err := c.Keys(context.Background(), "example.com"); !errors.Is(err, jwks.ErrFetch) {
		t.Fatalf("expected ErrFetch on stale refetch, got %v", err)
	}

	// Recovery: the source heals and the next call succeeds again.
	doer.status = 0
	ks, err := c.Keys(context.Background(), "example.com")
	if err != nil {
		t.Fatalf("expected recovery after source healed: %v", err)
	}
	if len(ks.Keys) != 1 {
		t.Fatalf("unexpected key set after recovery: %+v", ks)
	}
}

func TestRefresh_SwapsOnSuccess(t *testing.T) {
	doer := &stubDoer{body: oneKeyDoc}
	c := jwks.New(time.Hour, jwks.WithHTTPClient(doer))

	if err := c.Refresh(context.Background(), "example.com"); err != nil {
		t.Fatal(err)
	}
	// The refreshed entry serves Keys without another fetch.
	ks, err := c.Keys(context.Background(), "example.com")
	if err != nil {
		t.Fatal(err)
	}
	if len(ks.Keys) != 1 || doer.count() != 1 {
		t.Fatalf("expected refreshed entry to serve reads, keys=%d fetches=%d", len(ks.Keys), doer.count())
	}
}

func TestRefresh_FailureKeepsWarmEntry(t *testing.T) {
	doer := &stubDoer{body: oneKeyDoc}
	c := jwks.New(time.Hour, jwks.WithHTTPClient(doer))

	// Warm the cache, then take the issuer down.
	if _, err := c.Keys(context.Background(), "example.com"); err != nil {
		t.Fatal(err)
	}
	doer.status = http.StatusServiceUnavailable
	if err := c.Refresh(context.Background(), "example.com"); !errors.Is(err, jwks.ErrFetch) {
		t.Fatalf("expected ErrFetch from refresh, got %v", err)
	}

	// The warm entry survives: reads inside the TTL serve from cache and
	// never touch the down issuer.
	before := doer.count()
	ks, err := c.Keys(context.Background(), "example.com")
	if err != nil {
		t.Fatalf("a failed refresh must not evict the key set: %v", err)
	}
	if len(ks.Keys) != 1 || ks.Keys[0].Kid != "k1" {
		t.Fatalf("unexpected key set after failed refresh: %+v", ks)
	}
	if doer.count() != before {
		t.Fatalf("read after failed refresh hit the network, %d -> %d fetches", before, doer.count())
	}
}

func TestKeys_MalformedDocumentIsError(t *testing.T) {
	doer := &stubDoer{body: "{not json"}
	c := jwks.New(time.Hour, jwks.WithHTTPClient(doer))
	if _, err := c.Keys(context.Background(), "example.com"); !errors.Is(err, jwks.ErrFetch) {
		t.Fatalf("expected ErrFetch for malformed document, got %v", err)
	}
}
