package memorylimiter

import (
	"testing"
	"time"
)

func newTestLimiter(limits map[string]Limit) (*Limiter, *int64) {
	l := New(limits)
	now := int64(1_000_000)
	l.nowMs = func() int64 { return now }
	return l, &now
}

func TestAllowNamed_WindowSlides(t *testing.T) {
	l, now := newTestLimiter(map[string]Limit{
		"score_submit": {Limit: 2, Window: time.Second},
	})

	for i := 0; i < 2; i++ {
		if ok, err := l.AllowNamed("score_submit", "user_42"); err != nil || !ok {
			t.Fatalf("request %d should pass: ok=%v err=%v", i, ok, err)
		}
	}
	if ok, _ := l.AllowNamed("score_submit", "user_42"); ok {
		t.Fatal("third request inside the window should be denied")
	}

	// Once the window slides past the first two requests, capacity returns.
	*now += 1001
	if ok, _ := l.AllowNamed("score_submit", "user_42"); !ok {
		t.Fatal("request after the window slid should pass")
	}
}

func TestAllowNamed_DenialNotRecorded(t *testing.T) {
	l, now := newTestLimiter(map[string]Limit{
		"default": {Limit: 1, Window: time.Second},
	})

	if ok, _ := l.AllowNamed("message_send", "alice"); !ok {
		t.Fatal("first request should pass")
	}
	// Hammering a full bucket must not extend the lockout.
	for i := 0; i < 10; i++ {
		*now += 50
		if ok, _ := l.AllowNamed("message_send", "alice"); ok {
			t.Fatalf("attempt %d inside the window should be denied", i)
		}
	}
	*now += 1001
	if ok, _ := l.AllowNamed("message_send", "alice"); !ok {
		t.Fatal("denied attempts were recorded and extended the window")
	}
}

func TestAllowNamed_KeysIsolated(t *testing.T) {
	l, _ := newTestLimiter(map[string]Limit{
		"default": {Limit: 1, Window: time.Minute},
	})

	if ok, _ := l.AllowNamed("score_submit", "alice"); !ok {
		t.Fatal("alice should pass")
	}
	if ok, _ := l.AllowNamed("score_submit", "bob"); !ok {
		t.Fatal("bob has his own bucket and should pass")
	}
	if ok, _ := l.AllowNamed("profile_update", "alice"); !ok {
		t.Fatal("a different bucket for alice should pass")
	}
	if ok, _ := l.AllowNamed("score_submit", "alice"); ok {
		t.Fatal("alice's score_submit bucket should be full")
	}
}

func TestAllowNamed_RequiresBucketAndKey(t *testing.T) {
	l, _ := newTestLimiter(nil)
	if _, err := l.AllowNamed("", "alice"); err == nil {
		t.Fatal("empty bucket must error")
	}
	if _, err := l.AllowNamed("score_submit", ""); err == nil {
		t.Fatal("empty key must error")
	}
}
