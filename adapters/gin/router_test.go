package authgin_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/riverqueue/river"
	"github.com/riverqueue/river/rivertype"

	authgin "github.com/open-rails/playkit/adapters/gin"
	"github.com/open-rails/playkit/core"
	"github.com/open-rails/playkit/jobs"
	memorylimiter "github.com/open-rails/playkit/ratelimit/memory"
	memorystore "github.com/open-rails/playkit/storage/memory"
	authtest "github.com/open-rails/playkit/testing"
)

// captureQueue records enqueued jobs instead of running them.
type captureQueue struct {
	inserted []river.JobArgs
}

func (q *captureQueue) Insert(_ context.Context, args river.JobArgs, _ *river.InsertOpts) (*rivertype.JobInsertResult, error) {
	q.inserted = append(q.inserted, args)
	return &rivertype.JobInsertResult{}, nil
}

type api struct {
	router *gin.Engine
	issuer *authtest.TestIssuer
	store  *memorystore.Store
	queue  *captureQueue
}

func newAPI(t *testing.T, rl *memorylimiter.Limiter) *api {
	t.Helper()
	gin.SetMode(gin.TestMode)

	issuer := authtest.NewTestIssuer()
	t.Cleanup(issuer.Close)

	svc := core.NewService(core.AcceptConfig{
		IssuerDomain: issuer.Domain(),
		HTTPClient:   issuer,
	})
	store := memorystore.New()
	queue := &captureQueue{}

	r := gin.New()
	authgin.RegisterRoutes(r, svc, store, queue, rl)
	return &api{router: r, issuer: issuer, store: store, queue: queue}
}

func (a *api) do(method, path, token string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	a.router.ServeHTTP(w, req)
	return w
}

func TestAuthRequired_UniformUnauthorizedBody(t *testing.T) {
	a := newAPI(t, nil)

	expired := a.issuer.CreateTokenWithClaims("user_42", map[string]any{
		"exp": time.Now().Add(-time.Minute).Unix(),
	})

	var bodies []string
	for _, token := range []string{"", "garbage.token", expired} {
		w := a.do(http.MethodGet, "/v1/profile", token, nil)
		if w.Code != http.StatusUnauthorized {
			t.Fatalf("token %q: expected 401, got %d", token, w.Code)
		}
		bodies = append(bodies, w.Body.String())
	}
	// Every rejection reason collapses to the same client-facing shape.
	for _, b := range bodies[1:] {
		if b != bodies[0] {
			t.Fatalf("rejection bodies differ: %q vs %q", bodies[0], b)
		}
	}
}

func TestProfileLifecycle(t *testing.T) {
	a := newAPI(t, nil)
	tok := a.issuer.CreateToken("user_42")

	if w := a.do(http.MethodGet, "/v1/profile", tok, nil); w.Code != http.StatusNotFound {
		t.Fatalf("expected 404 before profile exists, got %d", w.Code)
	}

	w := a.do(http.MethodPut, "/v1/profile", tok, map[string]any{
		"display_name": "Slartibartfast",
		"avatar_url":   "https://cdn.example.com/a.png",
	})
	if w.Code != http.StatusOK {
		t.Fatalf("profile update failed: %d %s", w.Code, w.Body.String())
	}

	w = a.do(http.MethodGet, "/v1/profile", tok, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("profile read failed: %d", w.Code)
	}
	var resp struct {
		Data struct {
			UserID      string `json:"user_id"`
			DisplayName string `json:"display_name"`
		} `json:"data"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.Data.UserID != "user_42" || resp.Data.DisplayName != "Slartibartfast" {
		t.Fatalf("unexpected profile: %+v", resp.Data)
	}
}

func TestScoreSubmit(t *testing.T) {
	a := newAPI(t, nil)
	tok := a.issuer.CreateToken("user_42")

	w := a.do(http.MethodPost, "/v1/scores", tok, map[string]any{"game_id": "tetris", "points": 9001})
	if w.Code != http.StatusOK {
		t.Fatalf("score submit failed: %d %s", w.Code, w.Body.String())
	}

	if w := a.do(http.MethodPost, "/v1/scores", tok, map[string]any{"points": 1}); w.Code != http.StatusBadRequest {
		t.Fatalf("missing game_id must 400, got %d", w.Code)
	}
	if w := a.do(http.MethodPost, "/v1/scores", tok, map[string]any{"game_id": "tetris", "points": -1}); w.Code != http.StatusBadRequest {
		t.Fatalf("negative points must 400, got %d", w.Code)
	}
}

func TestMessageSendAndInbox(t *testing.T) {
	a := newAPI(t, nil)
	alice := a.issuer.CreateToken("alice")
	bob := a.issuer.CreateToken("bob")

	w := a.do(http.MethodPost, "/v1/messages", alice, map[string]any{
		"to_user_id": "bob",
		"body":       "gg",
	})
	if w.Code != http.StatusOK {
		t.Fatalf("message send failed: %d %s", w.Code, w.Body.String())
	}
	if len(a.queue.inserted) != 1 {
		t.Fatalf("expected one delivery job enqueued, got %d", len(a.queue.inserted))
	}
	if _, ok := a.queue.inserted[0].(jobs.MessageDeliverArgs); !ok {
		t.Fatalf("unexpected job args type %T", a.queue.inserted[0])
	}

	w = a.do(http.MethodGet, "/v1/messages", bob, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("inbox read failed: %d", w.Code)
	}
	var resp struct {
		Data []struct {
			FromUserID string `json:"from_user_id"`
			Body       string `json:"body"`
		} `json:"data"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if len(resp.Data) != 1 || resp.Data[0].FromUserID != "alice" || resp.Data[0].Body != "gg" {
		t.Fatalf("unexpected inbox: %+v", resp.Data)
	}

	// Sender's own inbox stays empty.
	w = a.do(http.MethodGet, "/v1/messages", alice, nil)
	if w.Body.String() == "" || w.Code != http.StatusOK {
		t.Fatalf("inbox read failed: %d", w.Code)
	}
	if w := a.do(http.MethodPost, "/v1/messages", alice, map[string]any{"to_user_id": "alice", "body": "hi"}); w.Code != http.StatusBadRequest {
		t.Fatalf("self-message must 400, got %d", w.Code)
	}
}

func TestMessagesGET_HostilePaging(t *testing.T) {
	a := newAPI(t, nil)
	bob := a.issuer.CreateToken("bob")

	for _, query := range []string{
		"?page=9223372036854775807",
		"?page=9223372036854775807&page_size=9223372036854775807",
		"?page=-1&page_size=-1",
	} {
		w := a.do(http.MethodGet, "/v1/messages"+query, bob, nil)
		if w.Code != http.StatusOK {
			t.Fatalf("query %q: expected 200, got %d %s", query, w.Code, w.Body.String())
		}
	}
}

func TestRateLimitDenied(t *testing.T) {
	rl := memorylimiter.New(map[string]memorylimiter.Limit{
		"score_submit": {Limit: 1, Window: time.Minute},
	})
	a := newAPI(t, rl)
	tok := a.issuer.CreateToken("user_42")

	body := map[string]any{"game_id": "tetris", "points": 1}
	if w := a.do(http.MethodPost, "/v1/scores", tok, body); w.Code != http.StatusOK {
		t.Fatalf("first submit should pass, got %d", w.Code)
	}
	if w := a.do(http.MethodPost, "/v1/scores", tok, body); w.Code != http.StatusTooManyRequests {
		t.Fatalf("second submit should be limited, got %d", w.Code)
	}
}

func TestMeEndpoint(t *testing.T) {
	a := newAPI(t, nil)

	w := a.do(http.MethodGet, "/v1/me", "", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("anonymous /me must 200, got %d", w.Code)
	}
	var anon struct {
		Data struct {
			Source string `json:"source"`
		} `json:"data"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &anon); err != nil {
		t.Fatal(err)
	}
	if anon.Data.Source != "none" {
		t.Fatalf("expected anonymous snapshot, got %+v", anon.Data)
	}

	w = a.do(http.MethodGet, "/v1/me", a.issuer.CreateToken("user_42"), nil)
	var authed struct {
		Data struct {
			UserID string `json:"user_id"`
			Source string `json:"source"`
		} `json:"data"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &authed); err != nil {
		t.Fatal(err)
	}
	if authed.Data.UserID != "user_42" || authed.Data.Source != "token" {
		t.Fatalf("unexpected snapshot: %+v", authed.Data)
	}
}
