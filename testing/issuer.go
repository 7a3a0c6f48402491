// Package testing provides a mock token issuer for exercising the bearer
// authentication path without a real identity provider. It serves a JWKS
// document, signs tokens that validate against it, counts key-set fetches,
// and can rotate its signing key mid-test.
//
// Example usage:
//
//	issuer := testing.NewTestIssuer()
//	defer issuer.Close()
//
//	svc := core.NewService(core.AcceptConfig{
//		IssuerDomain: issuer.Domain(),
//		HTTPClient:   issuer,
//	})
//	id, err := svc.Authenticate(ctx, "Bearer "+issuer.CreateToken("user-123"))
package testing

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"

	jwtkit "github.com/open-rails/playkit/jwt"
)

// TestIssuer runs an HTTP server that serves JWKS at /.well-known/jwks.json
// and signs JWT tokens that validate against it. It also implements the
// key-set cache's HTTP client interface, so verifiers can be pointed straight
// at it regardless of scheme, and every fetch is counted.
type TestIssuer struct {
	server *httptest.Server

	mu      sync.Mutex
	signer  *jwtkit.RSASigner
	fetches int
}

// NewTestIssuer creates a test issuer with a fresh RSA key pair.
// Call Close() when done to shut down the test server.
func NewTestIssuer() *TestIssuer {
	ti := &TestIssuer{}
	ti.rotate("test-key-1")

	mux := http.NewServeMux()
	mux.HandleFunc("/.well-known/jwks.json", ti.handleJWKS)
	ti.server = httptest.NewServer(mux)
	return ti
}

// URL returns the base URL of the test issuer server.
func (ti *TestIssuer) URL() string {
	return ti.server.URL
}

// Domain returns the issuer's host:port, the form verifier configs take.
// Tokens minted by CreateToken carry iss == "https://" + Domain().
func (ti *TestIssuer) Domain() string {
	return strings.TrimPrefix(ti.server.URL, "http://")
}

// Close shuts down the test server.
func (ti *TestIssuer) Close() {
	if ti.server != nil {
		ti.server.Close()
	}
}

// Do serves the JWKS document in-process and records the fetch. It satisfies
// the jwks.Doer interface so tests can assert on fetch counts and avoid the
// https requirement of the real fetch path.
func (ti *TestIssuer) Do(req *http.Request) (*http.Response, error) {
	ti.mu.Lock()
	ti.fetches++
	ti.mu.Unlock()

	rec := httptest.NewRecorder()
	ti.handleJWKS(rec, req)
	return rec.Result(), nil
}

// Fetches returns how many times the JWKS document was fetched through Do.
func (ti *TestIssuer) Fetches() int {
	ti.mu.Lock()
	defer ti.mu.Unlock()
	return ti.fetches
}

// Rotate replaces the signing key with a fresh pair under the given kid.
// Previously minted tokens stop validating; newly minted ones validate only
// after the verifier refetches the JWKS.
func (ti *TestIssuer) Rotate(kid string) {
	ti.rotate(kid)
}

func (ti *TestIssuer) rotate(kid string) {
	signer, err := jwtkit.NewRSASigner(2048, kid)
	if err != nil {
		panic("failed to create RSA signer: " + err.Error())
	}
	ti.mu.Lock()
	ti.signer = signer
	ti.mu.Unlock()
}

// KID returns the current signing key id.
func (ti *TestIssuer) KID() string {
	ti.mu.Lock()
	defer ti.mu.Unlock()
	return ti.signer.KID()
}

// handleJWKS serves the JWKS document containing the current public key.
func (ti *TestIssuer) handleJWKS(w http.ResponseWriter, r *http.Request) {
	ti.mu.Lock()
	signer := ti.signer
	ti.mu.Unlock()

	key := jwtkit.RSAPublicToJWK(signer.PublicKey(), signer.KID(), signer.Algorithm())
	jwtkit.ServeJWKS(w, r, jwtkit.JWKS{Keys: []jwtkit.JWK{key}})
}

// CreateToken creates a signed JWT for the given user, expiring in an hour.
func (ti *TestIssuer) CreateToken(userID string) string {
	return ti.CreateTokenWithClaims(userID, nil)
}

// CreateTokenWithClaims creates a signed JWT with additional custom claims
// merged over the standard ones (sub, iss, exp, iat). Extra claims win, so a
// test can override exp or nbf to exercise the temporal checks.
func (ti *TestIssuer) CreateTokenWithClaims(userID string, extraClaims map[string]any) string {
	now := time.Now()
	claims := jwt.MapClaims{
		"sub": userID,
		"iss": "https://" + ti.Domain(),
		"exp": now.Add(time.Hour).Unix(),
		"iat": now.Unix(),
	}
	for k, v := range extraClaims {
		claims[k] = v
	}
	return ti.SignClaims(claims)
}

// SignClaims signs an arbitrary claim set with the current key. Tests use it
// to mint tokens missing standard claims entirely.
func (ti *TestIssuer) SignClaims(claims jwt.MapClaims) string {
	ti.mu.Lock()
	signer := ti.signer
	ti.mu.Unlock()

	token, err := signer.Sign(context.Background(), claims)
	if err != nil {
		panic("failed to sign token: " + err.Error())
	}
	return token
}
