// Package core verifies third-party RS256 bearer tokens against the issuer's
// published JWKS, without a session store. Route adapters call Authenticate
// and receive either a verified identity or a rejection; mapping rejections
// to HTTP status codes is the adapter's job.
package core

import (
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/open-rails/playkit/jwks"
	jwtkit "github.com/open-rails/playkit/jwt"
)

// Identity is the verified caller returned on success. It is handed to the
// route handler synchronously and never stored.
type Identity struct {
	UserID string
	Claims map[string]any
}

// AcceptConfig configures verification of third-party JWTs (verify-only mode).
type AcceptConfig struct {
	// IssuerDomain is the bare domain of the token issuer. Tokens must carry
	// iss == "https://" + IssuerDomain, and the key set is fetched from
	// https://<IssuerDomain>/.well-known/jwks.json.
	IssuerDomain string

	// CacheTTL bounds key-set staleness. Zero means jwks.DefaultTTL.
	CacheTTL time.Duration

	// HTTPClient overrides the client used for key-set fetches.
	HTTPClient jwks.Doer

	// Clock overrides the time source for temporal claim checks and cache
	// expiry. Nil means time.Now.
	Clock func() time.Time

	// Logger receives rejection diagnostics. Nil discards them.
	Logger *logrus.Logger
}

// Service authenticates bearer tokens for a single issuer. Safe for
// concurrent use; the only shared mutable state is the key-set cache.
type Service struct {
	issuerDomain string
	keys         *jwks.Cache
	now          func() time.Time
	log          *logrus.Logger
}

// NewService builds an authenticator from cfg.
func NewService(cfg AcceptConfig) *Service {
	now := cfg.Clock
	if now == nil {
		now = time.Now
	}
	log := cfg.Logger
	if log == nil {
		log = logrus.New()
		log.SetOutput(io.Discard)
	}
	opts := []jwks.Option{jwks.WithClock(now)}
	if cfg.HTTPClient != nil {
		opts = append(opts, jwks.WithHTTPClient(cfg.HTTPClient))
	}
	return &Service{
		issuerDomain: cfg.IssuerDomain,
		keys:         jwks.New(cfg.CacheTTL, opts...),
		now:          now,
		log:          log,
	}
}

// Authenticate verifies the Authorization header value and returns the
// caller's identity. A missing or non-Bearer header is anonymous, not an
// error: both return values are nil. Any verification failure returns a nil
// identity and one of the sentinel rejection errors; callers should treat
// every non-nil error uniformly as "unauthenticated".
func (s *Service) Authenticate(ctx context.Context, authorization string) (*Identity, error) {
	raw, ok := bearerToken(authorization)
	if !ok {
		return nil, nil
	}

	tok, err := DecodeToken(raw)
	if err != nil {
		return nil, s.reject(err, logrus.Fields{})
	}

	if err := validateClaims(tok.Header, tok.Payload, s.issuerDomain, s.now()); err != nil {
		return nil, s.reject(err, logrus.Fields{"kid": tok.Header.Kid})
	}

	key, err := s.resolveKey(ctx, tok.Header.Kid)
	if err != nil {
		return nil, s.reject(err, logrus.Fields{"kid": tok.Header.Kid})
	}

	sig, err := base64.RawURLEncoding.DecodeString(strings.TrimRight(tok.SignatureB64, "="))
	if err != nil {
		return nil, s.reject(ErrInvalidSignature, logrus.Fields{"kid": tok.Header.Kid})
	}
	valid, err := verifySignature(tok.SignedInput, sig, key)
	if err != nil {
		// Broken key material still collapses to an invalid signature for the
		// caller, but the underlying cause must survive into the rejection log.
		return nil, s.reject(fmt.Errorf("%w: %v", ErrInvalidSignature, err), logrus.Fields{"kid": tok.Header.Kid})
	}
	if !valid {
		return nil, s.reject(ErrInvalidSignature, logrus.Fields{"kid": tok.Header.Kid})
	}

	// Subject is checked only after the signature proved authentic, so the
	// full set of non-key checks completes before identity is granted.
	sub, err := subjectOf(tok.Payload)
	if err != nil {
		return nil, s.reject(err, logrus.Fields{"kid": tok.Header.Kid})
	}

	return &Identity{UserID: sub, Claims: tok.Payload}, nil
}

// resolveKey finds the signing key for kid in the cached key set. A miss is
// treated as a possible rotation: invalidate, refetch once, retry the lookup.
// The retry is bounded to exactly one refetch per call so tokens with
// arbitrary unknown kids cannot amplify traffic to the issuer.
func (s *Service) resolveKey(ctx context.Context, kid string) (jwtkit.JWK, error) {
	ks, err := s.keys.Keys(ctx, s.issuerDomain)
	if err != nil {
		return jwtkit.JWK{}, err
	}
	if key, ok := ks.Lookup(kid); ok {
		return key, nil
	}

	s.keys.Invalidate()
	ks, err = s.keys.Keys(ctx, s.issuerDomain)
	if err != nil {
		// A fetch failure on the rotation retry reads the same as an unknown
		// key to the caller.
		s.log.WithError(err).WithField("kid", kid).Warn("key set refetch failed during rotation fallback")
		return jwtkit.JWK{}, ErrSigningKeyNotFound
	}
	if key, ok := ks.Lookup(kid); ok {
		return key, nil
	}
	return jwtkit.JWK{}, ErrSigningKeyNotFound
}

func (s *Service) reject(err error, fields logrus.Fields) error {
	fields["issuer"] = s.issuerDomain
	s.log.WithFields(fields).WithError(err).Debug("bearer token rejected")
	return err
}

// bearerToken extracts the token from an Authorization header value. The
// second return is false when no bearer credentials were presented at all.
func bearerToken(authorization string) (string, bool) {
	if authorization == "" {
		return "", false
	}
	parts := strings.SplitN(authorization, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", false
	}
	tok := strings.TrimSpace(parts[1])
	if tok == "" {
		return "", false
	}
	return tok, true
}
