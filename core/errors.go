package core

import (
	"errors"

	"github.com/open-rails/playkit/jwks"
)

// Rejection reasons. Every one of these collapses to a single
// "unauthenticated" outcome at the HTTP boundary; the distinction exists for
// diagnostic logging and tests only.
var (
	ErrMalformedToken       = errors.New("auth: malformed token")
	ErrUnsupportedAlgorithm = errors.New("auth: unsupported signing algorithm")
	ErrTokenExpired         = errors.New("auth: token expired")
	ErrTokenNotYetValid     = errors.New("auth: token not yet valid")
	ErrInvalidIssuer        = errors.New("auth: invalid issuer")
	ErrSigningKeyNotFound   = errors.New("auth: signing key not found")
	ErrInvalidSignature     = errors.New("auth: invalid signature")
	ErrMissingSubject       = errors.New("auth: missing subject claim")
)

// ErrKeySetFetch is the jwks fetch failure surfaced through Authenticate.
var ErrKeySetFetch = jwks.ErrFetch
