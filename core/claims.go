package core

import (
	"encoding/json"
	"fmt"
	"time"
)

const supportedAlg = "RS256"

// validateClaims enforces the static token invariants that need no network or
// cache state. Checks run in a fixed order so the first failure determines
// the rejection reason: algorithm, expiry, not-before, issuer.
//
// The subject check is separate (see subjectOf); it runs after signature
// verification so identity is only granted once the token proved authentic.
func validateClaims(h Header, payload map[string]any, issuerDomain string, now time.Time) error {
	if h.Alg != supportedAlg {
		return fmt.Errorf("%w: %q", ErrUnsupportedAlgorithm, h.Alg)
	}

	nowSec := now.Unix()
	if exp, ok := numericClaim(payload, "exp"); ok && exp <= nowSec {
		return ErrTokenExpired
	}
	if nbf, ok := numericClaim(payload, "nbf"); ok && nbf > nowSec {
		return ErrTokenNotYetValid
	}

	iss, _ := payload["iss"].(string)
	if iss != "https://"+issuerDomain {
		return fmt.Errorf("%w: %q", ErrInvalidIssuer, iss)
	}
	return nil
}

// subjectOf extracts the sub claim, rejecting absent or empty values.
func subjectOf(payload map[string]any) (string, error) {
	sub, _ := payload["sub"].(string)
	if sub == "" {
		return "", ErrMissingSubject
	}
	return sub, nil
}

// numericClaim reads a Unix-seconds claim. JSON numbers arrive as float64;
// json.Number shows up when callers decode with UseNumber.
func numericClaim(payload map[string]any, name string) (int64, bool) {
	v, ok := payload[name]
	if !ok {
		return 0, false
	}
	switch n := v.(type) {
	case float64:
		return int64(n), true
	case json.Number:
		i, err := n.Int64()
		if err != nil {
			return 0, false
		}
		return i, true
	case int64:
		return n, true
	default:
		return 0, false
	}
}
