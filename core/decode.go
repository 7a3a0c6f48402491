package core

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"
)

// Header is the decoded JOSE header of a bearer token.
type Header struct {
	Alg string `json:"alg"`
	Kid string `json:"kid"`
}

// DecodedToken is the parsed form of one bearer token. It lives for a single
// verification call and is never stored.
type DecodedToken struct {
	Header  Header
	Payload map[string]any

	// SignedInput is the first two raw segments joined by ".", exactly as
	// transmitted. The signature was produced over these bytes; re-encoding
	// the decoded JSON would break verification.
	SignedInput string

	// SignatureB64 is the third segment, kept opaque until signature
	// verification.
	SignatureB64 string
}

// DecodeToken splits and decodes a compact JWS token. Anything that is not
// exactly three base64url segments with JSON header and payload comes back as
// ErrMalformedToken.
func DecodeToken(raw string) (*DecodedToken, error) {
	parts := strings.Split(raw, ".")
	if len(parts) != 3 {
		return nil, fmt.Errorf("%w: expected 3 segments, got %d", ErrMalformedToken, len(parts))
	}

	headerJSON, err := decodeSegment(parts[0])
	if err != nil {
		return nil, fmt.Errorf("%w: header: %v", ErrMalformedToken, err)
	}
	payloadJSON, err := decodeSegment(parts[1])
	if err != nil {
		return nil, fmt.Errorf("%w: payload: %v", ErrMalformedToken, err)
	}

	var h Header
	if err := json.Unmarshal(headerJSON, &h); err != nil {
		return nil, fmt.Errorf("%w: header: %v", ErrMalformedToken, err)
	}
	var payload map[string]any
	if err := json.Unmarshal(payloadJSON, &payload); err != nil {
		return nil, fmt.Errorf("%w: payload: %v", ErrMalformedToken, err)
	}

	return &DecodedToken{
		Header:       h,
		Payload:      payload,
		SignedInput:  parts[0] + "." + parts[1],
		SignatureB64: parts[2],
	}, nil
}

// decodeSegment decodes a base64url segment, tolerating both padded and
// unpadded forms.
func decodeSegment(seg string) ([]byte, error) {
	return base64.RawURLEncoding.DecodeString(strings.TrimRight(seg, "="))
}
