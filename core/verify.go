package core

import (
	"crypto"
	"crypto/rsa"
	"crypto/sha256"
	"encoding/json"
	"fmt"

	"github.com/lestrrat-go/jwx/v2/jwk"

	jwtkit "github.com/open-rails/playkit/jwt"
)

// verifySignature checks an RSASSA-PKCS1-v1_5/SHA-256 signature over the raw
// signed input using the given JWK. A signature that simply does not match
// returns (false, nil); an error means the key material itself was unusable.
func verifySignature(signedInput string, sig []byte, key jwtkit.JWK) (bool, error) {
	raw, err := json.Marshal(key)
	if err != nil {
		return false, fmt.Errorf("marshal jwk: %w", err)
	}
	parsed, err := jwk.ParseKey(raw)
	if err != nil {
		return false, fmt.Errorf("import jwk %q: %w", key.Kid, err)
	}
	var pub rsa.PublicKey
	if err := parsed.Raw(&pub); err != nil {
		return false, fmt.Errorf("jwk %q is not an RSA public key: %w", key.Kid, err)
	}

	digest := sha256.Sum256([]byte(signedInput))
	if err := rsa.VerifyPKCS1v15(&pub, crypto.SHA256, digest[:], sig); err != nil {
		return false, nil
	}
	return true, nil
}
