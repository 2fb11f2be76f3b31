// Package signature verifies webhook payload signatures and generates
// integration webhook secrets.
package signature

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
)

// Verify checks an HMAC-SHA256 signature over the raw, unparsed request body.
// The header value is expected in GitHub's "sha256=<hex>" form; a bare hex
// digest is also accepted. Verification fails closed: a missing header, an
// empty secret, or a malformed digest all return false. Comparison is
// constant-time.
func Verify(rawBody []byte, signatureHeader, secret string) bool {
	if signatureHeader == "" || secret == "" {
		return false
	}

	sig := strings.TrimPrefix(signatureHeader, "sha256=")
	sigBytes, err := hex.DecodeString(sig)
	if err != nil {
		return false
	}

	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(rawBody)
	return hmac.Equal(sigBytes, mac.Sum(nil))
}

// Sign produces the "sha256=<hex>" signature for a body. Used by tests and
// by the admin CLI when replaying deliveries.
func Sign(rawBody []byte, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(rawBody)
	return "sha256=" + hex.EncodeToString(mac.Sum(nil))
}

// NewSecret returns a fresh webhook secret: 32 random bytes, hex encoded.
// Secrets are generated server-side and never derived from user input.
func NewSecret() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate webhook secret: %w", err)
	}
	return hex.EncodeToString(buf), nil
}
