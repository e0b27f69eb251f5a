package security

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
)

// ErrTokenSize is returned when a token of fewer than 16 random bytes is requested.
var ErrTokenSize = errors.New("token must carry at least 16 random bytes")

// NewOpaqueToken returns n bytes from crypto/rand encoded as unpadded base64url. The token carries no
// claims; it is only meaningful as a lookup key in the session store.
func NewOpaqueToken(n int) (string, error) {
	if n < 16 {
		return "", ErrTokenSize
	}
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
