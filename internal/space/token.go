package space

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
)

// accessTokenBytes is the entropy of a space access token. 32 random bytes
// encode to 43 URL-safe characters — unguessable, and safe to embed in a
// shared link or QR code without escaping.
const accessTokenBytes = 32

// generateAccessToken mints a new opaque access token. Tokens are generated
// once at space creation and never rotated for the space's lifetime.
func generateAccessToken() (string, error) {
	b := make([]byte, accessTokenBytes)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("read random bytes: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
