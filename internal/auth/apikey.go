package auth

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"fmt"
)

// keyPrefixLen is how many leading characters of a freshly minted key
// are stored alongside its hash so operators can recognize keys later.
const keyPrefixLen = 8

// APIKeyHasher hashes API keys with a server-side pepper. Only the hash
// is ever persisted; the plaintext key is shown once at mint time.
type APIKeyHasher struct {
	pepper string
}

func NewAPIKeyHasher(pepper string) *APIKeyHasher {
	return &APIKeyHasher{pepper: pepper}
}

// Hash returns the hex SHA-256 of pepper+key.
func (h *APIKeyHasher) Hash(rawKey string) string {
	sum := sha256.Sum256([]byte(h.pepper + rawKey))
	return hex.EncodeToString(sum[:])
}

// GenerateAPIKey mints a new random API key and returns the plaintext
// key together with its stored prefix.
func GenerateAPIKey() (key, prefix string, err error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", "", fmt.Errorf("failed to generate API key: %w", err)
	}
	key = base64.RawURLEncoding.EncodeToString(buf)
	return key, key[:keyPrefixLen], nil
}
