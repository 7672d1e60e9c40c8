package account

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
)

const secretKeyBytes = 16

// GenerateSecretKey returns a new recovery key as 32 hex characters.
func GenerateSecretKey() (string, error) {
	b := make([]byte, secretKeyBytes)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generate secret key: %w", err)
	}
	return hex.EncodeToString(b), nil
}

// HashSecretKey returns the lookup hash stored for a key. Surrounding
// whitespace is ignored so a pasted key with a trailing newline still matches.
func HashSecretKey(key string) string {
	sum := sha256.Sum256([]byte(strings.TrimSpace(key)))
	return hex.EncodeToString(sum[:])
}
