// AngelaMos | 2026
// security.go

package core

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"strings"
)

const unusablePasswordPrefix = "!"

func GenerateSecureToken(length int) (string, error) {
	b := make([]byte, length)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generate random bytes: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

// UnusablePassword returns a marker that no password can ever match.
// Profiles store it because credentials live with the identity provider.
func UnusablePassword() (string, error) {
	suffix, err := GenerateSecureToken(30)
	if err != nil {
		return "", err
	}
	return unusablePasswordPrefix + suffix, nil
}

func HasUsablePassword(encoded string) bool {
	return encoded != "" && !strings.HasPrefix(encoded, unusablePasswordPrefix)
}

// HashToken is used as a storage key so raw bearer tokens never reach Redis.
func HashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}
