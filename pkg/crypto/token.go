package crypto

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"encoding/hex"
)

const (
	DefaultTokenLength = 32 // 256 bits
)

// NewToken returns a URL-safe random token of byteLength bytes.
// Non-positive lengths use DefaultTokenLength.
func NewToken(byteLength int) (string, error) {
	if byteLength <= 0 {
		byteLength = DefaultTokenLength
	}

	b := make([]byte, byteLength)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}

	return base64.RawURLEncoding.EncodeToString(b), nil
}

// Fingerprint is the hex sha256 of a token, used wherever a token must be
// remembered without being stored
func Fingerprint(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

// MatchesFingerprint compares in constant time
func MatchesFingerprint(token, fingerprint string) bool {
	if token == "" || fingerprint == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(Fingerprint(token)), []byte(fingerprint)) == 1
}
