package crypto

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/sha512"
	"crypto/subtle"
	"encoding/hex"
	"fmt"
	"hash"
	"unicode/utf8"

	"golang.org/x/crypto/sha3"
)

// ErrMalformedToken indicates that token input cannot be decoded for hashing
var ErrMalformedToken = fmt.Errorf("malformed token input")

// Algorithm identifies the digest function used for token hashing
type Algorithm string

const (
	// SHA512 is the default token digest algorithm (128 hex chars)
	SHA512 Algorithm = "sha512"
	// SHA256 is a shorter alternative digest (64 hex chars)
	SHA256 Algorithm = "sha256"
	// SHA3512 uses the SHA3-512 construction (128 hex chars)
	SHA3512 Algorithm = "sha3-512"
)

// ParseAlgorithm converts a configuration string into an Algorithm
// Returns an error for unknown identifiers so broken config fails at load time
func ParseAlgorithm(s string) (Algorithm, error) {
	switch Algorithm(s) {
	case SHA512, SHA256, SHA3512:
		return Algorithm(s), nil
	default:
		return "", fmt.Errorf("unknown hash algorithm %q", s)
	}
}

// newHash returns a fresh hash.Hash for the algorithm
func (a Algorithm) newHash() hash.Hash {
	switch a {
	case SHA256:
		return sha256.New()
	case SHA3512:
		return sha3.New512()
	default:
		return sha512.New()
	}
}

// GenerateTokenString produces a cryptographically random hex string
// length is the character length of the result and must be a positive even number
func GenerateTokenString(length int) (string, error) {
	if length <= 0 || length%2 != 0 {
		return "", fmt.Errorf("token character length must be a positive even number, got %d", length)
	}

	buf := make([]byte, length/2)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to read random bytes: %w", err)
	}

	return hex.EncodeToString(buf), nil
}

// HashToken computes the hex-encoded digest of a raw token string
// The digest is deterministic; the same token always hashes to the same value
// Input that is not valid UTF-8 is rejected with ErrMalformedToken
func HashToken(token string, alg Algorithm) (string, error) {
	if !utf8.ValidString(token) {
		return "", ErrMalformedToken
	}

	h := alg.newHash()
	h.Write([]byte(token))
	return hex.EncodeToString(h.Sum(nil)), nil
}

// ConstantTimeEqual compares two digests in time independent of
// where the first differing byte occurs
func ConstantTimeEqual(a, b string) bool {
	if subtle.ConstantTimeEq(int32(len(a)), int32(len(b))) != 1 {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}
