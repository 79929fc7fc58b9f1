// Package credential implements the salted credential-hash scheme and the
// random code generators for verification and password-change codes.
//
// The client hashes the real password before transmission; this package only
// ever sees that opaque hex digest. At rest it is stored as
// salt || hex(sha256(clientHash || salt)) with a fresh salt per call.
package credential

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"fmt"
	"time"
)

const (
	// SaltLength is the number of alphanumeric chars prepended to the digest.
	SaltLength = 30
	// DigestLength is the length of a hex sha256 digest.
	DigestLength = 64
	// StoredHashLength is the invariant length of every persisted hash.
	StoredHashLength = SaltLength + DigestLength

	// VerificationCodeLength is the size of the emailed activation code.
	VerificationCodeLength = 30
	// PasswordChangeCodeLength is the size of the numeric reset code.
	PasswordChangeCodeLength = 6
	// PasswordChangeCodeTTL is how long a reset code is honored.
	PasswordChangeCodeTTL = 10 * time.Minute

	AlphanumericAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"
	NumericAlphabet      = "0123456789"
)

// HashForStorage derives the at-rest hash for an opaque client hash. A fresh
// salt is generated on every call, so stored hashes are never reused across
// accounts or across password changes.
func HashForStorage(clientHash string) (string, error) {
	salt, err := GenerateCode(SaltLength, AlphanumericAlphabet)
	if err != nil {
		return "", fmt.Errorf("failed to generate salt: %w", err)
	}
	digest := sha256.Sum256([]byte(clientHash + salt))
	return salt + hex.EncodeToString(digest[:]), nil
}

// Verify reports whether clientHash matches storedHash. The comparison is
// constant time.
func Verify(clientHash, storedHash string) bool {
	if len(storedHash) != StoredHashLength {
		return false
	}
	salt := storedHash[:SaltLength]
	digest := sha256.Sum256([]byte(clientHash + salt))
	computed := hex.EncodeToString(digest[:])
	return subtle.ConstantTimeCompare([]byte(computed), []byte(storedHash[SaltLength:])) == 1
}

// GenerateCode returns length random chars drawn from alphabet.
func GenerateCode(length int, alphabet string) (string, error) {
	buffer := make([]byte, length)
	if _, err := rand.Read(buffer); err != nil {
		return "", fmt.Errorf("failed to read random bytes: %w", err)
	}
	for i := range buffer {
		buffer[i] = alphabet[int(buffer[i])%len(alphabet)]
	}
	return string(buffer), nil
}
