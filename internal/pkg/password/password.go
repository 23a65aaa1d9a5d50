package password

import (
	"crypto/sha256"
	"encoding/hex"

	"golang.org/x/crypto/bcrypt"
)

// DefaultCost is the bcrypt cost used for all stored hashes
const DefaultCost = 12

// MinLength is the minimum accepted password length
const MinLength = 8

// Hash hashes a password using bcrypt
func Hash(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), DefaultCost)
	if err != nil {
		return "", err
	}
	return string(bytes), nil
}

// Verify compares a password with a hash in constant time
func Verify(password, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

// Fingerprint hashes a bearer token with SHA-256 for session binding.
// The raw token is never persisted.
func Fingerprint(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

// Acceptable checks whether a password meets the length requirement
func Acceptable(password string) bool {
	return len(password) >= MinLength
}
