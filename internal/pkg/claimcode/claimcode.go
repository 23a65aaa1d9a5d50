// Package claimcode generates the short random codes bound 1:1 to
// orders at placement. Staff must present the exact code to release
// physical inventory.
package claimcode

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/hex"
	"fmt"
)

// Length is the claim code length in hex characters
const Length = 8

// Generate returns a fresh random claim code (8 hex characters,
// case-sensitive)
func Generate() (string, error) {
	buf := make([]byte, Length/2)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("claim code generation: %w", err)
	}
	return hex.EncodeToString(buf), nil
}

// Matches compares a supplied code against the stored one in constant
// time so mismatches leak nothing about how close the guess was
func Matches(supplied, stored string) bool {
	if len(supplied) != len(stored) {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(supplied), []byte(stored)) == 1
}
