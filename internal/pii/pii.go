// Package pii canonicalizes and hashes contact identifiers before they cross
// the trust boundary to the ad platform. Hashing is content addressing for the
// platform's identity matching, not authentication: no key material involved.
// All functions are pure.
package pii

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// minPhoneDigits is a liveness heuristic, not full E.164 validation: anything
// with fewer digits cannot be a reachable number and is dropped rather than hashed.
const minPhoneDigits = 8

// NormalizeEmail trims whitespace and lowercases. ok is false when the result
// is empty after trimming.
func NormalizeEmail(raw string) (string, bool) {
	email := strings.ToLower(strings.TrimSpace(raw))
	if email == "" {
		return "", false
	}
	return email, true
}

// NormalizePhone strips all non-digit characters, preserving a single leading
// "+" when present anywhere in the input. ok is false when fewer than
// minPhoneDigits digits remain.
func NormalizePhone(raw string) (string, bool) {
	var digits strings.Builder
	plus := false

	for _, r := range raw {
		switch {
		case r >= '0' && r <= '9':
			digits.WriteRune(r)
		case r == '+':
			plus = true
		}
	}

	if digits.Len() < minPhoneDigits {
		return "", false
	}

	if plus {
		return "+" + digits.String(), true
	}
	return digits.String(), true
}

// Hash returns the SHA-256 digest of canonical as lowercase hex. Deterministic:
// the platform matches identities by comparing digests of identically
// normalized values.
func Hash(canonical string) string {
	sum := sha256.Sum256([]byte(canonical))
	return hex.EncodeToString(sum[:])
}

// HashEmail normalizes and hashes an email. ok is false for inputs that
// normalize to empty (nothing should be emitted for them).
func HashEmail(raw string) (string, bool) {
	email, ok := NormalizeEmail(raw)
	if !ok {
		return "", false
	}
	return Hash(email), true
}

// HashPhone normalizes and hashes a phone number. Invalid numbers are omitted,
// not hashed.
func HashPhone(raw string) (string, bool) {
	phone, ok := NormalizePhone(raw)
	if !ok {
		return "", false
	}
	return Hash(phone), true
}

// HashExternalID hashes an opaque user identifier after trimming. ok is false
// for blank input.
func HashExternalID(raw string) (string, bool) {
	id := strings.TrimSpace(raw)
	if id == "" {
		return "", false
	}
	return Hash(id), true
}
