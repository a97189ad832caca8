// Package auth verifies credentials against the tracker store and keeps
// track of which request belongs to which identity.
package auth

import (
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

type (
	// Hasher derives salted one-way digests from plaintext passwords.
	// Every call to Hash salts internally, two digests of the same
	// password never compare equal.
	Hasher struct {
		cost int
	}
)

const (
	// DefaultCost trades roughly 100ms of login latency for resistance
	// against offline brute force on a leaked digest.
	DefaultCost = 10
)

func NewHasher(cost int) Hasher {
	if cost <= 0 {
		cost = DefaultCost
	}
	return Hasher{cost: cost}
}

func (h Hasher) Hash(plaintext string) (string, error) {
	buf, err := bcrypt.GenerateFromPassword([]byte(plaintext), h.cost)
	if err != nil {
		return "", fmt.Errorf("unable to hash password, cause %w", err)
	}
	return string(buf), nil
}

// Verify reports whether the plaintext matches the digest. A digest that
// cannot be parsed is an error, not a mismatch, silently treating a
// corrupted column as "wrong password" would hide real damage.
func (h Hasher) Verify(plaintext string, digest string) (bool, error) {
	err := bcrypt.CompareHashAndPassword([]byte(digest), []byte(plaintext))
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, bcrypt.ErrMismatchedHashAndPassword):
		return false, nil
	}
	return false, fmt.Errorf("unable to verify password digest, cause %w", err)
}
