// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

// Package password hashes and verifies credentials as salted SHA-256
// digests stored in the form "hex(salt)$hex(digest)".
package password

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"fmt"
	"strings"
)

const (
	// saltBytes is the number of random salt bytes per hash.
	saltBytes = 16
	// delimiter separates salt and digest in the stored string.
	delimiter = "$"
)

// Hasher hashes and verifies passwords.
type Hasher struct{}

// NewHasher creates a new Hasher.
func NewHasher() *Hasher {
	return &Hasher{}
}

// Hash produces a salted SHA-256 hash of the plaintext. A fresh random
// salt is drawn on every call, so hashing the same plaintext twice yields
// different stored strings.
func (h *Hasher) Hash(plaintext string) (string, error) {
	salt := make([]byte, saltBytes)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("failed to generate salt: %w", err)
	}

	saltHex := hex.EncodeToString(salt)
	digest := sha256.Sum256([]byte(saltHex + plaintext))

	return saltHex + delimiter + hex.EncodeToString(digest[:]), nil
}

// Verify checks the plaintext against a stored hash. It fails closed:
// a malformed stored value (missing or extra delimiter) returns false.
func (h *Hasher) Verify(stored, plaintext string) bool {
	parts := strings.Split(stored, delimiter)
	if len(parts) != 2 {
		return false
	}

	salt, storedDigest := parts[0], parts[1]
	computed := sha256.Sum256([]byte(salt + plaintext))

	return subtle.ConstantTimeCompare([]byte(hex.EncodeToString(computed[:])), []byte(storedDigest)) == 1
}
