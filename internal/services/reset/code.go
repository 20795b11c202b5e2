// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package reset

import (
	"crypto/rand"
	"fmt"
	"math/big"
)

// alphabet for reset codes. Uppercase letters and digits only, so codes are
// uppercase by construction.
const alphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// CodeLength is the length of user-facing reset codes.
const CodeLength = 6

// GenerateCode generates a random code of the given length from the
// uppercase alphanumeric alphabet. Randomness comes from crypto/rand; the
// code doubles as a bearer credential and must not be guessable.
func GenerateCode(length int) (string, error) {
	if length <= 0 {
		length = CodeLength
	}

	// rand.Int keeps every alphabet character equally likely. Reducing a
	// raw byte modulo 36 would skew the first four characters.
	max := big.NewInt(int64(len(alphabet)))
	code := make([]byte, length)
	for i := range code {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", fmt.Errorf("failed to generate code: %w", err)
		}
		code[i] = alphabet[n.Int64()]
	}

	return string(code), nil
}
