// Package random generates identifiers over a fixed alphanumeric alphabet
// using rejection sampling, so every character is uniformly distributed.
package random

import (
	"crypto/rand"
	"fmt"
)

const alphabet = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// mask covers the alphabet size (62) with the smallest power of two minus one.
const mask = 63

// Alphanumeric returns a random string of the given length. The alphabet
// contains no ':' so generated ids are safe inside "code:email" payloads.
func Alphanumeric(length int) (string, error) {
	if length <= 0 {
		return "", fmt.Errorf("random: invalid length %d", length)
	}

	id := make([]byte, 0, length)
	buffer := make([]byte, length*2)

	for len(id) < length {
		if _, err := rand.Read(buffer); err != nil {
			return "", fmt.Errorf("random: %w", err)
		}
		for _, b := range buffer {
			idx := b & mask
			if int(idx) < len(alphabet) {
				id = append(id, alphabet[idx])
				if len(id) == length {
					break
				}
			}
		}
	}

	return string(id), nil
}
