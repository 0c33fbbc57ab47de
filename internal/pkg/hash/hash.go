package hash

import (
	"errors"
	"fmt"
	"strings"
)

// ErrEmptyPlaintext is returned when Hash is called with an empty input.
var ErrEmptyPlaintext = errors.New("hash: plaintext is empty")

// ErrPlaintextTooLong is returned when the input exceeds the algorithm's limit.
// It is a rejection of the input, not a hasher failure.
var ErrPlaintextTooLong = errors.New("hash: plaintext is too long")

// ErrUnknownAlgorithm is returned by New for an unsupported algorithm name.
var ErrUnknownAlgorithm = errors.New("hash: unknown algorithm")

const (
	// AlgorithmBcrypt selects Bcrypt.
	AlgorithmBcrypt = "bcrypt"
	// AlgorithmArgon2id selects Argon2id.
	AlgorithmArgon2id = "argon2id"
)

// Hash hashes plaintext values and verifies plaintext against a stored hash.
//
// Verify never returns an error: any malformed hash or empty plaintext is
// simply a mismatch.
type Hash interface {
	Hash(plaintext string) ([]byte, error)
	Verify(hashed, plaintext string) bool
}

// New builds a password hasher by algorithm name. cost is only used by bcrypt.
func New(algorithm string, cost int, pepper string) (Hash, error) {
	switch strings.ToLower(strings.TrimSpace(algorithm)) {
	case "", AlgorithmBcrypt:
		return NewBcrypt(cost, pepper), nil
	case AlgorithmArgon2id:
		return NewArgon2id(pepper), nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownAlgorithm, algorithm)
	}
}
