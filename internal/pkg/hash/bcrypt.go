package hash

import (
	"golang.org/x/crypto/bcrypt"
)

// DefaultBcryptCost is used when NewBcrypt receives a cost outside bcrypt's range.
const DefaultBcryptCost = 10

// MaxBcryptBytes is bcrypt's input limit, pepper included.
const MaxBcryptBytes = 72

// Bcrypt implements Hash using bcrypt.
//
// Pepper is appended to the plaintext before hashing and verifying. Keep it in
// configuration, never in the database.
type Bcrypt struct {
	cost   int
	pepper string
}

// NewBcrypt returns a bcrypt-based hasher.
func NewBcrypt(cost int, pepper string) *Bcrypt {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = DefaultBcryptCost
	}
	return &Bcrypt{cost: cost, pepper: pepper}
}

// Hash hashes plaintext using bcrypt. The salt is embedded in the output.
// Input longer than MaxBcryptBytes once peppered yields ErrPlaintextTooLong.
func (h *Bcrypt) Hash(plaintext string) ([]byte, error) {
	if plaintext == "" {
		return nil, ErrEmptyPlaintext
	}
	if len(plaintext)+len(h.pepper) > MaxBcryptBytes {
		return nil, ErrPlaintextTooLong
	}
	return bcrypt.GenerateFromPassword([]byte(plaintext+h.pepper), h.cost)
}

// Verify reports whether plaintext matches hashed.
func (h *Bcrypt) Verify(hashed, plaintext string) bool {
	if hashed == "" || plaintext == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(hashed), []byte(plaintext+h.pepper)) == nil
}
