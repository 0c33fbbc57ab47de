package hash

import (
	"crypto/hmac"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
)

// HMACSHA256 is a keyed, deterministic digest.
//
// Equal inputs produce equal digests, so it is only suitable for values that
// are looked up by digest (OTP codes), never for passwords.
type HMACSHA256 struct {
	secret []byte
}

// NewHMACSHA256 creates a digest keyed with secret.
func NewHMACSHA256(secret string) *HMACSHA256 {
	return &HMACSHA256{secret: []byte(secret)}
}

// Hash returns the hex encoded HMAC-SHA256 of plaintext.
func (s *HMACSHA256) Hash(plaintext string) ([]byte, error) {
	if plaintext == "" {
		return nil, ErrEmptyPlaintext
	}
	return s.gen(plaintext), nil
}

// Verify compares the digest of plaintext with hashed in constant time.
func (s *HMACSHA256) Verify(hashed, plaintext string) bool {
	if hashed == "" || plaintext == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(hashed), s.gen(plaintext)) == 1
}

func (s *HMACSHA256) gen(plaintext string) []byte {
	h := hmac.New(sha256.New, s.secret)
	h.Write([]byte(plaintext))
	sum := h.Sum(nil)

	out := make([]byte, hex.EncodedLen(len(sum)))
	hex.Encode(out, sum)
	return out
}
