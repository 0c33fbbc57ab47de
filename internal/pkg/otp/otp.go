package otp

import (
	"crypto/rand"
	"encoding/base32"
	"encoding/binary"
	"fmt"
	"io"

	libOTP "github.com/pquerna/otp"
	"github.com/pquerna/otp/hotp"
)

// secretSize follows the RFC 4226 recommendation of a 160-bit shared secret.
const secretSize = 20

// Generator produces one-time codes.
type Generator interface {
	Generate() (string, error)
}

// HOTP generates fixed length numeric codes.
type HOTP struct {
	digits libOTP.Digits
	random io.Reader
}

// NewHOTP returns a generator of digits long codes. Anything but 6 or 8 falls
// back to 6.
func NewHOTP(digits int) *HOTP {
	d := libOTP.Digits(digits)
	if d != libOTP.DigitsSix && d != libOTP.DigitsEight {
		d = libOTP.DigitsSix
	}

	return &HOTP{digits: d, random: rand.Reader}
}

// Digits returns the code length.
func (h *HOTP) Digits() int {
	return h.digits.Length()
}

// Generate returns a new code.
func (h *HOTP) Generate() (string, error) {
	buf := make([]byte, secretSize+8)
	if _, err := io.ReadFull(h.random, buf); err != nil {
		return "", fmt.Errorf("otp: read random: %w", err)
	}

	secret := base32.StdEncoding.EncodeToString(buf[:secretSize])
	counter := binary.BigEndian.Uint64(buf[secretSize:])

	code, err := hotp.GenerateCodeCustom(secret, counter, hotp.ValidateOpts{
		Digits:    h.digits,
		Algorithm: libOTP.AlgorithmSHA1,
	})
	if err != nil {
		return "", fmt.Errorf("otp: generate code: %w", err)
	}

	return code, nil
}
