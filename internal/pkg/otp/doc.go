// Package otp generates numeric one-time passcodes.
//
// Every code is the RFC 4226 truncation of an HMAC over a secret and counter
// drawn fresh from crypto/rand, so codes are uniform and unpredictable and
// nothing needs to be stored to produce the next one.
package otp
