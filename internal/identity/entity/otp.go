package entity

import (
	"errors"
	"time"
)

// ErrOTPPurposeUnknown is returned when a stored purpose is not recognized.
var ErrOTPPurposeUnknown = errors.New("identity: otp purpose is unknown")

// OTPPurpose records why a code was issued.
type OTPPurpose string

const (
	OTPPurposeForgotPassword OTPPurpose = "FORGOT_PASSWORD"
	OTPPurposeResend         OTPPurpose = "RESEND"
)

// ParseOTPPurpose validates a stored purpose value.
func ParseOTPPurpose(s string) (OTPPurpose, error) {
	switch p := OTPPurpose(s); p {
	case OTPPurposeForgotPassword, OTPPurposeResend:
		return p, nil
	default:
		return "", ErrOTPPurposeUnknown
	}
}

func (p OTPPurpose) String() string { return string(p) }

// OTP is a one-time passcode record. Code holds the keyed digest of the
// plaintext code, never the code itself.
//
// Lifecycle: active-unverified -> verified -> consumed. Issuing a new code
// expires every record that is not expired yet. Expired and consumed records
// are terminal.
type OTP struct {
	ID         int64
	UserID     int64
	Code       string
	Purpose    OTPPurpose
	IsExpired  bool
	IsUsed     bool
	Verified   bool
	Attempts   int32
	ExpiresAt  time.Time
	VerifiedAt *time.Time
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// OTPFilter is the flag predicate a record must match.
type OTPFilter struct {
	IsExpired bool
	IsUsed    bool
	Verified  bool
}

var (
	// OTPFilterVerifiable matches codes that can still be verified.
	OTPFilterVerifiable = OTPFilter{}

	// OTPFilterResettable matches verified codes that can authorize a reset.
	OTPFilterResettable = OTPFilter{Verified: true}
)

// Matches reports whether o satisfies f. A positive now also requires the
// record to be inside its validity window.
func (o OTP) Matches(f OTPFilter, now time.Time) bool {
	if o.IsExpired != f.IsExpired || o.IsUsed != f.IsUsed || o.Verified != f.Verified {
		return false
	}
	return now.IsZero() || o.ExpiresAt.After(now)
}

// NextAttempts returns the attempt counter for a code issued after prev.
func NextAttempts(prev *OTP) int32 {
	if prev == nil {
		return 1
	}
	return prev.Attempts + 1
}

// IssueOTP describes a code to be issued atomically: the user row is locked,
// the latest record matching Basis (any record when Basis is nil) feeds the
// attempt counter, live records are expired and the new record is inserted.
type IssueOTP struct {
	ID         int64
	UserID     int64
	CodeDigest string
	Purpose    OTPPurpose
	Basis      *OTPFilter
	Now        time.Time
	ExpiresAt  time.Time
}
