// Package clock hides the wall clock behind an interface so OTP expiry and
// token lifetimes can be tested against a fixed instant.
package clock

import "time"

// Clocker returns the current instant.
type Clocker interface {
	Now() time.Time
}

// System reads the wall clock in UTC, truncated to microseconds so a value
// survives a round trip through a Postgres timestamptz unchanged.
type System struct{}

func New() *System {
	return &System{}
}

func (*System) Now() time.Time {
	return time.Now().UTC().Truncate(time.Microsecond)
}
