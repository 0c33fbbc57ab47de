// Package config reads process configuration by dotted key.
//
// Values come from a YAML file and can be overridden by environment variables
// named after the key (AUTHOTP_JWT_SECRET overrides jwt.secret). Missing keys
// resolve to the zero value; callers that need a value validate it at startup.
package config

import (
	"io"
	"time"
)

// TimeConfig reads integer values as durations of a fixed unit.
type TimeConfig interface {
	// GetSecond reads key as a number of seconds.
	GetSecond(key string) time.Duration
	// GetMinute reads key as a number of minutes.
	GetMinute(key string) time.Duration
	// GetHour reads key as a number of hours.
	GetHour(key string) time.Duration
}

// Config defines typed accessors over the loaded configuration.
type Config interface {
	io.Closer
	TimeConfig

	GetInt(key string) int
	GetInt64(key string) int64
	GetFloat64(key string) float64
	GetBool(key string) bool
	GetString(key string) string

	// GetBinary reads a base64 encoded value. Invalid input yields nil.
	GetBinary(key string) []byte

	// GetArray reads a comma separated value, trimmed, empty elements dropped.
	// Native YAML sequences are accepted too.
	GetArray(key string) []string
}
