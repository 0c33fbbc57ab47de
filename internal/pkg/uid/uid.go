// Package uid generates identifiers.
//
// NumberID backs primary keys: snowflake ids are unique per node and ordered
// by creation time, which gives a stable tiebreak for rows created in the same
// instant. StringID backs opaque ids (token ids, correlation ids).
package uid

// NumberID generates int64 ids.
type NumberID interface {
	Generate() int64
}

// StringID generates string ids.
type StringID interface {
	Generate() string
}
