// Package validator validates structs through their `validate` tags.
//
// Failures come back as V10ValidationError, a field to message map keyed by
// the snake_case field name so it lines up with JSON bodies.
package validator
