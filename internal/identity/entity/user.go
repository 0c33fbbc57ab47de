package entity

import "time"

// User is a registered account. Password holds the encoded hash.
type User struct {
	ID        int64
	Email     string
	Password  string
	CreatedAt time.Time
	UpdatedAt time.Time
}
