// Package hash provides one-way hashing and verification of secrets.
//
// Passwords go through a salted, slow algorithm (bcrypt or argon2id) whose
// output embeds its own parameters. Short lived codes that must be looked up
// by value go through the keyed HMACSHA256 digest instead.
package hash
