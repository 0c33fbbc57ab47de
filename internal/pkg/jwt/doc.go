// Package jwt issues and validates signed session tokens.
//
// Tokens are HS512 JWTs carrying the user id and email on top of the
// registered claims. The signing key is process wide configuration; rotating
// it invalidates every outstanding token.
package jwt
