// Package mail sends email messages.
//
// Callers work with the Mail interface and the provider agnostic Message; SMTP
// is the only transport.
package mail
