package mail

import (
	"context"
	"io"
)

// Message is an email payload.
type Message struct {
	// From overrides the transport's default sender.
	From string
	// To lists the primary recipients.
	To []string
	// Cc lists carbon copy recipients.
	Cc []string
	// Bcc lists blind carbon copy recipients, never written to headers.
	Bcc []string
	// Subject is the subject line.
	Subject string
	// TextBody is the plain-text body.
	TextBody string
	// HTMLBody is the HTML body. With TextBody set too the message is
	// multipart/alternative.
	HTMLBody string
}

// Mail abstracts an email transport.
type Mail interface {
	io.Closer
	Send(ctx context.Context, msg Message) error
}
