package messaging

import (
	"context"
	"errors"
	"io"
	"time"

	"github.com/shandysiswandi/authotp/internal/pkg/instrument"
)

var (
	// ErrSubjectRequired is returned when the subject or topic is empty.
	ErrSubjectRequired = errors.New("messaging: subject is required")
	// ErrHandlerRequired is returned when Consume is called with a nil handler.
	ErrHandlerRequired = errors.New("messaging: handler is required")
	// ErrClosed is returned when the client has been closed.
	ErrClosed = errors.New("messaging: client is closed")
)

// Messaging is a broker client that can publish and consume.
type Messaging interface {
	io.Closer
	Publisher
	Consumer
}

// Publisher sends messages to a subject (NATS) or topic (Kafka).
type Publisher interface {
	Publish(ctx context.Context, subject string, msg Outgoing) error
}

// Consumer blocks, delivering messages from subject to handler until ctx is
// canceled or the client is closed.
type Consumer interface {
	Consume(ctx context.Context, subject string, handler Handler, opts ...ConsumeOption) error
}

// Handler processes a received message.
type Handler func(ctx context.Context, msg Message) error

// Outgoing is a message to publish.
type Outgoing struct {
	// Key is the Kafka partition key; ignored by NATS.
	Key     []byte
	Body    []byte
	Headers map[string]string
}

// Message is a received message.
type Message interface {
	Subject() string
	Key() []byte
	Body() []byte
	Header(key string) string
	ReceivedAt() time.Time
}

type message struct {
	subject    string
	key        []byte
	body       []byte
	headers    map[string]string
	receivedAt time.Time
}

func (m *message) Subject() string          { return m.subject }
func (m *message) Key() []byte              { return m.key }
func (m *message) Body() []byte             { return m.body }
func (m *message) Header(key string) string { return m.headers[key] }
func (m *message) ReceivedAt() time.Time    { return m.receivedAt }

// withCorrelation copies the context correlation id into the outgoing headers
// unless the caller already set one.
func withCorrelation(ctx context.Context, headers map[string]string) map[string]string {
	cid := instrument.GetCorrelationID(ctx)
	if cid == "" {
		return headers
	}

	out := make(map[string]string, len(headers)+1)
	for k, v := range headers {
		out[k] = v
	}
	if _, ok := out[instrument.CorrelationIDHeader]; !ok {
		out[instrument.CorrelationIDHeader] = cid
	}
	return out
}

func handlerContext(ctx context.Context, msg Message) context.Context {
	if cid := msg.Header(instrument.CorrelationIDHeader); cid != "" {
		return instrument.SetCorrelationID(ctx, cid)
	}
	return ctx
}
