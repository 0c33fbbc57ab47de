package mq

import (
	"context"
	"encoding/json"

	"github.com/shandysiswandi/authotp/internal/pkg/instrument"
	"github.com/shandysiswandi/authotp/internal/pkg/messaging"
	"github.com/shandysiswandi/authotp/internal/shared/event"
	"go.opentelemetry.io/otel/codes"
)

// Messaging hands codes to the notification module through the broker.
// The correlation id header is added by the messaging client.
type Messaging struct {
	client messaging.Publisher
	ins    instrument.Instrumentation
}

func NewMessaging(client messaging.Publisher, ins instrument.Instrumentation) *Messaging {
	return &Messaging{client: client, ins: ins}
}

func (m *Messaging) SendOTPEmail(ctx context.Context, email, code string) error {
	ctx, span := m.ins.Tracer("identity.outbound.mq").Start(ctx, "SendOTPEmail")
	defer span.End()

	body, err := json.Marshal(event.OTPIssuedMessage{Email: email, Code: code})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	if err := m.client.Publish(ctx, event.OTPIssuedSubject, messaging.Outgoing{
		Key:  []byte(email),
		Body: body,
	}); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	return nil
}
