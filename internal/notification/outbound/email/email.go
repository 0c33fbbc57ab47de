// Package email delivers notification mail through the shared mail client
// and records one span and one counter sample per delivery.
package email

import (
	"context"
	"log/slog"

	"github.com/shandysiswandi/authotp/internal/pkg/instrument"
	"github.com/shandysiswandi/authotp/internal/pkg/mail"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
)

const scope = "notification.outbound.email"

type Sender struct {
	client     mail.Mail
	ins        instrument.Instrumentation
	deliveries metric.Int64Counter
}

func New(client mail.Mail, ins instrument.Instrumentation) *Sender {
	counter, err := ins.Meter(scope).Int64Counter("notification.email.deliveries",
		metric.WithDescription("OTP emails handed to the mail transport, by result"))
	if err != nil {
		slog.Warn("failed to create email delivery counter", "error", err)
	}

	return &Sender{client: client, ins: ins, deliveries: counter}
}

// Send hands msg to the transport. The recipient list is not recorded.
func (s *Sender) Send(ctx context.Context, msg mail.Message) error {
	ctx, span := s.ins.Tracer(scope).Start(ctx, "Send")
	defer span.End()

	span.SetAttributes(attribute.Int("mail.recipients", len(msg.To)))

	err := s.client.Send(ctx, msg)
	s.record(ctx, err)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	return nil
}

func (s *Sender) record(ctx context.Context, err error) {
	if s.deliveries == nil {
		return
	}

	result := "sent"
	if err != nil {
		result = "failed"
	}
	s.deliveries.Add(ctx, 1, metric.WithAttributes(attribute.String("result", result)))
}
