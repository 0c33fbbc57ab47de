package inbound

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/shandysiswandi/authotp/internal/notification/usecase"
	"github.com/shandysiswandi/authotp/internal/pkg/instrument"
	"github.com/shandysiswandi/authotp/internal/pkg/messaging"
	"github.com/shandysiswandi/authotp/internal/pkg/uid"
	"github.com/shandysiswandi/authotp/internal/shared/event"
)

type uc interface {
	ConsumeOTPIssued(ctx context.Context, in usecase.ConsumeOTPIssuedInput) error
}

type MQHandler struct {
	uc   uc
	uuid uid.StringID
	ins  instrument.Instrumentation
}

// ensureCorrelationID keeps the id restored from the message headers, or
// starts a new one for events published without it.
func (h *MQHandler) ensureCorrelationID(ctx context.Context) context.Context {
	if instrument.GetCorrelationID(ctx) != "" || h.uuid == nil {
		return ctx
	}
	return instrument.SetCorrelationID(ctx, h.uuid.Generate())
}

func (h *MQHandler) OTPIssuedNotification(ctx context.Context, msg messaging.Message) error {
	ctx = h.ensureCorrelationID(ctx)

	ctx, span := h.ins.Tracer("notification.inbound.mq").Start(ctx, "OTPIssuedNotification")
	defer span.End()

	// the body carries the plaintext code, never log it
	slog.InfoContext(ctx, "consume: otp issued notification", "subject", msg.Subject(), "size", len(msg.Body()))

	var payload event.OTPIssuedMessage
	if err := json.Unmarshal(msg.Body(), &payload); err != nil {
		slog.ErrorContext(ctx, "failed to parse message body of otp issued notification", "error", err)
		return nil
	}

	if err := h.uc.ConsumeOTPIssued(ctx, usecase.ConsumeOTPIssuedInput{
		Email: payload.Email,
		Code:  payload.Code,
	}); err != nil {
		slog.ErrorContext(ctx, "failed to consume otp issued", "email", payload.Email, "error", err)
		return err
	}

	return nil
}
