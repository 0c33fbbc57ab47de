package usecase

import (
	"context"
	"log/slog"

	"github.com/shandysiswandi/authotp/internal/pkg/mail"
	"github.com/shandysiswandi/authotp/internal/shared/mailtpl"
)

type ConsumeOTPIssuedInput struct {
	Email string `validate:"required,email"`
	Code  string `validate:"required,otp"`
}

// ConsumeOTPIssued mails a code published by the identity module. A
// malformed event is dropped. A delivery failure is returned to the
// messaging driver: NATS and Kafka redeliver, the memory driver logs it and
// drops the message.
func (s *Usecase) ConsumeOTPIssued(ctx context.Context, in ConsumeOTPIssuedInput) error {
	ctx, span := s.startSpan(ctx, "ConsumeOTPIssued")
	defer span.End()

	if err := s.validator.Validate(in); err != nil {
		slog.ErrorContext(ctx, "Validation failed", "error", err)
		return nil
	}

	body, err := mailtpl.RenderOTP(mailtpl.OTP{Code: in.Code, ValidFor: s.otpTTL})
	if err != nil {
		slog.ErrorContext(ctx, "failed to render otp email", "error", err)
		return nil
	}

	if err := s.repoMail.Send(ctx, mail.Message{
		To:       []string{in.Email},
		Subject:  s.subject,
		TextBody: body.Text,
		HTMLBody: body.HTML,
	}); err != nil {
		slog.ErrorContext(ctx, "failed to send otp email", "email", in.Email, "error", err)
		return err
	}

	slog.InfoContext(ctx, "otp email sent", "email", in.Email)
	return nil
}
