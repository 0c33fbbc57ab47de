package notifier

import (
	"context"
	"time"

	"github.com/shandysiswandi/authotp/internal/pkg/instrument"
	"github.com/shandysiswandi/authotp/internal/pkg/mail"
	"github.com/shandysiswandi/authotp/internal/shared/mailtpl"
	"go.opentelemetry.io/otel/codes"
)

// Mail delivers codes synchronously through the mail transport.
type Mail struct {
	client  mail.Mail
	ins     instrument.Instrumentation
	subject string
	ttl     time.Duration
}

func NewMail(client mail.Mail, ins instrument.Instrumentation, subject string, ttl time.Duration) *Mail {
	if subject == "" {
		subject = mailtpl.DefaultOTPSubject
	}
	return &Mail{client: client, ins: ins, subject: subject, ttl: ttl}
}

func (m *Mail) SendOTPEmail(ctx context.Context, email, code string) error {
	ctx, span := m.ins.Tracer("identity.outbound.notifier").Start(ctx, "SendOTPEmail")
	defer span.End()

	body, err := mailtpl.RenderOTP(mailtpl.OTP{Code: code, ValidFor: m.ttl})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	if err := m.client.Send(ctx, mail.Message{
		To:       []string{email},
		Subject:  m.subject,
		TextBody: body.Text,
		HTMLBody: body.HTML,
	}); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	return nil
}
