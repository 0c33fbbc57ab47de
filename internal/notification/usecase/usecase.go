package usecase

import (
	"context"
	"time"

	"github.com/shandysiswandi/authotp/internal/pkg/instrument"
	"github.com/shandysiswandi/authotp/internal/pkg/mail"
	"github.com/shandysiswandi/authotp/internal/pkg/validator"
	"go.opentelemetry.io/otel/trace"
)

type repoMail interface {
	Send(ctx context.Context, msg mail.Message) error
}

type Usecase struct {
	repoMail  repoMail
	validator validator.Validator
	ins       instrument.Instrumentation
	subject   string
	otpTTL    time.Duration
}

type Dependency struct {
	RepoMail   repoMail
	Validator  validator.Validator
	Instrument instrument.Instrumentation
	// Subject of the passcode email.
	Subject string
	// OTPTTL is only used to tell the recipient how long the code lasts.
	OTPTTL time.Duration
}

func NewNotification(dep Dependency) *Usecase {
	return &Usecase{
		repoMail:  dep.RepoMail,
		validator: dep.Validator,
		ins:       dep.Instrument,
		subject:   dep.Subject,
		otpTTL:    dep.OTPTTL,
	}
}

func (s *Usecase) startSpan(ctx context.Context, name string) (context.Context, trace.Span) {
	return s.ins.Tracer("notification.usecase").Start(ctx, name)
}
