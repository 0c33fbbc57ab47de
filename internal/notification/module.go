package notification

import (
	"context"
	"time"

	"github.com/shandysiswandi/authotp/internal/notification/inbound"
	"github.com/shandysiswandi/authotp/internal/notification/outbound/email"
	"github.com/shandysiswandi/authotp/internal/notification/usecase"
	"github.com/shandysiswandi/authotp/internal/pkg/goroutine"
	"github.com/shandysiswandi/authotp/internal/pkg/instrument"
	"github.com/shandysiswandi/authotp/internal/pkg/mail"
	"github.com/shandysiswandi/authotp/internal/pkg/messaging"
	"github.com/shandysiswandi/authotp/internal/pkg/uid"
	"github.com/shandysiswandi/authotp/internal/pkg/validator"
)

type Dependency struct {
	Ctx        context.Context            `validate:"required"`
	Messaging  messaging.Consumer         `validate:"required"`
	Mail       mail.Mail                  `validate:"required"`
	Goroutine  *goroutine.Manager         `validate:"required"`
	Instrument instrument.Instrumentation `validate:"required"`
	UUID       uid.StringID               `validate:"required"`
	Validator  validator.Validator        `validate:"required"`

	Subject     string
	OTPTTL      time.Duration
	Concurrency int
}

// New starts the otp_issued consumer under dep.Goroutine. It stops when
// dep.Ctx is canceled.
func New(dep Dependency) error {
	if err := dep.Validator.Validate(dep); err != nil {
		return err
	}

	uc := usecase.NewNotification(usecase.Dependency{
		RepoMail:   email.New(dep.Mail, dep.Instrument),
		Validator:  dep.Validator,
		Instrument: dep.Instrument,
		Subject:    dep.Subject,
		OTPTTL:     dep.OTPTTL,
	})

	return inbound.RegisterMQConsumer(dep.Ctx, dep.Goroutine, dep.Messaging, dep.UUID, uc, dep.Instrument, dep.Concurrency)
}
