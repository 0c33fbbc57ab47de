package identity

import (
	"fmt"

	"github.com/shandysiswandi/authotp/internal/identity/inbound"
	"github.com/shandysiswandi/authotp/internal/identity/outbound/db"
	"github.com/shandysiswandi/authotp/internal/identity/outbound/mq"
	"github.com/shandysiswandi/authotp/internal/identity/outbound/notifier"
	"github.com/shandysiswandi/authotp/internal/identity/usecase"
	"github.com/shandysiswandi/authotp/internal/pkg/clock"
	"github.com/shandysiswandi/authotp/internal/pkg/hash"
	"github.com/shandysiswandi/authotp/internal/pkg/instrument"
	"github.com/shandysiswandi/authotp/internal/pkg/jwt"
	"github.com/shandysiswandi/authotp/internal/pkg/mail"
	"github.com/shandysiswandi/authotp/internal/pkg/messaging"
	"github.com/shandysiswandi/authotp/internal/pkg/otp"
	"github.com/shandysiswandi/authotp/internal/pkg/router"
	"github.com/shandysiswandi/authotp/internal/pkg/uid"
	"github.com/shandysiswandi/authotp/internal/pkg/validator"
)

type Dependency struct {
	Config     Config                     `validate:"required"`
	DBConn     db.Pool                    `validate:"required"`
	Router     *router.Router             `validate:"required"`
	Instrument instrument.Instrumentation `validate:"required"`
	UID        uid.NumberID               `validate:"required"`
	Clock      clock.Clocker              `validate:"required"`
	Validator  validator.Validator        `validate:"required"`
	JWT        jwt.JWT                    `validate:"required"`

	// Mail is required by the smtp notifier, Messaging by the messaging one.
	Mail      mail.Mail
	Messaging messaging.Publisher
}

func New(dep Dependency) error {
	if err := dep.Validator.Validate(dep); err != nil {
		return err
	}

	password, err := hash.New(dep.Config.PasswordAlgorithm, dep.Config.PasswordCost, dep.Config.PasswordPepper)
	if err != nil {
		return err
	}

	sender, err := newNotifier(dep)
	if err != nil {
		return err
	}

	uc := usecase.New(usecase.Dependency{
		RepoDB:     db.NewDB(dep.DBConn, dep.Instrument),
		Notifier:   sender,
		Validator:  dep.Validator,
		Password:   password,
		CodeDigest: hash.NewHMACSHA256(dep.Config.OTPSecret),
		OTP:        otp.NewHOTP(dep.Config.OTPDigits),
		UID:        dep.UID,
		Clock:      dep.Clock,
		JWT:        dep.JWT,
		Instrument: dep.Instrument,
		OTPTTL:     dep.Config.OTPTTL,
	})

	inbound.RegisterHTTPEndpoint(dep.Router, uc)

	return nil
}

func newNotifier(dep Dependency) (usecase.OTPNotifier, error) {
	switch dep.Config.NotifierDriver {
	case NotifierMessaging:
		if dep.Messaging == nil {
			return nil, fmt.Errorf("%w: messaging notifier without a messaging client", ErrInvalidConfig)
		}
		return mq.NewMessaging(dep.Messaging, dep.Instrument), nil
	default:
		if dep.Mail == nil {
			return nil, fmt.Errorf("%w: smtp notifier without a mail transport", ErrInvalidConfig)
		}
		return notifier.NewMail(dep.Mail, dep.Instrument, dep.Config.NotifierSubject, dep.Config.OTPTTL), nil
	}
}
