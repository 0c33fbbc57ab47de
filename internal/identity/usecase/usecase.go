package usecase

import (
	"context"
	"strings"
	"time"

	"github.com/shandysiswandi/authotp/internal/identity/entity"
	"github.com/shandysiswandi/authotp/internal/pkg/clock"
	"github.com/shandysiswandi/authotp/internal/pkg/hash"
	"github.com/shandysiswandi/authotp/internal/pkg/instrument"
	"github.com/shandysiswandi/authotp/internal/pkg/jwt"
	"github.com/shandysiswandi/authotp/internal/pkg/otp"
	"github.com/shandysiswandi/authotp/internal/pkg/uid"
	"github.com/shandysiswandi/authotp/internal/pkg/validator"
	"go.opentelemetry.io/otel/trace"
)

// DefaultOTPTTL is used when Dependency.OTPTTL is not positive.
const DefaultOTPTTL = 15 * time.Minute

type repoDB interface {
	GetUserByEmail(ctx context.Context, email string) (*entity.User, error)
	GetUserByID(ctx context.Context, id int64) (*entity.User, error)
	CreateUser(ctx context.Context, u entity.User) error

	FindOTP(ctx context.Context, userID int64, codeDigest string, filter entity.OTPFilter, now time.Time) (*entity.OTP, error)
	UpdateOTP(ctx context.Context, o entity.OTP, expect entity.OTPFilter) error
	IssueOTP(ctx context.Context, in entity.IssueOTP) (*entity.OTP, error)
	ResetPassword(ctx context.Context, o entity.OTP, hash string) error
}

// OTPNotifier delivers a plaintext code to the user's mailbox.
type OTPNotifier interface {
	SendOTPEmail(ctx context.Context, email, code string) error
}

// Usecase holds only collaborators; every call is independent.
type Usecase struct {
	repoDB     repoDB
	notifier   OTPNotifier
	validator  validator.Validator
	password   hash.Hash
	codeDigest hash.Hash
	otp        otp.Generator
	uid        uid.NumberID
	clock      clock.Clocker
	jwt        jwt.JWT
	ins        instrument.Instrumentation
	otpTTL     time.Duration
}

type Dependency struct {
	RepoDB    repoDB
	Notifier  OTPNotifier
	Validator validator.Validator
	// Password hashes account passwords.
	Password hash.Hash
	// CodeDigest turns OTP codes into the keyed digest kept at rest.
	CodeDigest hash.Hash
	OTP        otp.Generator
	UID        uid.NumberID
	Clock      clock.Clocker
	JWT        jwt.JWT
	Instrument instrument.Instrumentation
	OTPTTL     time.Duration
}

func New(dep Dependency) *Usecase {
	ttl := dep.OTPTTL
	if ttl <= 0 {
		ttl = DefaultOTPTTL
	}

	return &Usecase{
		repoDB:     dep.RepoDB,
		notifier:   dep.Notifier,
		validator:  dep.Validator,
		password:   dep.Password,
		codeDigest: dep.CodeDigest,
		otp:        dep.OTP,
		uid:        dep.UID,
		clock:      dep.Clock,
		jwt:        dep.JWT,
		ins:        dep.Instrument,
		otpTTL:     ttl,
	}
}

func (s *Usecase) startSpan(ctx context.Context, name string) (context.Context, trace.Span) {
	return s.ins.Tracer("identity.usecase").Start(ctx, name)
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (s *Usecase) digest(code string) (string, error) {
	d, err := s.codeDigest.Hash(code)
	if err != nil {
		return "", err
	}
	return string(d), nil
}
