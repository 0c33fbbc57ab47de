package identity

import (
	"errors"
	"fmt"
	"time"

	"github.com/shandysiswandi/authotp/internal/identity/usecase"
	"github.com/shandysiswandi/authotp/internal/pkg/config"
	"github.com/shandysiswandi/authotp/internal/pkg/jwt"
	"github.com/shandysiswandi/authotp/internal/pkg/validator"
	"github.com/shandysiswandi/authotp/internal/shared/mailtpl"
)

const (
	// NotifierSMTP sends the code synchronously through the mail transport.
	NotifierSMTP = "smtp"
	// NotifierMessaging publishes an otp_issued event for the notification module.
	NotifierMessaging = "messaging"
)

// ErrInvalidConfig wraps every startup configuration failure.
var ErrInvalidConfig = errors.New("identity: invalid config")

// Config is read once at startup and shared read-only by the module.
type Config struct {
	JWTSecret    []byte `validate:"required,min=64"`
	JWTIssuer    string `validate:"required"`
	JWTAudiences []string
	// JWTTTL falls back to jwt.DefaultTTL when zero.
	JWTTTL time.Duration `validate:"gte=0"`

	PasswordAlgorithm string `validate:"required,oneof=bcrypt argon2id"`
	PasswordCost      int
	PasswordPepper    string

	OTPDigits int           `validate:"oneof=6 8"`
	OTPTTL    time.Duration `validate:"gt=0"`
	// OTPSecret keys the HMAC digest stored in place of the code.
	OTPSecret string `validate:"required,min=16"`

	NotifierDriver  string `validate:"required,oneof=smtp messaging"`
	NotifierSubject string
}

// LoadConfig reads the identity settings, applies defaults and validates
// them. Startup must stop on error.
func LoadConfig(cfg config.Config, v validator.Validator) (Config, error) {
	c := Config{
		JWTSecret:         []byte(cfg.GetString("jwt.secret")),
		JWTIssuer:         cfg.GetString("jwt.issuer"),
		JWTAudiences:      cfg.GetArray("jwt.audiences"),
		JWTTTL:            cfg.GetMinute("jwt.ttl_minutes"),
		PasswordAlgorithm: cfg.GetString("hash.password.algorithm"),
		PasswordCost:      cfg.GetInt("hash.password.cost"),
		PasswordPepper:    cfg.GetString("hash.password.pepper"),
		OTPDigits:         cfg.GetInt("otp.digits"),
		OTPTTL:            cfg.GetMinute("otp.ttl_minutes"),
		OTPSecret:         cfg.GetString("otp.secret"),
		NotifierDriver:    cfg.GetString("notifier.driver"),
		NotifierSubject:   cfg.GetString("notifier.subject"),
	}

	if c.PasswordAlgorithm == "" {
		c.PasswordAlgorithm = "bcrypt"
	}
	if c.OTPDigits == 0 {
		c.OTPDigits = 6
	}
	if c.OTPTTL == 0 {
		c.OTPTTL = usecase.DefaultOTPTTL
	}
	if c.NotifierDriver == "" {
		c.NotifierDriver = NotifierSMTP
	}
	if c.NotifierSubject == "" {
		c.NotifierSubject = mailtpl.DefaultOTPSubject
	}

	if err := v.Validate(c); err != nil {
		return Config{}, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}

	return c, nil
}

// JWT returns the token issuer settings.
func (c Config) JWT(clock jwtClock, uuid jwtUUID) jwt.Config {
	return jwt.Config{
		Secret:    c.JWTSecret,
		Issuer:    c.JWTIssuer,
		Audiences: c.JWTAudiences,
		TTL:       c.JWTTTL,
		Clock:     clock,
		UUID:      uuid,
	}
}

type jwtClock interface {
	Now() time.Time
}

type jwtUUID interface {
	Generate() string
}
