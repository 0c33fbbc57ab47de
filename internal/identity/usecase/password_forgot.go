package usecase

import (
	"context"
	"errors"
	"log/slog"

	"github.com/shandysiswandi/authotp/internal/identity/entity"
	"github.com/shandysiswandi/authotp/internal/pkg/goerror"
)

type PasswordForgotInput struct {
	Email string `validate:"required,email"`
}

// OTPIssuedOutput is returned by PasswordForgot and OTPResend. The code
// itself only travels through the notifier.
type OTPIssuedOutput struct {
	UserID int64
}

func (s *Usecase) PasswordForgot(ctx context.Context, in PasswordForgotInput) Outcome {
	ctx, span := s.startSpan(ctx, "PasswordForgot")
	defer span.End()

	out, err := s.passwordForgot(ctx, in)
	return result(msgOTPSent, out, err)
}

func (s *Usecase) passwordForgot(ctx context.Context, in PasswordForgotInput) (*OTPIssuedOutput, error) {
	in.Email = normalizeEmail(in.Email)

	if err := s.validator.Validate(in); err != nil {
		return nil, goerror.NewInvalidInput(err)
	}

	user, err := s.repoDB.GetUserByEmail(ctx, in.Email)
	if errors.Is(err, goerror.ErrNotFound) {
		slog.WarnContext(ctx, "password reset requested for unknown email", "email", in.Email)
		return nil, goerror.NewBusiness(msgUserNotFound, goerror.CodeNotFound)
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo get user by email", "email", in.Email, "error", err)
		return nil, goerror.NewServerMsg(err, msgResetFailed)
	}

	if err := s.issueAndSend(ctx, user, entity.OTPPurposeForgotPassword, nil, msgResetFailed); err != nil {
		return nil, err
	}

	return &OTPIssuedOutput{UserID: user.ID}, nil
}

// issueAndSend issues a fresh code for user and hands the plaintext to the
// notifier. A delivery failure keeps the issued record.
func (s *Usecase) issueAndSend(ctx context.Context, user *entity.User, purpose entity.OTPPurpose, basis *entity.OTPFilter, failMsg string) error {
	code, err := s.otp.Generate()
	if err != nil {
		slog.ErrorContext(ctx, "failed to generate otp", "user_id", user.ID, "error", err)
		return goerror.NewServerMsg(err, failMsg)
	}

	digest, err := s.digest(code)
	if err != nil {
		slog.ErrorContext(ctx, "failed to digest otp", "user_id", user.ID, "error", err)
		return goerror.NewServerMsg(err, failMsg)
	}

	now := s.clock.Now()
	issued, err := s.repoDB.IssueOTP(ctx, entity.IssueOTP{
		ID:         s.uid.Generate(),
		UserID:     user.ID,
		CodeDigest: digest,
		Purpose:    purpose,
		Basis:      basis,
		Now:        now,
		ExpiresAt:  now.Add(s.otpTTL),
	})
	if errors.Is(err, goerror.ErrNotFound) {
		slog.WarnContext(ctx, "otp issuance for unknown user", "user_id", user.ID)
		return goerror.NewBusiness(msgUserNotFound, goerror.CodeNotFound)
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo issue otp", "user_id", user.ID, "purpose", purpose.String(), "error", err)
		return goerror.NewServerMsg(err, failMsg)
	}

	slog.InfoContext(ctx, "otp issued", "user_id", user.ID, "otp_id", issued.ID, "purpose", purpose.String(), "attempts", issued.Attempts)

	if err := s.notifier.SendOTPEmail(ctx, user.Email, code); err != nil {
		slog.ErrorContext(ctx, "failed to send otp email", "user_id", user.ID, "otp_id", issued.ID, "error", err)
		return goerror.NewServerMsg(err, msgOTPSendFailed)
	}

	return nil
}
