package usecase

import (
	"context"
	"errors"
	"log/slog"

	"github.com/shandysiswandi/authotp/internal/identity/entity"
	"github.com/shandysiswandi/authotp/internal/pkg/goerror"
	"github.com/shandysiswandi/authotp/internal/pkg/hash"
)

type PasswordResetInput struct {
	UserID      int64  `validate:"required,gt=0"`
	NewPassword string `validate:"required,password"`
	OTPCode     string `validate:"required,otp"`
}

// PasswordReset replaces the password using a verified code. The code is
// consumed in the same transaction as the password update.
func (s *Usecase) PasswordReset(ctx context.Context, in PasswordResetInput) Outcome {
	ctx, span := s.startSpan(ctx, "PasswordReset")
	defer span.End()

	return result[struct{}](msgPasswordReset, nil, s.passwordReset(ctx, in))
}

func (s *Usecase) passwordReset(ctx context.Context, in PasswordResetInput) error {
	if err := s.validator.Validate(in); err != nil {
		return goerror.NewInvalidInput(err)
	}

	digest, err := s.digest(in.OTPCode)
	if err != nil {
		slog.ErrorContext(ctx, "failed to digest otp", "user_id", in.UserID, "error", err)
		return goerror.NewServerMsg(err, msgResetFailed)
	}

	now := s.clock.Now()
	o, err := s.repoDB.FindOTP(ctx, in.UserID, digest, entity.OTPFilterResettable, now)
	if errors.Is(err, goerror.ErrNotFound) {
		slog.WarnContext(ctx, "no resettable otp matched", "user_id", in.UserID)
		return goerror.NewBusiness(msgNoValidOTP, goerror.CodeUnauthorized)
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo find otp", "user_id", in.UserID, "error", err)
		return goerror.NewServerMsg(err, msgResetFailed)
	}

	hashed, err := s.password.Hash(in.NewPassword)
	if errors.Is(err, hash.ErrPlaintextTooLong) {
		return goerror.NewInvalidInput(nil, "new_password", msgPasswordTooLong)
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to hash new password", "user_id", in.UserID, "error", err)
		return goerror.NewServerMsg(err, msgResetFailed)
	}

	o.UpdatedAt = now
	err = s.repoDB.ResetPassword(ctx, *o, string(hashed))
	if errors.Is(err, goerror.ErrNotFound) {
		slog.WarnContext(ctx, "otp consumed during reset", "user_id", in.UserID, "otp_id", o.ID)
		return goerror.NewBusiness(msgNoValidOTP, goerror.CodeUnauthorized)
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo reset password", "user_id", in.UserID, "otp_id", o.ID, "error", err)
		return goerror.NewServerMsg(err, msgResetFailed)
	}

	slog.InfoContext(ctx, "password reset", "user_id", in.UserID, "otp_id", o.ID)
	return nil
}
