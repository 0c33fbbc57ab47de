package usecase

import (
	"context"
	"errors"
	"log/slog"

	"github.com/shandysiswandi/authotp/internal/identity/entity"
	"github.com/shandysiswandi/authotp/internal/pkg/goerror"
)

type OTPVerifyInput struct {
	UserID  int64  `validate:"required,gt=0"`
	OTPCode string `validate:"required,otp"`
}

func (s *Usecase) OTPVerify(ctx context.Context, in OTPVerifyInput) Outcome {
	ctx, span := s.startSpan(ctx, "OTPVerify")
	defer span.End()

	return result[struct{}](msgOTPVerified, nil, s.otpVerify(ctx, in))
}

func (s *Usecase) otpVerify(ctx context.Context, in OTPVerifyInput) error {
	if err := s.validator.Validate(in); err != nil {
		return goerror.NewInvalidInput(err)
	}

	digest, err := s.digest(in.OTPCode)
	if err != nil {
		slog.ErrorContext(ctx, "failed to digest otp", "user_id", in.UserID, "error", err)
		return goerror.NewServerMsg(err, msgOTPVerifyFailed)
	}

	now := s.clock.Now()
	o, err := s.repoDB.FindOTP(ctx, in.UserID, digest, entity.OTPFilterVerifiable, now)
	if errors.Is(err, goerror.ErrNotFound) {
		slog.WarnContext(ctx, "no verifiable otp matched", "user_id", in.UserID)
		return goerror.NewBusiness(msgNoValidOTP, goerror.CodeUnauthorized)
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo find otp", "user_id", in.UserID, "error", err)
		return goerror.NewServerMsg(err, msgOTPVerifyFailed)
	}

	o.Verified = true
	o.VerifiedAt = &now
	o.UpdatedAt = now

	err = s.repoDB.UpdateOTP(ctx, *o, entity.OTPFilterVerifiable)
	if errors.Is(err, goerror.ErrNotFound) {
		slog.WarnContext(ctx, "otp superseded during verification", "user_id", in.UserID, "otp_id", o.ID)
		return goerror.NewBusiness(msgNoValidOTP, goerror.CodeUnauthorized)
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo update otp", "user_id", in.UserID, "otp_id", o.ID, "error", err)
		return goerror.NewServerMsg(err, msgOTPVerifyFailed)
	}

	return nil
}
