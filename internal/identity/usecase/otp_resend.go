package usecase

import (
	"context"
	"errors"
	"log/slog"

	"github.com/shandysiswandi/authotp/internal/identity/entity"
	"github.com/shandysiswandi/authotp/internal/pkg/goerror"
)

type OTPResendInput struct {
	UserID int64 `validate:"required,gt=0"`
}

// OTPResend issues a replacement code. The attempt counter follows the
// newest code that was still awaiting verification, and every live code of
// the user is superseded.
func (s *Usecase) OTPResend(ctx context.Context, in OTPResendInput) Outcome {
	ctx, span := s.startSpan(ctx, "OTPResend")
	defer span.End()

	out, err := s.otpResend(ctx, in)
	return result(msgOTPResent, out, err)
}

func (s *Usecase) otpResend(ctx context.Context, in OTPResendInput) (*OTPIssuedOutput, error) {
	if err := s.validator.Validate(in); err != nil {
		return nil, goerror.NewInvalidInput(err)
	}

	user, err := s.repoDB.GetUserByID(ctx, in.UserID)
	if errors.Is(err, goerror.ErrNotFound) {
		slog.WarnContext(ctx, "otp resend for unknown user", "user_id", in.UserID)
		return nil, goerror.NewBusiness(msgUserNotFound, goerror.CodeNotFound)
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo get user by id", "user_id", in.UserID, "error", err)
		return nil, goerror.NewServerMsg(err, msgOTPResendFailed)
	}

	basis := entity.OTPFilterVerifiable
	if err := s.issueAndSend(ctx, user, entity.OTPPurposeResend, &basis, msgOTPResendFailed); err != nil {
		return nil, err
	}

	return &OTPIssuedOutput{UserID: user.ID}, nil
}
