package usecase

import (
	"context"
	"errors"
	"log/slog"

	"github.com/shandysiswandi/authotp/internal/pkg/goerror"
	"github.com/shandysiswandi/authotp/internal/pkg/jwt"
)

type ProfileOutput struct {
	ID    int64
	Email string
}

// Profile returns the account behind the session token in ctx.
func (s *Usecase) Profile(ctx context.Context) Outcome {
	ctx, span := s.startSpan(ctx, "Profile")
	defer span.End()

	out, err := s.profile(ctx)
	return result(msgProfile, out, err)
}

func (s *Usecase) profile(ctx context.Context) (*ProfileOutput, error) {
	clm := jwt.GetAuth(ctx)
	if clm == nil {
		return nil, goerror.NewBusiness(msgAuthRequired, goerror.CodeUnauthorized)
	}

	user, err := s.repoDB.GetUserByID(ctx, clm.UserID)
	if errors.Is(err, goerror.ErrNotFound) {
		slog.WarnContext(ctx, "token for unknown user", "user_id", clm.UserID)
		return nil, goerror.NewBusiness(msgAuthRequired, goerror.CodeUnauthorized)
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo get user by id", "user_id", clm.UserID, "error", err)
		return nil, goerror.NewServerMsg(err, msgProfileFailed)
	}

	return &ProfileOutput{ID: user.ID, Email: user.Email}, nil
}
