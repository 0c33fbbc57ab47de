package usecase

import (
	"context"
	"errors"
	"log/slog"

	"github.com/shandysiswandi/authotp/internal/pkg/goerror"
)

type LoginInput struct {
	Email    string `validate:"required,email"`
	Password string `validate:"required"`
}

func (s *Usecase) Login(ctx context.Context, in LoginInput) Outcome {
	ctx, span := s.startSpan(ctx, "Login")
	defer span.End()

	out, err := s.login(ctx, in)
	return result(msgLoggedIn, out, err)
}

func (s *Usecase) login(ctx context.Context, in LoginInput) (*AuthOutput, error) {
	in.Email = normalizeEmail(in.Email)

	if err := s.validator.Validate(in); err != nil {
		return nil, goerror.NewInvalidInput(err)
	}

	user, err := s.repoDB.GetUserByEmail(ctx, in.Email)
	if errors.Is(err, goerror.ErrNotFound) {
		slog.WarnContext(ctx, "user account not found", "email", in.Email)
		return nil, goerror.NewBusiness(msgUserNotFound, goerror.CodeNotFound)
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo get user by email", "email", in.Email, "error", err)
		return nil, goerror.NewServerMsg(err, msgLoginFailed)
	}

	if !s.password.Verify(user.Password, in.Password) {
		slog.WarnContext(ctx, "password user account not match", "user_id", user.ID)
		return nil, goerror.NewBusiness(msgInvalidPassword, goerror.CodeUnauthorized)
	}

	token, err := s.jwt.Generate(user.ID, user.Email)
	if err != nil {
		slog.ErrorContext(ctx, "failed to generate access jwt token", "user_id", user.ID, "error", err)
		return nil, goerror.NewServerMsg(err, msgTokenFailed)
	}

	return &AuthOutput{ID: user.ID, Token: token}, nil
}
