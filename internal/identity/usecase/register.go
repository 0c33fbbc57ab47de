package usecase

import (
	"context"
	"errors"
	"log/slog"

	"github.com/shandysiswandi/authotp/internal/identity/entity"
	"github.com/shandysiswandi/authotp/internal/pkg/goerror"
	"github.com/shandysiswandi/authotp/internal/pkg/hash"
)

type RegisterInput struct {
	Email    string `validate:"required,email"`
	Password string `validate:"required,password"`
}

// AuthOutput is returned by Register and Login.
type AuthOutput struct {
	ID    int64
	Token string
}

// Register creates an account and issues a session token. When the token
// cannot be issued the account still exists and its id is returned with
// the failure.
func (s *Usecase) Register(ctx context.Context, in RegisterInput) Outcome {
	ctx, span := s.startSpan(ctx, "Register")
	defer span.End()

	out, err := s.register(ctx, in)
	return result(msgRegistered, out, err)
}

func (s *Usecase) register(ctx context.Context, in RegisterInput) (*AuthOutput, error) {
	in.Email = normalizeEmail(in.Email)

	if err := s.validator.Validate(in); err != nil {
		return nil, goerror.NewInvalidInput(err)
	}

	_, err := s.repoDB.GetUserByEmail(ctx, in.Email)
	if err == nil {
		slog.WarnContext(ctx, "registration for existing email", "email", in.Email)
		return nil, goerror.NewBusiness(msgUserExists, goerror.CodeConflict)
	}
	if !errors.Is(err, goerror.ErrNotFound) {
		slog.ErrorContext(ctx, "failed to repo get user by email", "email", in.Email, "error", err)
		return nil, goerror.NewServerMsg(err, msgRegisterFailed)
	}

	hashed, err := s.password.Hash(in.Password)
	if errors.Is(err, hash.ErrPlaintextTooLong) {
		return nil, goerror.NewInvalidInput(nil, "password", msgPasswordTooLong)
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to hash password", "error", err)
		return nil, goerror.NewServerMsg(err, msgRegisterFailed)
	}

	now := s.clock.Now()
	user := entity.User{
		ID:        s.uid.Generate(),
		Email:     in.Email,
		Password:  string(hashed),
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.repoDB.CreateUser(ctx, user); err != nil {
		if errors.Is(err, goerror.ErrConflict) {
			slog.WarnContext(ctx, "registration lost race for email", "email", in.Email)
			return nil, goerror.NewBusiness(msgUserExists, goerror.CodeConflict)
		}
		slog.ErrorContext(ctx, "failed to repo create user", "email", in.Email, "error", err)
		return nil, goerror.NewServerMsg(err, msgRegisterFailed)
	}

	token, err := s.jwt.Generate(user.ID, user.Email)
	if err != nil {
		slog.ErrorContext(ctx, "failed to generate jwt for new user", "user_id", user.ID, "error", err)
		return &AuthOutput{ID: user.ID}, goerror.NewServerMsg(err, msgTokenAfterCreate)
	}

	return &AuthOutput{ID: user.ID, Token: token}, nil
}
