package inbound

import (
	"context"

	"github.com/shandysiswandi/authotp/internal/identity/usecase"
	"github.com/shandysiswandi/authotp/internal/pkg/router"
)

type uc interface {
	Register(ctx context.Context, in usecase.RegisterInput) usecase.Outcome
	Login(ctx context.Context, in usecase.LoginInput) usecase.Outcome

	PasswordForgot(ctx context.Context, in usecase.PasswordForgotInput) usecase.Outcome
	OTPVerify(ctx context.Context, in usecase.OTPVerifyInput) usecase.Outcome
	OTPResend(ctx context.Context, in usecase.OTPResendInput) usecase.Outcome
	PasswordReset(ctx context.Context, in usecase.PasswordResetInput) usecase.Outcome

	Profile(ctx context.Context) usecase.Outcome
}

func RegisterHTTPEndpoint(r *router.Router, uc uc) {
	end := &HTTPEndpoint{uc: uc}

	r.POST("/api/v1/auth/sign-up", end.Register)
	r.POST("/api/v1/auth/login", end.Login)

	// Forgot password: both routes send an email, a retried request must not
	// issue a second code.
	r.POST("/api/v1/auth/forgot-password", end.PasswordForgot, r.Idempotent())
	r.POST("/api/v1/auth/verify-otp", end.OTPVerify)
	r.POST("/api/v1/auth/resend-otp", end.OTPResend, r.Idempotent())
	r.POST("/api/v1/auth/reset-password", end.PasswordReset)

	r.GET("/api/v1/auth/me", end.Profile, r.Authenticated())
}
