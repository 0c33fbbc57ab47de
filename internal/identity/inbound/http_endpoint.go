package inbound

import (
	"net/http"

	"github.com/shandysiswandi/authotp/internal/identity/usecase"
	"github.com/shandysiswandi/authotp/internal/pkg/router"
)

// HTTPEndpoint exposes the authentication and password recovery workflows.
type HTTPEndpoint struct {
	uc uc
}

// render turns an Outcome into a router result. Failures become errors so
// the router writes the error envelope, unless the outcome still carries data
// (a sign-up whose token failed), which is written with the failure status.
func render[T, R any](o usecase.Outcome, conv func(T) R) (any, error) {
	var data any
	if v, ok := o.Data.(T); ok && conv != nil {
		data = conv(v)
	}

	if o.Kind != usecase.KindSuccess && data == nil {
		return nil, o.Err()
	}

	code := o.Code
	if code == 0 {
		code = http.StatusOK
	}
	return outcomeResponse{message: o.Message, code: code, data: data}, nil
}

func toAuth(out usecase.AuthOutput) AuthResponse {
	return AuthResponse{ID: out.ID, Token: out.Token}
}

func toOTPIssued(out usecase.OTPIssuedOutput) OTPIssuedResponse {
	return OTPIssuedResponse{UserID: out.UserID}
}

// Register creates an account and returns its id and a session token.
func (h *HTTPEndpoint) Register(r *router.Request) (any, error) {
	var req RegisterRequest
	if err := r.DecodeBody(&req); err != nil {
		return nil, err
	}

	return render(h.uc.Register(r.Context(), usecase.RegisterInput{
		Email:    req.Email,
		Password: req.Password,
	}), toAuth)
}

// Login checks the credentials and returns a session token.
func (h *HTTPEndpoint) Login(r *router.Request) (any, error) {
	var req LoginRequest
	if err := r.DecodeBody(&req); err != nil {
		return nil, err
	}

	return render(h.uc.Login(r.Context(), usecase.LoginInput{
		Email:    req.Email,
		Password: req.Password,
	}), toAuth)
}

// PasswordForgot emails a one-time code to the account owner.
func (h *HTTPEndpoint) PasswordForgot(r *router.Request) (any, error) {
	var req PasswordForgotRequest
	if err := r.DecodeBody(&req); err != nil {
		return nil, err
	}

	return render(h.uc.PasswordForgot(r.Context(), usecase.PasswordForgotInput{
		Email: req.Email,
	}), toOTPIssued)
}

// OTPVerify checks a code without consuming it.
func (h *HTTPEndpoint) OTPVerify(r *router.Request) (any, error) {
	var req OTPVerifyRequest
	if err := r.DecodeBody(&req); err != nil {
		return nil, err
	}

	return render[struct{}, struct{}](h.uc.OTPVerify(r.Context(), usecase.OTPVerifyInput{
		UserID:  req.UserID,
		OTPCode: req.OTPCode,
	}), nil)
}

// OTPResend replaces the pending code and sends a new one.
func (h *HTTPEndpoint) OTPResend(r *router.Request) (any, error) {
	var req OTPResendRequest
	if err := r.DecodeBody(&req); err != nil {
		return nil, err
	}

	return render(h.uc.OTPResend(r.Context(), usecase.OTPResendInput{
		UserID: req.UserID,
	}), toOTPIssued)
}

// PasswordReset sets a new password with a verified code.
func (h *HTTPEndpoint) PasswordReset(r *router.Request) (any, error) {
	var req PasswordResetRequest
	if err := r.DecodeBody(&req); err != nil {
		return nil, err
	}

	return render[struct{}, struct{}](h.uc.PasswordReset(r.Context(), usecase.PasswordResetInput{
		UserID:      req.UserID,
		NewPassword: req.NewPassword,
		OTPCode:     req.OTPCode,
	}), nil)
}

// Profile returns the caller's account. Requires a bearer token.
func (h *HTTPEndpoint) Profile(r *router.Request) (any, error) {
	return render(h.uc.Profile(r.Context()), func(out usecase.ProfileOutput) ProfileResponse {
		return ProfileResponse{ID: out.ID, Email: out.Email}
	})
}
