package inbound

type RegisterRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// AuthResponse is returned by sign-up and login. A sign-up whose token could
// not be issued carries only the id.
type AuthResponse struct {
	ID    int64  `json:"id,string"`
	Token string `json:"token,omitempty"`
}

type PasswordForgotRequest struct {
	Email string `json:"email"`
}

type OTPVerifyRequest struct {
	UserID  int64  `json:"user_id,string"`
	OTPCode string `json:"otp_code"`
}

type OTPResendRequest struct {
	UserID int64 `json:"user_id,string"`
}

type OTPIssuedResponse struct {
	UserID int64 `json:"user_id,string"`
}

type PasswordResetRequest struct {
	UserID      int64  `json:"user_id,string"`
	OTPCode     string `json:"otp_code"`
	NewPassword string `json:"new_password"`
}

type ProfileResponse struct {
	ID    int64  `json:"id,string"`
	Email string `json:"email"`
}

// outcomeResponse carries the message and status of an Outcome into the
// router's success envelope.
type outcomeResponse struct {
	message string
	code    int
	data    any
}

func (o outcomeResponse) Message() string { return o.message }
func (o outcomeResponse) StatusCode() int { return o.code }
func (o outcomeResponse) Payload() any    { return o.data }
