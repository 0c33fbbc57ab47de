package usecase

const (
	msgUserExists       = "User already exists."
	msgRegistered       = "User registered successfully."
	msgRegisterFailed   = "An error occurred during registration."
	msgPasswordTooLong  = "Password is too long."
	msgTokenAfterCreate = "User registered but token could not be issued."
	msgUserNotFound     = "User not found."
	msgInvalidPassword  = "Invalid password."
	msgLoggedIn         = "Login successful."
	msgLoginFailed      = "An error occurred during login."
	msgTokenFailed      = "Failed to generate token."
	msgOTPSent          = "OTP has been sent to your email."
	msgOTPResent        = "OTP has been resent to your email."
	msgOTPSendFailed    = "Failed to send OTP email."
	msgOTPResendFailed  = "An error occurred while resending the OTP."
	msgNoValidOTP       = "No valid OTP found."
	msgOTPVerified      = "OTP verified successfully."
	msgOTPVerifyFailed  = "An error occurred during OTP verification."
	msgPasswordReset    = "Password reset successfully."
	msgResetFailed      = "An error occurred during password reset."
	msgAuthRequired     = "Authentication required."
	msgProfile          = "Profile retrieved successfully."
	msgProfileFailed    = "An error occurred while loading the profile."
)
