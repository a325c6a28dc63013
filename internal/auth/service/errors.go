package service

import "errors"

// Sentinel errors returned by the services. The HTTP layer maps them onto
// status codes; the error text doubles as the client-facing message.
var (
	// Mapped to 401 Unauthorized.
	ErrUserNotFound          = errors.New("User Not Found")
	ErrEmailNotConfirmed     = errors.New("Email not confirmed")
	ErrRefreshTokenIncorrect = errors.New("Refresh token is incorrect")

	// Mapped to 400 Bad Request.
	ErrMessageNotSent   = errors.New("Message not sent")
	ErrAlreadyConfirmed = errors.New("Email already confirmed")
	ErrCodeExpired      = errors.New("Confirmation code expired")
	ErrLoginTaken       = errors.New("Login already in use")
	ErrEmailTaken       = errors.New("Email already in use")
)
