package http

import (
	"net/mail"
	"strings"
	"unicode/utf8"
)

// Field length bounds enforced at the HTTP boundary.
const (
	minLoginLen    = 3
	maxLoginLen    = 10
	minPasswordLen = 6
	maxPasswordLen = 20
)

func validateLogin(login string) *ErrorMessage {
	n := utf8.RuneCountInString(login)
	if n < minLoginLen || n > maxLoginLen {
		return &ErrorMessage{Message: "Login must be 3-10 characters", Field: "login"}
	}
	return nil
}

func validateEmail(email string) *ErrorMessage {
	addr, err := mail.ParseAddress(email)
	// ParseAddress accepts display names ("A <a@b.c>"); require the bare form.
	if err != nil || addr.Address != email || strings.TrimSpace(email) != email {
		return &ErrorMessage{Message: "Email is invalid", Field: "email"}
	}
	return nil
}

func validatePassword(password string) *ErrorMessage {
	n := utf8.RuneCountInString(password)
	if n < minPasswordLen || n > maxPasswordLen {
		return &ErrorMessage{Message: "Password must be 6-20 characters", Field: "password"}
	}
	return nil
}

// validateCredentialsInput collects every problem with a registration or
// admin-create payload so the client sees all of them at once.
func validateCredentialsInput(login, email, password string) []ErrorMessage {
	var msgs []ErrorMessage
	if m := validateLogin(login); m != nil {
		msgs = append(msgs, *m)
	}
	if m := validateEmail(email); m != nil {
		msgs = append(msgs, *m)
	}
	if m := validatePassword(password); m != nil {
		msgs = append(msgs, *m)
	}
	return msgs
}
