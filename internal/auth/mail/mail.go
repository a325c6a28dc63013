// Package mail is the outbound email boundary. The auth service consumes it
// as a capability; delivery failures surface to callers so registration can
// roll back.
package mail

import (
	"context"
	"fmt"
)

// Sender delivers a single email.
type Sender interface {
	Send(ctx context.Context, to, subject, htmlBody string) error
}

// ConfirmationMessage builds the registration confirmation email pointing
// the recipient at confirmURL with their code attached.
func ConfirmationMessage(confirmURL, code string) (subject, htmlBody string) {
	subject = "Confirm email"
	htmlBody = fmt.Sprintf(
		`<a href="%s?code=%s">Click on confirm email</a>`,
		confirmURL, code,
	)
	return subject, htmlBody
}
