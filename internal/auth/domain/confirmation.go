package domain

import (
	"time"

	"github.com/google/uuid"
)

// DefaultConfirmationTTL is the validity window for freshly issued
// confirmation codes.
const DefaultConfirmationTTL = 90 * time.Minute

// NewConfirmation issues a fresh confirmation code expiring ttl from now.
// preConfirmed marks administrator-created accounts that skip the email
// step entirely; the code is still generated for uniformity.
func NewConfirmation(now time.Time, ttl time.Duration, preConfirmed bool) Confirmation {
	return Confirmation{
		Code:      uuid.NewString(),
		ExpiresAt: now.Add(ttl),
		Confirmed: preConfirmed,
	}
}
