package domain

import "time"

// Confirmation is the email-confirmation sub-record attached to every user.
// A user is either pending (Confirmed=false, code unexpired) or confirmed;
// once confirmed the code is dead and only the resend flow may replace it.
type Confirmation struct {
	Code      string
	ExpiresAt time.Time
	Confirmed bool
}

// Expired reports whether the confirmation code has passed its validity
// window at the given instant.
func (c Confirmation) Expired(now time.Time) bool {
	return now.After(c.ExpiresAt)
}

type User struct {
	ID           string
	Login        string // unique, 3-10 chars
	Email        string // unique
	PasswordHash string // argon2id PHC encoded
	Confirmation Confirmation
	CreatedAt    time.Time
}

// UserPage is one page of the admin user listing.
type UserPage struct {
	PagesCount int    `json:"pagesCount"`
	Page       int    `json:"page"`
	PageSize   int    `json:"pageSize"`
	TotalCount int    `json:"totalCount"`
	Items      []User `json:"items"`
}
