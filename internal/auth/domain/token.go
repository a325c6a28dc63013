package domain

import "time"

// TokenPair is what a successful login or refresh returns: a short-lived
// access token and a single-use refresh token, both signed JWTs.
type TokenPair struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

// SpentToken records a consumed refresh token by fingerprint. Presenting a
// token whose fingerprint is already recorded fails; the record may be
// garbage-collected once the token would have expired anyway.
type SpentToken struct {
	Fingerprint string
	ExpiresAt   time.Time
	SpentAt     time.Time
}
