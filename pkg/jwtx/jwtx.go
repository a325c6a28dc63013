package jwtx

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Token TTL defaults. Both are deliberately short so clients exercise the
// refresh rotation protocol every few seconds; production deployments
// override them via configuration.
const (
	// DefaultAccessTokenTTL is the default lifetime for access tokens.
	DefaultAccessTokenTTL = 10 * time.Second

	// DefaultRefreshTokenTTL is the default lifetime for refresh tokens.
	DefaultRefreshTokenTTL = 20 * time.Second
)

// ErrInvalidToken covers every verification failure: bad signature,
// malformed token, unexpected algorithm, expiry. Callers never learn which.
var ErrInvalidToken = errors.New("jwtx: invalid token")

// Claims are the claims embedded in both access and refresh tokens. The
// subject carries the user id; nothing else is trusted from the client.
type Claims struct {
	jwt.RegisteredClaims
}

// Verifier checks a raw token and returns its claims. Satisfied by *Signer;
// middleware and services depend on this interface so tests can substitute
// their own.
type Verifier interface {
	Verify(raw string) (Claims, error)
}

// Signer issues and verifies HS256 signed tokens.
type Signer struct {
	secret []byte
	issuer string

	// Now is the time source for iat/exp; defaults to time.Now.
	Now func() time.Time
}

func NewSigner(secret, issuer string) *Signer {
	return &Signer{
		secret: []byte(secret),
		issuer: issuer,
		Now:    time.Now,
	}
}

// Issue produces a signed token for the subject user id expiring after ttl.
func (s *Signer) Issue(subject string, ttl time.Duration) (string, error) {
	now := s.Now().UTC()

	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        newJTI(),
			Issuer:    s.issuer,
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.secret)
}

// newJTI returns a random token id. Timestamps in JWTs have second
// granularity, so without a jti two tokens minted for the same subject in
// the same second would be byte-identical; rotation requires every token
// to be distinct.
func newJTI() string {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		panic(err)
	}
	return base64.RawURLEncoding.EncodeToString(buf)
}

// Verify checks signature and expiry and returns the decoded claims. Any
// failure collapses into ErrInvalidToken.
func (s *Signer) Verify(raw string) (Claims, error) {
	var claims Claims

	token, err := jwt.ParseWithClaims(raw, &claims,
		func(t *jwt.Token) (any, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, ErrInvalidToken
			}
			return s.secret, nil
		},
		jwt.WithTimeFunc(func() time.Time { return s.Now().UTC() }),
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
	)
	if err != nil || !token.Valid {
		return Claims{}, ErrInvalidToken
	}

	return claims, nil
}
