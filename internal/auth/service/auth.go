package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/plumeworks/plume/internal/auth/domain"
	"github.com/plumeworks/plume/internal/auth/mail"
	"github.com/plumeworks/plume/internal/auth/store"
	"github.com/plumeworks/plume/pkg/cryptox"
	"github.com/plumeworks/plume/pkg/idx"
	"github.com/plumeworks/plume/pkg/jwtx"
	"github.com/plumeworks/plume/pkg/slogx"
)

// AuthService owns the session lifecycle: registration, email confirmation,
// login, refresh rotation and logout.
type AuthService struct {
	Store  store.Store
	Signer *jwtx.Signer
	Mailer mail.Sender

	// ConfirmURL is the page the confirmation email links to; the code is
	// appended as a query parameter.
	ConfirmURL string

	AccessTTL       time.Duration
	RefreshTTL      time.Duration
	ConfirmationTTL time.Duration

	// Now is the time source; defaults to time.Now. Tests override it.
	Now func() time.Time
}

func (s *AuthService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

// Register creates an unconfirmed user and emails the confirmation code. If
// the email cannot be delivered the user record is deleted again so the
// login and email stay free for a retry, and ErrMessageNotSent is returned.
func (s *AuthService) Register(ctx context.Context, login, email, password string) error {
	l := slogx.FromContext(ctx)
	now := s.now()

	if _, err := s.Store.Users().GetUserByLogin(ctx, login); err == nil {
		return ErrLoginTaken
	} else if !errors.Is(err, store.ErrNotFound) {
		return err
	}
	if _, err := s.Store.Users().GetUserByEmail(ctx, email); err == nil {
		return ErrEmailTaken
	} else if !errors.Is(err, store.ErrNotFound) {
		return err
	}

	hash, err := cryptox.HashPassword(password)
	if err != nil {
		return err
	}

	user := domain.User{
		ID:           idx.New().String(),
		Login:        login,
		Email:        email,
		PasswordHash: hash,
		Confirmation: domain.NewConfirmation(now, s.ConfirmationTTL, false),
		CreatedAt:    now,
	}

	if err := s.Store.Users().CreateUser(ctx, user); err != nil {
		if errors.Is(err, store.ErrAlreadyExists) {
			// Lost a race with a concurrent registration.
			return ErrLoginTaken
		}
		return err
	}

	subject, body := mail.ConfirmationMessage(s.ConfirmURL, user.Confirmation.Code)
	if err := s.Mailer.Send(ctx, user.Email, subject, body); err != nil {
		l.Warn("confirmation email failed, rolling back registration",
			slog.String("user_id", user.ID),
			slog.Any("error", err),
		)
		if delErr := s.Store.Users().DeleteUser(ctx, user.ID); delErr != nil {
			l.Error("registration rollback failed",
				slog.String("user_id", user.ID),
				slog.Any("error", delErr),
			)
		}
		return fmt.Errorf("%w: %s", ErrMessageNotSent, err)
	}

	l.Info("user registered", slog.String("user_id", user.ID))
	return nil
}

// ConfirmRegistration resolves a confirmation code and marks its owner
// confirmed. Unknown codes report ErrUserNotFound; codes belonging to an
// already confirmed user or past their validity window are rejected even
// though the HTTP layer screens for both as well.
func (s *AuthService) ConfirmRegistration(ctx context.Context, code string) error {
	user, err := s.Store.Users().GetUserByConfirmationCode(ctx, code)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrUserNotFound
		}
		return err
	}

	if user.Confirmation.Confirmed {
		return ErrAlreadyConfirmed
	}
	if user.Confirmation.Expired(s.now()) {
		return ErrCodeExpired
	}

	if err := s.Store.Users().MarkConfirmed(ctx, user.ID); err != nil {
		return err
	}

	slogx.FromContext(ctx).Info("email confirmed", slog.String("user_id", user.ID))
	return nil
}

// ResendConfirmation replaces the user's confirmation code with a fresh one
// and emails it. An expired previous code is fine, that is what resending is
// for. Unlike Register, a delivery failure does not roll anything back: the
// account exists either way and the client may simply retry.
func (s *AuthService) ResendConfirmation(ctx context.Context, email string) error {
	user, err := s.Store.Users().GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrUserNotFound
		}
		return err
	}

	if user.Confirmation.Confirmed {
		return ErrAlreadyConfirmed
	}

	conf := domain.NewConfirmation(s.now(), s.ConfirmationTTL, false)
	if err := s.Store.Users().UpdateConfirmation(ctx, email, conf); err != nil {
		return err
	}

	subject, body := mail.ConfirmationMessage(s.ConfirmURL, conf.Code)
	if err := s.Mailer.Send(ctx, email, subject, body); err != nil {
		return fmt.Errorf("%w: %s", ErrMessageNotSent, err)
	}

	return nil
}

// Login checks credentials and mints a token pair. An unknown login and a
// wrong password are indistinguishable to the caller: both return
// ErrUserNotFound, so the endpoint cannot be used to probe which logins
// exist.
func (s *AuthService) Login(ctx context.Context, login, password string) (domain.TokenPair, error) {
	user, err := s.Store.Users().GetUserByLogin(ctx, login)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.TokenPair{}, ErrUserNotFound
		}
		return domain.TokenPair{}, err
	}

	if !user.Confirmation.Confirmed {
		return domain.TokenPair{}, ErrEmailNotConfirmed
	}

	if err := cryptox.VerifyPassword(password, user.PasswordHash); err != nil {
		return domain.TokenPair{}, ErrUserNotFound
	}

	pair, err := s.issuePair(user.ID)
	if err != nil {
		return domain.TokenPair{}, err
	}

	slogx.FromContext(ctx).Info("user logged in", slog.String("user_id", user.ID))
	return pair, nil
}

// Refresh consumes a refresh token and mints a fresh pair. Each refresh
// token works exactly once: consumption is an atomic insert of the token's
// fingerprint into the spent set, so of two racing requests presenting the
// same token one wins and the other gets ErrRefreshTokenIncorrect.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (domain.TokenPair, error) {
	userID, err := s.consumeRefreshToken(ctx, refreshToken)
	if err != nil {
		return domain.TokenPair{}, err
	}

	pair, err := s.issuePair(userID)
	if err != nil {
		return domain.TokenPair{}, err
	}

	slogx.FromContext(ctx).Debug("refresh token rotated", slog.String("user_id", userID))
	return pair, nil
}

// Logout invalidates the presented refresh token without minting a
// replacement. The access token is left to expire on its own.
func (s *AuthService) Logout(ctx context.Context, refreshToken string) error {
	userID, err := s.consumeRefreshToken(ctx, refreshToken)
	if err != nil {
		return err
	}

	slogx.FromContext(ctx).Info("user logged out", slog.String("user_id", userID))
	return nil
}

// AuthenticatedUser re-fetches the user behind a verified access token
// subject, so a deleted account stops resolving immediately even while its
// tokens are technically still valid.
func (s *AuthService) AuthenticatedUser(ctx context.Context, userID string) (domain.User, error) {
	if userID == "" {
		return domain.User{}, ErrUserNotFound
	}

	user, err := s.Store.Users().GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.User{}, ErrUserNotFound
		}
		return domain.User{}, err
	}
	return user, nil
}

// consumeRefreshToken verifies the token cryptographically, then atomically
// records its fingerprint as spent and resolves the owning user. A
// fingerprint that is already recorded means the token was used before.
func (s *AuthService) consumeRefreshToken(ctx context.Context, refreshToken string) (string, error) {
	if refreshToken == "" {
		return "", ErrRefreshTokenIncorrect
	}

	claims, err := s.Signer.Verify(refreshToken)
	if err != nil {
		return "", ErrRefreshTokenIncorrect
	}

	spent := domain.SpentToken{
		Fingerprint: cryptox.FingerprintToken(refreshToken),
		ExpiresAt:   claims.ExpiresAt.Time,
		SpentAt:     s.now(),
	}

	var user domain.User
	err = s.Store.WithTx(ctx, func(tx store.Tx) error {
		if err := tx.SpentTokens().MarkSpent(ctx, spent); err != nil {
			if errors.Is(err, store.ErrAlreadyExists) {
				return ErrRefreshTokenIncorrect
			}
			return err
		}

		u, err := tx.Users().GetUserByID(ctx, claims.Subject)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return ErrUserNotFound
			}
			return err
		}
		user = u
		return nil
	})
	if err != nil {
		return "", err
	}

	return user.ID, nil
}

func (s *AuthService) issuePair(userID string) (domain.TokenPair, error) {
	access, err := s.Signer.Issue(userID, s.AccessTTL)
	if err != nil {
		return domain.TokenPair{}, err
	}
	refresh, err := s.Signer.Issue(userID, s.RefreshTTL)
	if err != nil {
		return domain.TokenPair{}, err
	}
	return domain.TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}
