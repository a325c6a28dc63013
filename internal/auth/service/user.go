package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/plumeworks/plume/internal/auth/domain"
	"github.com/plumeworks/plume/internal/auth/store"
	"github.com/plumeworks/plume/pkg/cryptox"
	"github.com/plumeworks/plume/pkg/idx"
	"github.com/plumeworks/plume/pkg/slogx"
)

// Pagination defaults for the admin user listing.
const (
	DefaultPageSize = 10
	MaxPageSize     = 100
)

// UserService is the administrative surface over user records: direct
// creation without the email round-trip, deletion, and paginated listing.
type UserService struct {
	Store           store.Store
	ConfirmationTTL time.Duration

	// Now is the time source; defaults to time.Now. Tests override it.
	Now func() time.Time
}

func (s *UserService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

// CreateUser provisions an account that is confirmed from the start; no
// confirmation email is sent.
func (s *UserService) CreateUser(ctx context.Context, login, email, password string) (domain.User, error) {
	if _, err := s.Store.Users().GetUserByLogin(ctx, login); err == nil {
		return domain.User{}, ErrLoginTaken
	} else if !errors.Is(err, store.ErrNotFound) {
		return domain.User{}, err
	}
	if _, err := s.Store.Users().GetUserByEmail(ctx, email); err == nil {
		return domain.User{}, ErrEmailTaken
	} else if !errors.Is(err, store.ErrNotFound) {
		return domain.User{}, err
	}

	hash, err := cryptox.HashPassword(password)
	if err != nil {
		return domain.User{}, err
	}

	now := s.now()
	user := domain.User{
		ID:           idx.New().String(),
		Login:        login,
		Email:        email,
		PasswordHash: hash,
		Confirmation: domain.NewConfirmation(now, s.ConfirmationTTL, true),
		CreatedAt:    now,
	}

	if err := s.Store.Users().CreateUser(ctx, user); err != nil {
		if errors.Is(err, store.ErrAlreadyExists) {
			return domain.User{}, ErrLoginTaken
		}
		return domain.User{}, err
	}

	slogx.FromContext(ctx).Info("user created by admin", slog.String("user_id", user.ID))
	return user, nil
}

// DeleteUser removes the user; ErrUserNotFound when the id is unknown.
func (s *UserService) DeleteUser(ctx context.Context, userID string) error {
	if err := s.Store.Users().DeleteUser(ctx, userID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrUserNotFound
		}
		return err
	}

	slogx.FromContext(ctx).Info("user deleted by admin", slog.String("user_id", userID))
	return nil
}

// ListUsers returns one page of users, newest first. Page numbers are
// one-based; out-of-range values are normalised rather than rejected.
func (s *UserService) ListUsers(ctx context.Context, page, pageSize int) (domain.UserPage, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = DefaultPageSize
	}
	if pageSize > MaxPageSize {
		pageSize = MaxPageSize
	}

	total, err := s.Store.Users().CountUsers(ctx)
	if err != nil {
		return domain.UserPage{}, err
	}

	items, err := s.Store.Users().ListUsers(ctx, pageSize, (page-1)*pageSize)
	if err != nil {
		return domain.UserPage{}, err
	}
	if items == nil {
		items = []domain.User{}
	}

	return domain.UserPage{
		PagesCount: (total + pageSize - 1) / pageSize,
		Page:       page,
		PageSize:   pageSize,
		TotalCount: total,
		Items:      items,
	}, nil
}
