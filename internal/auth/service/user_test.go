package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestCreateUser_PreConfirmed(t *testing.T) {
	ctx := context.Background()
	svc, st, _, clock := newAuthService(t)

	users := &UserService{Store: st, ConfirmationTTL: 90 * time.Minute, Now: clock.Now}

	created, err := users.CreateUser(ctx, "admin2", "admin2@example.com", "s3cret")
	require.NoError(t, err)
	require.True(t, created.Confirmation.Confirmed)

	// No email round-trip needed: the account can log in immediately.
	pair, err := svc.Login(ctx, "admin2", "s3cret")
	require.NoError(t, err)
	require.NotEmpty(t, pair.AccessToken)
}

func TestCreateUser_Taken(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)
	users := &UserService{Store: st, ConfirmationTTL: 90 * time.Minute}

	_, err := users.CreateUser(ctx, "alice", "alice@example.com", "s3cret")
	require.NoError(t, err)

	_, err = users.CreateUser(ctx, "alice", "other@example.com", "s3cret")
	require.ErrorIs(t, err, ErrLoginTaken)

	_, err = users.CreateUser(ctx, "bob", "alice@example.com", "s3cret")
	require.ErrorIs(t, err, ErrEmailTaken)
}

func TestDeleteUser(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)
	users := &UserService{Store: st, ConfirmationTTL: 90 * time.Minute}

	created, err := users.CreateUser(ctx, "alice", "alice@example.com", "s3cret")
	require.NoError(t, err)

	require.NoError(t, users.DeleteUser(ctx, created.ID))
	require.ErrorIs(t, users.DeleteUser(ctx, created.ID), ErrUserNotFound)
}

func TestListUsers_Pagination(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)
	users := &UserService{Store: st, ConfirmationTTL: 90 * time.Minute}

	for i := 0; i < 25; i++ {
		_, err := users.CreateUser(ctx,
			fmt.Sprintf("user%02d", i),
			fmt.Sprintf("user%02d@example.com", i),
			"s3cret",
		)
		require.NoError(t, err)
	}

	page, err := users.ListUsers(ctx, 1, 10)
	require.NoError(t, err)
	require.Equal(t, 3, page.PagesCount)
	require.Equal(t, 1, page.Page)
	require.Equal(t, 10, page.PageSize)
	require.Equal(t, 25, page.TotalCount)
	require.Len(t, page.Items, 10)

	last, err := users.ListUsers(ctx, 3, 10)
	require.NoError(t, err)
	require.Len(t, last.Items, 5)

	t.Run("out of range page is empty, not an error", func(t *testing.T) {
		page, err := users.ListUsers(ctx, 9, 10)
		require.NoError(t, err)
		require.Empty(t, page.Items)
		require.Equal(t, 25, page.TotalCount)
	})

	t.Run("invalid params are normalised", func(t *testing.T) {
		page, err := users.ListUsers(ctx, 0, -1)
		require.NoError(t, err)
		require.Equal(t, 1, page.Page)
		require.Equal(t, DefaultPageSize, page.PageSize)
		require.Len(t, page.Items, DefaultPageSize)
	})
}

func TestDropAllData(t *testing.T) {
	ctx := context.Background()
	svc, st, _, _ := newAuthService(t)

	code := register(t, svc, st, "alice", "alice@example.com", "s3cret")
	require.NoError(t, svc.ConfirmRegistration(ctx, code))

	pair, err := svc.Login(ctx, "alice", "s3cret")
	require.NoError(t, err)
	_, err = svc.Refresh(ctx, pair.RefreshToken)
	require.NoError(t, err)

	limiter := &RateLimitService{Store: st}
	_, err = limiter.Admit(ctx, "10.0.0.1", "/auth/login")
	require.NoError(t, err)

	reset := &TestingService{Store: st}
	require.NoError(t, reset.DropAllData(ctx))

	count, err := st.Users().CountUsers(ctx)
	require.NoError(t, err)
	require.Zero(t, count)

	spent, err := st.SpentTokens().WasSpent(ctx, "anything")
	require.NoError(t, err)
	require.False(t, spent)

	n, err := st.RequestLog().CountRequestsSince(ctx, "10.0.0.1", "/auth/login", time.Time{})
	require.NoError(t, err)
	require.Zero(t, n)
}
