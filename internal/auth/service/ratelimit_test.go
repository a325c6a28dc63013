package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func newRateLimitService(t *testing.T) (*RateLimitService, *fakeClock) {
	t.Helper()

	clock := &fakeClock{now: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}
	svc := &RateLimitService{
		Store:     newTestStore(t),
		Threshold: 5,
		Window:    10 * time.Second,
		Now:       clock.Now,
	}
	return svc, clock
}

func TestAdmit_Threshold(t *testing.T) {
	ctx := context.Background()
	svc, _ := newRateLimitService(t)

	for i := 0; i < 5; i++ {
		ok, err := svc.Admit(ctx, "10.0.0.1", "/auth/login")
		require.NoError(t, err)
		require.True(t, ok, "request %d should be admitted", i+1)
	}

	ok, err := svc.Admit(ctx, "10.0.0.1", "/auth/login")
	require.NoError(t, err)
	require.False(t, ok, "sixth request within the window must be rejected")
}

func TestAdmit_KeysAreIndependent(t *testing.T) {
	ctx := context.Background()
	svc, _ := newRateLimitService(t)

	for i := 0; i < 6; i++ {
		_, err := svc.Admit(ctx, "10.0.0.1", "/auth/login")
		require.NoError(t, err)
	}

	// A different address on the same endpoint is unaffected.
	ok, err := svc.Admit(ctx, "10.0.0.2", "/auth/login")
	require.NoError(t, err)
	require.True(t, ok)

	// The same address on a different endpoint is unaffected.
	ok, err = svc.Admit(ctx, "10.0.0.1", "/auth/registration")
	require.NoError(t, err)
	require.True(t, ok)
}

func TestAdmit_WindowSlides(t *testing.T) {
	ctx := context.Background()
	svc, clock := newRateLimitService(t)

	for i := 0; i < 6; i++ {
		_, err := svc.Admit(ctx, "10.0.0.1", "/auth/login")
		require.NoError(t, err)
	}

	// Once the burst slides out of the trailing window, requests pass again.
	clock.Advance(11 * time.Second)

	ok, err := svc.Admit(ctx, "10.0.0.1", "/auth/login")
	require.NoError(t, err)
	require.True(t, ok)
}

func TestAdmit_RejectedRequestsStillCount(t *testing.T) {
	ctx := context.Background()
	svc, clock := newRateLimitService(t)

	for i := 0; i < 6; i++ {
		_, err := svc.Admit(ctx, "10.0.0.1", "/auth/login")
		require.NoError(t, err)
	}

	// Hammering a limited endpoint keeps the window saturated: nine seconds
	// later the original burst is still inside the window and this attempt
	// joins it.
	clock.Advance(9 * time.Second)
	ok, err := svc.Admit(ctx, "10.0.0.1", "/auth/login")
	require.NoError(t, err)
	require.False(t, ok)

	// Two more seconds move the burst out, but the rejected attempt above
	// was recorded and still counts.
	clock.Advance(2 * time.Second)
	ok, err = svc.Admit(ctx, "10.0.0.1", "/auth/login")
	require.NoError(t, err)
	require.True(t, ok)
}

func TestAdmit_ZeroConfigUsesDefaults(t *testing.T) {
	ctx := context.Background()
	svc := &RateLimitService{Store: newTestStore(t)}

	for i := 0; i < DefaultRateLimitThreshold; i++ {
		ok, err := svc.Admit(ctx, "10.0.0.1", "/auth/login")
		require.NoError(t, err)
		require.True(t, ok)
	}

	ok, err := svc.Admit(ctx, "10.0.0.1", "/auth/login")
	require.NoError(t, err)
	require.False(t, ok)
}
