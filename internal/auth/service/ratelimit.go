package service

import (
	"context"
	"time"

	"github.com/plumeworks/plume/internal/auth/domain"
	"github.com/plumeworks/plume/internal/auth/store"
)

// Rate limit defaults: at most Threshold requests per (address, endpoint)
// within any trailing Window.
const (
	DefaultRateLimitThreshold = 5
	DefaultRateLimitWindow    = 10 * time.Second
)

// RateLimitService implements sliding-window admission over the persistent
// request log. It satisfies httpx.Admitter.
type RateLimitService struct {
	Store     store.Store
	Threshold int
	Window    time.Duration

	// Now is the time source; defaults to time.Now. Tests override it.
	Now func() time.Time
}

// Admit records the request and then counts observations for the same
// (addr, endpoint) key within the trailing window, all in one transaction.
// Recording happens unconditionally, so rejected requests still count
// against the caller and hammering a limited endpoint keeps the window
// saturated. Old observations are not purged here; housekeeping trims them.
func (s *RateLimitService) Admit(ctx context.Context, addr, endpoint string) (bool, error) {
	now := time.Now()
	if s.Now != nil {
		now = s.Now()
	}

	threshold := s.Threshold
	if threshold <= 0 {
		threshold = DefaultRateLimitThreshold
	}
	window := s.Window
	if window <= 0 {
		window = DefaultRateLimitWindow
	}

	allowed := false
	err := s.Store.WithTx(ctx, func(tx store.Tx) error {
		rec := domain.RequestRecord{
			Addr:       addr,
			Endpoint:   endpoint,
			ObservedAt: now,
		}
		if err := tx.RequestLog().RecordRequest(ctx, rec); err != nil {
			return err
		}

		count, err := tx.RequestLog().CountRequestsSince(ctx, addr, endpoint, now.Add(-window))
		if err != nil {
			return err
		}

		// The count includes the row recorded above.
		allowed = count <= threshold
		return nil
	})
	if err != nil {
		return false, err
	}

	return allowed, nil
}
