package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/plumeworks/plume/internal/auth/store"
)

// HousekeepingService periodically cleans up expired database records to
// prevent unbounded growth of spent_tokens and request_log.
type HousekeepingService struct {
	Store    store.Store
	Logger   *slog.Logger
	Interval time.Duration

	// RequestRetention is how long request-log observations are kept. It
	// must be at least the rate-limit window or counting breaks.
	RequestRetention time.Duration

	stopCh chan struct{}
	doneCh chan struct{}
}

// NewHousekeepingService creates a new housekeeping service with the given
// interval. If interval is 0 or negative, defaults to 1 hour; if retention
// is 0 or negative, defaults to 24 hours.
func NewHousekeepingService(store store.Store, logger *slog.Logger, interval, retention time.Duration) *HousekeepingService {
	if interval <= 0 {
		interval = 1 * time.Hour
	}
	if retention <= 0 {
		retention = 24 * time.Hour
	}

	return &HousekeepingService{
		Store:            store,
		Logger:           logger,
		Interval:         interval,
		RequestRetention: retention,
		stopCh:           make(chan struct{}),
		doneCh:           make(chan struct{}),
	}
}

// Start begins the background worker that periodically runs cleanup.
// This is non-blocking and should be called after the database is ready.
// Call Stop() to gracefully shutdown the worker.
func (s *HousekeepingService) Start() {
	go s.run()
	s.Logger.Info("housekeeping service started", "interval", s.Interval)
}

// Stop gracefully shuts down the background worker.
// Blocks until the worker has finished any in-progress cleanup.
func (s *HousekeepingService) Stop() {
	close(s.stopCh)
	<-s.doneCh
	s.Logger.Info("housekeeping service stopped")
}

func (s *HousekeepingService) run() {
	defer close(s.doneCh)

	ticker := time.NewTicker(s.Interval)
	defer ticker.Stop()

	// Run cleanup immediately on startup
	s.cleanup()

	for {
		select {
		case <-ticker.C:
			s.cleanup()
		case <-s.stopCh:
			return
		}
	}
}

// cleanup performs the actual deletion of stale records. Each deletion is
// independent - failures in one won't stop the others.
func (s *HousekeepingService) cleanup() {
	ctx := context.Background()
	s.Logger.Debug("starting housekeeping cleanup")

	// Spent-token fingerprints are only needed while the token they block
	// could still verify; past its expiry the signature check rejects it
	// anyway.
	if err := s.Store.SpentTokens().DeleteExpiredSpentTokens(ctx); err != nil {
		s.Logger.Error("failed to delete expired spent tokens", "error", err)
	}

	cutoff := time.Now().Add(-s.RequestRetention)
	if err := s.Store.RequestLog().DeleteRequestsBefore(ctx, cutoff); err != nil {
		s.Logger.Error("failed to trim request log", "error", err)
	}

	s.Logger.Debug("housekeeping cleanup completed")
}
