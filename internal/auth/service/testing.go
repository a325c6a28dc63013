package service

import (
	"context"

	"github.com/plumeworks/plume/internal/auth/store"
)

// TestingService backs the data-reset endpoint used by end-to-end test
// suites. It must never be routed in production deployments.
type TestingService struct {
	Store store.Store
}

// DropAllData wipes every table in one transaction.
func (s *TestingService) DropAllData(ctx context.Context) error {
	return s.Store.WithTx(ctx, func(tx store.Tx) error {
		if err := tx.Users().DeleteAllUsers(ctx); err != nil {
			return err
		}
		if err := tx.SpentTokens().DeleteAllSpentTokens(ctx); err != nil {
			return err
		}
		return tx.RequestLog().DeleteAllRequests(ctx)
	})
}
