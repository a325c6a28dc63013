package sqlite

import (
	"context"
	"fmt"
	"time"

	"github.com/plumeworks/plume/internal/auth/domain"
)

type requestLogRepo struct {
	db dbtx
}

func (r *requestLogRepo) RecordRequest(ctx context.Context, rec domain.RequestRecord) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO request_log (addr, endpoint, observed_at)
		VALUES (?, ?, ?)`,
		rec.Addr, rec.Endpoint, rec.ObservedAt,
	)
	if err != nil {
		return fmt.Errorf("record request: %w", err)
	}
	return nil
}

func (r *requestLogRepo) CountRequestsSince(
	ctx context.Context,
	addr, endpoint string,
	since time.Time,
) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM request_log
		WHERE addr = ? AND endpoint = ? AND observed_at >= ?`,
		addr, endpoint, since,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count requests: %w", err)
	}
	return count, nil
}

func (r *requestLogRepo) DeleteRequestsBefore(ctx context.Context, cutoff time.Time) error {
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM request_log WHERE observed_at < ?`, cutoff)
	return err
}

func (r *requestLogRepo) DeleteAllRequests(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM request_log`)
	return err
}
