package sqlite

import (
	"context"
	"fmt"
	"time"

	"github.com/plumeworks/plume/internal/auth/domain"
)

type spentTokensRepo struct {
	db dbtx
}

func (r *spentTokensRepo) MarkSpent(ctx context.Context, t domain.SpentToken) error {
	// The fingerprint is the primary key, so this is an atomic
	// insert-if-absent: the second consumer of the same token loses.
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO spent_tokens (fingerprint, expires_at, spent_at)
		VALUES (?, ?, ?)`,
		t.Fingerprint, t.ExpiresAt, t.SpentAt,
	)
	return mapConstraint(err)
}

func (r *spentTokensRepo) WasSpent(ctx context.Context, fingerprint string) (bool, error) {
	var count int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM spent_tokens WHERE fingerprint = ?`, fingerprint,
	).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("spent token lookup: %w", err)
	}
	return count > 0, nil
}

func (r *spentTokensRepo) DeleteExpiredSpentTokens(ctx context.Context) error {
	// Bind the cutoff from Go so the text format matches how rows were
	// written; CURRENT_TIMESTAMP uses a different layout.
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM spent_tokens WHERE expires_at < ?`, time.Now())
	return err
}

func (r *spentTokensRepo) DeleteAllSpentTokens(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM spent_tokens`)
	return err
}
