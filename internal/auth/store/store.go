package store

import (
	"context"
	"errors"
	"time"

	"github.com/plumeworks/plume/internal/auth/domain"
)

var (
	ErrNotFound      = errors.New("store: not found")
	ErrAlreadyExists = errors.New("store: already exists")
)

// Store is the root data access interface. Concrete drivers (sqlite,
// postgres) implement this. Sub-repositories keep concerns tidy and let
// the service layer depend only on what it touches.
type Store interface {
	Users() Users
	SpentTokens() SpentTokens
	RequestLog() RequestLog

	ApplyMigrations() error

	// Tx starts a read/write transaction and returns a Tx-scoped Store.
	// The caller MUST call Commit() or Rollback() on the returned Tx.
	Tx(ctx context.Context) (Tx, error)

	// WithTx executes fn within a transaction: rollback on error, commit
	// on nil. Use it for the sequences that must be atomic per key
	// (refresh consumption, rate-limit record-then-count).
	WithTx(ctx context.Context, fn func(tx Tx) error) error

	// Close releases any underlying resources.
	Close() error

	// Ping verifies the database connection is still alive.
	Ping(ctx context.Context) error
}

// Tx is a transactional store. It embeds the same repos but adds Commit/Rollback.
type Tx interface {
	Store
	Commit() error
	Rollback() error
}

type Users interface {
	// GetUserByID returns a user by id.
	GetUserByID(ctx context.Context, id string) (domain.User, error)

	// GetUserByLogin is used during login.
	GetUserByLogin(ctx context.Context, login string) (domain.User, error)

	// GetUserByEmail is used by the resend flow.
	GetUserByEmail(ctx context.Context, email string) (domain.User, error)

	// GetUserByConfirmationCode resolves a confirmation code to its owner.
	GetUserByConfirmationCode(ctx context.Context, code string) (domain.User, error)

	// CreateUser inserts a new user (id is provided by the app via ULID).
	// Returns ErrAlreadyExists when the login or email is taken.
	CreateUser(ctx context.Context, u domain.User) error

	// DeleteUser removes a user; ErrNotFound when absent. Also used as the
	// compensating action when the confirmation email cannot be sent.
	DeleteUser(ctx context.Context, userID string) error

	// MarkConfirmed flips the confirmed flag for the user.
	MarkConfirmed(ctx context.Context, userID string) error

	// UpdateConfirmation replaces the confirmation sub-record for the user
	// with the given email (resend flow).
	UpdateConfirmation(ctx context.Context, email string, c domain.Confirmation) error

	// ListUsers returns users ordered by creation (newest first).
	ListUsers(ctx context.Context, limit, offset int) ([]domain.User, error)

	// CountUsers returns the total user count for pagination.
	CountUsers(ctx context.Context) (int, error)

	// DeleteAllUsers is the bulk reset used by the testing surface.
	DeleteAllUsers(ctx context.Context) error
}

type SpentTokens interface {
	// MarkSpent records a consumed refresh token fingerprint. Insert-if-
	// absent: returns ErrAlreadyExists when the fingerprint is already
	// recorded, which is the single-use violation signal.
	MarkSpent(ctx context.Context, t domain.SpentToken) error

	// WasSpent reports whether the fingerprint has been recorded.
	WasSpent(ctx context.Context, fingerprint string) (bool, error)

	// DeleteExpiredSpentTokens drops fingerprints of tokens that are past
	// their natural expiry (housekeeping).
	DeleteExpiredSpentTokens(ctx context.Context) error

	// DeleteAllSpentTokens is the bulk reset used by the testing surface.
	DeleteAllSpentTokens(ctx context.Context) error
}

type RequestLog interface {
	// RecordRequest appends one observation.
	RecordRequest(ctx context.Context, rec domain.RequestRecord) error

	// CountRequestsSince counts observations for (addr, endpoint) at or
	// after since, inclusive of any just-recorded row in the same tx.
	CountRequestsSince(ctx context.Context, addr, endpoint string, since time.Time) (int, error)

	// DeleteRequestsBefore drops observations older than cutoff (housekeeping).
	DeleteRequestsBefore(ctx context.Context, cutoff time.Time) error

	// DeleteAllRequests is the bulk reset used by the testing surface.
	DeleteAllRequests(ctx context.Context) error
}
