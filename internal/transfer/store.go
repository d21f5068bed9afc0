package transfer

import (
	"context"

	id "corebank/pkg/domain"
)

// Store persists the transfer ledger. Implementations return sentinel errors:
// sentinel.ErrConflict from Create when the idempotency key is already taken,
// sentinel.ErrNotFound for missing entries.
type Store interface {
	// Create inserts a new PENDING entry and claims its idempotency key.
	Create(ctx context.Context, t *Transfer) error
	FindByID(ctx context.Context, transferID id.TransferID) (*Transfer, error)
	FindByIdempotencyKey(ctx context.Context, key string) (*Transfer, error)
	// Finalize moves a PENDING entry to COMPLETED or FAILED. FailureCode and
	// FailureReason are stored verbatim; empty for COMPLETED.
	Finalize(ctx context.Context, transferID id.TransferID, status Status, failureCode, failureReason string) error
	// ListRecentByAccounts returns entries where any given account is sender
	// or recipient, newest first, capped at limit.
	ListRecentByAccounts(ctx context.Context, accountIDs []id.AccountID, limit int) ([]*Transfer, error)
}
