package kyc

import (
	"context"

	id "corebank/pkg/domain"
)

// Store is interface-driven to keep gating logic testable and to allow
// swapping in-memory and postgres persistence without rewiring services.
type Store interface {
	// Save inserts or replaces a verification by ID.
	Save(ctx context.Context, v *Verification) error
	// FindByID returns sentinel.ErrNotFound when absent.
	FindByID(ctx context.Context, verificationID id.VerificationID) (*Verification, error)
	// FindLatestByUser returns the most recent verification for the user,
	// ties broken by latest SubmittedAt. sentinel.ErrNotFound when the user
	// has never submitted.
	FindLatestByUser(ctx context.Context, userID id.UserID) (*Verification, error)
	// ListByUser returns the full submission history, newest first.
	ListByUser(ctx context.Context, userID id.UserID) ([]*Verification, error)
}
