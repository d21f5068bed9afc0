package beneficiary

import (
	"context"

	id "corebank/pkg/domain"
)

// Store persists beneficiaries. Implementations return sentinel.ErrNotFound
// for missing entries and sentinel.ErrConflict when the same owner saves the
// same account number twice.
type Store interface {
	Save(ctx context.Context, b *Beneficiary) error
	FindByID(ctx context.Context, beneficiaryID id.BeneficiaryID) (*Beneficiary, error)
	// ListByOwner returns the owner's beneficiaries in insertion order.
	ListByOwner(ctx context.Context, ownerID id.UserID) ([]*Beneficiary, error)
	// Delete removes the entry; sentinel.ErrNotFound when it does not exist.
	Delete(ctx context.Context, beneficiaryID id.BeneficiaryID) error
}
