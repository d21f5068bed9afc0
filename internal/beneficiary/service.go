package beneficiary

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"corebank/internal/account"
	id "corebank/pkg/domain"
	dErrors "corebank/pkg/domain-errors"
	"corebank/pkg/platform/sentinel"
	"corebank/pkg/requestcontext"
)

// RecipientResolver is the slice of the account registry the beneficiary
// service needs: resolving a raw account number to a real account.
type RecipientResolver interface {
	FindByNumber(ctx context.Context, raw string) (*account.Account, error)
}

// Service manages saved recipients. Entries are validated against the
// account registry at save time; they are not re-validated afterwards, so a
// stored beneficiary may point at an account that has since closed.
type Service struct {
	store    Store
	accounts RecipientResolver
	logger   *slog.Logger
}

func NewService(store Store, accounts RecipientResolver, logger *slog.Logger) *Service {
	return &Service{store: store, accounts: accounts, logger: logger}
}

// Add saves a recipient after resolving the account number. A number that
// resolves to no account reports CodeRecipientNotFound; saving the same
// number twice for one owner is a conflict.
func (s *Service) Add(ctx context.Context, ownerID id.UserID, rawNumber, alias string) (*Beneficiary, error) {
	alias = strings.TrimSpace(alias)
	if alias == "" {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "beneficiary alias must not be empty")
	}

	a, err := s.accounts.FindByNumber(ctx, rawNumber)
	if dErrors.HasCode(err, dErrors.CodeNotFound) {
		return nil, dErrors.New(dErrors.CodeRecipientNotFound, "recipient account not found")
	}
	if err != nil {
		return nil, err
	}

	b := &Beneficiary{
		ID:            id.NewBeneficiaryID(),
		OwnerID:       ownerID,
		AccountNumber: a.Number,
		Alias:         alias,
		CreatedAt:     requestcontext.Now(ctx),
	}
	err = s.store.Save(ctx, b)
	if errors.Is(err, sentinel.ErrConflict) {
		return nil, dErrors.New(dErrors.CodeConflict, "beneficiary already saved")
	}
	if err != nil {
		return nil, dErrors.Wrap(dErrors.CodeInternal, "save beneficiary", err)
	}
	return b, nil
}

// ListByOwner returns the user's saved recipients in insertion order.
func (s *Service) ListByOwner(ctx context.Context, ownerID id.UserID) ([]*Beneficiary, error) {
	out, err := s.store.ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, dErrors.Wrap(dErrors.CodeInternal, "list beneficiaries", err)
	}
	return out, nil
}

// Remove deletes a saved recipient. Removal is not idempotent: removing an
// entry that does not exist, belongs to someone else, or was already removed
// reports not found.
func (s *Service) Remove(ctx context.Context, ownerID id.UserID, beneficiaryID id.BeneficiaryID) error {
	b, err := s.store.FindByID(ctx, beneficiaryID)
	if errors.Is(err, sentinel.ErrNotFound) {
		return dErrors.New(dErrors.CodeNotFound, "beneficiary not found")
	}
	if err != nil {
		return dErrors.Wrap(dErrors.CodeInternal, "find beneficiary", err)
	}
	if b.OwnerID != ownerID {
		// Someone else's entry is indistinguishable from a missing one.
		return dErrors.New(dErrors.CodeNotFound, "beneficiary not found")
	}

	err = s.store.Delete(ctx, beneficiaryID)
	if errors.Is(err, sentinel.ErrNotFound) {
		return dErrors.New(dErrors.CodeNotFound, "beneficiary not found")
	}
	if err != nil {
		return dErrors.Wrap(dErrors.CodeInternal, "delete beneficiary", err)
	}

	if s.logger != nil {
		s.logger.InfoContext(ctx, "beneficiary removed", "beneficiary_id", beneficiaryID, "owner_id", ownerID)
	}
	return nil
}
