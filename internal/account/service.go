package account

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	id "corebank/pkg/domain"
	dErrors "corebank/pkg/domain-errors"
	"corebank/pkg/platform/sentinel"
	"corebank/pkg/requestcontext"
)

// Service is the Account Registry: lookup by owner or number, the atomic
// debit/credit primitives, and administrative status changes. Balance is
// mutated nowhere else in the system.
type Service struct {
	store  Store
	logger *slog.Logger
}

func NewService(store Store, logger *slog.Logger) *Service {
	return &Service{store: store, logger: logger}
}

// openRetries bounds retries on account-number collisions. Ten random
// digits collide rarely enough that more than a couple of retries signals
// a store problem, not bad luck.
const openRetries = 3

// Open creates an ACTIVE account with a fresh unique number and zero balance.
func (s *Service) Open(ctx context.Context, ownerID id.UserID) (*Account, error) {
	for range openRetries {
		a := &Account{
			ID:        id.NewAccountID(),
			OwnerID:   ownerID,
			Number:    id.GenerateAccountNumber(),
			Balance:   0,
			Status:    StatusActive,
			CreatedAt: requestcontext.Now(ctx),
		}
		err := s.store.Save(ctx, a)
		if errors.Is(err, sentinel.ErrConflict) {
			continue
		}
		if err != nil {
			return nil, dErrors.Wrap(dErrors.CodeInternal, "save account", err)
		}
		return a, nil
	}
	return nil, dErrors.New(dErrors.CodeInternal, "could not allocate a unique account number")
}

// FindByOwner returns all accounts for a user in stable insertion order.
func (s *Service) FindByOwner(ctx context.Context, ownerID id.UserID) ([]*Account, error) {
	accounts, err := s.store.FindByOwner(ctx, ownerID)
	if err != nil {
		return nil, dErrors.Wrap(dErrors.CodeInternal, "list accounts", err)
	}
	return accounts, nil
}

// PrimaryByOwner resolves the sender account for a transfer: the oldest
// ACTIVE account of the user.
func (s *Service) PrimaryByOwner(ctx context.Context, ownerID id.UserID) (*Account, error) {
	accounts, err := s.store.FindByOwner(ctx, ownerID)
	if err != nil {
		return nil, dErrors.Wrap(dErrors.CodeInternal, "list accounts", err)
	}
	if len(accounts) == 0 {
		return nil, dErrors.New(dErrors.CodeNotFound, "user has no accounts")
	}
	for _, a := range accounts {
		if a.Status == StatusActive {
			return a, nil
		}
	}
	return nil, dErrors.New(dErrors.CodeAccountNotActive, "user has no active account")
}

// FindByNumber resolves an account by its external number. Malformed numbers
// are a validation error; well-formed but unassigned numbers report the same
// not-found as any other missing account, so callers cannot enumerate which
// numbers exist.
func (s *Service) FindByNumber(ctx context.Context, raw string) (*Account, error) {
	number, err := id.ParseAccountNumber(raw)
	if err != nil {
		return nil, err
	}
	a, err := s.store.FindByNumber(ctx, number)
	if errors.Is(err, sentinel.ErrNotFound) {
		return nil, dErrors.New(dErrors.CodeNotFound, "account not found")
	}
	if err != nil {
		return nil, dErrors.Wrap(dErrors.CodeInternal, "find account by number", err)
	}
	return a, nil
}

// FindByID returns a single account.
func (s *Service) FindByID(ctx context.Context, accountID id.AccountID) (*Account, error) {
	a, err := s.store.FindByID(ctx, accountID)
	if errors.Is(err, sentinel.ErrNotFound) {
		return nil, dErrors.New(dErrors.CodeNotFound, "account not found")
	}
	if err != nil {
		return nil, dErrors.Wrap(dErrors.CodeInternal, "find account", err)
	}
	return a, nil
}

// Debit atomically decreases the balance. The balance may land on exactly
// zero; anything below is refused before any mutation.
func (s *Service) Debit(ctx context.Context, accountID id.AccountID, amount int64) error {
	if amount <= 0 {
		return dErrors.New(dErrors.CodeInvalidAmount, "debit amount must be positive")
	}
	err := s.store.Debit(ctx, accountID, amount)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, sentinel.ErrInsufficientFunds):
		return dErrors.New(dErrors.CodeInsufficientFunds, "account balance is insufficient")
	case errors.Is(err, sentinel.ErrInvalidState):
		return dErrors.New(dErrors.CodeAccountNotActive, "account is not active")
	case errors.Is(err, sentinel.ErrNotFound):
		return dErrors.New(dErrors.CodeNotFound, "account not found")
	default:
		return dErrors.Wrap(dErrors.CodeInternal, "debit account", err)
	}
}

// Credit atomically increases the balance. Non-ACTIVE accounts cannot
// receive funds: frozen accounts are fully inert.
func (s *Service) Credit(ctx context.Context, accountID id.AccountID, amount int64) error {
	if amount <= 0 {
		return dErrors.New(dErrors.CodeInvalidAmount, "credit amount must be positive")
	}
	err := s.store.Credit(ctx, accountID, amount)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, sentinel.ErrInvalidState):
		return dErrors.New(dErrors.CodeAccountNotActive, "account is not active")
	case errors.Is(err, sentinel.ErrNotFound):
		return dErrors.New(dErrors.CodeNotFound, "account not found")
	default:
		return dErrors.Wrap(dErrors.CodeInternal, "credit account", err)
	}
}

// SetStatus applies an administrative status change. CLOSED is terminal and
// requires a zero balance as a precondition; nothing is swept automatically.
func (s *Service) SetStatus(ctx context.Context, accountID id.AccountID, status Status) (*Account, error) {
	if !status.Valid() {
		return nil, dErrors.New(dErrors.CodeInvalidInput, fmt.Sprintf("unknown account status %q", status))
	}
	a, err := s.FindByID(ctx, accountID)
	if err != nil {
		return nil, err
	}
	if a.Status == status {
		// Re-applying the current status is a no-op.
		return a, nil
	}
	if !CanTransition(a.Status, status) {
		return nil, dErrors.New(dErrors.CodeInvalidTransition,
			fmt.Sprintf("account cannot move from %s to %s", a.Status, status))
	}
	if status == StatusClosed && a.Balance != 0 {
		return nil, dErrors.New(dErrors.CodeAccountNotClosable, "account balance must be zero before closing")
	}

	err = s.store.SetStatus(ctx, accountID, a.Status, status)
	switch {
	case err == nil:
	case errors.Is(err, sentinel.ErrConflict):
		return nil, dErrors.New(dErrors.CodeConflict, "account status changed concurrently")
	case errors.Is(err, sentinel.ErrNotFound):
		return nil, dErrors.New(dErrors.CodeNotFound, "account not found")
	default:
		return nil, dErrors.Wrap(dErrors.CodeInternal, "set account status", err)
	}

	if s.logger != nil {
		s.logger.InfoContext(ctx, "account status changed",
			"account_id", a.ID,
			"from", a.Status,
			"to", status,
		)
	}
	a.Status = status
	return a, nil
}
