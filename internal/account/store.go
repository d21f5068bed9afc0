package account

import (
	"context"

	id "corebank/pkg/domain"
)

// Store is the registry's persistence contract. Debit and Credit are the
// only balance mutations in the system and each is atomic: the status check,
// the balance check, and the write happen under one exclusion scope
// (store mutex in memory, row lock in postgres).
//
// Sentinel contract:
//   - ErrNotFound: account does not exist
//   - ErrConflict: duplicate account number on Save, or lost status race on
//     SetStatus
//   - ErrInvalidState: status forbids the operation
//   - ErrInsufficientFunds: debit would drive the balance below zero
type Store interface {
	Save(ctx context.Context, a *Account) error
	FindByID(ctx context.Context, accountID id.AccountID) (*Account, error)
	// FindByOwner returns the owner's accounts in stable insertion order.
	FindByOwner(ctx context.Context, ownerID id.UserID) ([]*Account, error)
	FindByNumber(ctx context.Context, number id.AccountNumber) (*Account, error)
	// Debit atomically decreases the balance of an ACTIVE account; the
	// balance may reach exactly zero but never less.
	Debit(ctx context.Context, accountID id.AccountID, amount int64) error
	// Credit atomically increases the balance of an ACTIVE account. Frozen
	// and closed accounts are fully inert: they cannot receive funds either.
	Credit(ctx context.Context, accountID id.AccountID, amount int64) error
	// SetStatus applies to → only when the current status still equals from
	// (compare-and-set); ErrConflict signals a lost race.
	SetStatus(ctx context.Context, accountID id.AccountID, from, to Status) error
}
