// Package account owns monetary account entities: balances in integer minor
// units, status lifecycle, and lookup by owner or account number.
package account

import (
	"time"

	id "corebank/pkg/domain"
)

// Status is a closed set. Transition validity lives in CanTransition so
// adding a status forces every call site to be reconsidered.
type Status string

const (
	StatusActive Status = "ACTIVE"
	StatusFrozen Status = "FROZEN"
	StatusClosed Status = "CLOSED"
)

// statusTransitions enumerates every legal administrative transition.
// ACTIVE and FROZEN are mutually reversible; CLOSED is terminal.
var statusTransitions = map[Status]map[Status]bool{
	StatusActive: {StatusFrozen: true, StatusClosed: true},
	StatusFrozen: {StatusActive: true, StatusClosed: true},
	StatusClosed: {},
}

// CanTransition reports whether from → to is a legal status change.
func CanTransition(from, to Status) bool {
	return statusTransitions[from][to]
}

// Valid reports whether the status is part of the closed set.
func (s Status) Valid() bool {
	_, ok := statusTransitions[s]
	return ok
}

// Account is the registry's entity. Balance is int64 minor units and must
// never be negative at any observable point; it is mutated only through the
// store's atomic Debit/Credit primitives.
type Account struct {
	ID        id.AccountID
	OwnerID   id.UserID
	Number    id.AccountNumber
	Balance   int64
	Status    Status
	CreatedAt time.Time
}

// Summary is what recipient lookups expose: enough to confirm existence,
// never the balance or the owner identity.
type Summary struct {
	Number id.AccountNumber
	Status Status
}

// Summarize strips an account down to its recipient-visible shape.
func (a *Account) Summarize() Summary {
	return Summary{Number: a.Number, Status: a.Status}
}
