// Package card owns card entities linked to accounts and their lifecycle
// state machine.
package card

import (
	"time"

	id "corebank/pkg/domain"
)

// Status is a closed set with an exhaustive transition table: any transition
// not enumerated is rejected, so adding a status forces every transition
// site to be reconsidered.
type Status string

const (
	StatusActive    Status = "ACTIVE"
	StatusBlocked   Status = "BLOCKED"
	StatusExpired   Status = "EXPIRED"
	StatusCancelled Status = "CANCELLED"
)

// statusTransitions: ACTIVE ⇄ BLOCKED (user/admin toggle); either can move
// to EXPIRED (time-driven) or CANCELLED (explicit). EXPIRED and CANCELLED
// are terminal.
var statusTransitions = map[Status]map[Status]bool{
	StatusActive:    {StatusBlocked: true, StatusExpired: true, StatusCancelled: true},
	StatusBlocked:   {StatusActive: true, StatusExpired: true, StatusCancelled: true},
	StatusExpired:   {},
	StatusCancelled: {},
}

// CanTransition reports whether from → to is a legal transition.
func CanTransition(from, to Status) bool {
	return statusTransitions[from][to]
}

// Valid reports whether the status is part of the closed set.
func (s Status) Valid() bool {
	_, ok := statusTransitions[s]
	return ok
}

// Terminal reports whether no transition leaves the status.
func (s Status) Terminal() bool {
	return len(statusTransitions[s]) == 0
}

// Card links to its owning account. ExpiresAt drives the time-based EXPIRED
// transition; UpdatedAt records the last status change.
type Card struct {
	ID        id.CardID
	AccountID id.AccountID
	Status    Status
	ExpiresAt time.Time
	UpdatedAt time.Time
}
