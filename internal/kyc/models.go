// Package kyc owns identity verification records and answers the one
// question the rest of the engine asks: may this user move money.
package kyc

import (
	"time"

	id "corebank/pkg/domain"
)

// VerificationStatus is a closed set. Transition validity lives in
// CanTransition so adding a status forces every call site to be reconsidered.
type VerificationStatus string

const (
	StatusPending  VerificationStatus = "PENDING"
	StatusApproved VerificationStatus = "APPROVED"
	StatusRejected VerificationStatus = "REJECTED"
	StatusExpired  VerificationStatus = "EXPIRED"
)

// statusTransitions enumerates every legal review transition. PENDING is
// resolved by review; APPROVED lapses to EXPIRED; REJECTED and EXPIRED are
// terminal (a user re-submits instead).
var statusTransitions = map[VerificationStatus]map[VerificationStatus]bool{
	StatusPending:  {StatusApproved: true, StatusRejected: true},
	StatusApproved: {StatusExpired: true},
	StatusRejected: {},
	StatusExpired:  {},
}

// CanTransition reports whether from → to is a legal review transition.
func CanTransition(from, to VerificationStatus) bool {
	return statusTransitions[from][to]
}

// Valid reports whether the status is part of the closed set.
func (s VerificationStatus) Valid() bool {
	_, ok := statusTransitions[s]
	return ok
}

// Verification is one KYC submission. Only the most recent record per user
// is authoritative for gating; older rows are history.
type Verification struct {
	ID          id.VerificationID
	UserID      id.UserID
	Status      VerificationStatus
	SubmittedAt time.Time
	VerifiedAt  *time.Time
}
