// Package transfer executes atomic money movement between accounts and keeps
// the authoritative transfer ledger.
package transfer

import (
	"time"

	id "corebank/pkg/domain"
)

// Status of a ledger entry. PENDING exists only while an execution is in
// flight; every finished execution lands on COMPLETED or FAILED.
type Status string

const (
	StatusPending   Status = "PENDING"
	StatusCompleted Status = "COMPLETED"
	StatusFailed    Status = "FAILED"
)

// Transfer is one ledger entry. FailureCode/FailureReason are set only on
// FAILED entries and reproduce the original rejection for idempotent replays.
type Transfer struct {
	ID                 id.TransferID
	SenderAccountID    id.AccountID
	RecipientAccountID id.AccountID
	Amount             int64
	Status             Status
	FailureCode        string
	FailureReason      string
	IdempotencyKey     string
	CreatedAt          time.Time
}
