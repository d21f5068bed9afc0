// Package insight fans out completed-transfer events to downstream sinks:
// a Kafka topic for streaming consumers and an optional SQL archive.
// Emission is observational; a sink failure never affects the transfer.
package insight

import (
	"time"

	id "corebank/pkg/domain"
)

// TransferCompletedEvent is emitted once per transfer that reached COMPLETED.
// FAILED transfers are recorded but never emitted.
type TransferCompletedEvent struct {
	TransferID         id.TransferID `json:"transfer_id"`
	SenderAccountID    id.AccountID  `json:"sender_account_id"`
	RecipientAccountID id.AccountID  `json:"recipient_account_id"`
	Amount             int64         `json:"amount"`
	CompletedAt        time.Time     `json:"completed_at"`
}
