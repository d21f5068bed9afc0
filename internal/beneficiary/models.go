// Package beneficiary manages a user's saved transfer recipients.
package beneficiary

import (
	"time"

	id "corebank/pkg/domain"
)

// Beneficiary is a saved recipient: an account number plus a user-chosen
// alias. Only the number is authoritative; the alias is display-only.
type Beneficiary struct {
	ID            id.BeneficiaryID
	OwnerID       id.UserID
	AccountNumber id.AccountNumber
	Alias         string
	CreatedAt     time.Time
}
