package domain

import (
	"crypto/rand"
	"math/big"

	dErrors "corebank/pkg/domain-errors"
)

// AccountNumber is the externally visible identifier of an account: exactly
// ten decimal digits. Numbers that fail this shape are a validation error,
// never a lookup miss, so callers can tell malformed input apart from a
// well-formed number that simply is not assigned.
type AccountNumber string

const accountNumberLength = 10

func (n AccountNumber) String() string { return string(n) }

// ParseAccountNumber validates the canonical format before any lookup runs.
func ParseAccountNumber(raw string) (AccountNumber, error) {
	if len(raw) != accountNumberLength {
		return "", dErrors.New(dErrors.CodeInvalidInput, "account number must be exactly 10 digits")
	}
	for _, r := range raw {
		if r < '0' || r > '9' {
			return "", dErrors.New(dErrors.CodeInvalidInput, "account number must contain only digits")
		}
	}
	return AccountNumber(raw), nil
}

var accountNumberMax = new(big.Int).Exp(big.NewInt(10), big.NewInt(accountNumberLength), nil)

// GenerateAccountNumber draws a random ten-digit number. Uniqueness is
// enforced by the account store, not here; callers retry on conflict.
func GenerateAccountNumber() AccountNumber {
	n, err := rand.Int(rand.Reader, accountNumberMax)
	if err != nil {
		// crypto/rand only fails when the platform entropy source is broken.
		panic("account number generation: " + err.Error())
	}
	digits := n.String()
	for len(digits) < accountNumberLength {
		digits = "0" + digits
	}
	return AccountNumber(digits)
}
