// Package domain holds the typed identifiers shared across the engine.
//
// Every identifier is a distinct UUID type so that a CardID can never be
// passed where an AccountID is expected. Parsing happens once, at trust
// boundaries; everything past the parse works with the typed value.
package domain

import (
	"github.com/google/uuid"

	dErrors "corebank/pkg/domain-errors"
)

type (
	// UserID identifies an account owner.
	UserID uuid.UUID
	// AccountID identifies a monetary account.
	AccountID uuid.UUID
	// CardID identifies a physical or virtual card.
	CardID uuid.UUID
	// BeneficiaryID identifies a saved transfer recipient.
	BeneficiaryID uuid.UUID
	// TransferID identifies a fund transfer record.
	TransferID uuid.UUID
	// VerificationID identifies a KYC verification submission.
	VerificationID uuid.UUID
)

func (id UserID) String() string         { return uuid.UUID(id).String() }
func (id AccountID) String() string      { return uuid.UUID(id).String() }
func (id CardID) String() string         { return uuid.UUID(id).String() }
func (id BeneficiaryID) String() string  { return uuid.UUID(id).String() }
func (id TransferID) String() string     { return uuid.UUID(id).String() }
func (id VerificationID) String() string { return uuid.UUID(id).String() }

// IsZero reports whether the ID is the nil UUID.
func (id UserID) IsZero() bool         { return uuid.UUID(id) == uuid.Nil }
func (id AccountID) IsZero() bool      { return uuid.UUID(id) == uuid.Nil }
func (id CardID) IsZero() bool         { return uuid.UUID(id) == uuid.Nil }
func (id BeneficiaryID) IsZero() bool  { return uuid.UUID(id) == uuid.Nil }
func (id TransferID) IsZero() bool     { return uuid.UUID(id) == uuid.Nil }
func (id VerificationID) IsZero() bool { return uuid.UUID(id) == uuid.Nil }

func NewUserID() UserID                 { return UserID(uuid.New()) }
func NewAccountID() AccountID           { return AccountID(uuid.New()) }
func NewCardID() CardID                 { return CardID(uuid.New()) }
func NewBeneficiaryID() BeneficiaryID   { return BeneficiaryID(uuid.New()) }
func NewTransferID() TransferID         { return TransferID(uuid.New()) }
func NewVerificationID() VerificationID { return VerificationID(uuid.New()) }

// The text round-trip keeps IDs as canonical UUID strings in JSON and logs.

func (id UserID) MarshalText() ([]byte, error)         { return []byte(id.String()), nil }
func (id AccountID) MarshalText() ([]byte, error)      { return []byte(id.String()), nil }
func (id CardID) MarshalText() ([]byte, error)         { return []byte(id.String()), nil }
func (id BeneficiaryID) MarshalText() ([]byte, error)  { return []byte(id.String()), nil }
func (id TransferID) MarshalText() ([]byte, error)     { return []byte(id.String()), nil }
func (id VerificationID) MarshalText() ([]byte, error) { return []byte(id.String()), nil }

func (id *UserID) UnmarshalText(b []byte) error {
	parsed, err := uuid.ParseBytes(b)
	*id = UserID(parsed)
	return err
}

func (id *AccountID) UnmarshalText(b []byte) error {
	parsed, err := uuid.ParseBytes(b)
	*id = AccountID(parsed)
	return err
}

func (id *CardID) UnmarshalText(b []byte) error {
	parsed, err := uuid.ParseBytes(b)
	*id = CardID(parsed)
	return err
}

func (id *BeneficiaryID) UnmarshalText(b []byte) error {
	parsed, err := uuid.ParseBytes(b)
	*id = BeneficiaryID(parsed)
	return err
}

func (id *TransferID) UnmarshalText(b []byte) error {
	parsed, err := uuid.ParseBytes(b)
	*id = TransferID(parsed)
	return err
}

func (id *VerificationID) UnmarshalText(b []byte) error {
	parsed, err := uuid.ParseBytes(b)
	*id = VerificationID(parsed)
	return err
}

// parseUUID enforces the shared invariant: IDs must be valid, non-empty,
// non-nil UUIDs.
func parseUUID(raw, kind string) (uuid.UUID, error) {
	if raw == "" {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, kind+" must not be empty")
	}
	parsed, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, kind+" is not a valid UUID")
	}
	if parsed == uuid.Nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, kind+" must not be the nil UUID")
	}
	return parsed, nil
}

func ParseUserID(raw string) (UserID, error) {
	parsed, err := parseUUID(raw, "user id")
	return UserID(parsed), err
}

func ParseAccountID(raw string) (AccountID, error) {
	parsed, err := parseUUID(raw, "account id")
	return AccountID(parsed), err
}

func ParseCardID(raw string) (CardID, error) {
	parsed, err := parseUUID(raw, "card id")
	return CardID(parsed), err
}

func ParseBeneficiaryID(raw string) (BeneficiaryID, error) {
	parsed, err := parseUUID(raw, "beneficiary id")
	return BeneficiaryID(parsed), err
}

func ParseTransferID(raw string) (TransferID, error) {
	parsed, err := parseUUID(raw, "transfer id")
	return TransferID(parsed), err
}

func ParseVerificationID(raw string) (VerificationID, error) {
	parsed, err := parseUUID(raw, "verification id")
	return VerificationID(parsed), err
}
