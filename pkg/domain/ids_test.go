package domain

import (
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "corebank/pkg/domain-errors"
)

// TestParseUUID_Invariants validates the parsing invariant:
// "IDs must be valid, non-empty, non-nil UUIDs".
func TestParseUUID_Invariants(t *testing.T) {
	t.Run("rejects empty string", func(t *testing.T) {
		_, err := ParseUserID("")
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})

	t.Run("rejects invalid format", func(t *testing.T) {
		_, err := ParseUserID("not-a-uuid")
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})

	t.Run("rejects nil UUID", func(t *testing.T) {
		_, err := ParseUserID(uuid.Nil.String())
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})

	t.Run("accepts valid UUID", func(t *testing.T) {
		validUUID := uuid.New()
		id, err := ParseUserID(validUUID.String())
		require.NoError(t, err)
		assert.Equal(t, UserID(validUUID), id)
	})
}

// TestParseID_TrustBoundary validates parsing rules against inputs that show
// up at API entry points.
func TestParseID_TrustBoundary(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"SQL injection attempt", "'; DROP TABLE accounts;--", true},
		{"Path traversal", "../../../etc/passwd", true},
		{"Null byte injection", "550e8400\x00-e29b-41d4-a716-446655440000", true},
		{"Oversized input", strings.Repeat("a", 1000), true},
		{"Empty string", "", true},
		{"Nil UUID", uuid.Nil.String(), true},
		{"Whitespace only", "   ", true},
		{"Uppercase valid UUID", "550E8400-E29B-41D4-A716-446655440000", false},
		{"Valid UUID lowercase", "550e8400-e29b-41d4-a716-446655440000", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseAccountID(tt.input)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
			} else {
				require.NoError(t, err)
			}
		})
	}
}

// TestAllIDTypes_ConsistentBehavior ensures all ID types share identical
// parsing behavior; inconsistent validation across types would create holes.
func TestAllIDTypes_ConsistentBehavior(t *testing.T) {
	validUUID := uuid.New().String()
	invalidInputs := []string{"", "invalid", uuid.Nil.String()}

	t.Run("all accept valid UUID", func(t *testing.T) {
		_, errUser := ParseUserID(validUUID)
		_, errAccount := ParseAccountID(validUUID)
		_, errCard := ParseCardID(validUUID)
		_, errBeneficiary := ParseBeneficiaryID(validUUID)
		_, errTransfer := ParseTransferID(validUUID)
		_, errVerification := ParseVerificationID(validUUID)

		require.NoError(t, errUser)
		require.NoError(t, errAccount)
		require.NoError(t, errCard)
		require.NoError(t, errBeneficiary)
		require.NoError(t, errTransfer)
		require.NoError(t, errVerification)
	})

	for _, input := range invalidInputs {
		t.Run("all reject: "+input, func(t *testing.T) {
			_, errUser := ParseUserID(input)
			_, errAccount := ParseAccountID(input)
			_, errCard := ParseCardID(input)
			_, errBeneficiary := ParseBeneficiaryID(input)
			_, errTransfer := ParseTransferID(input)
			_, errVerification := ParseVerificationID(input)

			require.Error(t, errUser)
			require.Error(t, errAccount)
			require.Error(t, errCard)
			require.Error(t, errBeneficiary)
			require.Error(t, errTransfer)
			require.Error(t, errVerification)
		})
	}
}

func TestParseAccountNumber(t *testing.T) {
	t.Run("accepts ten digits", func(t *testing.T) {
		n, err := ParseAccountNumber("0123456789")
		require.NoError(t, err)
		assert.Equal(t, AccountNumber("0123456789"), n)
	})

	t.Run("rejects wrong length", func(t *testing.T) {
		for _, raw := range []string{"", "123", "12345678901"} {
			_, err := ParseAccountNumber(raw)
			require.Error(t, err, "input %q", raw)
			assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
		}
	})

	t.Run("rejects non-digits", func(t *testing.T) {
		_, err := ParseAccountNumber("12345abcde")
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})
}

func TestGenerateAccountNumber_Canonical(t *testing.T) {
	for range 100 {
		n := GenerateAccountNumber()
		_, err := ParseAccountNumber(n.String())
		require.NoError(t, err, "generated number %q must satisfy the canonical format", n)
	}
}
