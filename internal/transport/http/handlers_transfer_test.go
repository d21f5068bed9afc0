package httptransport

import (
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"corebank/internal/transfer"
	id "corebank/pkg/domain"
	dErrors "corebank/pkg/domain-errors"
)

func TestTransferHandler_Execute(t *testing.T) {
	ctrl := gomock.NewController(t)
	transfers := NewMockTransferService(ctrl)
	h := serve(NewTransferHandler(transfers, testLogger()).Register)

	userID := id.NewUserID()
	completed := &transfer.Transfer{
		ID:                 id.NewTransferID(),
		SenderAccountID:    id.NewAccountID(),
		RecipientAccountID: id.NewAccountID(),
		Amount:             2_500,
		Status:             transfer.StatusCompleted,
		IdempotencyKey:     "k1",
		CreatedAt:          time.Now().UTC(),
	}

	t.Run("body idempotency key", func(t *testing.T) {
		transfers.EXPECT().
			Execute(gomock.Any(), userID, transfer.Request{
				RecipientNumber: "1234567890", Amount: 2_500, IdempotencyKey: "k1",
			}).
			Return(completed, nil)

		rec := doJSON(t, h, http.MethodPost, "/transfers", userID.String(), map[string]any{
			"recipient_account_number": "1234567890",
			"amount":                   2_500,
			"idempotency_key":          "k1",
		})
		require.Equal(t, http.StatusCreated, rec.Code)
		body := decodeBody(t, rec)
		assert.Equal(t, "COMPLETED", body["status"])
		assert.Equal(t, float64(2_500), body["amount"])
	})

	t.Run("header key wins over body key", func(t *testing.T) {
		transfers.EXPECT().
			Execute(gomock.Any(), userID, transfer.Request{
				RecipientNumber: "1234567890", Amount: 100, IdempotencyKey: "header-key",
			}).
			Return(completed, nil)

		req := newJSONRequest(t, http.MethodPost, "/transfers", userID.String(), map[string]any{
			"recipient_account_number": "1234567890",
			"amount":                   100,
			"idempotency_key":          "body-key",
		})
		req.Header.Set(idempotencyKeyHeader, "header-key")
		rec := record(h, req)
		require.Equal(t, http.StatusCreated, rec.Code)
	})

	t.Run("domain rejections keep their status mapping", func(t *testing.T) {
		cases := []struct {
			err    error
			status int
		}{
			{dErrors.New(dErrors.CodeInsufficientFunds, "account balance is insufficient"), http.StatusUnprocessableEntity},
			{dErrors.New(dErrors.CodeComplianceDenied, "identity verification is pending review"), http.StatusForbidden},
			{dErrors.New(dErrors.CodeRecipientNotFound, "recipient account not found"), http.StatusNotFound},
			{dErrors.New(dErrors.CodeSelfTransfer, "sender and recipient are the same account"), http.StatusUnprocessableEntity},
			{dErrors.New(dErrors.CodeInconsistent, "debit applied but compensation failed"), http.StatusInternalServerError},
		}
		for _, tc := range cases {
			transfers.EXPECT().Execute(gomock.Any(), userID, gomock.Any()).Return(nil, tc.err)

			rec := doJSON(t, h, http.MethodPost, "/transfers", userID.String(), map[string]any{
				"recipient_account_number": "1234567890",
				"amount":                   100,
				"idempotency_key":          "k",
			})
			require.Equal(t, tc.status, rec.Code, "for %v", tc.err)
		}
	})

	t.Run("inconsistent errors hide the description", func(t *testing.T) {
		transfers.EXPECT().Execute(gomock.Any(), userID, gomock.Any()).
			Return(nil, dErrors.New(dErrors.CodeInconsistent, "debit applied but compensation failed"))

		rec := doJSON(t, h, http.MethodPost, "/transfers", userID.String(), map[string]any{
			"recipient_account_number": "1234567890",
			"amount":                   100,
			"idempotency_key":          "k",
		})
		body := decodeBody(t, rec)
		assert.NotContains(t, body, "error_description")
	})

	t.Run("malformed body is a bad request", func(t *testing.T) {
		req := newJSONRequest(t, http.MethodPost, "/transfers", userID.String(), nil)
		req.Body = http.NoBody
		rec := record(h, req)
		require.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestTransferHandler_List(t *testing.T) {
	ctrl := gomock.NewController(t)
	transfers := NewMockTransferService(ctrl)
	h := serve(NewTransferHandler(transfers, testLogger()).Register)
	userID := id.NewUserID()

	t.Run("passes the limit through", func(t *testing.T) {
		transfers.EXPECT().ListRecent(gomock.Any(), userID, 5).Return([]*transfer.Transfer{
			{ID: id.NewTransferID(), Status: transfer.StatusCompleted, Amount: 10},
		}, nil)

		rec := doJSON(t, h, http.MethodGet, "/transfers?limit=5", userID.String(), nil)
		require.Equal(t, http.StatusOK, rec.Code)
		list, ok := decodeBody(t, rec)["transfers"].([]any)
		require.True(t, ok)
		assert.Len(t, list, 1)
	})

	t.Run("rejects a non-numeric limit", func(t *testing.T) {
		rec := doJSON(t, h, http.MethodGet, "/transfers?limit=abc", userID.String(), nil)
		require.Equal(t, http.StatusBadRequest, rec.Code)
	})
}
