package httptransport

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"corebank/internal/transfer"
	id "corebank/pkg/domain"
	dErrors "corebank/pkg/domain-errors"
	"corebank/pkg/platform/httputil"
	"corebank/pkg/requestcontext"
)

// idempotencyKeyHeader is the preferred way for clients to pass the key; a
// body field is accepted as a fallback.
const idempotencyKeyHeader = "Idempotency-Key"

// TransferService is the engine surface the handler delegates to.
type TransferService interface {
	Execute(ctx context.Context, userID id.UserID, req transfer.Request) (*transfer.Transfer, error)
	ListRecent(ctx context.Context, userID id.UserID, limit int) ([]*transfer.Transfer, error)
}

// TransferHandler serves transfer execution and history.
type TransferHandler struct {
	transfers TransferService
	logger    *slog.Logger
}

func NewTransferHandler(transfers TransferService, logger *slog.Logger) *TransferHandler {
	return &TransferHandler{transfers: transfers, logger: logger}
}

func (h *TransferHandler) Register(r chi.Router) {
	r.Post("/transfers", h.handleExecute)
	r.Get("/transfers", h.handleList)
}

type executeTransferRequest struct {
	RecipientNumber string `json:"recipient_account_number"`
	Amount          int64  `json:"amount"`
	IdempotencyKey  string `json:"idempotency_key,omitempty"`
}

type transferResponse struct {
	ID                 string    `json:"id"`
	SenderAccountID    string    `json:"sender_account_id"`
	RecipientAccountID string    `json:"recipient_account_id"`
	Amount             int64     `json:"amount"`
	Status             string    `json:"status"`
	FailureReason      string    `json:"failure_reason,omitempty"`
	CreatedAt          time.Time `json:"created_at"`
}

func toTransferResponse(t *transfer.Transfer) transferResponse {
	return transferResponse{
		ID:                 t.ID.String(),
		SenderAccountID:    t.SenderAccountID.String(),
		RecipientAccountID: t.RecipientAccountID.String(),
		Amount:             t.Amount,
		Status:             string(t.Status),
		FailureReason:      t.FailureReason,
		CreatedAt:          t.CreatedAt,
	}
}

func (h *TransferHandler) handleExecute(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[executeTransferRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}
	key := r.Header.Get(idempotencyKeyHeader)
	if key == "" {
		key = req.IdempotencyKey
	}

	t, err := h.transfers.Execute(ctx, requestcontext.UserID(ctx), transfer.Request{
		RecipientNumber: req.RecipientNumber,
		Amount:          req.Amount,
		IdempotencyKey:  key,
	})
	if err != nil {
		h.logger.WarnContext(ctx, "transfer rejected",
			"request_id", requestID, "error", err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, toTransferResponse(t))
}

func (h *TransferHandler) handleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			httputil.WriteError(w, dErrors.New(dErrors.CodeInvalidInput, "limit must be a non-negative integer"))
			return
		}
		limit = parsed
	}

	transfers, err := h.transfers.ListRecent(ctx, requestcontext.UserID(ctx), limit)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	out := make([]transferResponse, 0, len(transfers))
	for _, t := range transfers {
		out = append(out, toTransferResponse(t))
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{"transfers": out})
}
