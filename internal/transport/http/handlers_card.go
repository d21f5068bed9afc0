package httptransport

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"corebank/internal/card"
	id "corebank/pkg/domain"
	dErrors "corebank/pkg/domain-errors"
	"corebank/pkg/platform/httputil"
	"corebank/pkg/requestcontext"
)

// CardService is the card lifecycle surface the handler delegates to.
type CardService interface {
	Issue(ctx context.Context, accountID id.AccountID) (*card.Card, error)
	UpdateStatus(ctx context.Context, cardID id.CardID, status card.Status) (*card.Card, error)
	ListByAccount(ctx context.Context, accountID id.AccountID) ([]*card.Card, error)
}

// CardHandler serves card issuing and lifecycle endpoints.
type CardHandler struct {
	cards  CardService
	logger *slog.Logger
}

func NewCardHandler(cards CardService, logger *slog.Logger) *CardHandler {
	return &CardHandler{cards: cards, logger: logger}
}

func (h *CardHandler) Register(r chi.Router) {
	r.Post("/cards", h.handleIssue)
	r.Get("/cards", h.handleList)
	r.Patch("/cards/{cardID}", h.handleUpdateStatus)
}

type issueCardRequest struct {
	AccountID string `json:"account_id"`
}

type updateCardRequest struct {
	Status string `json:"status"`
}

type cardResponse struct {
	ID        string    `json:"id"`
	AccountID string    `json:"account_id"`
	Status    string    `json:"status"`
	ExpiresAt time.Time `json:"expires_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func toCardResponse(c *card.Card) cardResponse {
	return cardResponse{
		ID:        c.ID.String(),
		AccountID: c.AccountID.String(),
		Status:    string(c.Status),
		ExpiresAt: c.ExpiresAt,
		UpdatedAt: c.UpdatedAt,
	}
}

func (h *CardHandler) handleIssue(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[issueCardRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}
	accountID, err := id.ParseAccountID(req.AccountID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	c, err := h.cards.Issue(ctx, accountID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, toCardResponse(c))
}

func (h *CardHandler) handleUpdateStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	cardID, err := id.ParseCardID(chi.URLParam(r, "cardID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	req, ok := httputil.DecodeAndPrepare[updateCardRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	c, err := h.cards.UpdateStatus(ctx, cardID, card.Status(req.Status))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toCardResponse(c))
}

func (h *CardHandler) handleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	raw := r.URL.Query().Get("account_id")
	if raw == "" {
		httputil.WriteError(w, dErrors.New(dErrors.CodeInvalidInput, "account_id query parameter is required"))
		return
	}
	accountID, err := id.ParseAccountID(raw)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	cards, err := h.cards.ListByAccount(ctx, accountID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	out := make([]cardResponse, 0, len(cards))
	for _, c := range cards {
		out = append(out, toCardResponse(c))
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{"cards": out})
}
