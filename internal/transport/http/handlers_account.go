package httptransport

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"corebank/internal/account"
	id "corebank/pkg/domain"
	"corebank/pkg/platform/httputil"
	"corebank/pkg/requestcontext"
)

// AccountService is the account registry surface the handler delegates to.
type AccountService interface {
	Open(ctx context.Context, ownerID id.UserID) (*account.Account, error)
	FindByOwner(ctx context.Context, ownerID id.UserID) ([]*account.Account, error)
	FindByNumber(ctx context.Context, raw string) (*account.Account, error)
}

// AccountHandler serves account and recipient-lookup endpoints.
type AccountHandler struct {
	accounts AccountService
	logger   *slog.Logger
}

func NewAccountHandler(accounts AccountService, logger *slog.Logger) *AccountHandler {
	return &AccountHandler{accounts: accounts, logger: logger}
}

func (h *AccountHandler) Register(r chi.Router) {
	r.Post("/accounts", h.handleOpen)
	r.Get("/accounts", h.handleList)
	r.Get("/recipients/{accountNumber}", h.handleRecipientLookup)
}

type accountResponse struct {
	ID        string    `json:"id"`
	Number    string    `json:"account_number"`
	Balance   int64     `json:"balance"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
}

func toAccountResponse(a *account.Account) accountResponse {
	return accountResponse{
		ID:        a.ID.String(),
		Number:    a.Number.String(),
		Balance:   a.Balance,
		Status:    string(a.Status),
		CreatedAt: a.CreatedAt,
	}
}

func (h *AccountHandler) handleOpen(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	a, err := h.accounts.Open(ctx, requestcontext.UserID(ctx))
	if err != nil {
		h.logger.ErrorContext(ctx, "open account failed",
			"request_id", requestcontext.RequestID(ctx), "error", err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, toAccountResponse(a))
}

func (h *AccountHandler) handleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	accounts, err := h.accounts.FindByOwner(ctx, requestcontext.UserID(ctx))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	out := make([]accountResponse, 0, len(accounts))
	for _, a := range accounts {
		out = append(out, toAccountResponse(a))
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{"accounts": out})
}

// recipientResponse is deliberately narrow: looking up a recipient must never
// reveal balance or owner.
type recipientResponse struct {
	Number string `json:"account_number"`
	Status string `json:"status"`
}

func (h *AccountHandler) handleRecipientLookup(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	a, err := h.accounts.FindByNumber(ctx, chi.URLParam(r, "accountNumber"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	summary := a.Summarize()
	httputil.WriteJSON(w, http.StatusOK, recipientResponse{
		Number: summary.Number.String(),
		Status: string(summary.Status),
	})
}
