package httptransport

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"corebank/internal/beneficiary"
	id "corebank/pkg/domain"
	"corebank/pkg/platform/httputil"
	"corebank/pkg/requestcontext"
)

// BeneficiaryService is the saved-recipient surface the handler delegates to.
type BeneficiaryService interface {
	Add(ctx context.Context, ownerID id.UserID, rawNumber, alias string) (*beneficiary.Beneficiary, error)
	ListByOwner(ctx context.Context, ownerID id.UserID) ([]*beneficiary.Beneficiary, error)
	Remove(ctx context.Context, ownerID id.UserID, beneficiaryID id.BeneficiaryID) error
}

// BeneficiaryHandler serves saved-recipient endpoints.
type BeneficiaryHandler struct {
	beneficiaries BeneficiaryService
	logger        *slog.Logger
}

func NewBeneficiaryHandler(beneficiaries BeneficiaryService, logger *slog.Logger) *BeneficiaryHandler {
	return &BeneficiaryHandler{beneficiaries: beneficiaries, logger: logger}
}

func (h *BeneficiaryHandler) Register(r chi.Router) {
	r.Post("/beneficiaries", h.handleAdd)
	r.Get("/beneficiaries", h.handleList)
	r.Delete("/beneficiaries/{beneficiaryID}", h.handleRemove)
}

type addBeneficiaryRequest struct {
	AccountNumber string `json:"account_number"`
	Alias         string `json:"alias"`
}

type beneficiaryResponse struct {
	ID            string    `json:"id"`
	AccountNumber string    `json:"account_number"`
	Alias         string    `json:"alias"`
	CreatedAt     time.Time `json:"created_at"`
}

func toBeneficiaryResponse(b *beneficiary.Beneficiary) beneficiaryResponse {
	return beneficiaryResponse{
		ID:            b.ID.String(),
		AccountNumber: b.AccountNumber.String(),
		Alias:         b.Alias,
		CreatedAt:     b.CreatedAt,
	}
}

func (h *BeneficiaryHandler) handleAdd(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[addBeneficiaryRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}
	b, err := h.beneficiaries.Add(ctx, requestcontext.UserID(ctx), req.AccountNumber, req.Alias)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, toBeneficiaryResponse(b))
}

func (h *BeneficiaryHandler) handleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	beneficiaries, err := h.beneficiaries.ListByOwner(ctx, requestcontext.UserID(ctx))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	out := make([]beneficiaryResponse, 0, len(beneficiaries))
	for _, b := range beneficiaries {
		out = append(out, toBeneficiaryResponse(b))
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{"beneficiaries": out})
}

func (h *BeneficiaryHandler) handleRemove(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	beneficiaryID, err := id.ParseBeneficiaryID(chi.URLParam(r, "beneficiaryID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	if err := h.beneficiaries.Remove(ctx, requestcontext.UserID(ctx), beneficiaryID); err != nil {
		httputil.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
