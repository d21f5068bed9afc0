package httptransport

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"corebank/internal/kyc"
	id "corebank/pkg/domain"
	"corebank/pkg/platform/httputil"
	"corebank/pkg/requestcontext"
)

// KYCService is the compliance-gate surface the handler delegates to.
type KYCService interface {
	Get(ctx context.Context, userID id.UserID) (*kyc.Verification, error)
	Submit(ctx context.Context, userID id.UserID) (*kyc.Verification, error)
	Review(ctx context.Context, verificationID id.VerificationID, status kyc.VerificationStatus) (*kyc.Verification, error)
}

// KYCHandler serves identity verification endpoints. Review is an
// administrative operation; in production it sits behind the back-office
// gateway, which this layer trusts the same way it trusts X-User-ID.
type KYCHandler struct {
	verifications KYCService
	logger        *slog.Logger
}

func NewKYCHandler(verifications KYCService, logger *slog.Logger) *KYCHandler {
	return &KYCHandler{verifications: verifications, logger: logger}
}

func (h *KYCHandler) Register(r chi.Router) {
	r.Get("/kyc", h.handleGet)
	r.Post("/kyc", h.handleSubmit)
	r.Patch("/kyc/{verificationID}", h.handleReview)
}

type reviewRequest struct {
	Status string `json:"status"`
}

type verificationResponse struct {
	ID          string     `json:"id"`
	UserID      string     `json:"user_id"`
	Status      string     `json:"status"`
	SubmittedAt time.Time  `json:"submitted_at"`
	VerifiedAt  *time.Time `json:"verified_at,omitempty"`
}

func toVerificationResponse(v *kyc.Verification) verificationResponse {
	return verificationResponse{
		ID:          v.ID.String(),
		UserID:      v.UserID.String(),
		Status:      string(v.Status),
		SubmittedAt: v.SubmittedAt,
		VerifiedAt:  v.VerifiedAt,
	}
}

func (h *KYCHandler) handleGet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	v, err := h.verifications.Get(ctx, requestcontext.UserID(ctx))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toVerificationResponse(v))
}

func (h *KYCHandler) handleSubmit(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	v, err := h.verifications.Submit(ctx, requestcontext.UserID(ctx))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, toVerificationResponse(v))
}

func (h *KYCHandler) handleReview(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	verificationID, err := id.ParseVerificationID(chi.URLParam(r, "verificationID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	req, ok := httputil.DecodeAndPrepare[reviewRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	v, err := h.verifications.Review(ctx, verificationID, kyc.VerificationStatus(req.Status))
	if err != nil {
		h.logger.WarnContext(ctx, "verification review rejected",
			"request_id", requestID, "verification_id", verificationID, "error", err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toVerificationResponse(v))
}
