// Package httptransport is the thin HTTP layer: it decodes requests,
// delegates to domain services, and translates coded errors. No business
// logic lives here.
package httptransport

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"corebank/pkg/platform/httputil"
)

// Handlers groups the feature handlers the router mounts.
type Handlers struct {
	Accounts      *AccountHandler
	Transfers     *TransferHandler
	Cards         *CardHandler
	Beneficiaries *BeneficiaryHandler
	KYC           *KYCHandler
}

// NewRouter wires middleware and routes. Operational endpoints skip the
// identity requirement; everything else runs behind it.
func NewRouter(h Handlers, gatherer prometheus.Gatherer, logger *slog.Logger) http.Handler {
	r := chi.NewRouter()
	r.Use(Recovery(logger))
	r.Use(RequestID)
	r.Use(Logger(logger))

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		httputil.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))

	r.Group(func(r chi.Router) {
		r.Use(Identity)
		h.Accounts.Register(r)
		h.Transfers.Register(r)
		h.Cards.Register(r)
		h.Beneficiaries.Register(r)
		h.KYC.Register(r)
	})
	return r
}
