// Package httptransport is the thin HTTP layer over the record core. It
// delegates to the services without embedding business logic; role gating
// beyond the projection contract (admin-only endpoints) lives here.
package httptransport

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"medvault/internal/anonymize"
	"medvault/internal/auth"
	"medvault/internal/records"
	"medvault/internal/retention"
)

// Handler bundles the services behind the public API surface.
type Handler struct {
	log        *slog.Logger
	auth       *auth.Service
	records    *records.Service
	anonymizer *anonymize.Service
	retention  *retention.Service
	tokens     *TokenIssuer
}

func NewHandler(
	log *slog.Logger,
	authSvc *auth.Service,
	recordsSvc *records.Service,
	anonymizer *anonymize.Service,
	retentionSvc *retention.Service,
	tokens *TokenIssuer,
) *Handler {
	return &Handler{
		log:        log,
		auth:       authSvc,
		records:    recordsSvc,
		anonymizer: anonymizer,
		retention:  retentionSvc,
		tokens:     tokens,
	}
}

// NewRouter wires the public endpoints.
func NewRouter(h *Handler) http.Handler {
	r := chi.NewRouter()
	r.Use(RequestID)
	r.Use(RequestTime)
	r.Use(Logger(h.log))

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/login", h.handleLogin)

		r.Group(func(r chi.Router) {
			r.Use(RequireAuth(h.tokens, h.log))

			r.Get("/patients", h.handleGetPatients)
			r.Post("/patients", h.handleAddPatient)
			r.Patch("/patients/{anonymizedName}", h.handleUpdatePatient)

			r.Group(func(r chi.Router) {
				r.Use(RequireAdmin)
				r.Post("/anonymize", h.handleAnonymize)
				r.Get("/logs", h.handleGetLogs)
				r.Delete("/data", h.handlePurge)
			})
		})
	})

	return r
}
