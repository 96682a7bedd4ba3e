package httptransport

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"medvault/internal/records"
	"medvault/internal/retention"
	"medvault/pkg/requestcontext"
)

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginResponse struct {
	UserID int64  `json:"user_id"`
	Role   string `json:"role"`
	Token  string `json:"token"`
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	identity, err := h.auth.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	if identity == nil {
		writeError(w, http.StatusUnauthorized, "invalid credentials")
		return
	}

	token, err := h.tokens.Issue(identity.UserID, identity.Role, requestcontext.Now(r.Context()))
	if err != nil {
		h.log.ErrorContext(r.Context(), "mint session token", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	writeJSON(w, http.StatusOK, loginResponse{
		UserID: identity.UserID,
		Role:   identity.Role.String(),
		Token:  token,
	})
}

func (h *Handler) handleGetPatients(w http.ResponseWriter, r *http.Request) {
	actor, _ := requestcontext.ActorFrom(r.Context())

	views, err := h.records.GetPatients(r.Context(), actor.Role)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"patients": views})
}

type addPatientRequest struct {
	Name      string `json:"name"`
	Contact   string `json:"contact"`
	Diagnosis string `json:"diagnosis"`
}

func (h *Handler) handleAddPatient(w http.ResponseWriter, r *http.Request) {
	actor, _ := requestcontext.ActorFrom(r.Context())

	var req addPatientRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	ok, err := h.records.AddPatient(r.Context(), actor, records.NewPatient{
		Name:      req.Name,
		Contact:   req.Contact,
		Diagnosis: req.Diagnosis,
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"ok": ok})
}

type updatePatientRequest struct {
	Name      string `json:"name"`
	Contact   string `json:"contact"`
	Diagnosis string `json:"diagnosis"`
}

func (h *Handler) handleUpdatePatient(w http.ResponseWriter, r *http.Request) {
	actor, _ := requestcontext.ActorFrom(r.Context())
	anonymizedName := chi.URLParam(r, "anonymizedName")

	var req updatePatientRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	ok, err := h.records.UpdatePatient(r.Context(), actor, anonymizedName, records.PatientUpdate{
		Name:      req.Name,
		Contact:   req.Contact,
		Diagnosis: req.Diagnosis,
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"ok": ok})
}

func (h *Handler) handleAnonymize(w http.ResponseWriter, r *http.Request) {
	actor, _ := requestcontext.ActorFrom(r.Context())

	ok, err := h.anonymizer.Run(r.Context(), actor.UserID)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"ok": ok})
}

type logEntryResponse struct {
	LogID     int64     `json:"log_id"`
	UserID    *int64    `json:"user_id"`
	Role      string    `json:"role"`
	Action    string    `json:"action"`
	Details   *string   `json:"details"`
	Timestamp time.Time `json:"timestamp"`
}

func (h *Handler) handleGetLogs(w http.ResponseWriter, r *http.Request) {
	entries, err := h.records.GetLogs(r.Context())
	if err != nil {
		writeDomainError(w, err)
		return
	}

	payload := make([]logEntryResponse, 0, len(entries))
	for _, e := range entries {
		payload = append(payload, logEntryResponse{
			LogID:     e.ID,
			UserID:    e.UserID,
			Role:      e.Role,
			Action:    e.Action.String(),
			Details:   e.Details,
			Timestamp: e.Timestamp,
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{"logs": payload})
}

func (h *Handler) handlePurge(w http.ResponseWriter, r *http.Request) {
	days := retention.DefaultRetentionDays
	if raw := r.URL.Query().Get("days"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			writeError(w, http.StatusBadRequest, "days must be a non-negative integer")
			return
		}
		days = parsed
	}

	deleted := h.retention.PurgeOlderThan(r.Context(), days)
	if deleted == retention.FailureSentinel {
		writeError(w, http.StatusInternalServerError, "purge failed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"deleted": deleted})
}
