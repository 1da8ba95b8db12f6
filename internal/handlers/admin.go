package handlers

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/signon-id/apiserver/internal/services"
)

// AdminHandler exposes the development-only account surface: listing,
// counting and bulk-clearing. It is mounted only when ADMIN_ENABLED is
// set and must be gated externally in anything resembling production.
type AdminHandler struct {
	identity *services.IdentityService
	logger   *slog.Logger
}

func NewAdminHandler(identity *services.IdentityService, logger *slog.Logger) *AdminHandler {
	return &AdminHandler{identity: identity, logger: logger}
}

// AdminRouter registers the admin routes on the given router.
func AdminRouter(r chi.Router, handler *AdminHandler) {
	r.Get("/users", handler.ListUsers)
	r.Get("/users/count", handler.CountUsers)
	r.Delete("/users", handler.ClearUsers)
}

// ListUsers returns every account as a public projection, newest first.
func (h *AdminHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	identities, err := h.identity.ListAll(r.Context())
	if err != nil {
		h.logger.Error("account list failed", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list accounts")
		return
	}
	writeJSON(w, http.StatusOK, identities)
}

// CountUsers returns the number of accounts.
func (h *AdminHandler) CountUsers(w http.ResponseWriter, r *http.Request) {
	count, err := h.identity.Count(r.Context())
	if err != nil {
		h.logger.Error("account count failed", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to count accounts")
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"count": count})
}

// ClearUsers deletes every account.
func (h *AdminHandler) ClearUsers(w http.ResponseWriter, r *http.Request) {
	if err := h.identity.ClearAll(r.Context()); err != nil {
		h.logger.Error("account clear failed", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to clear accounts")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
