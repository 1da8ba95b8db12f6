package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/signon-id/apiserver/internal/events"
	"github.com/signon-id/apiserver/internal/services"
	"github.com/signon-id/apiserver/internal/token"
	"github.com/signon-id/apiserver/types"
)

// AuthHandler provides registration, login and token-based lookup.
type AuthHandler struct {
	identity  *services.IdentityService
	tokens    *token.Service
	publisher *events.Publisher
	logger    *slog.Logger
}

// NewAuthHandler constructs an AuthHandler with the provided dependencies.
func NewAuthHandler(identity *services.IdentityService, tokens *token.Service, publisher *events.Publisher, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{
		identity:  identity,
		tokens:    tokens,
		publisher: publisher,
		logger:    logger,
	}
}

// AuthRouter registers auth routes on the given router.
func AuthRouter(r chi.Router, handler *AuthHandler) {
	r.Post("/register", handler.Register)
	r.Post("/login", handler.Login)
	r.With(handler.RequireAuth).Get("/me", handler.Me)
}

// RequireAuth enforces bearer-token authentication and injects the
// token's user id into the request context.
func (h *AuthHandler) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tokenString, err := bearerToken(r)
		if err != nil {
			writeError(w, http.StatusUnauthorized, "unauthorized")
			return
		}

		claims, err := h.tokens.Verify(tokenString)
		if err != nil {
			writeError(w, http.StatusUnauthorized, "unauthorized")
			return
		}

		ctx := context.WithValue(r.Context(), contextClaimsKey, claims.UserID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// Register creates a new account and returns a signed token.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}

	identity, err := h.identity.Register(r.Context(), req.Username, req.Password)
	if err != nil {
		var validationErr *services.ValidationError
		switch {
		case errors.As(err, &validationErr):
			writeError(w, http.StatusBadRequest, validationErr.Error())
		case errors.Is(err, services.ErrUsernameTaken):
			writeError(w, http.StatusConflict, "username already exists")
		default:
			h.logger.Error("register failed", "error", err)
			writeError(w, http.StatusInternalServerError, "failed to create account")
		}
		return
	}

	signed, err := h.tokens.Issue(identity.ID, identity.Username)
	if err != nil {
		h.logger.Error("token issue failed", "user_id", identity.ID, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to create token")
		return
	}

	h.publishAccountCreated(r.Context(), identity)

	writeJSON(w, http.StatusCreated, AuthResponse{Token: signed, User: identity})
}

// Login verifies credentials and returns a signed token. Unknown users
// and wrong passwords render identically to avoid username enumeration.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}

	identity, err := h.identity.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrMissingCredentials):
			writeError(w, http.StatusBadRequest, "missing credentials")
		case errors.Is(err, services.ErrUserNotFound), errors.Is(err, services.ErrInvalidPassword):
			writeError(w, http.StatusUnauthorized, "invalid credentials")
		default:
			h.logger.Error("login failed", "error", err)
			writeError(w, http.StatusInternalServerError, "failed to authenticate")
		}
		return
	}

	signed, err := h.tokens.Issue(identity.ID, identity.Username)
	if err != nil {
		h.logger.Error("token issue failed", "user_id", identity.ID, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to create token")
		return
	}

	writeJSON(w, http.StatusOK, AuthResponse{Token: signed, User: identity})
}

// Me returns the identity behind the presented token, re-checking that
// the account still exists.
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	userID, ok := claimsFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	identity, err := h.identity.GetByID(r.Context(), userID)
	if err != nil {
		if services.IsDomainError(err) {
			writeError(w, http.StatusUnauthorized, "unauthorized")
			return
		}
		h.logger.Error("account lookup failed", "user_id", userID, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to load account")
		return
	}

	writeJSON(w, http.StatusOK, identity)
}

func (h *AuthHandler) publishAccountCreated(ctx context.Context, identity types.PublicIdentity) {
	if h.publisher == nil {
		return
	}
	_, err := h.publisher.AccountCreated(ctx, events.AccountCreated{
		ID:        identity.ID,
		Username:  identity.Username,
		CreatedAt: identity.CreatedAt,
	})
	if err != nil {
		// Best-effort: a broker outage must not fail the registration.
		h.logger.Warn("account event publish failed", "user_id", identity.ID, "error", err)
	}
}

type RegisterRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type AuthResponse struct {
	Token string               `json:"token"`
	User  types.PublicIdentity `json:"user"`
}
