package handler

import (
	"net/http"
	"time"

	"coffee-on/internal/middleware"
	"coffee-on/internal/model"
	"coffee-on/internal/service"

	"github.com/rs/zerolog"
)

// CookieConfig describes the session cookie.
type CookieConfig struct {
	Name   string
	TTL    time.Duration
	Secure bool
}

// AuthHandler handles login, logout and session introspection.
type AuthHandler struct {
	accounts service.AccountService
	cookie   CookieConfig
	logger   zerolog.Logger
}

// NewAuthHandler creates a new auth handler.
func NewAuthHandler(accounts service.AccountService, cookie CookieConfig, logger zerolog.Logger) *AuthHandler {
	return &AuthHandler{
		accounts: accounts,
		cookie:   cookie,
		logger:   logger.With().Str("handler", "auth").Logger(),
	}
}

// Login handles POST /api/login.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req model.LoginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, err, "", h.logger)
		return
	}

	token, err := h.accounts.Login(r.Context(), req)
	if err != nil {
		writeError(w, err, "Erro ao efetuar login", h.logger)
		return
	}

	http.SetCookie(w, h.sessionCookie(token, int(h.cookie.TTL.Seconds())))
	w.WriteHeader(http.StatusNoContent)
}

// Logout handles POST /api/logout.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if cookie, err := r.Cookie(h.cookie.Name); err == nil {
		if err := h.accounts.Logout(r.Context(), cookie.Value); err != nil {
			writeError(w, err, "Erro ao encerrar sessão", h.logger)
			return
		}
	}

	http.SetCookie(w, h.sessionCookie("", -1))
	w.WriteHeader(http.StatusNoContent)
}

// Me handles GET /api/me.
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	actor := middleware.ActorFrom(r.Context())
	if actor == nil {
		writeError(w, model.ErrUnauthenticated, "", h.logger)
		return
	}

	writeJSON(w, http.StatusOK, model.MeResponse{
		ID:      actor.UserID,
		Email:   actor.Email,
		IsAdmin: actor.IsAdmin(),
	})
}

func (h *AuthHandler) sessionCookie(value string, maxAge int) *http.Cookie {
	return &http.Cookie{
		Name:     h.cookie.Name,
		Value:    value,
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   h.cookie.Secure,
		SameSite: http.SameSiteLaxMode,
	}
}
